package geo

import (
	"math"
	"strconv"
	"strings"
)

// GRS80 ellipsoid, the reference ellipsoid of the NAD83 datum.
const (
	grs80SemiMajor  = 6378137.0
	grs80Flattening = 1.0 / 298.257222101
)

// lambertConic is a Lambert conformal conic projection (one or two standard
// parallels) on the GRS80 ellipsoid.
//
// Forward maps NAD83 (lon, lat) to projected (x, y) in meters; Inverse maps
// back. Equations follow Snyder, Map Projections: A Working Manual, §15.
type lambertConic struct {
	lon0 float64 // central meridian, radians
	n    float64 // cone constant
	f    float64 // scaled radius factor
	rho0 float64 // radius at the latitude of origin
	e    float64 // ellipsoid eccentricity
	x0   float64 // false easting, meters
	y0   float64 // false northing, meters
}

// projParams holds the parameters parsed from a PROJ-style definition.
type projParams struct {
	proj  string
	datum string
	units string
	lat0  float64
	lat1  float64
	lat2  float64
	lon0  float64
	x0    float64
	y0    float64
	has1  bool
	has2  bool
}

// parseProj parses a PROJ-style definition string such as
//
//	+proj=lcc +lat_1=38.66 +lat_2=33.33 +lat_0=34.16 +lon_0=-90.33
//	+x_0=0 +y_0=0 +datum=NAD83 +units=m +no_defs
//
// Unknown keys are ignored.
func parseProj(def string) projParams {
	var p projParams
	for _, field := range strings.Fields(def) {
		field = strings.TrimPrefix(field, "+")
		key, val, _ := strings.Cut(field, "=")
		switch strings.ToLower(key) {
		case "proj":
			p.proj = strings.ToLower(val)
		case "datum":
			p.datum = strings.ToLower(val)
		case "units":
			p.units = strings.ToLower(val)
		case "lat_0":
			p.lat0, _ = strconv.ParseFloat(val, 64)
		case "lat_1":
			p.lat1, _ = strconv.ParseFloat(val, 64)
			p.has1 = true
		case "lat_2":
			p.lat2, _ = strconv.ParseFloat(val, 64)
			p.has2 = true
		case "lon_0":
			p.lon0, _ = strconv.ParseFloat(val, 64)
		case "x_0":
			p.x0, _ = strconv.ParseFloat(val, 64)
		case "y_0":
			p.y0, _ = strconv.ParseFloat(val, 64)
		}
	}
	return p
}

// newLambertConic validates the projection definition and constructs the
// projection. FAA charts use LCC on NAD83 in meters; anything else is
// rejected with ErrInvalidSpatialReference.
func newLambertConic(def string) (*lambertConic, error) {
	p := parseProj(def)

	if p.proj != "lcc" {
		return nil, &ErrInvalidSpatialReference{Reason: "projection must be lcc, got " + orNone(p.proj)}
	}
	if p.datum != "nad83" {
		return nil, &ErrInvalidSpatialReference{Reason: "datum must be NAD83, got " + orNone(p.datum)}
	}
	if p.units != "m" {
		return nil, &ErrInvalidSpatialReference{Reason: "units must be meters, got " + orNone(p.units)}
	}

	lat1 := p.lat1
	if !p.has1 {
		// Single standard parallel at the latitude of origin.
		lat1 = p.lat0
	}
	lat2 := p.lat2
	if !p.has2 {
		lat2 = lat1
	}
	if math.Abs(lat1) >= 90 || math.Abs(lat2) >= 90 || math.Abs(p.lat0) >= 90 {
		return nil, &ErrInvalidSpatialReference{Reason: "standard parallels must be inside (-90, 90)"}
	}
	if lat1+lat2 == 0 {
		return nil, &ErrInvalidSpatialReference{Reason: "standard parallels must not be symmetric about the equator"}
	}

	e2 := grs80Flattening * (2 - grs80Flattening)
	e := math.Sqrt(e2)

	phi0 := rad(p.lat0)
	phi1 := rad(lat1)
	phi2 := rad(lat2)

	m1 := lccM(phi1, e)
	t0 := lccT(phi0, e)
	t1 := lccT(phi1, e)

	var n float64
	if phi1 == phi2 {
		n = math.Sin(phi1)
	} else {
		m2 := lccM(phi2, e)
		t2 := lccT(phi2, e)
		n = (math.Log(m1) - math.Log(m2)) / (math.Log(t1) - math.Log(t2))
	}

	f := m1 / (n * math.Pow(t1, n))

	return &lambertConic{
		lon0: rad(p.lon0),
		n:    n,
		f:    f,
		rho0: grs80SemiMajor * f * math.Pow(t0, n),
		e:    e,
		x0:   p.x0,
		y0:   p.y0,
	}, nil
}

// Forward converts a NAD83 coordinate (X = lon, Y = lat, degrees) to a
// projected coordinate in meters.
func (l *lambertConic) Forward(c Coord) (Coord, error) {
	if math.Abs(c.Y) > 90 || math.Abs(c.X) > 360 || math.IsNaN(c.X) || math.IsNaN(c.Y) {
		return Coord{}, &ErrProjection{Coord: c, Reason: "coordinate outside geodetic domain"}
	}

	phi := rad(c.Y)

	// The pole opposite the cone apex projects to infinity.
	var rho float64
	if math.Abs(math.Abs(phi)-math.Pi/2) < 1e-10 {
		if phi*l.n <= 0 {
			return Coord{}, &ErrProjection{Coord: c, Reason: "latitude outside projection domain"}
		}
	} else {
		rho = grs80SemiMajor * l.f * math.Pow(lccT(phi, l.e), l.n)
	}

	theta := l.n * (rad(c.X) - l.lon0)
	return Coord{
		X: l.x0 + rho*math.Sin(theta),
		Y: l.y0 + l.rho0 - rho*math.Cos(theta),
	}, nil
}

// Inverse converts a projected coordinate in meters to a NAD83 coordinate
// (X = lon, Y = lat, degrees).
func (l *lambertConic) Inverse(c Coord) (Coord, error) {
	if math.IsNaN(c.X) || math.IsNaN(c.Y) {
		return Coord{}, &ErrProjection{Coord: c, Reason: "coordinate is not a number"}
	}

	x := c.X - l.x0
	y := l.rho0 - (c.Y - l.y0)

	rho := math.Hypot(x, y)
	if l.n < 0 {
		rho = -rho
		x = -x
		y = -y
	}
	if rho == 0 {
		// The cone apex maps to the pole.
		lat := 90.0
		if l.n < 0 {
			lat = -90.0
		}
		return Coord{X: deg(l.lon0), Y: lat}, nil
	}

	t := math.Pow(rho/(grs80SemiMajor*l.f), 1/l.n)
	theta := math.Atan2(x, y)

	// Iterate the latitude; converges in a handful of rounds.
	phi := math.Pi/2 - 2*math.Atan(t)
	for i := 0; i < 15; i++ {
		es := l.e * math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-es)/(1+es), l.e/2))
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}

	lon := deg(theta/l.n + l.lon0)
	if lon < -180 || lon > 180 {
		return Coord{}, &ErrProjection{Coord: c, Reason: "coordinate outside projection domain"}
	}
	return Coord{X: lon, Y: deg(phi)}, nil
}

// lccM computes m = cos(phi) / sqrt(1 - e^2 sin^2(phi)).
func lccM(phi, e float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-e*e*s*s)
}

// lccT computes t = tan(pi/4 - phi/2) / ((1 - e sin(phi)) / (1 + e sin(phi)))^(e/2).
func lccT(phi, e float64) float64 {
	es := e * math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-es)/(1+es), e/2)
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
