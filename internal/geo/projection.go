package geo

// Projection converts between NAD83 and chart (projected, meters)
// coordinates for one projection definition.
//
// A Projection is immutable after construction and safe for concurrent use.
// The feature worker builds one from the open chart's definition string to
// project the airport table into the chart's frame.
type Projection struct {
	lcc *lambertConic
}

// NewProjection validates a PROJ-style definition string and constructs the
// projection. The definition must describe a Lambert conformal conic
// projection on NAD83 in meters; anything else fails with
// ErrInvalidSpatialReference.
func NewProjection(def string) (*Projection, error) {
	lcc, err := newLambertConic(def)
	if err != nil {
		return nil, err
	}
	return &Projection{lcc: lcc}, nil
}

// Forward converts a NAD83 coordinate (X = lon, Y = lat, degrees) to a
// chart coordinate in meters.
func (p *Projection) Forward(c Coord) (Coord, error) {
	return p.lcc.Forward(c)
}

// Inverse converts a chart coordinate in meters to a NAD83 coordinate.
func (p *Projection) Inverse(c Coord) (Coord, error) {
	return p.lcc.Inverse(c)
}
