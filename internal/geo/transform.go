package geo

import (
	"math"
)

// GeoTransform is a 6-parameter affine transform between pixel space and
// projected space, in the usual raster order:
//
//	X = gt[0] + px*gt[1] + py*gt[2]
//	Y = gt[3] + px*gt[4] + py*gt[5]
type GeoTransform [6]float64

// Apply applies the affine transform to (x, y).
func (gt GeoTransform) Apply(x, y float64) Coord {
	return Coord{
		X: gt[0] + x*gt[1] + y*gt[2],
		Y: gt[3] + x*gt[4] + y*gt[5],
	}
}

// Invert returns the inverse affine transform.
func (gt GeoTransform) Invert() (GeoTransform, error) {
	det := gt[1]*gt[5] - gt[2]*gt[4]
	if det == 0 || math.IsNaN(det) {
		return GeoTransform{}, &ErrSingularTransform{Transform: gt}
	}
	inv := 1 / det
	return GeoTransform{
		(gt[2]*gt[3] - gt[0]*gt[5]) * inv,
		gt[5] * inv,
		-gt[2] * inv,
		(gt[0]*gt[4] - gt[1]*gt[3]) * inv,
		-gt[4] * inv,
		gt[1] * inv,
	}, nil
}

// Transform converts between pixel, chart (LCC, meters) and NAD83
// coordinates for one opened chart.
//
// A Transform is immutable after construction and safe for concurrent use;
// it is shared read-only between the viewport controller and the background
// workers.
type Transform struct {
	pxSize  Size
	projDef string
	fromPx  GeoTransform
	toPx    GeoTransform
	proj    *lambertConic
	bounds  Bounds
}

// NewTransform builds a Transform from the chart's pixel size, its
// projection definition (PROJ-style string) and the affine pixel-to-chart
// transform supplied by the raster backend.
//
// Construction fails with ErrInvalidPixelSize if either dimension is not
// positive, and with ErrInvalidSpatialReference unless the projection is a
// Lambert conformal conic on NAD83 in meters.
func NewTransform(pxSize Size, projDef string, fromPx GeoTransform) (*Transform, error) {
	if !pxSize.Valid() {
		return nil, &ErrInvalidPixelSize{Size: pxSize}
	}

	proj, err := newLambertConic(projDef)
	if err != nil {
		return nil, err
	}

	toPx, err := fromPx.Invert()
	if err != nil {
		return nil, err
	}

	t := &Transform{
		pxSize:  pxSize,
		projDef: projDef,
		fromPx:  fromPx,
		toPx:    toPx,
		proj:    proj,
	}
	t.bounds = t.cornerBounds()
	return t, nil
}

// PxSize returns the full size of the chart in pixels.
func (t *Transform) PxSize() Size {
	return t.pxSize
}

// ProjDef returns the chart's projection definition string.
func (t *Transform) ProjDef() string {
	return t.projDef
}

// Bounds returns the geodetic bounding box of the chart, computed from its
// corners. The zero value is returned if a corner failed to convert.
func (t *Transform) Bounds() Bounds {
	return t.bounds
}

// PxToChart converts a pixel coordinate to a chart coordinate.
func (t *Transform) PxToChart(c Coord) Coord {
	return t.fromPx.Apply(c.X, c.Y)
}

// ChartToPx converts a chart coordinate to a pixel coordinate.
func (t *Transform) ChartToPx(c Coord) Coord {
	return t.toPx.Apply(c.X, c.Y)
}

// ChartToNAD83 converts a chart coordinate to a NAD83 coordinate.
func (t *Transform) ChartToNAD83(c Coord) (Coord, error) {
	return t.proj.Inverse(c)
}

// NAD83ToChart converts a NAD83 coordinate to a chart coordinate.
func (t *Transform) NAD83ToChart(c Coord) (Coord, error) {
	return t.proj.Forward(c)
}

// PxToNAD83 converts a pixel coordinate to a NAD83 coordinate.
func (t *Transform) PxToNAD83(c Coord) (Coord, error) {
	return t.ChartToNAD83(t.PxToChart(c))
}

// NAD83ToPx converts a NAD83 coordinate to a pixel coordinate.
func (t *Transform) NAD83ToPx(c Coord) (Coord, error) {
	chart, err := t.NAD83ToChart(c)
	if err != nil {
		return Coord{}, err
	}
	return t.ChartToPx(chart), nil
}

// PxToDist converts a pixel distance to a ground distance in meters, using
// the affine transform's Y scale term.
func (t *Transform) PxToDist(px float64) float64 {
	return px * math.Abs(t.fromPx[5])
}

// cornerBounds converts the four chart corners to NAD83 and returns their
// bounding box.
func (t *Transform) cornerBounds() Bounds {
	w := float64(t.pxSize.W)
	h := float64(t.pxSize.H)
	corners := [4]Coord{{0, 0}, {w, 0}, {0, h}, {w, h}}

	var b Bounds
	for i, px := range corners {
		c, err := t.PxToNAD83(px)
		if err != nil {
			return Bounds{}
		}
		if i == 0 {
			b = Bounds{MinLon: c.X, MaxLon: c.X, MinLat: c.Y, MaxLat: c.Y}
			continue
		}
		b.MinLon = math.Min(b.MinLon, c.X)
		b.MaxLon = math.Max(b.MaxLon, c.X)
		b.MinLat = math.Min(b.MinLat, c.Y)
		b.MaxLat = math.Max(b.MaxLat, c.Y)
	}
	return b
}
