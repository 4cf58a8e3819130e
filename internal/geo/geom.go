// Package geo provides the coordinate pipeline for raster VFR charts:
// geometry value types, the affine pixel transform, a Lambert conformal
// conic projection on the GRS80 ellipsoid, and the Transform type tying
// them together.
package geo

// Coord is a 2D coordinate.
//
// The same type carries chart coordinates (projected, meters) and NAD83
// coordinates (X = longitude, Y = latitude, decimal degrees); the owner of
// a value knows which frame it is in.
type Coord struct {
	X float64
	Y float64
}

// Pos is an integer pixel position.
type Pos struct {
	X int
	Y int
}

// Size is an integer pixel size.
type Size struct {
	W int
	H int
}

// Valid returns true if both dimensions are positive.
func (s Size) Valid() bool {
	return s.W > 0 && s.H > 0
}

// Contains returns true if the coordinate is inside a rectangle of this
// size anchored at the origin.
func (s Size) Contains(c Coord) bool {
	return c.X >= 0 && c.X < float64(s.W) && c.Y >= 0 && c.Y < float64(s.H)
}

// Rect is an integer pixel rectangle.
type Rect struct {
	Pos  Pos
	Size Size
}

// Scaled returns the rectangle with position and size scaled by f.
func (r Rect) Scaled(f float64) Rect {
	return Rect{
		Pos: Pos{
			X: int(f * float64(r.Pos.X)),
			Y: int(f * float64(r.Pos.Y)),
		},
		Size: Size{
			W: int(f * float64(r.Size.W)),
			H: int(f * float64(r.Size.H)),
		},
	}
}

// Bounds represents a geographic bounding box in NAD83 coordinates.
//
// Coordinates are in decimal degrees.
type Bounds struct {
	MinLon float64 // Western edge
	MaxLon float64 // Eastern edge
	MinLat float64 // Southern edge
	MaxLat float64 // Northern edge
}

// Contains returns true if the point (lon, lat) is within the bounds.
func (b Bounds) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon &&
		lat >= b.MinLat && lat <= b.MaxLat
}

// Intersects returns true if the given bounds intersects with this bounds.
func (b Bounds) Intersects(other Bounds) bool {
	return !(other.MaxLon < b.MinLon ||
		other.MinLon > b.MaxLon ||
		other.MaxLat < b.MinLat ||
		other.MinLat > b.MaxLat)
}

// Expand returns a new Bounds expanded by the given margin in all directions.
//
// Margin is in decimal degrees.
func (b Bounds) Expand(margin float64) Bounds {
	return Bounds{
		MinLon: b.MinLon - margin,
		MaxLon: b.MaxLon + margin,
		MinLat: b.MinLat - margin,
		MaxLat: b.MaxLat + margin,
	}
}

// IsZero returns true if the bounds is the zero value.
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}
