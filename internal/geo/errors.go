package geo

import (
	"fmt"
)

// ErrInvalidPixelSize indicates a chart pixel size that is not positive in
// both dimensions.
type ErrInvalidPixelSize struct {
	Size Size
}

func (e *ErrInvalidPixelSize) Error() string {
	return fmt.Sprintf("invalid chart pixel size: %dx%d (both dimensions must be positive)",
		e.Size.W, e.Size.H)
}

// ErrInvalidSpatialReference indicates a projection definition that is not a
// Lambert conformal conic projection on the NAD83 datum in meters.
type ErrInvalidSpatialReference struct {
	Reason string
}

func (e *ErrInvalidSpatialReference) Error() string {
	return fmt.Sprintf("invalid spatial reference: %s", e.Reason)
}

// ErrProjection indicates a coordinate that could not be converted, for
// example a point outside the projection's valid domain.
type ErrProjection struct {
	Coord  Coord
	Reason string
}

func (e *ErrProjection) Error() string {
	return fmt.Sprintf("projection failed for (%g, %g): %s", e.Coord.X, e.Coord.Y, e.Reason)
}

// ErrSingularTransform indicates an affine geo-transform that cannot be
// inverted.
type ErrSingularTransform struct {
	Transform GeoTransform
}

func (e *ErrSingularTransform) Error() string {
	return fmt.Sprintf("geo-transform is singular: %v", [6]float64(e.Transform))
}
