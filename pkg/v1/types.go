package vfrchart

import (
	"github.com/beetlebugorg/vfrchart/internal/geo"
	"github.com/beetlebugorg/vfrchart/internal/nasr"
	"github.com/beetlebugorg/vfrchart/internal/raster"
)

// The value types that cross the public API are defined in internal
// packages so the workers can share them; these aliases give callers names
// inside this package for all of them.
type (
	// Coord is a 2D coordinate, either chart meters or NAD83 degrees
	// depending on context.
	Coord = geo.Coord

	// Pos is an integer pixel position.
	Pos = geo.Pos

	// Size is an integer pixel size.
	Size = geo.Size

	// Rect is an integer pixel rectangle.
	Rect = geo.Rect

	// Bounds is a geodetic bounding box in NAD83 degrees.
	Bounds = geo.Bounds

	// Transform converts between pixel, chart and NAD83 coordinates.
	Transform = geo.Transform

	// Airport is one record of the loaded airport table.
	Airport = nasr.Airport

	// SiteType classifies an airport record.
	SiteType = nasr.SiteType

	// ChartEntry names one chart raster inside an opened archive.
	ChartEntry = raster.ChartEntry
)
