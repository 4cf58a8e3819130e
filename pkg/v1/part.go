package vfrchart

import (
	"fmt"
	"math"

	"github.com/beetlebugorg/vfrchart/internal/geo"
)

// ZoomKey is a zoom factor stored by its exact float32 bit pattern.
//
// Tile requests are deduplicated by comparing ImagePart values, and a zoom
// factor that went through any arithmetic must compare equal to the factor
// the request was issued with. Keying on the bit pattern makes the
// comparison exact and makes ImagePart usable as a map key.
type ZoomKey uint32

// NewZoomKey creates a key from a zoom factor.
func NewZoomKey(zoom float32) ZoomKey {
	return ZoomKey(math.Float32bits(zoom))
}

// Zoom returns the zoom factor.
func (k ZoomKey) Zoom() float32 {
	return math.Float32frombits(uint32(k))
}

// Inverse returns 1/zoom as a float64, the factor that maps a display
// rectangle back to source pixels.
func (k ZoomKey) Inverse() float64 {
	return 1 / float64(k.Zoom())
}

// String formats the key as its zoom factor.
func (k ZoomKey) String() string {
	return fmt.Sprintf("%g", k.Zoom())
}

// ImagePart identifies one tile of the chart: a display-space rectangle, the
// zoom it is rendered at and the palette variant.
//
// ImagePart is comparable; two parts are the same tile exactly when all
// three fields match. The controller uses it as the key of its in-flight
// set and the decode worker as the tile cache key.
type ImagePart struct {
	Rect  geo.Rect
	Zoom  ZoomKey
	Night bool
}

// NewImagePart creates a part for a display rectangle at the given zoom.
// The zoom factor must be positive.
func NewImagePart(rect geo.Rect, zoom float32, night bool) ImagePart {
	if !(zoom > 0) {
		panic(fmt.Sprintf("vfrchart: non-positive zoom %g", zoom))
	}
	return ImagePart{Rect: rect, Zoom: NewZoomKey(zoom), Night: night}
}

// SourceRect returns the chart-pixel rectangle this part reads from: the
// display rectangle scaled by the inverse zoom.
func (p ImagePart) SourceRect() geo.Rect {
	return p.Rect.Scaled(p.Zoom.Inverse())
}
