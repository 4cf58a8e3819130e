package vfrchart

import (
	"testing"

	"github.com/beetlebugorg/vfrchart/internal/geo"
)

func TestZoomKeyExact(t *testing.T) {
	// 0.1 is not representable in binary; the key must still round-trip
	// the exact float32 value.
	zooms := []float32{1, 0.5, 0.25, 0.1, 0.8, 0.125, 0.3 * 2}
	for _, zoom := range zooms {
		key := NewZoomKey(zoom)
		if key.Zoom() != zoom {
			t.Errorf("ZoomKey(%v).Zoom() = %v", zoom, key.Zoom())
		}
	}
}

func TestZoomKeyDistinguishesCloseValues(t *testing.T) {
	a := NewZoomKey(0.5)
	b := NewZoomKey(0.5 * 1.25 * 0.8) // arithmetic noise
	if a == b {
		t.Error("keys for different bit patterns compare equal")
	}
}

func TestImagePartAsMapKey(t *testing.T) {
	rect := geo.Rect{Pos: geo.Pos{X: 10, Y: 20}, Size: geo.Size{W: 100, H: 50}}

	seen := map[ImagePart]int{}
	seen[NewImagePart(rect, 0.5, false)]++
	seen[NewImagePart(rect, 0.5, false)]++
	seen[NewImagePart(rect, 0.5, true)]++

	if len(seen) != 2 {
		t.Fatalf("map has %d keys, want 2", len(seen))
	}
	if seen[NewImagePart(rect, 0.5, false)] != 2 {
		t.Error("identical parts did not collapse to one key")
	}
}

func TestNewImagePartRejectsNonPositiveZoom(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewImagePart accepted zoom 0")
		}
	}()
	NewImagePart(geo.Rect{Size: geo.Size{W: 1, H: 1}}, 0, false)
}

func TestSourceRect(t *testing.T) {
	part := NewImagePart(
		geo.Rect{Pos: geo.Pos{X: 100, Y: 200}, Size: geo.Size{W: 50, H: 50}},
		0.5, false,
	)
	src := part.SourceRect()
	want := geo.Rect{Pos: geo.Pos{X: 200, Y: 400}, Size: geo.Size{W: 100, H: 100}}
	if src != want {
		t.Errorf("SourceRect = %+v, want %+v", src, want)
	}
}
