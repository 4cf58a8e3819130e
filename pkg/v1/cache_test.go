package vfrchart

import (
	"image"
	"testing"

	"github.com/beetlebugorg/vfrchart/internal/geo"
)

// cachePart makes distinct parts for cache tests.
func cachePart(x int) ImagePart {
	return NewImagePart(
		geo.Rect{Pos: geo.Pos{X: x}, Size: geo.Size{W: 16, H: 16}},
		1, false,
	)
}

func cacheTile() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, 16, 16))
}

func TestTileCacheGetAdd(t *testing.T) {
	cache := NewTileCache(0)

	if _, ok := cache.Get(cachePart(0)); ok {
		t.Fatal("empty cache reported a hit")
	}

	tile := cacheTile()
	if err := cache.Add(cachePart(0), tile); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, ok := cache.Get(cachePart(0))
	if !ok || got != tile {
		t.Error("cached tile not returned")
	}
}

func TestTileCacheEvictsLRU(t *testing.T) {
	// Room for exactly two 16x16 tiles.
	tileSize := tileMemory(cacheTile())
	cache := NewTileCache(2 * tileSize)

	cache.Add(cachePart(0), cacheTile())
	cache.Add(cachePart(1), cacheTile())

	// Touch part 0 so part 1 is the eviction candidate.
	cache.Get(cachePart(0))

	cache.Add(cachePart(2), cacheTile())

	if _, ok := cache.Get(cachePart(1)); ok {
		t.Error("least recently used tile survived eviction")
	}
	if _, ok := cache.Get(cachePart(0)); !ok {
		t.Error("recently used tile was evicted")
	}
	if _, ok := cache.Get(cachePart(2)); !ok {
		t.Error("newly added tile missing")
	}
}

func TestTileCacheRejectsOversizedTile(t *testing.T) {
	cache := NewTileCache(64)
	if err := cache.Add(cachePart(0), cacheTile()); err == nil {
		t.Error("Add accepted a tile larger than the whole cache")
	}
}

func TestTileCacheClear(t *testing.T) {
	cache := NewTileCache(0)
	cache.Add(cachePart(0), cacheTile())
	cache.Clear()

	if _, ok := cache.Get(cachePart(0)); ok {
		t.Error("tile survived Clear")
	}
	stats := cache.Stats()
	if stats.TileCount != 0 || stats.UsedMemory != 0 {
		t.Errorf("Stats after Clear = %+v", stats)
	}
}
