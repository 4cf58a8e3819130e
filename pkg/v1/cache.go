package vfrchart

import (
	"container/list"
	"fmt"
	"image"
	"sync"
)

// TileCache holds decoded tiles with LRU eviction.
//
// The cache stores fully-decoded RGBA tiles keyed by their ImagePart and
// evicts least-recently-used tiles when the memory limit is exceeded. The
// decode worker consults it before reading the raster, so toggling night
// mode back and forth or revisiting a scroll position does not decode the
// same tile twice.
//
// Example:
//
//	cache := vfrchart.NewTileCache(256 * 1024 * 1024) // 256MB limit
//	if img, ok := cache.Get(part); ok {
//	    return img
//	}
type TileCache struct {
	maxMemory  int64 // Maximum memory in bytes, 0 for unlimited
	usedMemory int64
	tiles      map[ImagePart]*tileEntry
	lru        *list.List // Most recent at front
	mu         sync.Mutex
}

// tileEntry tracks a cached tile and its position in the LRU list.
type tileEntry struct {
	part    ImagePart
	img     *image.RGBA
	size    int64
	element *list.Element
}

// NewTileCache creates a cache with the given memory limit in bytes.
// Set to 0 for an unlimited cache.
func NewTileCache(maxMemoryBytes int64) *TileCache {
	return &TileCache{
		maxMemory: maxMemoryBytes,
		tiles:     make(map[ImagePart]*tileEntry),
		lru:       list.New(),
	}
}

// Get retrieves a cached tile and marks it most recently used.
func (c *TileCache) Get(part ImagePart) (*image.RGBA, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.tiles[part]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(entry.element)
	return entry.img, true
}

// Add adds a decoded tile to the cache, evicting least-recently-used tiles
// to make room. A tile larger than the whole limit is not cached.
func (c *TileCache) Add(part ImagePart, img *image.RGBA) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.tiles[part]; ok {
		c.usedMemory += tileMemory(img) - entry.size
		entry.img = img
		entry.size = tileMemory(img)
		c.lru.MoveToFront(entry.element)
		return nil
	}

	size := tileMemory(img)
	if c.maxMemory > 0 && size > c.maxMemory {
		return fmt.Errorf("tile too large for cache (%d bytes > %d bytes max)",
			size, c.maxMemory)
	}

	if c.maxMemory > 0 {
		for c.usedMemory+size > c.maxMemory && c.lru.Len() > 0 {
			c.evictLRU()
		}
	}

	entry := &tileEntry{part: part, img: img, size: size}
	entry.element = c.lru.PushFront(entry)
	c.tiles[part] = entry
	c.usedMemory += size

	return nil
}

// evictLRU removes the least recently used tile. Must be called with c.mu
// locked.
func (c *TileCache) evictLRU() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*tileEntry)
	c.lru.Remove(elem)
	delete(c.tiles, entry.part)
	c.usedMemory -= entry.size
}

// Clear removes all tiles. Called when a new chart is opened.
func (c *TileCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tiles = make(map[ImagePart]*tileEntry)
	c.lru.Init()
	c.usedMemory = 0
}

// Stats returns cache metrics.
func (c *TileCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		TileCount:  len(c.tiles),
		UsedMemory: c.usedMemory,
		MaxMemory:  c.maxMemory,
	}
}

// CacheStats holds cache metrics.
type CacheStats struct {
	TileCount  int   // Number of tiles currently cached
	UsedMemory int64 // Memory usage in bytes
	MaxMemory  int64 // Memory limit in bytes
}

// tileMemory is the memory cost of a cached tile: the pixel buffer plus a
// small fixed overhead for the entry itself.
func tileMemory(img *image.RGBA) int64 {
	return int64(len(img.Pix)) + 128
}
