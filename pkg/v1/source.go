package vfrchart

import (
	"image"
	"image/color"
	"sync"

	"github.com/beetlebugorg/vfrchart/internal/geo"
	"github.com/beetlebugorg/vfrchart/internal/msg"
	"github.com/beetlebugorg/vfrchart/internal/raster"
)

// defaultTileCacheBytes is the tile cache limit for a Source opened with
// OpenSource.
const defaultTileCacheBytes = 128 * 1024 * 1024

// Reply is a message from the decode worker back to the UI side. It is one
// of ImageReply, CanceledReply or ErrorReply.
type Reply interface {
	isReply()
}

// ImageReply carries a decoded tile.
type ImageReply struct {
	Part  ImagePart
	Image *image.RGBA
}

// CanceledReply reports that a queued request was superseded by a newer one
// before the worker got to it. The requester must clear any pending state
// for the part so the tile can be requested again later.
type CanceledReply struct {
	Part ImagePart
}

// ErrorReply reports that a tile failed to decode.
type ErrorReply struct {
	Part ImagePart
	Err  error
}

func (ImageReply) isReply()    {}
func (CanceledReply) isReply() {}
func (ErrorReply) isReply()    {}

// request is a message to the decode worker.
type request struct {
	part ImagePart
	exit bool
}

// tileReader reads a window of chart pixels resampled to a destination
// size. *raster.Dataset is the production implementation.
type tileReader interface {
	Read(srcRect geo.Rect, dstSize geo.Size) ([]uint8, error)
}

// Source streams tiles of one open chart.
//
// Opening a chart starts a decode worker goroutine that owns the raster.
// The UI side submits tile requests with ReadImage and polls replies with
// NextReply once per frame; neither call ever blocks. When requests pile up
// faster than the worker decodes, it collapses the backlog to the newest
// request and answers the superseded ones with CanceledReply, so a fast
// zoom gesture costs one decode instead of dozens.
//
// Example:
//
//	src, err := vfrchart.OpenSource("charts.zip!Omaha SEC.tif", repaint)
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
//	src.ReadImage(vfrchart.NewImagePart(rect, 0.5, false))
//	for reply := src.NextReply(); reply != nil; reply = src.NextReply() {
//	    // handle reply
//	}
type Source struct {
	transform *geo.Transform
	cache     *TileCache
	requests  *msg.Queue[request]
	replies   *msg.Queue[Reply]
	done      chan struct{}
	closeOnce sync.Once
}

// OpenSource opens a chart and starts its decode worker.
//
// The path is either a plain TIFF path or "archive.zip!entry.tif". The
// repaint callback is invoked from the worker goroutine after replies are
// queued; the UI uses it to schedule a frame. It must be safe to call from
// another goroutine and must not block.
func OpenSource(name string, repaint func()) (*Source, error) {
	ds, err := raster.Open(name)
	if err != nil {
		return nil, err
	}
	transform, err := geo.NewTransform(ds.Size(), ds.ProjDef(), ds.GeoTransform())
	if err != nil {
		return nil, err
	}
	return newSource(ds, ds.Palette(), transform, repaint), nil
}

// newSource wires up the queues and starts the worker.
func newSource(data tileReader, palette [256]color.RGBA, transform *geo.Transform, repaint func()) *Source {
	s := &Source{
		transform: transform,
		cache:     NewTileCache(defaultTileCacheBytes),
		requests:  msg.NewQueue[request](),
		replies:   msg.NewQueue[Reply](),
		done:      make(chan struct{}),
	}
	if repaint == nil {
		repaint = func() {}
	}
	go s.run(data, palette, repaint)
	return s
}

// Transform returns the chart's coordinate transform. It is immutable and
// safe to share.
func (s *Source) Transform() *geo.Transform {
	return s.transform
}

// Cache returns the source's tile cache.
func (s *Source) Cache() *TileCache {
	return s.cache
}

// ReadImage submits a tile request to the decode worker. It never blocks.
func (s *Source) ReadImage(part ImagePart) {
	s.requests.Push(request{part: part})
}

// NextReply returns the next queued reply, or nil if none is pending. The
// UI drains replies once per frame:
//
//	for reply := src.NextReply(); reply != nil; reply = src.NextReply() {
//	    ...
//	}
func (s *Source) NextReply() Reply {
	reply, ok := s.replies.TryPop()
	if !ok {
		return nil
	}
	return reply
}

// Close tells the worker to exit and waits for it to finish. No replies are
// delivered after Close returns; requests still queued at that point are
// dropped without notice. Close is idempotent.
func (s *Source) Close() {
	s.closeOnce.Do(func() {
		s.requests.Push(request{exit: true})
		<-s.done
		s.requests.Close()
		s.replies.Close()
	})
}

// run is the decode worker. It sleeps on the request queue, collapses any
// backlog to the newest read request and decodes that one.
func (s *Source) run(data tileReader, palette [256]color.RGBA, repaint func()) {
	defer close(s.done)

	day := palette
	night := invertPalette(palette)

	for {
		req, ok := s.requests.Pop()
		if !ok || req.exit {
			return
		}

		// Collapse the backlog: every request superseded by a newer one
		// is answered with CanceledReply instead of being decoded.
		part := req.part
		for {
			next, ok := s.requests.TryPop()
			if !ok {
				break
			}
			if next.exit {
				return
			}
			s.replies.Push(CanceledReply{Part: part})
			part = next.part
		}

		s.replies.Push(s.decode(data, part, &day, &night))
		repaint()
	}
}

// decode produces the reply for one tile, consulting the cache first.
func (s *Source) decode(data tileReader, part ImagePart, day, night *[256]color.RGBA) Reply {
	if img, ok := s.cache.Get(part); ok {
		return ImageReply{Part: part, Image: img}
	}

	indices, err := data.Read(part.SourceRect(), part.Rect.Size)
	if err != nil {
		return ErrorReply{Part: part, Err: err}
	}

	colors := day
	if part.Night {
		colors = night
	}

	img := image.NewRGBA(image.Rect(0, 0, part.Rect.Size.W, part.Rect.Size.H))
	for i, idx := range indices {
		c := colors[idx]
		o := i * 4
		img.Pix[o+0] = c.R
		img.Pix[o+1] = c.G
		img.Pix[o+2] = c.B
		img.Pix[o+3] = c.A
	}

	s.cache.Add(part, img)
	return ImageReply{Part: part, Image: img}
}

// invertPalette derives the night palette by inverting each color channel.
// Alpha is preserved.
func invertPalette(p [256]color.RGBA) [256]color.RGBA {
	for i, c := range p {
		p[i] = color.RGBA{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B, A: c.A}
	}
	return p
}
