package vfrchart

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/beetlebugorg/vfrchart/internal/geo"
)

// newTestController builds a Ready controller over a fake raster of the
// given chart size.
func newTestController(t *testing.T, chart geo.Size) (*Controller, *fakeReader) {
	t.Helper()
	data := &fakeReader{index: 5}
	src := newSource(data, testPalette(), newTestTransform(t, chart), nil)
	t.Cleanup(src.Close)

	c := NewController(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	c.source = src
	c.state = StateReady
	c.zoom = 1
	c.pendingScroll = &ScrollPos{}
	return c, data
}

// settleFrame runs OnFrame until the visible tile arrived, so tests start
// from a stable image.
func settleFrame(t *testing.T, c *Controller, viewSize geo.Size) Frame {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		frame := c.OnFrame(viewSize)
		want := NewImagePart(c.dispRect, c.zoom, c.night)
		if frame.Image != nil && frame.Part == want {
			return frame
		}
		if time.Now().After(deadline) {
			t.Fatal("tile never arrived")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestControllerEmptyStates(t *testing.T) {
	c := NewController(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	frame := c.OnFrame(geo.Size{W: 500, H: 250})
	if frame.State != StateNoChart || frame.Image != nil {
		t.Errorf("frame without chart = %+v", frame)
	}

	var noChart *ErrNoChart
	if err := c.GotoCoord(geo.Coord{X: -95.75, Y: 41.25}); !errors.As(err, &noChart) {
		t.Errorf("GotoCoord without chart = %v, want ErrNoChart", err)
	}
	if _, err := c.OnSecondaryClick(ScrollPos{}); !errors.As(err, &noChart) {
		t.Errorf("click without chart = %v, want ErrNoChart", err)
	}
}

func TestControllerMinZoomClamp(t *testing.T) {
	c, _ := newTestController(t, geo.Size{W: 1000, H: 1000})
	viewSize := geo.Size{W: 500, H: 250}

	// minZoom = max(500/1000, 250/1000, 1/8) = 0.5.
	c.zoom = 0.1
	frame := c.OnFrame(viewSize)
	if frame.Zoom != 0.5 {
		t.Errorf("zoom 0.1 clamped to %v, want 0.5", frame.Zoom)
	}

	c.zoom = 2.0
	frame = c.OnFrame(viewSize)
	if frame.Zoom != 1.0 {
		t.Errorf("zoom 2.0 clamped to %v, want 1.0", frame.Zoom)
	}
}

func TestControllerMinZoomFloor(t *testing.T) {
	// A chart much larger than the viewport still cannot zoom out past
	// the floor.
	c, _ := newTestController(t, geo.Size{W: 100000, H: 100000})
	frame := c.OnFrame(geo.Size{W: 500, H: 250})
	if c.zoom != 1.0 {
		t.Fatalf("initial zoom = %v", frame.Zoom)
	}

	c.zoom = 0.001
	frame = c.OnFrame(geo.Size{W: 500, H: 250})
	if frame.Zoom != minZoomFloor {
		t.Errorf("zoom clamped to %v, want %v", frame.Zoom, minZoomFloor)
	}
}

func TestControllerAnchorStability(t *testing.T) {
	c, _ := newTestController(t, geo.Size{W: 1000, H: 1000})
	viewSize := geo.Size{W: 500, H: 250}

	c.scroll = ScrollPos{X: 200, Y: 200}
	c.OnZoomGesture(0.5, ScrollPos{X: 100, Y: 100}, viewSize)

	// scroll' = (scroll + anchor) * zoom'/zoom - anchor.
	if c.zoom != 0.5 {
		t.Fatalf("zoom = %v, want 0.5", c.zoom)
	}
	if c.scroll != (ScrollPos{X: 50, Y: 50}) {
		t.Errorf("scroll = %+v, want (50, 50)", c.scroll)
	}
}

func TestControllerRequestsVisibleTile(t *testing.T) {
	c, _ := newTestController(t, geo.Size{W: 1000, H: 1000})
	viewSize := geo.Size{W: 500, H: 250}

	frame := settleFrame(t, c, viewSize)
	want := NewImagePart(
		geo.Rect{Size: viewSize},
		1, false,
	)
	if frame.Part != want {
		t.Errorf("visible part = %+v, want %+v", frame.Part, want)
	}
	if frame.ContentSize != (geo.Size{W: 1000, H: 1000}) {
		t.Errorf("ContentSize = %+v", frame.ContentSize)
	}
}

func TestControllerDedupsInflightRequests(t *testing.T) {
	c, data := newTestController(t, geo.Size{W: 1000, H: 1000})
	data.release = make(chan struct{}, 4)
	viewSize := geo.Size{W: 500, H: 250}

	// The worker blocks inside the first decode; repeated frames must not
	// request the same part again.
	for i := 0; i < 5; i++ {
		c.OnFrame(viewSize)
	}
	if len(c.pending) != 1 {
		t.Errorf("pending = %d parts, want 1", len(c.pending))
	}

	data.release <- struct{}{}
	settleFrame(t, c, viewSize)
	if got := data.readCount(); got != 1 {
		t.Errorf("backend reads = %d, want 1", got)
	}
	data.release <- struct{}{} // let cleanup close the worker
}

func TestControllerNightModeRerequests(t *testing.T) {
	c, _ := newTestController(t, geo.Size{W: 1000, H: 1000})
	viewSize := geo.Size{W: 500, H: 250}

	day := settleFrame(t, c, viewSize)
	if day.Part.Night {
		t.Fatal("initial tile is night")
	}

	c.SetNightMode(true)
	night := settleFrame(t, c, viewSize)
	if !night.Part.Night {
		t.Error("tile after SetNightMode(true) is not night")
	}

	// Switching back hits the tile cache for the day tile.
	c.SetNightMode(false)
	day = settleFrame(t, c, viewSize)
	if day.Part.Night {
		t.Error("tile after SetNightMode(false) is night")
	}
}

func TestControllerScrollSettling(t *testing.T) {
	c, _ := newTestController(t, geo.Size{W: 1000, H: 1000})

	c.SetScroll(ScrollPos{X: 10.7, Y: -3}, false)
	if c.scroll != (ScrollPos{X: 10, Y: 0}) {
		t.Errorf("settled scroll = %+v, want (10, 0)", c.scroll)
	}

	c.SetScroll(ScrollPos{X: 10.7, Y: 5.5}, true)
	if c.scroll != (ScrollPos{X: 10.7, Y: 5.5}) {
		t.Errorf("momentum scroll = %+v, want unchanged", c.scroll)
	}
}

func TestControllerScrollClampedToContent(t *testing.T) {
	c, _ := newTestController(t, geo.Size{W: 1000, H: 1000})
	viewSize := geo.Size{W: 500, H: 250}

	c.scroll = ScrollPos{X: 5000, Y: 5000}
	frame := c.OnFrame(viewSize)
	if frame.Scroll != (ScrollPos{X: 500, Y: 750}) {
		t.Errorf("clamped scroll = %+v, want (500, 750)", frame.Scroll)
	}
}

func TestControllerSidePanel(t *testing.T) {
	c, _ := newTestController(t, geo.Size{W: 1000, H: 1000})

	c.scroll = ScrollPos{X: 5}
	c.ToggleSidePanel(true, 200)
	if c.scroll.X != 206 {
		t.Errorf("scroll after open = %v, want 206", c.scroll.X)
	}
	c.ToggleSidePanel(false, 200)
	if c.scroll.X != 5 {
		t.Errorf("scroll after close = %v, want 5", c.scroll.X)
	}

	// Closing near the left edge floors at zero instead of going negative.
	c.scroll = ScrollPos{X: 10}
	c.ToggleSidePanel(false, 200)
	if c.scroll.X != 0 {
		t.Errorf("scroll after close at edge = %v, want 0", c.scroll.X)
	}
}

func TestControllerGotoCoord(t *testing.T) {
	c, _ := newTestController(t, geo.Size{W: 1000, H: 1000})
	viewSize := geo.Size{W: 500, H: 250}
	settleFrame(t, c, viewSize)

	// The chart center, by way of the transform, is on the chart.
	center, err := c.source.Transform().PxToNAD83(geo.Coord{X: 500, Y: 500})
	if err != nil {
		t.Fatalf("PxToNAD83 failed: %v", err)
	}
	c.zoom = 0.5
	if err := c.GotoCoord(center); err != nil {
		t.Fatalf("GotoCoord failed: %v", err)
	}
	if c.zoom != 1 {
		t.Errorf("zoom after GotoCoord = %v, want 1", c.zoom)
	}

	frame := c.OnFrame(viewSize)
	if frame.Scroll != (ScrollPos{X: 250, Y: 375}) {
		t.Errorf("scroll after GotoCoord = %+v, want (250, 375)", frame.Scroll)
	}
}

func TestControllerGotoCoordOffChart(t *testing.T) {
	c, _ := newTestController(t, geo.Size{W: 1000, H: 1000})

	var offChart *ErrCoordOffChart
	err := c.GotoCoord(geo.Coord{X: 0, Y: 0}) // Gulf of Guinea, not on a sectional
	if !errors.As(err, &offChart) {
		t.Errorf("GotoCoord = %v, want ErrCoordOffChart", err)
	}
}

func TestControllerSecondaryClickResolvesCoord(t *testing.T) {
	c, _ := newTestController(t, geo.Size{W: 1000, H: 1000})
	viewSize := geo.Size{W: 500, H: 250}
	settleFrame(t, c, viewSize)

	coord, err := c.OnSecondaryClick(ScrollPos{X: 100, Y: 100})
	if err != nil {
		t.Fatalf("OnSecondaryClick failed: %v", err)
	}
	want, err := c.source.Transform().PxToNAD83(geo.Coord{X: 100, Y: 100})
	if err != nil {
		t.Fatal(err)
	}
	if coord != want {
		t.Errorf("clicked coord = %+v, want %+v", coord, want)
	}
}

func TestControllerFiltersHeliportsFromResults(t *testing.T) {
	c, _ := newTestController(t, geo.Size{W: 1000, H: 1000})
	c.airports = newAirports(testTable(t), nil)
	t.Cleanup(c.airports.Close)
	c.airports.SetSpatialRef(testProjDef)
	viewSize := geo.Size{W: 500, H: 250}
	settleFrame(t, c, viewSize)

	c.airports.Nearby(geo.Coord{X: 0, Y: 0}, 1e6)
	waitForAirports(t, c)

	c.OnFrame(viewSize)
	results := c.AirportResults()
	if hasAirport(results, "PVT") {
		t.Errorf("results = %v, private heliport must be filtered", airportIDs(results))
	}
	if !hasAirport(results, "ORG") || !hasAirport(results, "EAS") {
		t.Errorf("results = %v, want ORG and EAS", airportIDs(results))
	}
}

func TestControllerGotoAirportRecenters(t *testing.T) {
	// The chart must be large enough that the projection origin, where
	// ORG sits, lands inside it: pixel (7796, 7796) under the test
	// geo-transform.
	c, _ := newTestController(t, geo.Size{W: 16000, H: 16000})
	c.airports = newAirports(testTable(t), nil)
	t.Cleanup(c.airports.Close)
	viewSize := geo.Size{W: 500, H: 250}
	settleFrame(t, c, viewSize)

	c.zoom = 0.5
	c.GotoAirport("ORG")
	waitForAirports(t, c)
	c.OnFrame(viewSize)

	if c.zoom != 1 {
		t.Errorf("zoom after GotoAirport = %v, want 1", c.zoom)
	}
}

// waitForAirports blocks until the airport worker has answered everything.
func waitForAirports(t *testing.T, c *Controller) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for c.airports.RequestCount() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("airport worker never caught up")
		}
		time.Sleep(time.Millisecond)
	}
}
