package vfrchart

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/beetlebugorg/vfrchart/internal/geo"
	"github.com/beetlebugorg/vfrchart/internal/raster"
)

// Zoom step factors for the explicit zoom buttons, anchored at the viewport
// center.
const (
	zoomInStep  = 1.25
	zoomOutStep = 0.8
)

// minZoomFloor caps how far out a chart can be zoomed regardless of
// viewport size.
const minZoomFloor = 0.125

// clickRadiusPx is the screen-space hit radius of a nearby-airport click,
// converted to ground distance through the chart transform.
const clickRadiusPx = 30.0

// State is the controller's chart lifecycle state.
type State int

const (
	// StateNoChart means nothing is open.
	StateNoChart State = iota
	// StateLoading means an archive with several charts is open and the
	// caller must pick one with ChooseChart.
	StateLoading
	// StateReady means a chart is open and streaming tiles.
	StateReady
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNoChart:
		return "NoChart"
	case StateLoading:
		return "Loading"
	case StateReady:
		return "Ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ScrollPos is a scroll offset in display pixels. Fractional positions
// occur mid-gesture; a settled scroll position is whole-numbered.
type ScrollPos struct {
	X float32
	Y float32
}

// Frame is what the controller hands the UI for one rendered frame.
type Frame struct {
	State State

	// Image is the most recently decoded tile, which may lag the current
	// viewport while a newer tile decodes. Nil until the first tile
	// arrives.
	Image *image.RGBA
	// Part describes Image.
	Part ImagePart

	// Scroll is the settled scroll position for this frame.
	Scroll ScrollPos
	// Zoom is the zoom factor after clamping.
	Zoom float32
	// ContentSize is the full chart size at the current zoom, for sizing
	// the scroll area.
	ContentSize Size

	// Busy reports outstanding airport queries; the UI shows a wait
	// cursor while true.
	Busy bool
}

// ErrCoordOffChart reports a go-to coordinate outside the open chart.
type ErrCoordOffChart struct {
	Coord Coord
}

func (e *ErrCoordOffChart) Error() string {
	return fmt.Sprintf("coordinate (%g, %g) is outside the chart", e.Coord.X, e.Coord.Y)
}

// ErrNoChart reports an operation that needs an open chart.
type ErrNoChart struct {
	Op string
}

func (e *ErrNoChart) Error() string {
	return fmt.Sprintf("%s: no chart open", e.Op)
}

// Controller owns the viewport: which chart is open, the zoom and scroll
// position, and the conversation with the background workers.
//
// The controller is driven from a single UI goroutine and is not safe for
// concurrent use. Once per frame the UI calls OnFrame, which drains worker
// replies, reconciles the wanted tile against the in-flight set and returns
// what to draw. All other methods are event handlers; none of them blocks.
//
// Example:
//
//	ctl := vfrchart.NewController(nil, repaint)
//	if err := ctl.OpenZip("charts.zip"); err != nil {
//	    return err
//	}
//	for { // render loop
//	    frame := ctl.OnFrame(viewSize)
//	    if frame.Image != nil {
//	        draw(frame)
//	    }
//	}
type Controller struct {
	logger  *slog.Logger
	repaint func()

	state   State
	choices []ChartEntry

	source   *Source
	airports *Airports

	zoom          float32
	scroll        ScrollPos
	pendingScroll *ScrollPos
	dispRect      Rect
	night         bool

	image   *ImageReply
	pending map[ImagePart]struct{}

	results []Airport
}

// NewController creates a controller in the NoChart state.
//
// The repaint callback is forwarded to the workers; it must be safe to call
// from other goroutines. A nil logger uses slog's default.
func NewController(logger *slog.Logger, repaint func()) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if repaint == nil {
		repaint = func() {}
	}
	return &Controller{
		logger:  logger,
		repaint: repaint,
		pending: make(map[ImagePart]struct{}),
	}
}

// State returns the chart lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// ChartChoices returns the charts to choose from while in the Loading
// state.
func (c *Controller) ChartChoices() []ChartEntry {
	return c.choices
}

// Transform returns the open chart's transform, or nil when no chart is
// open.
func (c *Controller) Transform() *Transform {
	if c.source == nil {
		return nil
	}
	return c.source.Transform()
}

// NightMode reports whether the night palette is selected.
func (c *Controller) NightMode() bool {
	return c.night
}

// OpenZip opens a zip archive, dispatching on its contents.
//
// A chart archive with a single raster opens it directly; one with several
// rasters moves the controller to the Loading state so the caller can pick
// with ChooseChart. A NASR archive loads the airport table instead and
// leaves the open chart alone.
func (c *Controller) OpenZip(path string) error {
	cat, err := raster.ScanZip(path)
	if err != nil {
		return err
	}

	switch cat.Kind {
	case raster.ZipAero:
		apt, err := OpenAirports(path, c.repaint)
		if err != nil {
			return err
		}
		if c.airports != nil {
			c.airports.Close()
		}
		c.airports = apt
		if c.source != nil {
			apt.SetSpatialRef(c.source.Transform().ProjDef())
		}
		c.logger.Info("airport table loaded", "path", path)
		return nil

	case raster.ZipChart:
		if len(cat.Charts) == 1 {
			return c.openChart(cat.Charts[0].Path)
		}
		c.choices = cat.Charts
		c.state = StateLoading
		return nil
	}
	return &raster.ErrNoChartData{Path: path}
}

// ChooseChart opens one of the charts offered in the Loading state.
func (c *Controller) ChooseChart(i int) error {
	if c.state != StateLoading || i < 0 || i >= len(c.choices) {
		return &ErrNoChart{Op: "choose chart"}
	}
	return c.openChart(c.choices[i].Path)
}

// openChart opens a chart raster and resets the viewport.
func (c *Controller) openChart(path string) error {
	src, err := OpenSource(path, c.repaint)
	if err != nil {
		return err
	}
	if c.source != nil {
		c.source.Close()
	}
	c.source = src

	c.state = StateReady
	c.choices = nil
	c.zoom = 1
	c.scroll = ScrollPos{}
	c.pendingScroll = &ScrollPos{}
	c.dispRect = Rect{}
	c.image = nil
	c.pending = make(map[ImagePart]struct{})
	c.results = nil

	if c.airports != nil {
		c.airports.SetSpatialRef(src.Transform().ProjDef())
	}
	c.logger.Info("chart opened", "path", path, "size", src.Transform().PxSize())
	return nil
}

// CloseChart closes the open chart and returns to the NoChart state. The
// airport table, if loaded, stays.
func (c *Controller) CloseChart() {
	if c.source != nil {
		c.source.Close()
		c.source = nil
	}
	c.state = StateNoChart
	c.choices = nil
	c.image = nil
	c.pending = make(map[ImagePart]struct{})
	c.results = nil
}

// Close shuts down both workers.
func (c *Controller) Close() {
	c.CloseChart()
	if c.airports != nil {
		c.airports.Close()
		c.airports = nil
	}
}

// OnFrame reconciles the viewport once per rendered frame.
//
// It drains worker replies, applies any pending scroll, clamps the zoom to
// the viewport's minimum, requests the wanted tile if it is neither decoded
// nor in flight, and returns what to draw.
func (c *Controller) OnFrame(viewSize Size) Frame {
	if c.state != StateReady {
		return Frame{State: c.state}
	}

	c.drainSource()
	c.drainAirports()

	if c.pendingScroll != nil {
		c.scroll = *c.pendingScroll
		c.pendingScroll = nil
	}

	minZoom := c.minZoom(viewSize)
	if z := clampZoom(c.zoom, minZoom); z != c.zoom {
		c.zoom = z
	}
	c.clampScroll(viewSize)

	rect := Rect{
		Pos:  Pos{X: int(c.scroll.X), Y: int(c.scroll.Y)},
		Size: viewSize,
	}
	if rect != c.dispRect {
		c.dispRect = rect
		c.results = nil
	}

	want := NewImagePart(rect, c.zoom, c.night)
	if c.image == nil || c.image.Part != want {
		c.request(want)
	}

	frame := Frame{
		State:       StateReady,
		Scroll:      c.scroll,
		Zoom:        c.zoom,
		ContentSize: c.contentSize(),
		Busy:        c.airports != nil && c.airports.RequestCount() > 0,
	}
	if c.image != nil {
		frame.Image = c.image.Image
		frame.Part = c.image.Part
	}
	return frame
}

// drainSource consumes every queued tile reply.
func (c *Controller) drainSource() {
	for reply := c.source.NextReply(); reply != nil; reply = c.source.NextReply() {
		switch r := reply.(type) {
		case ImageReply:
			delete(c.pending, r.Part)
			c.image = &r
		case CanceledReply:
			delete(c.pending, r.Part)
		case ErrorReply:
			delete(c.pending, r.Part)
			c.logger.Error("tile decode failed", "part", r.Part.Rect, "zoom", r.Part.Zoom, "err", r.Err)
		}
	}
}

// drainAirports consumes every queued airport reply. Nearby and search
// results are filtered for display; a lookup hit recenters the viewport on
// the airport.
func (c *Controller) drainAirports() {
	if c.airports == nil {
		return
	}
	for reply := c.airports.NextReply(); reply != nil; reply = c.airports.NextReply() {
		switch r := reply.(type) {
		case NearbyReply:
			c.results = filterAirports(r.Airports)
		case SearchReply:
			c.results = filterAirports(r.Airports)
		case LookupReply:
			if r.Airport == nil {
				c.logger.Warn("airport lookup found nothing")
				continue
			}
			if err := c.GotoCoord(r.Airport.Coord); err != nil {
				c.logger.Warn("airport is off this chart", "id", r.Airport.ID, "err", err)
			}
		}
	}
}

// AirportResults returns the current filtered airport results.
func (c *Controller) AirportResults() []Airport {
	return c.results
}

// ClearAirportResults dismisses the current results.
func (c *Controller) ClearAirportResults() {
	c.results = nil
}

// SetScroll records a new scroll position from the UI's scroll area.
// While momentum scrolling is still running the fractional position is
// kept as-is; once it settles the position is truncated to whole pixels
// and floored at zero so tile rectangles are stable.
func (c *Controller) SetScroll(pos ScrollPos, momentum bool) {
	if momentum {
		c.scroll = pos
		return
	}
	c.scroll = settleScroll(pos)
}

// OnZoomGesture applies a multiplicative zoom step anchored at a viewport
// position, usually the cursor. The chart point under the anchor stays
// under it.
func (c *Controller) OnZoomGesture(factor float32, anchor ScrollPos, viewSize Size) {
	if c.state != StateReady {
		return
	}
	c.applyZoom(clampZoom(c.zoom*factor, c.minZoom(viewSize)), anchor)
}

// ZoomIn steps the zoom in, anchored at the viewport center.
func (c *Controller) ZoomIn(viewSize Size) {
	c.OnZoomGesture(zoomInStep, centerAnchor(viewSize), viewSize)
}

// ZoomOut steps the zoom out, anchored at the viewport center.
func (c *Controller) ZoomOut(viewSize Size) {
	c.OnZoomGesture(zoomOutStep, centerAnchor(viewSize), viewSize)
}

// applyZoom moves to a new zoom factor keeping the anchor stable:
//
//	scroll' = (scroll + anchor) * zoom'/zoom - anchor
func (c *Controller) applyZoom(newZoom float32, anchor ScrollPos) {
	if newZoom == c.zoom {
		return
	}
	ratio := newZoom / c.zoom
	c.scroll = ScrollPos{
		X: (c.scroll.X+anchor.X)*ratio - anchor.X,
		Y: (c.scroll.Y+anchor.Y)*ratio - anchor.Y,
	}
	c.scroll = settleScroll(c.scroll)
	c.zoom = newZoom
	c.repaint()
}

// SetNightMode switches between the day and night palettes. The next
// OnFrame re-requests the visible tile with the new palette; the old tile
// keeps displaying until the replacement arrives.
func (c *Controller) SetNightMode(night bool) {
	if night == c.night {
		return
	}
	c.night = night
	c.repaint()
}

// ToggleSidePanel compensates the scroll position for the side panel
// opening or closing, so the chart does not appear to jump. The extra
// pixel covers the panel's separator line.
func (c *Controller) ToggleSidePanel(open bool, panelWidth float32) {
	shift := panelWidth + 1
	if open {
		c.scroll.X += shift
	} else {
		c.scroll.X = max(0, c.scroll.X-shift)
	}
}

// GotoCoord centers the viewport on a NAD83 coordinate at full zoom.
// A coordinate outside the chart fails with ErrCoordOffChart.
func (c *Controller) GotoCoord(coord Coord) error {
	if c.source == nil {
		return &ErrNoChart{Op: "goto coordinate"}
	}
	t := c.source.Transform()
	px, err := t.NAD83ToPx(coord)
	if err != nil {
		return err
	}
	if !t.PxSize().Contains(px) {
		return &ErrCoordOffChart{Coord: coord}
	}

	c.zoom = 1
	c.pendingScroll = &ScrollPos{
		X: float32(px.X) - float32(c.dispRect.Size.W)/2,
		Y: float32(px.Y) - float32(c.dispRect.Size.H)/2,
	}
	*c.pendingScroll = settleScroll(*c.pendingScroll)
	c.repaint()
	return nil
}

// OnSecondaryClick handles a right click at a viewport position: it
// resolves the clicked NAD83 coordinate for display and asks the airport
// worker for airports near the click.
func (c *Controller) OnSecondaryClick(pos ScrollPos) (Coord, error) {
	if c.source == nil {
		return Coord{}, &ErrNoChart{Op: "click"}
	}
	t := c.source.Transform()

	px := geo.Coord{
		X: float64(c.scroll.X+pos.X) / float64(c.zoom),
		Y: float64(c.scroll.Y+pos.Y) / float64(c.zoom),
	}
	coord, err := t.PxToNAD83(px)
	if err != nil {
		return Coord{}, err
	}

	if c.airports != nil {
		dist := t.PxToDist(clickRadiusPx / float64(c.zoom))
		c.airports.Nearby(t.PxToChart(px), dist)
	}
	return coord, nil
}

// SearchAirports asks the airport worker for airports matching the term,
// restricted to the open chart's bounds when a chart is open.
func (c *Controller) SearchAirports(term string) {
	if c.airports == nil {
		return
	}
	var bounds Bounds
	if c.source != nil {
		bounds = c.source.Transform().Bounds()
	}
	c.airports.Search(term, bounds)
}

// GotoAirport looks up an airport ID; the viewport recenters on it when
// the lookup reply arrives.
func (c *Controller) GotoAirport(id string) {
	if c.airports == nil {
		return
	}
	c.airports.LookupByID(id)
}

// request submits a tile request unless the same part is already in
// flight.
func (c *Controller) request(part ImagePart) {
	if _, inflight := c.pending[part]; inflight {
		return
	}
	c.pending[part] = struct{}{}
	c.source.ReadImage(part)
}

// minZoom is the zoom at which the chart just fills the viewport on its
// larger axis, floored so a huge viewport cannot zoom out indefinitely.
func (c *Controller) minZoom(viewSize Size) float32 {
	chart := c.source.Transform().PxSize()
	fitW := float32(viewSize.W) / float32(chart.W)
	fitH := float32(viewSize.H) / float32(chart.H)
	return max(max(fitW, fitH), minZoomFloor)
}

// contentSize is the full chart size at the current zoom.
func (c *Controller) contentSize() Size {
	chart := c.source.Transform().PxSize()
	return Size{
		W: int(float32(chart.W) * c.zoom),
		H: int(float32(chart.H) * c.zoom),
	}
}

// clampScroll keeps the scroll position inside the scrollable content.
func (c *Controller) clampScroll(viewSize Size) {
	content := c.contentSize()
	maxX := max(0, float32(content.W-viewSize.W))
	maxY := max(0, float32(content.H-viewSize.H))
	c.scroll.X = max(0, min(c.scroll.X, maxX))
	c.scroll.Y = max(0, min(c.scroll.Y, maxY))
}

// clampZoom limits a zoom factor to [minZoom, 1].
func clampZoom(zoom, minZoom float32) float32 {
	if zoom > 1 {
		return 1
	}
	if zoom < minZoom {
		return minZoom
	}
	return zoom
}

// settleScroll truncates a scroll position to whole pixels and floors it
// at zero.
func settleScroll(pos ScrollPos) ScrollPos {
	return ScrollPos{
		X: max(0, float32(int(pos.X))),
		Y: max(0, float32(int(pos.Y))),
	}
}

// centerAnchor is the viewport center as a zoom anchor.
func centerAnchor(viewSize Size) ScrollPos {
	return ScrollPos{X: float32(viewSize.W) / 2, Y: float32(viewSize.H) / 2}
}

// filterAirports drops private-use heliports from display results. They
// stay in the table and in raw worker replies.
func filterAirports(airports []Airport) []Airport {
	var result []Airport
	for _, apt := range airports {
		if apt.NonPublicHeliport() {
			continue
		}
		result = append(result, apt)
	}
	return result
}
