package vfrchart

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dhconnelly/rtreego"

	"github.com/beetlebugorg/vfrchart/internal/geo"
	"github.com/beetlebugorg/vfrchart/internal/msg"
	"github.com/beetlebugorg/vfrchart/internal/nasr"
)

// AirportReply is a message from the airport worker back to the UI side. It
// is one of NearbyReply, SearchReply or LookupReply.
type AirportReply interface {
	isAirportReply()
}

// NearbyReply carries the airports within a requested radius, unfiltered.
type NearbyReply struct {
	Airports []nasr.Airport
}

// SearchReply carries the airports matching a search term, unfiltered.
type SearchReply struct {
	Airports []nasr.Airport
}

// LookupReply carries the result of an ID lookup. Airport is nil when the
// ID is unknown.
type LookupReply struct {
	Airport *nasr.Airport
}

func (NearbyReply) isAirportReply() {}
func (SearchReply) isAirportReply() {}
func (LookupReply) isAirportReply() {}

// aptRequestKind discriminates airport worker requests.
type aptRequestKind int

const (
	aptSpatialRef aptRequestKind = iota
	aptNearby
	aptSearch
	aptLookup
	aptExit
)

// aptRequest is a message to the airport worker.
type aptRequest struct {
	kind    aptRequestKind
	projDef string     // aptSpatialRef
	coord   geo.Coord  // aptNearby, chart coordinates
	dist    float64    // aptNearby, meters
	term    string     // aptSearch, aptLookup
	bounds  geo.Bounds // aptSearch, zero value searches everywhere
}

// Airports answers spatial and textual queries against a loaded NASR
// airport table on a background worker goroutine.
//
// The worker projects the table into the open chart's coordinate frame when
// SetSpatialRef is called and keeps the projected points in an R-tree, so a
// radius query touches only the airports near the click. Queries submitted
// before a spatial reference is set answer with empty results rather than
// erroring; the UI treats "no chart yet" the same as "nothing found".
//
// Unlike the tile worker, every request is answered; queries are cheap and
// the UI keeps each reply it asked for.
type Airports struct {
	requests  *msg.Queue[aptRequest]
	replies   *msg.Queue[AirportReply]
	done      chan struct{}
	closeOnce sync.Once

	// Requests submitted but not yet answered. The UI shows a busy cursor
	// while this is non-zero.
	outstanding atomic.Int64
}

// OpenAirports loads an airport table and starts its worker.
//
// The path is either a NASR subscription zip or a plain APT_BASE.csv. The
// repaint callback follows the same contract as OpenSource's.
func OpenAirports(name string, repaint func()) (*Airports, error) {
	table, err := nasr.Load(name)
	if err != nil {
		return nil, err
	}
	return newAirports(table, repaint), nil
}

// newAirports wires up the queues and starts the worker.
func newAirports(table *nasr.Table, repaint func()) *Airports {
	a := &Airports{
		requests: msg.NewQueue[aptRequest](),
		replies:  msg.NewQueue[AirportReply](),
		done:     make(chan struct{}),
	}
	if repaint == nil {
		repaint = func() {}
	}
	go a.run(table, repaint)
	return a
}

// SetSpatialRef gives the worker the open chart's projection definition.
// The airport table is reprojected into the chart's frame so Nearby can
// compare planar distances in meters. Until this is called, Nearby answers
// with an empty result.
func (a *Airports) SetSpatialRef(projDef string) {
	a.requests.Push(aptRequest{kind: aptSpatialRef, projDef: projDef})
}

// Nearby requests the airports strictly within dist meters of a chart
// coordinate.
func (a *Airports) Nearby(coord geo.Coord, dist float64) {
	a.outstanding.Add(1)
	a.requests.Push(aptRequest{kind: aptNearby, coord: coord, dist: dist})
}

// Search requests the airports whose ID equals term or whose name contains
// it, case-insensitively. A non-zero bounds restricts matches to airports
// inside it; the viewport controller passes the chart's bounds so results
// stay on the open chart.
func (a *Airports) Search(term string, bounds geo.Bounds) {
	a.outstanding.Add(1)
	a.requests.Push(aptRequest{kind: aptSearch, term: term, bounds: bounds})
}

// LookupByID requests the airport with the exact ID, case-insensitively.
func (a *Airports) LookupByID(id string) {
	a.outstanding.Add(1)
	a.requests.Push(aptRequest{kind: aptLookup, term: id})
}

// RequestCount returns the number of submitted queries not yet answered.
func (a *Airports) RequestCount() int64 {
	return a.outstanding.Load()
}

// NextReply returns the next queued reply, or nil if none is pending.
func (a *Airports) NextReply() AirportReply {
	reply, ok := a.replies.TryPop()
	if !ok {
		return nil
	}
	return reply
}

// Close tells the worker to exit and waits for it to finish. Close is
// idempotent.
func (a *Airports) Close() {
	a.closeOnce.Do(func() {
		a.requests.Push(aptRequest{kind: aptExit})
		<-a.done
		a.requests.Close()
		a.replies.Close()
	})
}

// run is the airport worker.
func (a *Airports) run(table *nasr.Table, repaint func()) {
	defer close(a.done)

	var index *aptIndex
	for {
		req, ok := a.requests.Pop()
		if !ok || req.kind == aptExit {
			return
		}

		switch req.kind {
		case aptSpatialRef:
			index = buildAptIndex(table, req.projDef)
		case aptNearby:
			a.replies.Push(NearbyReply{Airports: index.nearby(req.coord, req.dist)})
			a.outstanding.Add(-1)
			repaint()
		case aptSearch:
			a.replies.Push(SearchReply{Airports: searchTable(table, req.term, req.bounds)})
			a.outstanding.Add(-1)
			repaint()
		case aptLookup:
			a.replies.Push(LookupReply{Airport: lookupTable(table, req.term)})
			a.outstanding.Add(-1)
			repaint()
		}
	}
}

// aptPoint is one airport projected into chart coordinates, stored in the
// R-tree.
type aptPoint struct {
	airport nasr.Airport
	coord   geo.Coord // chart coordinates, meters
}

// Bounds implements rtreego.Spatial. R-tree rectangles need non-zero
// dimensions, so a point gets a tiny box around it.
func (p *aptPoint) Bounds() rtreego.Rect {
	const epsilon = 1e-6
	point := rtreego.Point{p.coord.X, p.coord.Y}
	rect, _ := rtreego.NewRect(point, []float64{epsilon, epsilon})
	return rect
}

// aptIndex is the R-tree over projected airports. A nil index answers
// every query with no results.
type aptIndex struct {
	rtree *rtreego.Rtree
}

// buildAptIndex projects the table into the chart frame described by
// projDef. Airports the projection rejects are left out; an invalid
// definition yields a nil index.
func buildAptIndex(table *nasr.Table, projDef string) *aptIndex {
	proj, err := geo.NewProjection(projDef)
	if err != nil {
		return nil
	}

	rtree := rtreego.NewTree(2, 25, 50)
	for _, apt := range table.Airports() {
		coord, err := proj.Forward(apt.Coord)
		if err != nil {
			continue
		}
		rtree.Insert(&aptPoint{airport: apt, coord: coord})
	}
	return &aptIndex{rtree: rtree}
}

// nearby returns the airports strictly within dist meters of a chart
// coordinate. An airport exactly dist away is excluded.
func (idx *aptIndex) nearby(coord geo.Coord, dist float64) []nasr.Airport {
	if idx == nil || dist <= 0 {
		return nil
	}

	point := rtreego.Point{coord.X - dist, coord.Y - dist}
	queryRect, _ := rtreego.NewRect(point, []float64{2 * dist, 2 * dist})
	spatials := idx.rtree.SearchIntersect(queryRect)

	// The R-tree answers with a bounding-box overapproximation; refine to
	// the circle.
	var result []nasr.Airport
	for _, spatial := range spatials {
		p := spatial.(*aptPoint)
		dx := p.coord.X - coord.X
		dy := p.coord.Y - coord.Y
		if dx*dx+dy*dy < dist*dist {
			result = append(result, p.airport)
		}
	}
	return result
}

// searchTable scans the table for airports whose ID equals term or whose
// name contains it, case-insensitively. A non-zero bounds restricts the
// matches to airports inside it.
func searchTable(table *nasr.Table, term string, bounds geo.Bounds) []nasr.Airport {
	term = normalizeTerm(term)
	if term == "" {
		return nil
	}

	var result []nasr.Airport
	for _, apt := range table.Airports() {
		if apt.ID != term && !containsFold(apt.Name, term) {
			continue
		}
		if !bounds.IsZero() && !bounds.Contains(apt.Coord.X, apt.Coord.Y) {
			continue
		}
		result = append(result, apt)
	}
	return result
}

// normalizeTerm uppercases a query term to match the NASR table, which is
// all uppercase.
func normalizeTerm(term string) string {
	return strings.ToUpper(strings.TrimSpace(term))
}

// containsFold reports whether name contains the already-uppercased term.
func containsFold(name, term string) bool {
	return strings.Contains(strings.ToUpper(name), term)
}

// lookupTable finds the airport with the exact ID, case-insensitively.
func lookupTable(table *nasr.Table, id string) *nasr.Airport {
	id = normalizeTerm(id)
	for _, apt := range table.Airports() {
		if apt.ID == id {
			return &apt
		}
	}
	return nil
}
