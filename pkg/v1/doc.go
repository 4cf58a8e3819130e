// Package vfrchart streams raster VFR chart tiles to an interactive viewer.
//
// This package is designed for UI frameworks that render in an immediate-mode
// loop. It keeps chart decoding and airport queries off the UI thread: two
// background workers own the raster and the airport table, the UI talks to
// them through ordered non-blocking queues, and a Controller reconciles the
// viewport once per frame.
//
// # Basic Usage
//
//	ctl := vfrchart.NewController(nil, repaint)
//	if err := ctl.OpenZip("Omaha_SEC.zip"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Rendering Workflow
//
// The typical frame calls OnFrame once and draws what it returns:
//
//	frame := ctl.OnFrame(viewSize)
//	if frame.Image != nil {
//	    blit(frame.Image, frame.Scroll)
//	}
//
// OnFrame drains worker replies, clamps zoom and scroll, and requests the
// visible tile if it is neither decoded nor already in flight. When a fast
// gesture queues many requests, the decode worker collapses them to the
// newest and answers the rest with CanceledReply, so the chart snaps to the
// final view without decoding the intermediate ones.
//
// # Airports
//
// Loading a NASR subscription zip with OpenZip adds an airport table. Right
// clicks resolve the clicked coordinate and query airports near it; Search
// and GotoAirport work by identifier and name. Spatial queries run against
// an R-tree of airports projected into the open chart's coordinate frame.
//
// # Lower-level API
//
// Source and Airports are usable without the Controller for tools that
// want tiles or query results directly; see cmd/vfrchart for an example.
package vfrchart
