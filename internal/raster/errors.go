package raster

import (
	"fmt"
)

// ErrRasterNotFound indicates that no palette-indexed raster was found in
// the opened file.
type ErrRasterNotFound struct {
	Path string
}

func (e *ErrRasterNotFound) Error() string {
	return fmt.Sprintf("no palette-indexed raster in %s", e.Path)
}

// ErrPaletteNotFound indicates a palette-indexed raster without a color
// table.
type ErrPaletteNotFound struct {
	Path string
}

func (e *ErrPaletteNotFound) Error() string {
	return fmt.Sprintf("no color table in %s", e.Path)
}

// ErrInvalidPalette indicates a color table that does not have the required
// number of entries.
type ErrInvalidPalette struct {
	Entries int
}

func (e *ErrInvalidPalette) Error() string {
	return fmt.Sprintf("invalid color table: %d entries, want %d", e.Entries, paletteEntries)
}

// ErrMissingSidecar indicates a chart raster without its world-file or
// projection sidecar.
type ErrMissingSidecar struct {
	Name string
}

func (e *ErrMissingSidecar) Error() string {
	return fmt.Sprintf("missing sidecar file %s", e.Name)
}

// ErrEmptyRead indicates a read request whose source rectangle lies outside
// the raster.
type ErrEmptyRead struct {
	X, Y, W, H int
}

func (e *ErrEmptyRead) Error() string {
	return fmt.Sprintf("read window %dx%d at (%d, %d) is outside the raster",
		e.W, e.H, e.X, e.Y)
}

// ErrNoChartData indicates a zip archive that contains neither charts nor
// aeronautical data.
type ErrNoChartData struct {
	Path string
}

func (e *ErrNoChartData) Error() string {
	return fmt.Sprintf("no chart or aeronautical data in %s", e.Path)
}
