// Package raster opens and reads palette-indexed raster charts.
//
// A chart is a GEO-TIFF-style bundle: a palette-indexed TIFF plus a
// world-file sidecar (.tfw, the affine pixel-to-chart transform) and a
// projection sidecar (.prj, a PROJ-style definition string). Charts are
// addressed either as a plain path or as "archive.zip!entry.tif" to read
// directly out of a zip archive without extracting it.
package raster

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/beetlebugorg/vfrchart/internal/geo"
)

// paletteEntries is the required color table size for a chart raster.
const paletteEntries = 256

// Dataset is an opened chart raster. It is read-only after Open and owned
// exclusively by the decode worker.
type Dataset struct {
	width   int
	height  int
	indices []uint8
	palette [paletteEntries]color.RGBA
	gt      geo.GeoTransform
	projDef string
}

// Open opens a chart dataset.
//
// The path is either a plain TIFF path or "archive.zip!entry.tif". The
// world-file and projection sidecars are resolved next to the raster, with
// the same base name.
func Open(name string) (*Dataset, error) {
	src, err := newSource(name)
	if err != nil {
		return nil, err
	}
	defer src.close()

	raw, err := src.read(src.entry)
	if err != nil {
		return nil, fmt.Errorf("read raster: %w", err)
	}
	img, err := tiff.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode raster: %w", err)
	}

	base := strings.TrimSuffix(src.entry, path.Ext(src.entry))

	world, err := src.read(base + ".tfw")
	if err != nil {
		return nil, &ErrMissingSidecar{Name: base + ".tfw"}
	}
	gt, err := parseWorldFile(string(world))
	if err != nil {
		return nil, fmt.Errorf("world file %s: %w", base+".tfw", err)
	}

	proj, err := src.read(base + ".prj")
	if err != nil {
		return nil, &ErrMissingSidecar{Name: base + ".prj"}
	}

	return fromImage(name, img, gt, strings.TrimSpace(string(proj)))
}

// fromImage validates the decoded raster and builds the dataset. The chart
// raster must be palette-indexed with a full 256-entry color table.
func fromImage(name string, img image.Image, gt geo.GeoTransform, projDef string) (*Dataset, error) {
	paletted, ok := img.(*image.Paletted)
	if !ok {
		return nil, &ErrRasterNotFound{Path: name}
	}
	if len(paletted.Palette) == 0 {
		return nil, &ErrPaletteNotFound{Path: name}
	}
	if len(paletted.Palette) != paletteEntries {
		return nil, &ErrInvalidPalette{Entries: len(paletted.Palette)}
	}

	ds := &Dataset{
		width:   paletted.Rect.Dx(),
		height:  paletted.Rect.Dy(),
		gt:      gt,
		projDef: projDef,
	}

	// Repack the pixel data so rows are exactly width bytes.
	ds.indices = make([]uint8, ds.width*ds.height)
	for y := 0; y < ds.height; y++ {
		row := paletted.Pix[y*paletted.Stride : y*paletted.Stride+ds.width]
		copy(ds.indices[y*ds.width:], row)
	}

	for i, entry := range paletted.Palette {
		r, g, b, a := entry.RGBA()
		ds.palette[i] = color.RGBA{
			R: uint8(r >> 8),
			G: uint8(g >> 8),
			B: uint8(b >> 8),
			A: uint8(a >> 8),
		}
	}

	return ds, nil
}

// Size returns the raster size in pixels.
func (d *Dataset) Size() geo.Size {
	return geo.Size{W: d.width, H: d.height}
}

// GeoTransform returns the affine pixel-to-chart transform.
func (d *Dataset) GeoTransform() geo.GeoTransform {
	return d.gt
}

// ProjDef returns the projection definition from the .prj sidecar.
func (d *Dataset) ProjDef() string {
	return d.projDef
}

// Palette returns the chart's 256-entry color table.
func (d *Dataset) Palette() [paletteEntries]color.RGBA {
	return d.palette
}

// source abstracts over plain files and zip archives for Open.
type source struct {
	entry string
	zr    *zip.ReadCloser
	dir   string
}

func newSource(name string) (*source, error) {
	archive, entry, ok := strings.Cut(name, "!")
	if !ok {
		return &source{entry: filepath.Base(name), dir: filepath.Dir(name)}, nil
	}
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	return &source{entry: entry, zr: zr}, nil
}

func (s *source) read(entry string) ([]byte, error) {
	if s.zr == nil {
		return os.ReadFile(filepath.Join(s.dir, entry))
	}
	for _, f := range s.zr.File {
		if f.Name == entry {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("entry not found in zip: %s", entry)
}

func (s *source) close() {
	if s.zr != nil {
		s.zr.Close()
	}
}

// parseWorldFile parses the six numbers of an ESRI world file into a
// geo-transform. World files store the coordinate of the top-left pixel
// center; the geo-transform anchors at its corner.
func parseWorldFile(text string) (geo.GeoTransform, error) {
	fields := strings.Fields(text)
	if len(fields) != 6 {
		return geo.GeoTransform{}, fmt.Errorf("want 6 values, got %d", len(fields))
	}

	var v [6]float64
	for i, field := range fields {
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return geo.GeoTransform{}, fmt.Errorf("value %d: %w", i+1, err)
		}
		v[i] = f
	}

	// World file order: x-scale, y-rotation, x-rotation, y-scale, x-center, y-center.
	a, d, b, e, c, f := v[0], v[1], v[2], v[3], v[4], v[5]
	return geo.GeoTransform{
		c - (a+b)/2,
		a,
		b,
		f - (d+e)/2,
		d,
		e,
	}, nil
}
