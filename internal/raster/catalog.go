package raster

import (
	"archive/zip"
	"fmt"
	"path"
	"strings"
)

// Catalog describes what an asset zip contains: one or more charts, or an
// aeronautical data bundle.
type Catalog struct {
	Kind   ZipKind
	Charts []ChartEntry // Chart rasters, when Kind == ZipChart
	AptCSV string       // Airport table entry, when Kind == ZipAero
}

// ZipKind classifies an asset zip.
type ZipKind int

const (
	// ZipChart is a zip containing one or more chart rasters.
	ZipChart ZipKind = iota

	// ZipAero is a FAA NASR aeronautical data zip (airport table).
	ZipAero
)

// ChartEntry is one chart raster inside a zip.
type ChartEntry struct {
	Name string // Display name (file stem)
	Path string // Open path, "archive.zip!entry.tif"
}

// ScanZip inspects a zip archive and classifies its contents.
//
// A zip holding palette-indexed TIFFs with world-file sidecars is a chart
// zip; several charts may share one archive (sectional zips carry the main
// chart plus insets) and the caller picks one. A zip holding APT_BASE.csv
// is an aeronautical data zip. Anything else fails with ErrNoChartData.
func ScanZip(zipPath string) (*Catalog, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	names := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		names[f.Name] = true
	}

	var cat Catalog
	for _, f := range zr.File {
		ext := strings.ToLower(path.Ext(f.Name))
		switch {
		case ext == ".tif" || ext == ".tiff":
			base := f.Name[:len(f.Name)-len(ext)]
			// Only rasters with both sidecars are openable charts.
			if names[base+".tfw"] && names[base+".prj"] {
				cat.Charts = append(cat.Charts, ChartEntry{
					Name: path.Base(base),
					Path: zipPath + "!" + f.Name,
				})
			}
		case path.Base(f.Name) == "APT_BASE.csv":
			cat.Kind = ZipAero
			cat.AptCSV = f.Name
		}
	}

	if cat.Kind == ZipAero {
		return &cat, nil
	}
	if len(cat.Charts) > 0 {
		cat.Kind = ZipChart
		return &cat, nil
	}
	return nil, &ErrNoChartData{Path: zipPath}
}
