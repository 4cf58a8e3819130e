package nasr

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/beetlebugorg/vfrchart/internal/geo"
)

// aptBase is the airport table entry inside a NASR subscription zip.
const aptBase = "APT_BASE.csv"

// Table is a loaded airport table.
type Table struct {
	airports []Airport
}

// Load reads the airport table.
//
// The path is either a NASR zip (the APT_BASE.csv entry is located inside
// it) or a plain .csv file. Records with missing or malformed fields are
// skipped, matching the tolerant reading the FAA data requires.
func Load(name string) (*Table, error) {
	rc, err := openTable(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	airports, err := parseTable(rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", aptBase, err)
	}
	return &Table{airports: airports}, nil
}

// NewTable builds a table from records directly, bypassing the CSV reader.
func NewTable(airports []Airport) *Table {
	return &Table{airports: airports}
}

// Airports returns all loaded records.
func (t *Table) Airports() []Airport {
	return t.airports
}

// Len returns the number of loaded records.
func (t *Table) Len() int {
	return len(t.airports)
}

// openTable opens the CSV stream, looking inside a zip when given one.
func openTable(name string) (io.ReadCloser, error) {
	if strings.EqualFold(path.Ext(name), ".csv") {
		return os.Open(name)
	}

	zr, err := zip.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	for _, f := range zr.File {
		if path.Base(f.Name) == aptBase {
			rc, err := f.Open()
			if err != nil {
				zr.Close()
				return nil, err
			}
			return &zipEntryReader{rc: rc, zr: zr}, nil
		}
	}
	zr.Close()
	return nil, fmt.Errorf("%s not found in %s", aptBase, name)
}

// zipEntryReader closes the archive together with the entry stream.
type zipEntryReader struct {
	rc io.ReadCloser
	zr *zip.ReadCloser
}

func (z *zipEntryReader) Read(p []byte) (int, error) { return z.rc.Read(p) }

func (z *zipEntryReader) Close() error {
	err := z.rc.Close()
	if cerr := z.zr.Close(); err == nil {
		err = cerr
	}
	return err
}

// parseTable reads the airport CSV. Column positions come from the header
// row, so NASR column reordering between cycles is harmless.
func parseTable(r io.Reader) ([]Airport, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	required := []string{
		"ARPT_ID", "ARPT_NAME", "SITE_TYPE_CODE", "FACILITY_USE_CODE",
		"LAT_DEG", "LAT_MIN", "LAT_SEC", "LAT_HEMIS",
		"LONG_DEG", "LONG_MIN", "LONG_SEC", "LONG_HEMIS",
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %s", name)
		}
	}

	var airports []Airport
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		apt, ok := parseAirport(record, col)
		if !ok {
			continue
		}
		airports = append(airports, apt)
	}
	return airports, nil
}

func parseAirport(record []string, col map[string]int) (Airport, bool) {
	field := func(name string) string {
		i := col[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	id := field("ARPT_ID")
	name := field("ARPT_NAME")
	site := siteTypeFromCode(field("SITE_TYPE_CODE"))
	if id == "" || name == "" || site == SiteUnknown {
		return Airport{}, false
	}

	latDeg, err1 := strconv.ParseFloat(field("LAT_DEG"), 64)
	latMin, err2 := strconv.ParseFloat(field("LAT_MIN"), 64)
	latSec, err3 := strconv.ParseFloat(field("LAT_SEC"), 64)
	lonDeg, err4 := strconv.ParseFloat(field("LONG_DEG"), 64)
	lonMin, err5 := strconv.ParseFloat(field("LONG_MIN"), 64)
	lonSec, err6 := strconv.ParseFloat(field("LONG_SEC"), 64)
	for _, err := range []error{err1, err2, err3, err4, err5, err6} {
		if err != nil {
			return Airport{}, false
		}
	}

	return Airport{
		ID:   id,
		Name: name,
		Coord: geo.Coord{
			X: toDecDeg(lonDeg, lonMin, lonSec, field("LONG_HEMIS")),
			Y: toDecDeg(latDeg, latMin, latSec, field("LAT_HEMIS")),
		},
		Site:    site,
		Private: field("FACILITY_USE_CODE") == "PR",
	}, true
}
