// Command vfrchart inspects VFR chart bundles from the command line: chart
// metadata, tile decoding to PNG, and airport queries. It drives the same
// workers the interactive viewer uses.
package main

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"golang.org/x/image/draw"

	"github.com/beetlebugorg/vfrchart/internal/geo"
	"github.com/beetlebugorg/vfrchart/internal/raster"
	vfrchart "github.com/beetlebugorg/vfrchart/pkg/v1"
)

var cli struct {
	Verbose bool `short:"v" help:"Enable debug logging."`

	Info     InfoCmd     `cmd:"" help:"Show chart or archive metadata."`
	Tile     TileCmd     `cmd:"" help:"Decode one tile to a PNG file."`
	Airports AirportsCmd `cmd:"" help:"Query a NASR airport table."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("vfrchart"),
		kong.Description("Inspect raster VFR charts and NASR airport data."),
	)

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	kctx.FatalIfErrorf(kctx.Run())
}

// InfoCmd prints metadata for a chart or lists the charts in an archive.
type InfoCmd struct {
	Path string `arg:"" help:"Chart path, \"archive.zip!entry.tif\", or a zip archive."`
}

func (c *InfoCmd) Run() error {
	// A zip without an entry selector gets cataloged instead of opened.
	if strings.HasSuffix(strings.ToLower(c.Path), ".zip") && !strings.Contains(c.Path, "!") {
		return c.listArchive()
	}

	src, err := vfrchart.OpenSource(c.Path, nil)
	if err != nil {
		return err
	}
	defer src.Close()

	t := src.Transform()
	size := t.PxSize()
	bounds := t.Bounds()

	fmt.Printf("Chart:      %s\n", c.Path)
	fmt.Printf("Size:       %d x %d px\n", size.W, size.H)
	fmt.Printf("Projection: %s\n", t.ProjDef())
	if !bounds.IsZero() {
		fmt.Printf("Bounds:     %.4f..%.4f lon, %.4f..%.4f lat\n",
			bounds.MinLon, bounds.MaxLon, bounds.MinLat, bounds.MaxLat)
	}
	fmt.Printf("Resolution: %.2f m/px\n", t.PxToDist(1))
	return nil
}

func (c *InfoCmd) listArchive() error {
	cat, err := raster.ScanZip(c.Path)
	if err != nil {
		return err
	}
	switch cat.Kind {
	case raster.ZipAero:
		fmt.Printf("%s: NASR aeronautical data (%s)\n", c.Path, cat.AptCSV)
	case raster.ZipChart:
		fmt.Printf("%s: %d chart(s)\n", c.Path, len(cat.Charts))
		for _, entry := range cat.Charts {
			fmt.Printf("  %-30s %s\n", entry.Name, entry.Path)
		}
	}
	return nil
}

// TileCmd decodes one tile the way the viewer would and writes it as PNG.
type TileCmd struct {
	Chart  string  `arg:"" help:"Chart path or \"archive.zip!entry.tif\"."`
	Out    string  `short:"o" default:"tile.png" help:"Output PNG path."`
	X      int     `default:"0" help:"Display-space left edge."`
	Y      int     `default:"0" help:"Display-space top edge."`
	Width  int     `default:"1024" help:"Tile width in pixels."`
	Height int     `default:"1024" help:"Tile height in pixels."`
	Zoom   float32 `default:"1" help:"Zoom factor in (0, 1]."`
	Night  bool    `help:"Use the night palette."`
	Scale  float64 `default:"0" help:"Post-scale factor for previews, 0 to disable."`
}

func (c *TileCmd) Validate(kctx *kong.Context) error {
	if !(c.Zoom > 0) || c.Zoom > 1 {
		return fmt.Errorf("zoom %g out of range (0, 1]", c.Zoom)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid tile size %dx%d", c.Width, c.Height)
	}
	return nil
}

func (c *TileCmd) Run() error {
	painted := make(chan struct{}, 1)
	repaint := func() {
		select {
		case painted <- struct{}{}:
		default:
		}
	}

	src, err := vfrchart.OpenSource(c.Chart, repaint)
	if err != nil {
		return err
	}
	defer src.Close()

	part := vfrchart.NewImagePart(
		geo.Rect{Pos: geo.Pos{X: c.X, Y: c.Y}, Size: geo.Size{W: c.Width, H: c.Height}},
		c.Zoom, c.Night,
	)
	slog.Debug("requesting tile", "rect", part.Rect, "zoom", part.Zoom, "night", part.Night)
	src.ReadImage(part)

	reply, err := awaitReply(painted, src.NextReply)
	if err != nil {
		return err
	}

	var img *image.RGBA
	switch r := reply.(type) {
	case vfrchart.ImageReply:
		img = r.Image
	case vfrchart.ErrorReply:
		return fmt.Errorf("decode tile: %w", r.Err)
	default:
		return fmt.Errorf("unexpected reply %T", reply)
	}

	if c.Scale > 0 && c.Scale != 1 {
		img = rescale(img, c.Scale)
	}

	out, err := os.Create(c.Out)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("encode %s: %w", c.Out, err)
	}
	slog.Info("tile written", "path", c.Out, "size", img.Bounds().Size())
	return nil
}

// rescale resamples a decoded tile for preview output.
func rescale(img *image.RGBA, factor float64) *image.RGBA {
	b := img.Bounds()
	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// AirportsCmd groups airport table queries.
type AirportsCmd struct {
	Data string `arg:"" help:"NASR subscription zip or APT_BASE.csv."`

	Nearby NearbyCmd `cmd:"" help:"List airports near a coordinate."`
	Search SearchCmd `cmd:"" help:"Search airports by ID or name."`
	ID     IDCmd     `cmd:"" help:"Look up one airport by ID."`
}

// NearbyCmd lists airports within a radius of a NAD83 coordinate. The
// radius comparison runs in the projected frame of the given chart, the
// same way a right click in the viewer does.
type NearbyCmd struct {
	Chart  string  `required:"" help:"Chart supplying the projection."`
	Lat    float64 `arg:"" help:"Latitude, decimal degrees."`
	Lon    float64 `arg:"" help:"Longitude, decimal degrees."`
	Radius float64 `default:"5000" help:"Radius in meters."`
}

func (c *NearbyCmd) Run(parent *AirportsCmd) error {
	src, err := vfrchart.OpenSource(c.Chart, nil)
	if err != nil {
		return err
	}
	defer src.Close()

	painted := make(chan struct{}, 1)
	apt, err := vfrchart.OpenAirports(parent.Data, func() {
		select {
		case painted <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer apt.Close()

	t := src.Transform()
	center, err := t.NAD83ToChart(geo.Coord{X: c.Lon, Y: c.Lat})
	if err != nil {
		return err
	}

	apt.SetSpatialRef(t.ProjDef())
	apt.Nearby(center, c.Radius)

	reply, err := awaitReply(painted, func() vfrchart.AirportReply { return apt.NextReply() })
	if err != nil {
		return err
	}
	return printAirports(reply.(vfrchart.NearbyReply).Airports)
}

// SearchCmd searches by exact ID or name substring.
type SearchCmd struct {
	Term  string `arg:"" help:"Airport ID or name fragment."`
	Chart string `help:"Restrict results to this chart's coverage."`
}

func (c *SearchCmd) Run(parent *AirportsCmd) error {
	painted := make(chan struct{}, 1)
	apt, err := vfrchart.OpenAirports(parent.Data, func() {
		select {
		case painted <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer apt.Close()

	var bounds geo.Bounds
	if c.Chart != "" {
		src, err := vfrchart.OpenSource(c.Chart, nil)
		if err != nil {
			return err
		}
		bounds = src.Transform().Bounds()
		src.Close()
	}

	apt.Search(c.Term, bounds)
	reply, err := awaitReply(painted, func() vfrchart.AirportReply { return apt.NextReply() })
	if err != nil {
		return err
	}
	return printAirports(reply.(vfrchart.SearchReply).Airports)
}

// IDCmd looks up a single airport.
type IDCmd struct {
	ID string `arg:"" help:"Airport ID, e.g. OMA."`
}

func (c *IDCmd) Run(parent *AirportsCmd) error {
	painted := make(chan struct{}, 1)
	apt, err := vfrchart.OpenAirports(parent.Data, func() {
		select {
		case painted <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer apt.Close()

	apt.LookupByID(c.ID)
	reply, err := awaitReply(painted, func() vfrchart.AirportReply { return apt.NextReply() })
	if err != nil {
		return err
	}

	found := reply.(vfrchart.LookupReply).Airport
	if found == nil {
		return fmt.Errorf("no airport with ID %q", c.ID)
	}
	return printAirports([]vfrchart.Airport{*found})
}

// awaitReply polls a worker's reply queue, waking on repaint signals, until
// a reply arrives or the deadline passes.
func awaitReply[T comparable](painted <-chan struct{}, next func() T) (T, error) {
	var zero T
	deadline := time.After(30 * time.Second)
	for {
		if reply := next(); reply != zero {
			return reply, nil
		}
		select {
		case <-painted:
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			return zero, fmt.Errorf("timed out waiting for worker reply")
		}
	}
}

func printAirports(airports []vfrchart.Airport) error {
	if len(airports) == 0 {
		fmt.Println("no airports found")
		return nil
	}
	for _, apt := range airports {
		use := "public"
		if apt.Private {
			use = "private"
		}
		fmt.Printf("%-5s %-40s %-13s %-8s %9.4f %10.4f\n",
			apt.ID, apt.Name, apt.Site, use, apt.Coord.Y, apt.Coord.X)
	}
	return nil
}
