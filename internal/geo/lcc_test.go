package geo

import (
	"errors"
	"math"
	"testing"
)

// A projection definition in the shape FAA sectional charts carry.
const sectionalProj = "+proj=lcc +lat_0=41.25 +lon_0=-95.75 +lat_1=45.0 +lat_2=33.0 +x_0=0 +y_0=0 +datum=NAD83 +units=m +no_defs"

func TestLambertConicValidation(t *testing.T) {
	tests := []struct {
		name string
		def  string
	}{
		{"empty", ""},
		{"wrong projection", "+proj=merc +datum=NAD83 +units=m"},
		{"wrong datum", "+proj=lcc +lat_1=45 +lat_2=33 +datum=WGS84 +units=m"},
		{"wrong units", "+proj=lcc +lat_1=45 +lat_2=33 +datum=NAD83 +units=us-ft"},
		{"missing units", "+proj=lcc +lat_1=45 +lat_2=33 +datum=NAD83"},
		{"parallel at pole", "+proj=lcc +lat_1=90 +lat_2=33 +datum=NAD83 +units=m"},
		{"symmetric parallels", "+proj=lcc +lat_1=30 +lat_2=-30 +datum=NAD83 +units=m"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := newLambertConic(tc.def); err == nil {
				t.Errorf("newLambertConic(%q) succeeded, want ErrInvalidSpatialReference", tc.def)
			} else {
				var sr *ErrInvalidSpatialReference
				if !errors.As(err, &sr) {
					t.Errorf("newLambertConic(%q) = %v, want ErrInvalidSpatialReference", tc.def, err)
				}
			}
		})
	}
}

func TestLambertConicAccepted(t *testing.T) {
	defs := []string{
		sectionalProj,
		// Case differences and a single standard parallel must be accepted.
		"+proj=LCC +lat_0=40 +lon_0=-100 +lat_1=40 +datum=nad83 +units=M",
		"+proj=lcc +lat_0=40 +lon_0=-100 +datum=NAD83 +units=m",
	}
	for _, def := range defs {
		if _, err := newLambertConic(def); err != nil {
			t.Errorf("newLambertConic(%q) failed: %v", def, err)
		}
	}
}

func TestLambertConicRoundTrip(t *testing.T) {
	proj, err := newLambertConic(sectionalProj)
	if err != nil {
		t.Fatalf("newLambertConic failed: %v", err)
	}

	coords := []Coord{
		{-95.75, 41.25}, // projection origin
		{-98.0, 40.0},
		{-93.5, 43.5},
		{-90.0, 35.0},
		{-104.25, 45.1},
	}
	for _, want := range coords {
		chart, err := proj.Forward(want)
		if err != nil {
			t.Fatalf("Forward(%v) failed: %v", want, err)
		}
		got, err := proj.Inverse(chart)
		if err != nil {
			t.Fatalf("Inverse(%v) failed: %v", chart, err)
		}
		if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 {
			t.Errorf("round trip of %v = %v", want, got)
		}
	}
}

func TestLambertConicOrientation(t *testing.T) {
	proj, err := newLambertConic(sectionalProj)
	if err != nil {
		t.Fatalf("newLambertConic failed: %v", err)
	}

	origin, err := proj.Forward(Coord{-95.75, 41.25})
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	if math.Abs(origin.X) > 1e-6 {
		t.Errorf("origin easting = %g, want 0", origin.X)
	}
	if math.Abs(origin.Y) > 1e-6 {
		t.Errorf("origin northing = %g, want 0", origin.Y)
	}

	east, _ := proj.Forward(Coord{-94.75, 41.25})
	if east.X <= origin.X {
		t.Errorf("point east of central meridian has X %g <= %g", east.X, origin.X)
	}

	north, _ := proj.Forward(Coord{-95.75, 42.25})
	if north.Y <= origin.Y {
		t.Errorf("point north of origin has Y %g <= %g", north.Y, origin.Y)
	}

	// One degree of latitude is roughly 111 km.
	dist := north.Y - origin.Y
	if dist < 105_000 || dist > 115_000 {
		t.Errorf("one degree of latitude spans %g m, want roughly 111 km", dist)
	}
}

func TestLambertConicDomain(t *testing.T) {
	proj, err := newLambertConic(sectionalProj)
	if err != nil {
		t.Fatalf("newLambertConic failed: %v", err)
	}

	// The south pole is opposite the cone apex for a northern cone.
	if _, err := proj.Forward(Coord{-95.75, -90}); err == nil {
		t.Error("Forward at the south pole succeeded, want ErrProjection")
	}

	if _, err := proj.Forward(Coord{-95.75, 91}); err == nil {
		t.Error("Forward with latitude 91 succeeded, want ErrProjection")
	}

	if _, err := proj.Forward(Coord{math.NaN(), 40}); err == nil {
		t.Error("Forward with NaN longitude succeeded, want ErrProjection")
	}
}
