// Package nasr reads airport records from FAA NASR (National Airspace
// System Resources) aeronautical data: the APT_BASE.csv table inside the
// 28-day subscription zip.
package nasr

import (
	"fmt"

	"github.com/beetlebugorg/vfrchart/internal/geo"
)

// SiteType classifies a landing facility.
type SiteType int

const (
	SiteUnknown SiteType = iota
	SiteAirport
	SiteBalloonport
	SiteSeaplaneBase
	SiteGliderport
	SiteHeliport
	SiteUltralight
)

// String returns the human-readable site type name.
func (s SiteType) String() string {
	switch s {
	case SiteAirport:
		return "Airport"
	case SiteBalloonport:
		return "Balloonport"
	case SiteSeaplaneBase:
		return "Seaplane Base"
	case SiteGliderport:
		return "Gliderport"
	case SiteHeliport:
		return "Heliport"
	case SiteUltralight:
		return "Ultralight"
	default:
		return "Unknown"
	}
}

// siteTypeFromCode maps the NASR SITE_TYPE_CODE column.
func siteTypeFromCode(code string) SiteType {
	switch code {
	case "A":
		return SiteAirport
	case "B":
		return SiteBalloonport
	case "C":
		return SiteSeaplaneBase
	case "G":
		return SiteGliderport
	case "H":
		return SiteHeliport
	case "U":
		return SiteUltralight
	default:
		return SiteUnknown
	}
}

// Airport is one landing facility record. Records are read-only snapshots;
// nothing mutates them after load.
type Airport struct {
	ID      string    // FAA location identifier, e.g. "OMA"
	Name    string    // Facility name
	Coord   geo.Coord // NAD83, X = longitude, Y = latitude
	Site    SiteType
	Private bool // FACILITY_USE_CODE "PR"
}

// Desc returns the display string used in selection lists.
func (a *Airport) Desc() string {
	return fmt.Sprintf("%s (%s, %s)", a.Name, a.ID, a.Site)
}

// NonPublicHeliport reports whether this is a private-use heliport. The
// UI-facing layer filters these from lookup results; the data layer never
// does.
func (a *Airport) NonPublicHeliport() bool {
	return a.Private && a.Site == SiteHeliport
}

// toDecDeg converts a degrees/minutes/seconds coordinate component to
// decimal degrees, negating for southern and western hemispheres.
func toDecDeg(deg, min, sec float64, hemis string) float64 {
	dec := deg + min/60 + sec/3600
	if hemis == "S" || hemis == "s" || hemis == "W" || hemis == "w" {
		return -dec
	}
	return dec
}
