// Package geo resolves the working coordinate reference system of a
// telemetry upload and transforms projected vessel positions into WGS84
// geographic coordinates for zone lookups.
//
// The three systems encountered in practice on European dredging sites are
// ETRS89/UTM (EPSG 258xx), DHDN/Gauss-Krueger (EPSG 3146x) and the Dutch
// Rijksdriehoek grid (EPSG 28992). Detection works purely on coordinate
// magnitude ranges; when no rule matches the caller must supply a manual
// selection before any geometry-dependent stage may proceed.
package geo

import (
	"errors"
	"fmt"
)

// System identifies a supported projected coordinate system family.
type System string

const (
	SystemUTM          System = "utm"
	SystemGaussKrueger System = "gk"
	SystemDutchRD      System = "rd"
)

// ErrCRSUnresolved is returned by geometry-dependent stages when the working
// coordinate system has not been detected and no manual selection was made.
var ErrCRSUnresolved = errors.New("coordinate system unresolved: manual selection required")

// CRS describes the resolved working coordinate system of one upload.
// Detected reports whether the system was inferred automatically; when false
// the zero CRS blocks all downstream geospatial computation.
type CRS struct {
	System   System `json:"system"`
	Zone     int    `json:"zone"` // UTM zone or Gauss-Krueger stripe; 0 for RD
	EPSG     int    `json:"epsg"`
	Detected bool   `json:"auto_detected"`
}

// Resolve classifies the working coordinate system from the maximum observed
// easting/northing magnitudes of a telemetry upload. The ranges are disjoint:
//
//   - eastings above 30,000,000 carry a UTM zone-digit prefix
//     (zone*1e6 + easting) -> ETRS89/UTM, EPSG 25800+zone
//   - eastings of 2-6 million are Gauss-Krueger stripes 2-5 -> EPSG 31464+stripe
//   - eastings under 300,000 with northings in 300,000-630,000 are the Dutch
//     RD grid -> EPSG 28992
//
// Anything else (notably bare six-digit UTM eastings, which hide the zone)
// is ambiguous and returns Detected=false.
func Resolve(maxEasting, maxNorthing float64) CRS {
	switch {
	case maxEasting > 30_000_000:
		zone := int(maxEasting / 1_000_000)
		if zone >= 1 && zone <= 60 {
			return CRS{System: SystemUTM, Zone: zone, EPSG: 25800 + zone, Detected: true}
		}
	case maxEasting >= 2_000_000 && maxEasting < 6_000_000:
		stripe := int(maxEasting / 1_000_000)
		if stripe >= 2 && stripe <= 5 {
			return CRS{System: SystemGaussKrueger, Zone: stripe, EPSG: 31464 + stripe, Detected: true}
		}
	case maxEasting > 0 && maxEasting < 300_000 &&
		maxNorthing >= 300_000 && maxNorthing < 630_000:
		return CRS{System: SystemDutchRD, EPSG: 28992, Detected: true}
	}
	return CRS{}
}

// Manual builds a CRS from an operator selection. It is the only way to
// unblock a pass whose coordinate system could not be auto-detected.
func Manual(system System, zone int) (CRS, error) {
	switch system {
	case SystemUTM:
		if zone < 1 || zone > 60 {
			return CRS{}, fmt.Errorf("utm zone must be 1-60, got %d", zone)
		}
		return CRS{System: SystemUTM, Zone: zone, EPSG: 25800 + zone, Detected: false}, nil
	case SystemGaussKrueger:
		if zone < 2 || zone > 5 {
			return CRS{}, fmt.Errorf("gauss-krueger stripe must be 2-5, got %d", zone)
		}
		return CRS{System: SystemGaussKrueger, Zone: zone, EPSG: 31464 + zone, Detected: false}, nil
	case SystemDutchRD:
		return CRS{System: SystemDutchRD, EPSG: 28992, Detected: false}, nil
	default:
		return CRS{}, fmt.Errorf("unknown coordinate system %q", system)
	}
}

// Resolved reports whether the CRS may be used for transforms, either by
// auto-detection or by manual selection.
func (c CRS) Resolved() bool {
	return c.EPSG != 0
}
