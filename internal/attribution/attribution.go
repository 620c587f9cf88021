// Package attribution assigns zone membership to dredge-phase samples by
// point-in-polygon test against the loaded zone list.
package attribution

import (
	"math"

	"github.com/harbour-data/dredge.report/internal/geo"
	"github.com/harbour-data/dredge.report/internal/telemetry"
	"github.com/harbour-data/dredge.report/internal/zones"
)

// Attribution is the zone assignment of one sample. All fields are nil for
// samples outside the dredging phase or outside every polygon.
type Attribution struct {
	Zone             *string  `json:"zone,omitempty"`
	TargetDepth      *float64 `json:"target_depth,omitempty"`
	ReferenceDensity *float64 `json:"reference_density,omitempty"`
	SiteFactor       *float64 `json:"site_factor,omitempty"`
	MinDensity       *float64 `json:"min_density,omitempty"`
	MaxDensity       *float64 `json:"max_density,omitempty"`
}

// Locator finds the zone containing a WGS84 point. The linear list locator
// is sufficient at expected polygon counts (tens); the interface exists so a
// spatial index can replace it without touching the attribution contract.
type Locator interface {
	Locate(p geo.Point) *zones.Zone
}

// listLocator scans zones in load order; the first containing polygon wins.
// Overlap between zones is reported at load time, not resolved here.
type listLocator struct {
	zones []zones.Zone
}

// NewListLocator builds the first-match linear locator over the given zone
// list.
func NewListLocator(zs []zones.Zone) Locator {
	return &listLocator{zones: zs}
}

func (l *listLocator) Locate(p geo.Point) *zones.Zone {
	for i := range l.zones {
		if l.zones[i].Contains(p) {
			return &l.zones[i]
		}
	}
	return nil
}

// Attribute assigns a zone to every dredge-phase sample by transforming its
// ship position into WGS84 and testing it against the locator. The result
// slice is aligned with the input samples; non-dredging samples and samples
// outside all polygons keep a zero attribution.
//
// The transformer must come from a resolved CRS: attribution fails closed
// when the coordinate system is still undetermined.
func Attribute(samples []telemetry.Sample, tr *geo.Transformer, loc Locator) ([]Attribution, error) {
	if tr == nil {
		return nil, geo.ErrCRSUnresolved
	}

	attrs := make([]Attribution, len(samples))
	for i := range samples {
		s := &samples[i]
		if s.Status != telemetry.StatusDredging {
			continue
		}
		if math.IsNaN(s.ShipEasting) || math.IsNaN(s.ShipNorthing) {
			continue
		}
		lon, lat := tr.ToWGS84(s.ShipEasting, s.ShipNorthing)
		z := loc.Locate(geo.Point{Lon: lon, Lat: lat})
		if z == nil {
			continue
		}
		name := z.Name
		attrs[i] = Attribution{
			Zone:             &name,
			TargetDepth:      z.TargetDepth,
			ReferenceDensity: z.ReferenceDensity,
			SiteFactor:       z.SiteFactor,
			MinDensity:       z.MinDensity,
			MaxDensity:       z.MaxDensity,
		}
	}
	return attrs, nil
}

// OverlapWarnings reports zone pairs whose rings contain one another's
// vertices. Genuine overlap has no declared tie-break beyond first-match, so
// it is surfaced to the operator instead of silently resolved.
func OverlapWarnings(zs []zones.Zone) []string {
	var warnings []string
	for i := range zs {
		for j := i + 1; j < len(zs); j++ {
			if ringsOverlap(zs[i].Ring, zs[j].Ring) {
				warnings = append(warnings,
					"zones \""+zs[i].Name+"\" and \""+zs[j].Name+"\" overlap; first-listed wins")
			}
		}
	}
	return warnings
}

func ringsOverlap(a, b []geo.Point) bool {
	for _, p := range a {
		if geo.PointInPolygon(p, b) {
			return true
		}
	}
	for _, p := range b {
		if geo.PointInPolygon(p, a) {
			return true
		}
	}
	return false
}
