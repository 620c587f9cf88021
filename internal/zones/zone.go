// Package zones loads dredging-area and density-area polygon definitions
// from the two site-engineering exchange formats (a CAD XML export and a
// flat delimited table) into a common zone record, reprojected once into
// WGS84 so every downstream lookup works in a single frame.
package zones

import (
	"math"

	"github.com/harbour-data/dredge.report/internal/geo"
)

// Zone is a named closed ring with its engineering attributes. Dredging-area
// polygons carry a target depth; density-area polygons carry the reference
// density set used for solids attribution. Absent attributes stay nil.
type Zone struct {
	Name             string      `json:"name"`
	Ring             []geo.Point `json:"ring"` // WGS84, in source vertex order
	TargetDepth      *float64    `json:"target_depth,omitempty"`
	ReferenceDensity *float64    `json:"reference_density,omitempty"`
	SiteFactor       *float64    `json:"site_factor,omitempty"`
	MinDensity       *float64    `json:"min_density,omitempty"`
	MaxDensity       *float64    `json:"max_density,omitempty"`
}

// Contains reports whether the WGS84 point lies inside the zone ring.
func (z *Zone) Contains(p geo.Point) bool {
	return geo.PointInPolygon(p, z.Ring)
}

// LoadResult is the outcome of loading one zone file: the zones that parsed
// plus per-feature warnings. A degenerate feature never fails the file.
type LoadResult struct {
	Zones    []Zone   `json:"zones"`
	Warnings []string `json:"warnings,omitempty"`
}

// DensityReference supplies fallback attribute values for density polygons
// whose rows omit the site factor or minimum density. The reconciliation
// sheet maintained alongside the dashboard keys these by reference density.
type DensityReference struct {
	SiteFactor float64
	MinDensity float64
}

// DensityLookup maps a rounded reference density to its fallback attributes.
type DensityLookup map[float64]DensityReference

// LookupKey rounds a reference density to the two decimals the lookup table
// is keyed by.
func LookupKey(referenceDensity float64) float64 {
	return math.Round(referenceDensity*100) / 100
}
