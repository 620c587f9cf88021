package zones

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/harbour-data/dredge.report/internal/geo"
)

// The flat delimited format lists density polygons as tab-separated rows
// grouped by the leading name column:
//
//	name  easting  northing  reference_density  site_factor  min_density  [max_density]
//
// Attribute columns repeat on every row of a group; the first row wins.
// Missing site factor / minimum density values are back-filled from the
// reference lookup keyed by the rounded reference density.

// ParseFlat decodes a flat density-zone table and reprojects every polygon
// into WGS84 through the resolved working CRS. Groups with fewer than three
// points are skipped with a warning.
func ParseFlat(data []byte, tr *geo.Transformer, lookup DensityLookup) (*LoadResult, error) {
	if tr == nil {
		return nil, geo.ErrCRSUnresolved
	}

	type group struct {
		name   string
		points []geo.Point
		attrs  []string // attribute columns of the first row
	}
	var order []string
	groups := make(map[string]*group)

	res := &LoadResult{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 6 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: %d columns, need at least 6", lineNo, len(fields)))
			continue
		}

		name := strings.TrimSpace(fields[0])
		easting, err1 := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		northing, err2 := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if name == "" || err1 != nil || err2 != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: bad name or coordinates", lineNo))
			continue
		}

		g, ok := groups[name]
		if !ok {
			g = &group{name: name, attrs: fields[3:]}
			groups[name] = g
			order = append(order, name)
		}
		lon, lat := tr.ToWGS84(geo.StripZonePrefix(easting), northing)
		g.points = append(g.points, geo.Point{Lon: lon, Lat: lat})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read zone table: %w", err)
	}

	for _, name := range order {
		g := groups[name]
		if len(g.points) < 3 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("polygon %q skipped: only %d points", name, len(g.points)))
			continue
		}
		res.Zones = append(res.Zones, buildFlatZone(g.name, g.points, g.attrs, lookup))
	}
	return res, nil
}

func buildFlatZone(name string, ring []geo.Point, attrs []string, lookup DensityLookup) Zone {
	z := Zone{Name: name, Ring: ring}

	optional := func(idx int) *float64 {
		if idx >= len(attrs) {
			return nil
		}
		v := strings.TrimSpace(attrs[idx])
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		return &f
	}

	z.ReferenceDensity = optional(0)
	z.SiteFactor = optional(1)
	z.MinDensity = optional(2)
	z.MaxDensity = optional(3)

	// Back-fill from the reconciliation lookup when the row omits values.
	if z.ReferenceDensity != nil && (z.SiteFactor == nil || z.MinDensity == nil) {
		if ref, ok := lookup[LookupKey(*z.ReferenceDensity)]; ok {
			if z.SiteFactor == nil {
				v := ref.SiteFactor
				z.SiteFactor = &v
			}
			if z.MinDensity == nil {
				v := ref.MinDensity
				z.MinDensity = &v
			}
		}
	}
	return z
}
