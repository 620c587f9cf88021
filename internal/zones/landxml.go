package zones

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/harbour-data/dredge.report/internal/geo"
)

// The CAD exchange format is a LandXML plan-feature export: every named
// feature holds a ring of line segments whose endpoints are
// "northing easting elevation" triples. Segment elevations average into the
// feature's design depth, and eastings may carry a UTM zone-digit prefix
// that is stripped before reprojection.

type landXMLDoc struct {
	XMLName      xml.Name `xml:"LandXML"`
	PlanFeatures struct {
		Features []planFeature `xml:"PlanFeature"`
	} `xml:"PlanFeatures"`
}

type planFeature struct {
	Name      string `xml:"name,attr"`
	CoordGeom struct {
		Lines []lineSegment `xml:"Line"`
	} `xml:"CoordGeom"`
}

type lineSegment struct {
	Start string `xml:"Start"`
	End   string `xml:"End"`
}

// ParseLandXML decodes a CAD zone export and reprojects every ring into
// WGS84 through the resolved working CRS. Features that fail to parse or
// have fewer than three vertices are skipped with a warning; the rest of the
// file still loads.
func ParseLandXML(data []byte, tr *geo.Transformer) (*LoadResult, error) {
	if tr == nil {
		return nil, geo.ErrCRSUnresolved
	}

	var doc landXMLDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse zone XML: %w", err)
	}

	res := &LoadResult{}
	for _, f := range doc.PlanFeatures.Features {
		zone, err := buildFeature(f, tr)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("feature %q skipped: %v", f.Name, err))
			continue
		}
		res.Zones = append(res.Zones, zone)
	}
	return res, nil
}

func buildFeature(f planFeature, tr *geo.Transformer) (Zone, error) {
	if len(f.CoordGeom.Lines) == 0 {
		return Zone{}, fmt.Errorf("no line segments")
	}

	var ring []geo.Point
	var elevSum float64
	var elevCount int

	addVertex := func(raw string, includePoint bool) error {
		northing, easting, elevation, err := parseTriple(raw)
		if err != nil {
			return err
		}
		elevSum += elevation
		elevCount++
		if includePoint {
			lon, lat := tr.ToWGS84(geo.StripZonePrefix(easting), northing)
			ring = append(ring, geo.Point{Lon: lon, Lat: lat})
		}
		return nil
	}

	for i, seg := range f.CoordGeom.Lines {
		if err := addVertex(seg.Start, true); err != nil {
			return Zone{}, fmt.Errorf("segment %d start: %w", i, err)
		}
		// Ends duplicate the next segment's start; they contribute to the
		// depth average only, except the closing segment of an open ring.
		includeEnd := i == len(f.CoordGeom.Lines)-1 && len(f.CoordGeom.Lines) < 3
		if err := addVertex(seg.End, includeEnd); err != nil {
			return Zone{}, fmt.Errorf("segment %d end: %w", i, err)
		}
	}

	if len(ring) < 3 {
		return Zone{}, fmt.Errorf("only %d vertices, need at least 3", len(ring))
	}

	depth := elevSum / float64(elevCount)
	return Zone{
		Name:        f.Name,
		Ring:        ring,
		TargetDepth: &depth,
	}, nil
}

// parseTriple decodes a "northing easting elevation" coordinate triple.
func parseTriple(raw string) (northing, easting, elevation float64, err error) {
	parts := strings.Fields(raw)
	if len(parts) < 3 {
		return 0, 0, 0, fmt.Errorf("coordinate triple has %d fields", len(parts))
	}
	if northing, err = strconv.ParseFloat(parts[0], 64); err != nil {
		return 0, 0, 0, fmt.Errorf("bad northing %q", parts[0])
	}
	if easting, err = strconv.ParseFloat(parts[1], 64); err != nil {
		return 0, 0, 0, fmt.Errorf("bad easting %q", parts[1])
	}
	if elevation, err = strconv.ParseFloat(parts[2], 64); err != nil {
		return 0, 0, 0, fmt.Errorf("bad elevation %q", parts[2])
	}
	return northing, easting, elevation, nil
}
