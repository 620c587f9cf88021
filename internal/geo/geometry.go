package geo

import "math"

// Point is a WGS84 geographic coordinate.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// PointInPolygon checks if a point is inside a polygon ring using ray
// casting. The ring may be open or explicitly closed; fewer than 3 vertices
// never contain anything.
func PointInPolygon(p Point, ring []Point) bool {
	if len(ring) < 3 {
		return false
	}

	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		if ((ring[i].Lat > p.Lat) != (ring[j].Lat > p.Lat)) &&
			(p.Lon < (ring[j].Lon-ring[i].Lon)*(p.Lat-ring[i].Lat)/(ring[j].Lat-ring[i].Lat)+ring[i].Lon) {
			inside = !inside
		}
		j = i
	}
	return inside
}

// PlanarDistanceKm sums consecutive point-to-point deltas of a projected
// track (easting/northing in metres) and returns kilometres. Pairs with a
// NaN coordinate are skipped without breaking the chain at the next finite
// pair. Planar distance is an accepted approximation at dredging-site
// scales; it is not geodesic.
func PlanarDistanceKm(eastings, northings []float64) float64 {
	n := len(eastings)
	if len(northings) < n {
		n = len(northings)
	}
	var total float64
	prev := -1
	for i := 0; i < n; i++ {
		if math.IsNaN(eastings[i]) || math.IsNaN(northings[i]) {
			continue
		}
		if prev >= 0 {
			total += math.Hypot(eastings[i]-eastings[prev], northings[i]-northings[prev])
		}
		prev = i
	}
	return total / 1000
}
