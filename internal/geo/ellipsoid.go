package geo

import "math"

// ellipsoid holds the defining parameters of a reference ellipsoid plus the
// derived eccentricity terms used by the projections.
type ellipsoid struct {
	a   float64 // semi-major axis (m)
	f   float64 // flattening
	e2  float64 // first eccentricity squared
	e   float64
	ep2 float64 // second eccentricity squared
}

func newEllipsoid(a, invF float64) ellipsoid {
	f := 1 / invF
	e2 := f * (2 - f)
	return ellipsoid{
		a:   a,
		f:   f,
		e2:  e2,
		e:   math.Sqrt(e2),
		ep2: e2 / (1 - e2),
	}
}

// grs80 underlies ETRS89/UTM; bessel1841 underlies both the German
// Gauss-Krueger stripes and the Dutch RD grid.
var (
	grs80      = newEllipsoid(6378137.0, 298.257222101)
	bessel1841 = newEllipsoid(6377397.155, 299.1528128)
)

// geodeticToGeocentric converts ellipsoidal latitude/longitude (radians,
// height zero) to earth-centred cartesian coordinates.
func geodeticToGeocentric(ell ellipsoid, lat, lon float64) (x, y, z float64) {
	sinLat := math.Sin(lat)
	n := ell.a / math.Sqrt(1-ell.e2*sinLat*sinLat)
	x = n * math.Cos(lat) * math.Cos(lon)
	y = n * math.Cos(lat) * math.Sin(lon)
	z = n * (1 - ell.e2) * sinLat
	return
}

// geocentricToGeodetic converts earth-centred cartesian coordinates back to
// ellipsoidal latitude/longitude (radians), iterating on the latitude.
func geocentricToGeodetic(ell ellipsoid, x, y, z float64) (lat, lon float64) {
	lon = math.Atan2(y, x)
	p := math.Hypot(x, y)
	if p == 0 {
		if z >= 0 {
			return math.Pi / 2, lon
		}
		return -math.Pi / 2, lon
	}
	lat = math.Atan2(z, p*(1-ell.e2))
	for i := 0; i < 10; i++ {
		sinLat := math.Sin(lat)
		n := ell.a / math.Sqrt(1-ell.e2*sinLat*sinLat)
		h := p/math.Cos(lat) - n
		next := math.Atan2(z, p*(1-ell.e2*n/(n+h)))
		if math.Abs(next-lat) < 1e-13 {
			lat = next
			break
		}
		lat = next
	}
	return
}
