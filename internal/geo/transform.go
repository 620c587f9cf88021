package geo

import "math"

// projection maps between geodetic coordinates (radians, on the projection's
// source ellipsoid) and projected easting/northing in metres.
type projection interface {
	forward(lat, lon float64) (e, n float64)
	inverse(e, n float64) (lat, lon float64)
}

// Transformer converts projected coordinates of one resolved CRS to and from
// WGS84 geographic coordinates. Build it once per pass and share it across
// all stages so every component works in the same frame.
type Transformer struct {
	crs   CRS
	proj  projection
	datum *helmert // source datum -> WGS84; nil when the datum is ETRS89/WGS84
}

// NewTransformer builds a Transformer for the given CRS. It fails closed
// with ErrCRSUnresolved when the CRS has not been resolved.
func NewTransformer(crs CRS) (*Transformer, error) {
	if !crs.Resolved() {
		return nil, ErrCRSUnresolved
	}
	t := &Transformer{crs: crs}
	switch crs.System {
	case SystemUTM:
		p := newUTM(crs.Zone)
		t.proj = p
	case SystemGaussKrueger:
		p := newGaussKrueger(crs.Zone)
		t.proj = p
		d := dhdnToWGS84
		t.datum = &d
	case SystemDutchRD:
		t.proj = newDutchRD()
		d := rdBesselToWGS84
		t.datum = &d
	default:
		return nil, ErrCRSUnresolved
	}
	return t, nil
}

// CRS returns the coordinate system this transformer was built for.
func (t *Transformer) CRS() CRS {
	return t.crs
}

// ToWGS84 converts a projected easting/northing to WGS84 longitude/latitude
// in degrees.
func (t *Transformer) ToWGS84(easting, northing float64) (lon, lat float64) {
	easting = StripZonePrefix(easting)
	srcLat, srcLon := t.proj.inverse(easting, northing)
	if t.datum == nil {
		return srcLon * 180 / math.Pi, srcLat * 180 / math.Pi
	}
	ell := t.sourceEllipsoid()
	x, y, z := geodeticToGeocentric(ell, srcLat, srcLon)
	x, y, z = t.datum.apply(x, y, z)
	lat84, lon84 := geocentricToGeodetic(grs80, x, y, z)
	return lon84 * 180 / math.Pi, lat84 * 180 / math.Pi
}

// FromWGS84 converts WGS84 longitude/latitude in degrees back to projected
// easting/northing.
func (t *Transformer) FromWGS84(lon, lat float64) (easting, northing float64) {
	latRad := lat * math.Pi / 180
	lonRad := lon * math.Pi / 180
	if t.datum != nil {
		x, y, z := geodeticToGeocentric(grs80, latRad, lonRad)
		x, y, z = t.datum.inverse().apply(x, y, z)
		latRad, lonRad = geocentricToGeodetic(t.sourceEllipsoid(), x, y, z)
	}
	return t.proj.forward(latRad, lonRad)
}

func (t *Transformer) sourceEllipsoid() ellipsoid {
	if t.crs.System == SystemUTM {
		return grs80
	}
	return bessel1841
}

// StripZonePrefix removes a UTM zone-digit prefix from an easting. CAD
// exports sometimes encode the zone into the coordinate (zone*1e6 + easting);
// values above 30,000,000 are normalized before polygon construction or
// projection.
func StripZonePrefix(easting float64) float64 {
	if easting > 30_000_000 {
		zone := math.Floor(easting / 1_000_000)
		return easting - zone*1_000_000
	}
	return easting
}
