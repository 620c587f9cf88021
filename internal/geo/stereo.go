package geo

import "math"

// stereo is the oblique stereographic "double" projection used by the Dutch
// RD grid (EPSG 28992): the ellipsoid is first mapped conformally to a
// sphere, then projected stereographically. Constants follow the EPSG
// Guidance Note 7-2 formulation; the inverse latitude step solves the
// conformal mapping with Newton iteration, so round trips are exact to
// numerical precision.
type stereo struct {
	ell     ellipsoid
	lat0    float64
	lon0    float64
	k0      float64
	fe, fn  float64
	r       float64 // radius of the conformal sphere
	n, c    float64 // conformal mapping constants
	chi0    float64 // conformal latitude of the origin
	sinChi0 float64
	cosChi0 float64
}

// newDutchRD builds the RD projection: Bessel 1841, origin at the
// Amersfoort church tower, scale 0.9999079, false origin 155000/463000.
func newDutchRD() stereo {
	p := stereo{
		ell:  bessel1841,
		lat0: (52 + 9/60.0 + 22.178/3600.0) * math.Pi / 180,
		lon0: (5 + 23/60.0 + 15.5/3600.0) * math.Pi / 180,
		k0:   0.9999079,
		fe:   155000,
		fn:   463000,
	}

	e2 := p.ell.e2
	e := p.ell.e
	sinLat0 := math.Sin(p.lat0)
	cosLat0 := math.Cos(p.lat0)

	den := 1 - e2*sinLat0*sinLat0
	rho0 := p.ell.a * (1 - e2) / (den * math.Sqrt(den))
	nu0 := p.ell.a / math.Sqrt(den)
	p.r = math.Sqrt(rho0 * nu0)

	cos4 := cosLat0 * cosLat0 * cosLat0 * cosLat0
	p.n = math.Sqrt(1 + e2*cos4/(1-e2))

	s1 := (1 + sinLat0) / (1 - sinLat0)
	s2 := (1 - e*sinLat0) / (1 + e*sinLat0)
	w1 := math.Pow(s1*math.Pow(s2, e), p.n)
	sinChi00 := (w1 - 1) / (w1 + 1)
	p.c = (p.n + sinLat0) * (1 - sinChi00) / ((p.n - sinLat0) * (1 + sinChi00))

	w2 := p.c * w1
	p.chi0 = math.Asin((w2 - 1) / (w2 + 1))
	p.sinChi0 = math.Sin(p.chi0)
	p.cosChi0 = math.Cos(p.chi0)
	return p
}

// conformal maps an ellipsoidal latitude to the conformal sphere.
func (p stereo) conformal(lat float64) float64 {
	e := p.ell.e
	sinLat := math.Sin(lat)
	sa := (1 + sinLat) / (1 - sinLat)
	sb := (1 - e*sinLat) / (1 + e*sinLat)
	w := p.c * math.Pow(sa*math.Pow(sb, e), p.n)
	return math.Asin((w - 1) / (w + 1))
}

func (p stereo) forward(lat, lon float64) (e, n float64) {
	chi := p.conformal(lat)
	dLam := p.n * (lon - p.lon0)

	sinChi := math.Sin(chi)
	cosChi := math.Cos(chi)
	b := 1 + sinChi*p.sinChi0 + cosChi*p.cosChi0*math.Cos(dLam)

	e = p.fe + 2*p.r*p.k0*cosChi*math.Sin(dLam)/b
	n = p.fn + 2*p.r*p.k0*(sinChi*p.cosChi0-cosChi*p.sinChi0*math.Cos(dLam))/b
	return
}

func (p stereo) inverse(e, n float64) (lat, lon float64) {
	x := e - p.fe
	y := n - p.fn
	rho := math.Hypot(x, y)

	var chi, dLam float64
	if rho < 1e-9 {
		chi = p.chi0
	} else {
		ce := 2 * math.Atan2(rho, 2*p.r*p.k0)
		sinCe := math.Sin(ce)
		cosCe := math.Cos(ce)
		sinChi := cosCe*p.sinChi0 + y*sinCe*p.cosChi0/rho
		chi = math.Asin(math.Max(-1, math.Min(1, sinChi)))
		dLam = math.Atan2(x*sinCe, rho*p.cosChi0*cosCe-y*p.sinChi0*sinCe)
	}
	lon = p.lon0 + dLam/p.n

	// Invert the conformal mapping: solve for sin(lat) with Newton steps.
	ec := p.ell.e
	t := math.Pow((1+math.Sin(chi))/((1-math.Sin(chi))*p.c), 1/p.n)
	logT := math.Log(t)
	s := math.Sin(chi)
	for i := 0; i < 25; i++ {
		f := math.Log((1+s)/(1-s)) + ec*math.Log((1-ec*s)/(1+ec*s)) - logT
		df := 2/(1-s*s) - 2*ec*ec/(1-ec*ec*s*s)
		step := f / df
		s -= step
		if math.Abs(step) < 1e-15 {
			break
		}
	}
	lat = math.Asin(s)
	return
}
