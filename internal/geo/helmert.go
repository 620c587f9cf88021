package geo

const arcsecToRad = (1.0 / 3600.0) * (3.141592653589793 / 180.0)

// helmert is a seven-parameter datum shift (position-vector convention,
// small-angle form). The inverse simply negates all parameters, which is
// exact to well below a millimetre for shifts of this size.
type helmert struct {
	tx, ty, tz float64 // metres
	rx, ry, rz float64 // radians
	ds         float64 // scale, parts per million
}

// dhdnToWGS84 shifts DHDN (Bessel 1841, Gauss-Krueger) coordinates to WGS84.
var dhdnToWGS84 = helmert{
	tx: 598.1, ty: 73.7, tz: 418.2,
	rx: 0.202 * arcsecToRad, ry: 0.045 * arcsecToRad, rz: -2.455 * arcsecToRad,
	ds: 6.7,
}

// rdBesselToWGS84 shifts the RD datum (Bessel 1841, Amersfoort) to WGS84.
var rdBesselToWGS84 = helmert{
	tx: 565.417, ty: 50.3319, tz: 465.552,
	rx: -0.398957 * arcsecToRad, ry: 0.343988 * arcsecToRad, rz: -1.87740 * arcsecToRad,
	ds: 4.0725,
}

func (h helmert) apply(x, y, z float64) (xo, yo, zo float64) {
	m := 1 + h.ds*1e-6
	xo = h.tx + m*(x-h.rz*y+h.ry*z)
	yo = h.ty + m*(h.rz*x+y-h.rx*z)
	zo = h.tz + m*(-h.ry*x+h.rx*y+z)
	return
}

func (h helmert) inverse() helmert {
	return helmert{
		tx: -h.tx, ty: -h.ty, tz: -h.tz,
		rx: -h.rx, ry: -h.ry, rz: -h.rz,
		ds: -h.ds,
	}
}
