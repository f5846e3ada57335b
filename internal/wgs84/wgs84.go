// Package wgs84 implements the pure ECEF/geodetic coordinate math:
// WGS84 geodetic<->ECEF conversion and the local East-North-Up (ENU)
// basis used to turn a horizontal azimuth/elevation into an ECEF
// direction and back. Every function here is deterministic and
// allocation free; none of them touch a Tile, Stack or file.
package wgs84

import "math"

// WGS84 ellipsoid constants.
const (
	A = 6378137.0            // semi-major axis, metres
	E = 0.081819190842622    // first eccentricity
)

var e2 = E * E

// deg2rad / rad2deg convert between the degrees the public API uses and the
// radians the trigonometric functions need.
func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }

// ECEFFromGeodetic converts a WGS84 geodetic position (degrees, degrees,
// metres) to Earth-Centered Earth-Fixed Cartesian coordinates, metres.
func ECEFFromGeodetic(latDeg, lonDeg, h float64) (x, y, z float64) {
	lat := deg2rad(latDeg)
	lon := deg2rad(lonDeg)
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	n := A / math.Sqrt(1-e2*sinLat*sinLat)
	x = (n + h) * cosLat * cosLon
	y = (n + h) * cosLat * sinLon
	z = (n*(1-e2) + h) * sinLat
	return x, y, z
}

// Olson's 1996 direct-formula constants, precomputed from A and e2.
var (
	olsonA1 = A * e2
	olsonA2 = olsonA1 * olsonA1
	olsonA3 = olsonA1 * e2 / 2
	olsonA4 = 2.5 * olsonA2
	olsonA5 = olsonA1 + olsonA3
	olsonA6 = 1 - e2
)

// ECEFToGeodetic converts ECEF metres back to WGS84 geodetic degrees and
// metres using Olson's 1996 direct (non-iterative) formula. The polar axis
// (x=0 and y=0) is special-cased.
func ECEFToGeodetic(x, y, z float64) (latDeg, lonDeg, h float64) {
	if x == 0 && y == 0 {
		h = math.Abs(z) - A*math.Sqrt(1-e2)
		if z >= 0 {
			return 90, 0, h
		}
		return -90, 0, h
	}

	w2 := x*x + y*y
	w := math.Sqrt(w2)
	z2 := z * z
	r2 := w2 + z2
	r := math.Sqrt(r2)
	lonDeg = rad2deg(math.Atan2(y, x))

	s2 := z2 / r2
	c2 := w2 / r2
	u := olsonA2 / r
	v := olsonA3 - olsonA4/r

	var lat, s, c float64
	if c2 > 0.3 {
		s = (z / r) * (1 + c2*(olsonA1+u+s2*v)/r)
		lat = math.Asin(s)
		ss := s * s
		c = math.Sqrt(1 - ss)
	} else {
		c = (w / r) * (1 - s2*(olsonA5-u-c2*v)/r)
		lat = math.Acos(c)
		ss := 1 - c*c
		s = math.Sqrt(ss)
		if z < 0 {
			lat = -lat
			s = -s
		}
	}

	ss := s * s
	g := 1 - e2*ss
	rg := A / math.Sqrt(g)
	rf := olsonA6 * rg
	u2 := w - rg*c
	v2 := z - rf*s
	f := c*u2 + s*v2
	m := c*v2 - s*u2
	p := m / (rf/g + f)

	lat += p
	h = f + m*p/2
	latDeg = rad2deg(lat)
	return latDeg, lonDeg, h
}

// ENUBasis returns the East, North, Up unit vectors (each an ECEF
// direction) at the given geodetic latitude/longitude, degrees.
func ENUBasis(latDeg, lonDeg float64) (east, north, up [3]float64) {
	lat := deg2rad(latDeg)
	lon := deg2rad(lonDeg)
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	east = [3]float64{-sinLon, cosLon, 0}
	north = [3]float64{-sinLat * cosLon, -sinLat * sinLon, cosLat}
	up = [3]float64{cosLat * cosLon, cosLat * sinLon, sinLat}
	return east, north, up
}

// ECEFFromHorizontal turns a local azimuth/elevation (degrees, azimuth
// measured from North toward East) at the given geodetic position into a
// unit ECEF direction vector.
func ECEFFromHorizontal(latDeg, lonDeg, azDeg, elDeg float64) (dx, dy, dz float64) {
	east, north, up := ENUBasis(latDeg, lonDeg)
	az := deg2rad(azDeg)
	el := deg2rad(elDeg)
	sinAz, cosAz := math.Sincos(az)
	sinEl, cosEl := math.Sincos(el)

	ce := cosEl * sinAz
	cn := cosEl * cosAz
	cu := sinEl

	dx = ce*east[0] + cn*north[0] + cu*up[0]
	dy = ce*east[1] + cn*north[1] + cu*up[1]
	dz = ce*east[2] + cn*north[2] + cu*up[2]
	return dx, dy, dz
}

// singlePrecisionEpsilon is the near-zero norm tolerance below which
// ECEFToHorizontal treats a direction vector as degenerate.
const singlePrecisionEpsilon = 1.1920929e-7

// ECEFToHorizontal is the inverse of ECEFFromHorizontal: it projects an
// ECEF direction onto the local ENU basis and recovers azimuth/elevation,
// degrees. When the input vector's norm is at or below
// singlePrecisionEpsilon, ok is false and az/el are zero — the caller
// must leave its own outputs untouched.
func ECEFToHorizontal(latDeg, lonDeg, dx, dy, dz float64) (azDeg, elDeg float64, ok bool) {
	norm := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if norm <= singlePrecisionEpsilon {
		return 0, 0, false
	}
	east, north, up := ENUBasis(latDeg, lonDeg)
	e := dx*east[0] + dy*east[1] + dz*east[2]
	n := dx*north[0] + dy*north[1] + dz*north[2]
	u := dx*up[0] + dy*up[1] + dz*up[2]

	azDeg = rad2deg(math.Atan2(e, n))
	elDeg = rad2deg(math.Asin(clamp(u/norm, -1, 1)))
	return azDeg, elDeg, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
