package stepper

import (
	"math"

	"github.com/niess/turtle-sub000/internal/wgs84"
)

// llaFrame is a Local Linear Approximation: a lazily (re-)computed
// linearisation of the ECEF<->geodetic transform anchored at a reference
// point, valid within localRange metres of that point. The reference
// ECEF position, reference (lat, lon, h), and the local East/North/Up
// tangent-plane basis together approximate the full nonlinear transform
// near that reference: displacements in latitude and longitude are
// converted to metres via the meridian/parallel arc-length formulas
// below, then projected through the ENU basis to approximate an ECEF
// offset (or inverted, to approximate geodetic coordinates from a
// nearby ECEF point) without calling the exact WGS84 conversion.
type llaFrame struct {
	valid                     bool
	refLat, refLon, refH      float64
	refECEF                   [3]float64
	east, north, up           [3]float64
	metersPerDegLat           float64
	metersPerDegLon           float64
}

func metersPerDegreeLatitude(latDeg float64) float64 {
	lat := latDeg * math.Pi / 180
	return 111132.92 - 559.82*math.Cos(2*lat) + 1.175*math.Cos(4*lat) - 0.0023*math.Cos(6*lat)
}

func metersPerDegreeLongitude(latDeg float64) float64 {
	lat := latDeg * math.Pi / 180
	return 111412.84*math.Cos(lat) - 93.5*math.Cos(3*lat) + 0.118*math.Cos(5*lat)
}

func (f *llaFrame) recenter(lat, lon, h float64) {
	f.refLat, f.refLon, f.refH = lat, lon, h
	x, y, z := wgs84.ECEFFromGeodetic(lat, lon, h)
	f.refECEF = [3]float64{x, y, z}
	f.east, f.north, f.up = wgs84.ENUBasis(lat, lon)
	f.metersPerDegLat = metersPerDegreeLatitude(lat)
	f.metersPerDegLon = metersPerDegreeLongitude(lat)
	f.valid = true
}

func dot3(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func sub3(a, b [3]float64) [3]float64 { return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }

func norm3(a [3]float64) float64 { return math.Sqrt(dot3(a, a)) }

// toECEF approximates the ECEF position of (lat, lon, h) via the cached
// tangent plane, recentring first if the query is not within localRange
// of the current reference (or if localRange <= 0, which disables LLA
// entirely and falls back to the exact conversion).
func (f *llaFrame) toECEF(lat, lon, h, localRange float64) [3]float64 {
	if localRange <= 0 {
		x, y, z := wgs84.ECEFFromGeodetic(lat, lon, h)
		return [3]float64{x, y, z}
	}
	if !f.withinRange(lat, lon, h, localRange) {
		f.recenter(lat, lon, h)
	}
	dN := (lat - f.refLat) * f.metersPerDegLat
	dE := (lon - f.refLon) * f.metersPerDegLon
	dU := h - f.refH
	var ecef [3]float64
	for i := 0; i < 3; i++ {
		ecef[i] = f.refECEF[i] + f.east[i]*dE + f.north[i]*dN + f.up[i]*dU
	}
	return ecef
}

// fromECEF is toECEF's inverse: approximate (lat, lon, h) from a nearby
// ECEF point.
func (f *llaFrame) fromECEF(ecef [3]float64, localRange float64) (lat, lon, h float64) {
	if localRange <= 0 {
		return wgs84.ECEFToGeodetic(ecef[0], ecef[1], ecef[2])
	}
	if !f.valid || norm3(sub3(ecef, f.refECEF)) > localRange {
		lat, lon, h = wgs84.ECEFToGeodetic(ecef[0], ecef[1], ecef[2])
		f.recenter(lat, lon, h)
		return lat, lon, h
	}
	delta := sub3(ecef, f.refECEF)
	dE := dot3(delta, f.east)
	dN := dot3(delta, f.north)
	dU := dot3(delta, f.up)
	lat = f.refLat + dN/f.metersPerDegLat
	lon = f.refLon + dE/f.metersPerDegLon
	h = f.refH + dU
	return lat, lon, h
}

func (f *llaFrame) withinRange(lat, lon, h, localRange float64) bool {
	if !f.valid {
		return false
	}
	dN := (lat - f.refLat) * f.metersPerDegLat
	dE := (lon - f.refLon) * f.metersPerDegLon
	dU := h - f.refH
	return math.Sqrt(dN*dN+dE*dE+dU*dU) <= localRange
}
