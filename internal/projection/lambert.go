package projection

import (
	"math"

	"github.com/niess/turtle-sub000/internal/wgs84"
)

// lambertParams holds the four constants the IGN NTG_71 circular gives per
// zone: the cone constant n, the scale C, the false easting/northing
// (Xs, Ys) and the zone's central meridian, here expressed relative to
// Greenwich (the WGS84 ellipsoid has no Paris-meridian offset baked in).
type lambertParams struct {
	n, c, xs, ys, lambda0 float64
}

// Constants reproduced from the IGN NTG_71 circular ("Transformation de
// coordonnées géographiques en coordonnées Lambert"), applied directly to
// WGS84 (no other ellipsoid is supported).
var lambertTable = map[LambertZone]lambertParams{
	LambertI:   {n: 0.7604059656, c: 11603796.98, xs: 600000.0, ys: 5657616.674, lambda0: 0.04079234433},
	LambertII:  {n: 0.7289686274, c: 11745793.39, xs: 600000.0, ys: 6199695.768, lambda0: 0.04079234433},
	LambertIIe: {n: 0.7289686274, c: 11745793.39, xs: 600000.0, ys: 8199695.768, lambda0: 0.04079234433},
	LambertIII: {n: 0.6959127966, c: 11947992.52, xs: 600000.0, ys: 6791905.085, lambda0: 0.04079234433},
	LambertIV:  {n: 0.6712679322, c: 12136281.99, xs: 234.358, ys: 7239161.542, lambda0: 0.04079234433},
	Lambert93:  {n: 0.7256077650, c: 11754255.426, xs: 700000.0, ys: 12655612.050, lambda0: 0.05235987756},
}

func isometricLatitude(latRad float64) float64 {
	sinLat := math.Sin(latRad)
	return math.Log(math.Tan(math.Pi/4+latRad/2)) - wgs84.E/2*math.Log((1+wgs84.E*sinLat)/(1-wgs84.E*sinLat))
}

func lambertProject(zone LambertZone, latDeg, lonDeg float64) (x, y float64) {
	p := lambertTable[zone]
	latRad := latDeg * math.Pi / 180
	lonRad := lonDeg * math.Pi / 180

	l := isometricLatitude(latRad)
	r := p.c * math.Exp(-p.n*l)
	theta := p.n * (lonRad - p.lambda0)

	x = p.xs + r*math.Sin(theta)
	y = p.ys - r*math.Cos(theta)
	return x, y
}

// lambertFixedPointEpsilon bounds the latitude fixed-point iteration:
// it stops once |ϕ_{n+1} − ϕ_n| ≤ FLT_EPSILON.
const lambertFixedPointEpsilon = 1.1920929e-7

func lambertUnproject(zone LambertZone, x, y float64) (latDeg, lonDeg float64) {
	p := lambertTable[zone]
	dx := x - p.xs
	dy := y - p.ys

	r := math.Copysign(math.Hypot(dx, dy), p.n)
	theta := math.Atan2(dx, -dy)

	lonRad := p.lambda0 + theta/p.n
	l := -1 / p.n * math.Log(r/p.c)

	lat := 2*math.Atan(math.Exp(l)) - math.Pi/2
	for {
		sinLat := math.Sin(lat)
		next := 2*math.Atan(math.Pow((1+wgs84.E*sinLat)/(1-wgs84.E*sinLat), wgs84.E/2)*math.Exp(l)) - math.Pi/2
		if math.Abs(next-lat) <= lambertFixedPointEpsilon {
			lat = next
			break
		}
		lat = next
	}

	latDeg = lat * 180 / math.Pi
	lonDeg = lonRad * 180 / math.Pi
	return latDeg, lonDeg
}
