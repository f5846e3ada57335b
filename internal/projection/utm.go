package projection

import (
	"math"

	"github.com/niess/turtle-sub000/internal/wgs84"
)

// UTM scale factor and false easting, fixed by the UTM definition.
const (
	utmK0 = 0.9996
	utmE0 = 500000.0
)

// krugerSeries holds the third-order Krüger (transverse Mercator) series
// coefficients, computed once from the WGS84 flattening.
type krugerSeries struct {
	n          float64
	bigA       float64
	alpha      [3]float64
	beta       [3]float64
	delta      [3]float64
}

var kruger = newKrugerSeries()

func newKrugerSeries() krugerSeries {
	f := 1 - math.Sqrt(1-wgs84.E*wgs84.E)
	n := f / (2 - f)
	n2 := n * n
	n3 := n2 * n
	n4 := n3 * n

	bigA := wgs84.A / (1 + n) * (1 + n2/4 + n4/64)

	return krugerSeries{
		n:    n,
		bigA: bigA,
		alpha: [3]float64{
			n/2 - 2.0/3*n2 + 5.0/16*n3,
			13.0/48*n2 - 3.0/5*n3,
			61.0 / 240 * n3,
		},
		beta: [3]float64{
			n/2 - 2.0/3*n2 + 37.0/96*n3,
			1.0/48*n2 + 1.0/15*n3,
			17.0 / 480 * n3,
		},
		delta: [3]float64{
			2*n - 2.0/3*n2 - 2*n3,
			7.0/3*n2 - 8.0/5*n3,
			56.0 / 15 * n3,
		},
	}
}

func falseNorthing(hemisphere int) float64 {
	if hemisphere < 0 {
		return 10000000.0
	}
	return 0
}

func utmProject(lon0 float64, hemisphere int, latDeg, lonDeg float64) (x, y float64) {
	k := kruger
	lat := latDeg * math.Pi / 180
	lon := (lonDeg - lon0) * math.Pi / 180

	sinLat := math.Sin(lat)
	t := math.Sinh(math.Atanh(sinLat) - wgs84.E*math.Atanh(wgs84.E*sinLat))
	xiPrime := math.Atan2(t, math.Cos(lon))
	etaPrime := math.Atanh(math.Sin(lon) / math.Sqrt(1+t*t))

	xi := xiPrime
	eta := etaPrime
	for j := 1; j <= 3; j++ {
		fj := float64(j)
		xi += k.alpha[j-1] * math.Sin(2*fj*xiPrime) * math.Cosh(2*fj*etaPrime)
		eta += k.alpha[j-1] * math.Cos(2*fj*xiPrime) * math.Sinh(2*fj*etaPrime)
	}

	x = utmE0 + utmK0*k.bigA*eta
	y = falseNorthing(hemisphere) + utmK0*k.bigA*xi
	return x, y
}

func utmUnproject(lon0 float64, hemisphere int, x, y float64) (latDeg, lonDeg float64) {
	k := kruger
	xi := (y - falseNorthing(hemisphere)) / (utmK0 * k.bigA)
	eta := (x - utmE0) / (utmK0 * k.bigA)

	xiPrime := xi
	etaPrime := eta
	for j := 1; j <= 3; j++ {
		fj := float64(j)
		xiPrime -= k.beta[j-1] * math.Sin(2*fj*xi) * math.Cosh(2*fj*eta)
		etaPrime -= k.beta[j-1] * math.Cos(2*fj*xi) * math.Sinh(2*fj*eta)
	}

	chi := math.Asin(sinClamped(math.Sin(xiPrime) / math.Cosh(etaPrime)))
	lat := chi
	for j := 1; j <= 3; j++ {
		fj := float64(j)
		lat += k.delta[j-1] * math.Sin(2*fj*chi)
	}

	lon := lon0*math.Pi/180 + math.Atan2(math.Sinh(etaPrime), math.Cos(xiPrime))

	latDeg = lat * 180 / math.Pi
	lonDeg = lon * 180 / math.Pi
	return latDeg, lonDeg
}

func sinClamped(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
