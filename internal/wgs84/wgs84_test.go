package wgs84

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGeodeticRoundTrip checks that ECEFToGeodetic inverts
// ECEFFromGeodetic to 1e-8 degrees / 1e-8 metres.
func TestGeodeticRoundTrip(t *testing.T) {
	cases := []struct {
		lat, lon, h float64
	}{
		{45.5, 3.5, 1200},
		{0, 0, 0},
		{-33.9, 151.2, 58},
		{89.999, 12.3, 500},
		{-89.999, -170, -20},
		{0, 180, 10000},
	}

	for _, c := range cases {
		x, y, z := ECEFFromGeodetic(c.lat, c.lon, c.h)
		lat, lon, h := ECEFToGeodetic(x, y, z)
		assert.InDelta(t, c.lat, lat, 1e-8, "lat for case %+v", c)
		assert.InDelta(t, c.h, h, 1e-8, "h for case %+v", c)
		if math.Abs(c.lat) < 89.999 {
			assert.InDelta(t, c.lon, lon, 1e-8, "lon for case %+v", c)
		}
	}
}

func TestGeodeticPolarAxis(t *testing.T) {
	lat, lon, h := ECEFToGeodetic(0, 0, A)
	require.InDelta(t, 90.0, lat, 1e-9)
	require.Equal(t, 0.0, lon)
	require.InDelta(t, A-A*math.Sqrt(1-e2), h, 1e-6)

	lat, lon, h = ECEFToGeodetic(0, 0, -A)
	require.InDelta(t, -90.0, lat, 1e-9)
	require.Equal(t, 0.0, lon)
	require.InDelta(t, A-A*math.Sqrt(1-e2), h, 1e-6)
}

func TestHorizontalRoundTrip(t *testing.T) {
	lat, lon := 45.0, 3.0
	cases := []struct{ az, el float64 }{
		{0, 0}, {90, 0}, {180, 45}, {270, -30}, {45, 89},
	}
	for _, c := range cases {
		dx, dy, dz := ECEFFromHorizontal(lat, lon, c.az, c.el)
		az, el, ok := ECEFToHorizontal(lat, lon, dx, dy, dz)
		require.True(t, ok)
		assert.InDelta(t, c.az, normalizeAz(az), 1e-6)
		assert.InDelta(t, c.el, el, 1e-6)
	}
}

func TestHorizontalNearZeroVectorLeavesOutputsUntouched(t *testing.T) {
	_, _, ok := ECEFToHorizontal(45, 3, 0, 0, 0)
	require.False(t, ok)
}

func normalizeAz(az float64) float64 {
	if az < 0 {
		return az + 360
	}
	return az
}
