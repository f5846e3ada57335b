package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureLambert(t *testing.T) {
	for _, tag := range []string{"Lambert I", "Lambert II", "Lambert IIe", "Lambert III", "Lambert IV", "Lambert 93"} {
		p, err := Configure(tag)
		require.Nil(t, err, tag)
		require.Equal(t, LambertVariant, p.Variant)
		assert.Equal(t, tag, Name(p))
	}
}

func TestConfigureUTMZone(t *testing.T) {
	p, err := Configure("UTM 31N")
	require.Nil(t, err)
	require.Equal(t, UTMVariant, p.Variant)
	assert.Equal(t, 1, p.Hemisphere)
	assert.InDelta(t, 3.0, p.Longitude0, 1e-9)
	assert.Equal(t, "UTM 31N", Name(p))
}

func TestConfigureUTMLongitude(t *testing.T) {
	p, err := Configure("UTM 3.0N")
	require.Nil(t, err)
	assert.InDelta(t, 3.0, p.Longitude0, 1e-9)
	// 3.0 happens to equal zone 31's central meridian, so it re-renders
	// using the zone form.
	assert.Equal(t, "UTM 31N", Name(p))
}

func TestConfigureBadProjection(t *testing.T) {
	_, err := Configure("nonsense")
	require.NotNil(t, err)
	assert.Equal(t, "BadProjection", err.Kind.String())

	_, err = Configure("UTM 61N")
	require.NotNil(t, err)

	_, err = Configure("lambert I") // case-sensitive
	require.NotNil(t, err)
}

// TestUTMRoundTrip checks that with p = "UTM 31N", project(45.5, 3.5)
// then unproject(...) returns 45.5, 3.5 within 1e-8°.
func TestUTMRoundTrip(t *testing.T) {
	p, err := Configure("UTM 31N")
	require.Nil(t, err)

	x, y := Project(p, 45.5, 3.5)
	lat, lon := Unproject(p, x, y)
	assert.InDelta(t, 45.5, lat, 1e-8)
	assert.InDelta(t, 3.5, lon, 1e-8)
}

func TestLambertRoundTrip(t *testing.T) {
	for _, tag := range []string{"Lambert I", "Lambert II", "Lambert IIe", "Lambert III", "Lambert IV", "Lambert 93"} {
		p, err := Configure(tag)
		require.Nil(t, err)

		x, y := Project(p, 46.5, 2.5)
		lat, lon := Unproject(p, x, y)
		assert.InDelta(t, 46.5, lat, 1e-6, tag)
		assert.InDelta(t, 2.5, lon, 1e-6, tag)
	}
}
