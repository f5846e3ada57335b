package turtle

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestProjectionRoundTrip exercises component B (spec §4.B, §8 S1) purely
// through the public facade, so a caller outside this module sees the
// same behaviour the internal/projection package tests verify directly.
func TestProjectionRoundTrip(t *testing.T) {
	p, err := ConfigureProjection("UTM 31N")
	require.Nil(t, err)

	x, y := Project(p, 45.5, 3.5)
	lat, lon := Unproject(p, x, y)
	assert.InDelta(t, 45.5, lat, 1e-8)
	assert.InDelta(t, 3.5, lon, 1e-8)
	assert.Equal(t, "UTM 31N", ProjectionName(p))
}

// TestStackElevationThroughFacade builds a tiny single-tile archive and
// checks that NewMap/DumpMap/NewStack compose to a working elevation
// query without the caller ever importing internal/. The z range gives a
// 1 m quantisation step, so 500 is stored exactly.
func TestStackElevationThroughFacade(t *testing.T) {
	dir := t.TempDir()

	m, merr := NewMap(Info{X0: 3, Y0: 45, X1: 4, Y1: 46, Z0: 0, Z1: 65535, NX: 2, NY: 2}, Projection{})
	require.Nil(t, merr)
	for iy := 0; iy < 2; iy++ {
		for ix := 0; ix < 2; ix++ {
			require.Nil(t, m.Fill(ix, iy, 500))
		}
	}
	require.Nil(t, DumpMap(filepath.Join(dir, "N45E003.png"), m))

	s, serr := NewStack(dir, 1, nil, nil)
	require.Nil(t, serr)

	z, inside, eerr := s.Elevation(45.5, 3.5)
	require.Nil(t, eerr)
	require.True(t, inside)
	assert.InDelta(t, 500, z, 1e-6)
}

// TestStepperFlatLayerThroughFacade checks that NewStepper/NewData
// compose into a minimal flat-ground Stepper via the facade types only.
func TestStepperFlatLayerThroughFacade(t *testing.T) {
	st := NewStepper()
	st.AddLayer(Layer{NewData(Flat{Offset: 10})})

	ecef, idx, perr := st.Position(45, 3, 2, 0)
	require.Nil(t, perr)
	require.Equal(t, 0, idx)

	_, result, serr := st.Step(ecef, nil)
	require.Nil(t, serr)
	require.Len(t, result.Elevation, 1)
	assert.InDelta(t, 10, result.Elevation[0], 1e-6)
}
