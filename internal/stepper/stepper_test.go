package stepper

import (
	"math"
	"testing"

	"github.com/niess/turtle-sub000/internal/grid"
	"github.com/niess/turtle-sub000/internal/projection"
	"github.com/niess/turtle-sub000/internal/wgs84"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatAtZero() *Stepper {
	s := New()
	s.AddLayer(Layer{NewData(Flat{Offset: 0})})
	return s
}

func ecefAt(lat, lon, h float64) [3]float64 {
	x, y, z := wgs84.ECEFFromGeodetic(lat, lon, h)
	return [3]float64{x, y, z}
}

func TestSampleModeAboveFlatGround(t *testing.T) {
	s := flatAtZero()
	pos := ecefAt(45, 3, 10)

	_, result, err := s.Step(pos, nil)
	require.Nil(t, err)
	require.NotNil(t, result)
	assert.InDelta(t, 10, result.Altitude, 1e-6)
	assert.InDelta(t, 0, result.Elevation[0], 1e-9)
	assert.Equal(t, 0, result.DataIndex)
	assert.InDelta(t, 4, result.Step, 1e-6) // slope_factor(0.4) * |10-0|
}

// TestStepperDichotomy covers a flat stepper at ground z=0, starting at
// altitude 10 m moving straight down with a slope_factor large enough to
// overshoot the ground in one tentative step: Step locates the crossing
// by dichotomy and lands with altitude strictly below ground_elevation.
func TestStepperDichotomy(t *testing.T) {
	s := flatAtZero()
	s.SlopeFactor = 3 // tentative step (30 m) overshoots the 10 m drop to ground

	// ECEF "up" direction at (45,3): negate it to move straight down.
	_, _, up := wgs84.ENUBasis(45, 3)
	dir := [3]float64{-up[0], -up[1], -up[2]}

	pos := ecefAt(45, 3, 10)
	newPos, result, err := s.Step(pos, &dir)
	require.Nil(t, err)
	require.NotNil(t, result)
	assert.Less(t, result.Altitude, result.Elevation[0])

	lat, lon, h := wgs84.ECEFToGeodetic(newPos[0], newPos[1], newPos[2])
	assert.InDelta(t, 45, lat, 1e-3)
	assert.InDelta(t, 3, lon, 1e-3)
	assert.Less(t, h, 0.0)
}

// TestGeoidCorrectedStepper covers a constant -1 m geoid undulation and a
// flat layer at offset 0 combining to place WGS84-relative ground 1 m
// below the ellipsoid, so a point at geodetic height 0.5 m reports
// altitude above that ground (0.5 > -1).
func TestGeoidCorrectedStepper(t *testing.T) {
	// The geoid grid covers (45°, 3°), and Z0 = -1 makes -1 an exact
	// quantised value.
	geoid, gerr := grid.Create(grid.Info{
		X0: 0, Y0: 40, X1: 10, Y1: 50, Z0: -1, Z1: 1, NX: 2, NY: 2,
	}, projection.Projection{})
	require.Nil(t, gerr)
	for iy := 0; iy < 2; iy++ {
		for ix := 0; ix < 2; ix++ {
			require.Nil(t, geoid.Fill(ix, iy, -1))
		}
	}

	s := flatAtZero()
	s.SetGeoid(geoid)

	pos := ecefAt(45, 3, 0.5)
	_, result, err := s.Step(pos, nil)
	require.Nil(t, err)
	require.NotNil(t, result)
	assert.InDelta(t, -1, result.Elevation[0], 1e-6)
	assert.InDelta(t, 0.5, result.Altitude, 1e-6)
	assert.Greater(t, result.Altitude, result.Elevation[0])
}

func TestPositionReportsDataIndex(t *testing.T) {
	s := New()
	s.AddLayer(Layer{NewData(Flat{Offset: 100})})

	ecef, idx, err := s.Position(45, 3, 2, 0)
	require.Nil(t, err)
	assert.Equal(t, 0, idx)

	lat, lon, h := wgs84.ECEFToGeodetic(ecef[0], ecef[1], ecef[2])
	assert.InDelta(t, 45, lat, 1e-6)
	assert.InDelta(t, 3, lon, 1e-6)
	assert.InDelta(t, 102, h, 1e-3)
}

func TestPositionOutsideLayerReportsMinusOne(t *testing.T) {
	m, merr := grid.Create(grid.Info{X0: 0, Y0: 0, X1: 1, Y1: 1, Z0: 0, Z1: 100, NX: 2, NY: 2}, projection.Projection{})
	require.Nil(t, merr)
	s := New()
	s.AddLayer(Layer{NewData(MapData{M: m})})

	_, idx, err := s.Position(45, 3, 0, 0)
	require.Nil(t, err)
	assert.Equal(t, -1, idx)
}

func TestStepOutsideAllDataIsDomainError(t *testing.T) {
	m, merr := grid.Create(grid.Info{X0: 0, Y0: 0, X1: 1, Y1: 1, Z0: 0, Z1: 100, NX: 2, NY: 2}, projection.Projection{})
	require.Nil(t, merr)
	s := New()
	s.AddLayer(Layer{NewData(MapData{M: m})})

	pos := ecefAt(45, 3, 10)
	_, _, err := s.Step(pos, nil)
	require.NotNil(t, err)
	assert.Equal(t, "DomainError", err.Kind.String())
}

func TestMultiLayerElevationBracket(t *testing.T) {
	s := New()
	s.AddLayer(Layer{NewData(Flat{Offset: 100})}) // roof
	s.AddLayer(Layer{NewData(Flat{Offset: 0})})    // floor

	pos := ecefAt(45, 3, 50)
	_, result, err := s.Step(pos, nil)
	require.Nil(t, err)
	require.Len(t, result.Elevation, 2)
	assert.InDelta(t, 0, result.Elevation[0], 1e-6)
	assert.InDelta(t, 100, result.Elevation[1], 1e-6)
	assert.False(t, math.IsInf(result.Elevation[0], 0))
}

func TestLayerPriorityWithinLayer(t *testing.T) {
	l := Layer{NewData(Flat{Offset: 1}), NewData(Flat{Offset: 2})}
	idx, elevation, err := l.topInside(45, 3)
	require.Nil(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 2.0, elevation)
}
