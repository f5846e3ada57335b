package grid

import (
	"testing"

	"github.com/niess/turtle-sub000/internal/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateValidatesDimensions(t *testing.T) {
	_, err := Create(Info{NX: 0, NY: 10, Z0: 0, Z1: 1}, projection.Projection{})
	require.NotNil(t, err)

	_, err = Create(Info{NX: 10, NY: 10, Z0: 5, Z1: 5}, projection.Projection{})
	require.NotNil(t, err)
}

func TestFillAndNodeQuantisation(t *testing.T) {
	m, err := Create(Info{X0: 0, Y0: 0, X1: 10, Y1: 10, Z0: 0, Z1: 1000, NX: 11, NY: 11}, projection.Projection{})
	require.Nil(t, err)

	require.Nil(t, m.Fill(3, 4, 456.7))
	_, _, z, nerr := m.Node(3, 4)
	require.Nil(t, nerr)
	assert.InDelta(t, 456.7, z, m.DZ)
}

// TestBilinearInterpolation checks that a checkerboard of 0/1000 averages
// to ~500 at a cell centre.
func TestBilinearInterpolation(t *testing.T) {
	m, err := Create(Info{X0: 0, Y0: 0, X1: 2, Y1: 2, Z0: 0, Z1: 1000, NX: 3, NY: 3}, projection.Projection{})
	require.Nil(t, err)

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			z := 0.0
			if (i*3+j)%2 != 0 {
				z = 1000
			}
			require.Nil(t, m.Fill(i, j, z))
		}
	}

	z, inside := m.Elevation(0.5, 0.5)
	require.True(t, inside)
	assert.InDelta(t, 500, z, 50)
}

func TestElevationOutsideRectangle(t *testing.T) {
	m, err := Create(Info{X0: 0, Y0: 0, X1: 10, Y1: 10, Z0: 0, Z1: 1000, NX: 11, NY: 11}, projection.Projection{})
	require.Nil(t, err)

	_, inside := m.Elevation(-1, 5)
	assert.False(t, inside)
}

func TestTileCellIdentity(t *testing.T) {
	m, err := Create(Info{X0: 2.0, Y0: 45.0, X1: 3.0, Y1: 46.0, Z0: 0, Z1: 1000, NX: 11, NY: 11}, projection.Projection{})
	require.Nil(t, err)

	tile := NewTile(m, "/archive/N45E002.png")
	assert.Equal(t, 45, tile.LatCell)
	assert.Equal(t, 2, tile.LonCell)
	assert.True(t, tile.Contains(2.5, 45.5))
	assert.False(t, tile.Contains(5, 5))
}
