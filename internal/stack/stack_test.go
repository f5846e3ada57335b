package stack

import (
	"path/filepath"
	"testing"

	"github.com/niess/turtle-sub000/internal/codec"
	"github.com/niess/turtle-sub000/internal/grid"
	"github.com/niess/turtle-sub000/internal/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestTile(t *testing.T, dir string, latCell, lonCell int, z float64) {
	m, err := grid.Create(grid.Info{
		X0: float64(lonCell), Y0: float64(latCell), X1: float64(lonCell + 1), Y1: float64(latCell + 1),
		Z0: 0, Z1: 1000, NX: 2, NY: 2,
	}, projection.Projection{})
	require.Nil(t, err)
	for iy := 0; iy < 2; iy++ {
		for ix := 0; ix < 2; ix++ {
			require.Nil(t, m.Fill(ix, iy, z))
		}
	}
	require.Nil(t, codec.Dump(filepath.Join(dir, formatCellName(latCell, lonCell)+".png"), m))
}

// TestLRUEviction checks that a full, unpinned stack evicts its least
// recently used tile on the next load.
func TestLRUEviction(t *testing.T) {
	dir := t.TempDir()
	writeTestTile(t, dir, 45, 3, 100)
	writeTestTile(t, dir, 46, 3, 200)
	writeTestTile(t, dir, 45, 2, 300)

	s, err := Create(dir, 2, nil, nil)
	require.Nil(t, err)

	_, inside, eerr := s.Elevation(45.5, 3.5)
	require.Nil(t, eerr)
	require.True(t, inside)

	_, inside, eerr = s.Elevation(46.5, 3.5)
	require.Nil(t, eerr)
	require.True(t, inside)

	_, inside, eerr = s.Elevation(45.5, 2.5)
	require.Nil(t, eerr)
	require.True(t, inside)

	assert.Equal(t, []string{"N45E002", "N46E003"}, s.ResidentCells())
}

func TestUnregisteredCellIsOutside(t *testing.T) {
	dir := t.TempDir()
	writeTestTile(t, dir, 45, 3, 100)

	s, err := Create(dir, 0, nil, nil)
	require.Nil(t, err)

	_, inside, eerr := s.Elevation(10, 10)
	require.Nil(t, eerr)
	assert.False(t, inside)
}

func TestLockUnlockMustBothBeSet(t *testing.T) {
	dir := t.TempDir()
	_, err := Create(dir, 0, func() error { return nil }, nil)
	require.NotNil(t, err)
	assert.Equal(t, "BadFormat", err.Kind.String())
}

// TestPinnedTileSurvivesEviction checks that a tile with Clients > 0 is
// never evicted by Release/eviction logic.
func TestPinnedTileSurvivesEviction(t *testing.T) {
	dir := t.TempDir()
	writeTestTile(t, dir, 45, 3, 100)
	writeTestTile(t, dir, 46, 3, 200)
	writeTestTile(t, dir, 47, 3, 300)

	s, err := Create(dir, 1, nil, nil)
	require.Nil(t, err)

	tile, lerr := s.LoadForPoint(45.5, 3.5)
	require.Nil(t, lerr)
	require.NotNil(t, tile)
	s.Reserve(tile)
	s.Reserve(tile)
	assert.Equal(t, 2, tile.Clients)

	_, _, eerr := s.Elevation(46.5, 3.5)
	require.Nil(t, eerr)
	_, _, eerr = s.Elevation(47.5, 3.5)
	require.Nil(t, eerr)

	found := false
	for _, c := range s.ResidentCells() {
		if c == "N45E003" {
			found = true
		}
	}
	assert.True(t, found, "pinned tile must still be resident")
	assert.Equal(t, 2, tile.Clients)
}
