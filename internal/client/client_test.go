package client

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/niess/turtle-sub000/internal/codec"
	"github.com/niess/turtle-sub000/internal/grid"
	"github.com/niess/turtle-sub000/internal/projection"
	"github.com/niess/turtle-sub000/internal/stack"
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
	ns, lat := "N", latCell
	if latCell < 0 {
		ns, lat = "S", -latCell
	}
	ew, lon := "E", lonCell
	if lonCell < 0 {
		ew, lon = "W", -lonCell
	}
	name := ns + itoa2(lat) + ew + itoa3(lon) + ".png"
	require.Nil(t, codec.Dump(filepath.Join(dir, name), m))
}

func itoa2(v int) string {
	s := itoa(v)
	for len(s) < 2 {
		s = "0" + s
	}
	return s
}
func itoa3(v int) string {
	s := itoa(v)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}
func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	digits := ""
	for v > 0 {
		digits = string(rune('0'+v%10)) + digits
		v /= 10
	}
	return digits
}

func newMutexStack(t *testing.T, dir string, maxSize int) *stack.Stack {
	var mu sync.Mutex
	s, err := stack.Create(dir, maxSize, func() error { mu.Lock(); return nil }, func() error { mu.Unlock(); return nil })
	require.Nil(t, err)
	return s
}

func TestClientRequiresLockers(t *testing.T) {
	dir := t.TempDir()
	s, err := stack.Create(dir, 0, nil, nil)
	require.Nil(t, err)

	_, cerr := Create(s)
	require.NotNil(t, cerr)
	assert.Equal(t, "BadAddress", cerr.Kind.String())
}

func TestClientFastPathAndReload(t *testing.T) {
	dir := t.TempDir()
	writeTestTile(t, dir, 45, 3, 100)
	writeTestTile(t, dir, 46, 3, 200)

	s := newMutexStack(t, dir, 0)
	c, cerr := Create(s)
	require.Nil(t, cerr)

	z, inside, eerr := c.Elevation(45.5, 3.5)
	require.Nil(t, eerr)
	require.True(t, inside)
	assert.InDelta(t, 100, z, 1)

	// fast path: same tile, no lock round-trip needed conceptually
	z, inside, eerr = c.Elevation(45.6, 3.6)
	require.Nil(t, eerr)
	require.True(t, inside)
	assert.InDelta(t, 100, z, 1)

	// forces a reload into the other tile
	z, inside, eerr = c.Elevation(46.5, 3.5)
	require.Nil(t, eerr)
	require.True(t, inside)
	assert.InDelta(t, 200, z, 1)
}

func TestClientTwoClientsShareTile(t *testing.T) {
	dir := t.TempDir()
	writeTestTile(t, dir, 45, 3, 100)

	s := newMutexStack(t, dir, 1)
	c1, err := Create(s)
	require.Nil(t, err)
	c2, err := Create(s)
	require.Nil(t, err)

	_, inside, eerr := c1.Elevation(45.5, 3.5)
	require.Nil(t, eerr)
	require.True(t, inside)
	_, inside, eerr = c2.Elevation(45.5, 3.5)
	require.Nil(t, eerr)
	require.True(t, inside)

	assert.Equal(t, []string{"N45E003"}, s.ResidentCells())
}
