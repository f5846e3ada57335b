package codec

import (
	"path/filepath"
	"testing"

	"github.com/niess/turtle-sub000/internal/grid"
	"github.com/niess/turtle-sub000/internal/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMap(t *testing.T, proj projection.Projection) *grid.Map {
	m, err := grid.Create(grid.Info{X0: 0, Y0: 0, X1: 10, Y1: 10, Z0: 0, Z1: 2000, NX: 6, NY: 6}, proj)
	require.Nil(t, err)
	for iy := 0; iy < m.NY; iy++ {
		for ix := 0; ix < m.NX; ix++ {
			require.Nil(t, m.Fill(ix, iy, float64((ix+iy*m.NX)%7)*100))
		}
	}
	return m
}

// TestPNGRoundTrip checks that writing then reading a PNG file reproduces
// identical metadata and identical quantised values.
func TestPNGRoundTrip(t *testing.T) {
	p, perr := projection.Configure("UTM 31N")
	require.Nil(t, perr)

	m := sampleMap(t, p)
	path := filepath.Join(t.TempDir(), "sample.png")

	require.Nil(t, Dump(path, m))

	got, rerr := Load(path)
	require.Nil(t, rerr)

	assert.Equal(t, m.NX, got.NX)
	assert.Equal(t, m.NY, got.NY)
	assert.InDelta(t, m.X0, got.X0, 1e-9)
	assert.InDelta(t, m.Y0, got.Y0, 1e-9)
	assert.InDelta(t, m.Z0, got.Z0, 1e-9)
	assert.InDelta(t, m.Z1, got.Z1, 1e-9)
	assert.Equal(t, projection.Name(p), projection.Name(got.Projection))

	for iy := 0; iy < m.NY; iy++ {
		for ix := 0; ix < m.NX; ix++ {
			assert.Equal(t, m.GetZ(ix, iy), got.GetZ(ix, iy))
		}
	}
}

func TestUnknownExtension(t *testing.T) {
	_, err := ForPath("foo.bogus")
	require.NotNil(t, err)
	assert.Equal(t, "BadExtension", err.Kind.String())
}

func TestGRDRoundTrip(t *testing.T) {
	m := sampleMap(t, projection.Projection{})
	path := filepath.Join(t.TempDir(), "sample.grd")

	require.Nil(t, Dump(path, m))
	got, err := Load(path)
	require.Nil(t, err)
	assert.Equal(t, m.NX, got.NX)
	assert.Equal(t, m.NY, got.NY)

	for iy := 0; iy < m.NY; iy++ {
		for ix := 0; ix < m.NX; ix++ {
			_, _, wantZ, _ := m.Node(ix, iy)
			_, _, gotZ, _ := got.Node(ix, iy)
			assert.InDelta(t, wantZ, gotZ, got.DZ+1e-6)
		}
	}
}

func TestASCRoundTrip(t *testing.T) {
	m := sampleMap(t, projection.Projection{})
	path := filepath.Join(t.TempDir(), "sample.asc")

	require.Nil(t, Dump(path, m))
	got, err := Load(path)
	require.Nil(t, err)
	assert.Equal(t, m.NX, got.NX)
	assert.Equal(t, m.NY, got.NY)
}

func TestHGTFilenameCornerParsing(t *testing.T) {
	lat, lon, size, err := parseHGTCorner("/archive/N45E003.hgt")
	require.Nil(t, err)
	assert.Equal(t, 45.0, lat)
	assert.Equal(t, 3.0, lon)
	assert.Equal(t, 1201, size)

	lat, lon, size, err = parseHGTCorner("/archive/S01W122.SRTMGL1.hgt")
	require.Nil(t, err)
	assert.Equal(t, -1.0, lat)
	assert.Equal(t, -122.0, lon)
	assert.Equal(t, 3601, size)
}

func TestGeoTIFFRoundTrip(t *testing.T) {
	m, merr := grid.Create(grid.Info{X0: 2, Y0: 46, X1: 3, Y1: 45, Z0: -32768, Z1: 32767, NX: 5, NY: 5}, projection.Projection{})
	require.Nil(t, merr)
	for iy := 0; iy < m.NY; iy++ {
		for ix := 0; ix < m.NX; ix++ {
			require.Nil(t, m.Fill(ix, iy, float64(ix*100+iy*10-500)))
		}
	}

	path := filepath.Join(t.TempDir(), "sample.tif")
	require.Nil(t, Dump(path, m))

	got, err := Load(path)
	require.Nil(t, err)
	assert.Equal(t, m.NX, got.NX)
	assert.Equal(t, m.NY, got.NY)
	assert.InDelta(t, m.X0, got.X0, 1e-9)
	assert.InDelta(t, m.Y0, got.Y0, 1e-9)

	for iy := 0; iy < m.NY; iy++ {
		for ix := 0; ix < m.NX; ix++ {
			assert.Equal(t, m.GetZ(ix, iy), got.GetZ(ix, iy))
		}
	}
}
