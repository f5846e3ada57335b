// Package grid implements the quantised regular grid Map, and the
// geographic Tile specialisation built on top of it.
package grid

import (
	"golang.org/x/exp/constraints"

	"github.com/niess/turtle-sub000/internal/projection"
	"github.com/niess/turtle-sub000/internal/turtleerr"
)

// Info describes a map's axis ranges and cell counts, the shape accepted by
// Create and returned by Meta.
type Info struct {
	X0, Y0, X1, Y1 float64
	Z0, Z1         float64
	NX, NY         int
}

// Accessors lets a codec install its own cell read/write behaviour on a
// loaded Map while callers keep using Map.GetZ/Map.SetZ.
// Every Map built by Create uses rowMajorAccessors, and no codec in
// internal/codec replaces them; the indirection exists so a future codec with a different in-memory layout (e.g. a
// strided or tiled buffer) can plug in without touching Map's callers.
type Accessors struct {
	GetZ func(m *Map, ix, iy int) uint16
	SetZ func(m *Map, ix, iy int, z uint16)
}

// Map is a quantised regular grid: nx by ny cells, elevation quantised to a
// uint16 in [z0, z0+65535*dz]. Cells is row-major, row 0 first; row iy
// lies at Y0 + iy*DY, so row 0 is the top row when DY is negative (as the
// HGT, ASC and GeoTIFF codecs load it) and the bottom row when DY is
// positive (as the GRD codec loads it).
type Map struct {
	NX, NY         int
	X0, Y0, X1, Y1 float64
	DX, DY         float64
	Z0, Z1, DZ     float64
	Projection     projection.Projection
	Cells          []uint16

	accessors Accessors
}

func rowMajorGetZ(m *Map, ix, iy int) uint16 { return m.Cells[iy*m.NX+ix] }
func rowMajorSetZ(m *Map, ix, iy int, z uint16) { m.Cells[iy*m.NX+ix] = z }

var rowMajorAccessors = Accessors{GetZ: rowMajorGetZ, SetZ: rowMajorSetZ}

// Create validates info and allocates a zeroed map.
func Create(info Info, proj projection.Projection) (*Map, *turtleerr.Error) {
	if info.NX <= 0 || info.NY <= 0 {
		return nil, turtleerr.New(turtleerr.DomainError, "grid.Create", "nx,ny must be > 0, got %d,%d", info.NX, info.NY)
	}
	if info.Z0 == info.Z1 {
		return nil, turtleerr.New(turtleerr.DomainError, "grid.Create", "z0 and z1 must differ")
	}

	var dx float64
	if info.NX > 1 {
		dx = (info.X1 - info.X0) / float64(info.NX-1)
	}
	var dy float64
	if info.NY > 1 {
		dy = (info.Y1 - info.Y0) / float64(info.NY-1)
	}
	dz := (info.Z1 - info.Z0) / 65535.0

	m := &Map{
		NX: info.NX, NY: info.NY,
		X0: info.X0, Y0: info.Y0, X1: info.X1, Y1: info.Y1,
		DX: dx, DY: dy,
		Z0: info.Z0, Z1: info.Z1, DZ: dz,
		Projection: proj,
		Cells:      make([]uint16, info.NX*info.NY),
		accessors:  rowMajorAccessors,
	}
	return m, nil
}

// SetAccessors installs a codec-specific accessor pair in place of the
// row-major pair that Create installs.
func (m *Map) SetAccessors(a Accessors) { m.accessors = a }

// GetZ returns the quantised cell value at (ix, iy).
func (m *Map) GetZ(ix, iy int) uint16 { return m.accessors.GetZ(m, ix, iy) }

// SetZ sets the quantised cell value at (ix, iy).
func (m *Map) SetZ(ix, iy int, z uint16) { m.accessors.SetZ(m, ix, iy, z) }

func (m *Map) inBounds(ix, iy int) bool {
	return ix >= 0 && ix < m.NX && iy >= 0 && iy < m.NY
}

// Fill sets the elevation at (ix, iy), quantising z into the map's range.
func (m *Map) Fill(ix, iy int, z float64) *turtleerr.Error {
	if !m.inBounds(ix, iy) {
		return turtleerr.New(turtleerr.DomainError, "Map.Fill", "cell (%d,%d) out of bounds (%d,%d)", ix, iy, m.NX, m.NY)
	}
	zMax := m.Z0 + 65535*m.DZ
	if z < minOf(m.Z0, zMax) || z > maxOf(m.Z0, zMax) {
		return turtleerr.New(turtleerr.DomainError, "Map.Fill", "z=%g out of range [%g,%g]", z, m.Z0, zMax)
	}
	q := (z - m.Z0) / m.DZ
	m.SetZ(ix, iy, uint16(round(q)))
	return nil
}

// Node returns the geographic/projected coordinate and elevation stored at
// (ix, iy).
func (m *Map) Node(ix, iy int) (x, y, z float64, err *turtleerr.Error) {
	if !m.inBounds(ix, iy) {
		return 0, 0, 0, turtleerr.New(turtleerr.DomainError, "Map.Node", "cell (%d,%d) out of bounds (%d,%d)", ix, iy, m.NX, m.NY)
	}
	x = m.X0 + float64(ix)*m.DX
	y = m.Y0 + float64(iy)*m.DY
	z = m.Z0 + float64(m.GetZ(ix, iy))*m.DZ
	return x, y, z, nil
}

// Elevation computes the bilinearly interpolated elevation at (x, y).
// inside reports whether (x, y) falls within the grid's covered rectangle;
// when it does not and the caller requested inside, z is the zero value
// with no error. Callers not tracking inside should treat a false return
// as DomainError.
func (m *Map) Elevation(x, y float64) (z float64, inside bool) {
	hx := (x - m.X0) / nonZero(m.DX)
	hy := (y - m.Y0) / nonZero(m.DY)

	if hx < 0 || hx > float64(m.NX-1) || hy < 0 || hy > float64(m.NY-1) {
		return 0, false
	}

	ix0 := int(hx)
	iy0 := int(hy)
	ix1 := ix0 + 1
	iy1 := iy0 + 1
	if ix1 >= m.NX {
		ix1 = ix0
	}
	if iy1 >= m.NY {
		iy1 = iy0
	}

	fx := hx - float64(ix0)
	fy := hy - float64(iy0)

	z00 := m.Z0 + float64(m.GetZ(ix0, iy0))*m.DZ
	z10 := m.Z0 + float64(m.GetZ(ix1, iy0))*m.DZ
	z01 := m.Z0 + float64(m.GetZ(ix0, iy1))*m.DZ
	z11 := m.Z0 + float64(m.GetZ(ix1, iy1))*m.DZ

	z0 := z00*(1-fx) + z10*fx
	z1 := z01*(1-fx) + z11*fx
	z = z0*(1-fy) + z1*fy
	return z, true
}

// Meta reports the map's axis ranges and projection tag.
func (m *Map) Meta() (Info, string) {
	info := Info{X0: m.X0, Y0: m.Y0, X1: m.X1, Y1: m.Y1, Z0: m.Z0, Z1: m.Z1, NX: m.NX, NY: m.NY}
	return info, projection.Name(m.Projection)
}

func nonZero(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

func minOf[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func maxOf[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func round(v float64) float64 {
	if v < 0 {
		return v - 0.5
	}
	return v + 0.5
}
