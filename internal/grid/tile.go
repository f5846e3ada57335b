package grid

import "math"

// Tile is a Map specialisation: projection is always None, axes are
// geographic (lon, lat in degrees), and the tile carries an
// integer cell identity plus the pin count a Stack uses to decide
// eviction. Tiles are never created directly by a caller; only a Stack
// loads them (see internal/stack).
type Tile struct {
	*Map
	LatCell, LonCell int
	Clients          int
	Path             string
}

// NewTile wraps a loaded geographic Map as a Tile, deriving its integer
// cell identity from the map's southwest corner. Y0/X0 are not always the
// south/west bound (HGT- and ASC-loaded maps store the north bound as Y0
// so that row 0 of the file lines up with iy=0), so the corner is taken
// as the minimum of each axis rather than assumed to be Y0/X0 directly.
func NewTile(m *Map, path string) *Tile {
	return &Tile{
		Map:     m,
		LatCell: int(math.Floor(minOf(m.Y0, m.Y1))),
		LonCell: int(math.Floor(minOf(m.X0, m.X1))),
		Path:    path,
	}
}

// Contains reports whether the tile's grid rectangle covers (lon, lat).
func (t *Tile) Contains(lon, lat float64) bool {
	_, inside := t.Elevation(lon, lat)
	return inside
}
