package codec

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/niess/turtle-sub000/internal/grid"
	"github.com/niess/turtle-sub000/internal/projection"
	"github.com/niess/turtle-sub000/internal/turtleerr"
)

func init() {
	register("hgt", hgtCodec{})
}

// hgtCodec reads/writes SRTM .hgt tiles: the SW corner is
// encoded in the filename (e.g. N45E003.hgt, S01W122.hgt), raster size is
// 3601x3601 when "SRTMGL1" appears in the base name, else 1201x1201, and
// samples are big-endian signed 16-bit, top row first.
type hgtCodec struct{}

func parseHGTCorner(path string) (lat0, lon0 float64, size int, err *turtleerr.Error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	size = 1201
	if strings.Contains(base, "SRTMGL1") {
		size = 3601
	}

	// The SW-corner token is the filename's prefix: N|S, then digits, then
	// E|W, then digits (e.g. "N45E003", "S01W122"); anything after that
	// (such as ".SRTMGL1") is ignored.
	if len(base) == 0 || (base[0] != 'N' && base[0] != 'S') {
		return 0, 0, 0, turtleerr.New(turtleerr.BadFormat, "hgtCodec", "cannot parse SW corner from %q", base)
	}
	nsSign := 1.0
	if base[0] == 'S' {
		nsSign = -1.0
	}

	ewIdx := strings.IndexAny(base, "EW")
	if ewIdx < 0 {
		return 0, 0, 0, turtleerr.New(turtleerr.BadFormat, "hgtCodec", "cannot parse SW corner from %q", base)
	}
	latTok := base[1:ewIdx]
	ewSign := 1.0
	if base[ewIdx] == 'W' {
		ewSign = -1.0
	}

	rest := base[ewIdx+1:]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	lonTok := rest[:end]

	latN, perr := strconv.Atoi(latTok)
	if perr != nil {
		return 0, 0, 0, turtleerr.Wrap(turtleerr.BadFormat, "hgtCodec", perr, "bad latitude token %q", latTok)
	}
	lonN, perr := strconv.Atoi(lonTok)
	if perr != nil {
		return 0, 0, 0, turtleerr.Wrap(turtleerr.BadFormat, "hgtCodec", perr, "bad longitude token %q", lonTok)
	}

	return nsSign * float64(latN), ewSign * float64(lonN), size, nil
}

func (hgtCodec) Read(path string) (*grid.Map, *turtleerr.Error) {
	lat0, lon0, size, perr := parseHGTCorner(path)
	if perr != nil {
		return nil, perr
	}

	raw, oerr := os.ReadFile(path)
	if oerr != nil {
		return nil, turtleerr.Wrap(turtleerr.PathError, "hgtCodec.Read", oerr, "open %q", path)
	}
	want := size * size * 2
	if len(raw) != want {
		return nil, turtleerr.New(turtleerr.BadFormat, "hgtCodec.Read", "%q has %d bytes, want %d", path, len(raw), want)
	}

	values := make([]int16, size*size)
	for i := range values {
		values[i] = int16(binary.BigEndian.Uint16(raw[i*2:]))
	}

	zMin, zMax := values[0], values[0]
	for _, v := range values {
		if v < zMin {
			zMin = v
		}
		if v > zMax {
			zMax = v
		}
	}
	dz := (float64(zMax) - float64(zMin)) / 65535.0

	// File rows are top-to-bottom (north first). Map row 0 is also the
	// top row, so Y0 is the northern bound and DY is negative.
	m, merr := grid.Create(grid.Info{
		X0: lon0, Y0: lat0 + 1, X1: lon0 + 1, Y1: lat0,
		Z0: float64(zMin), Z1: float64(zMax), NX: size, NY: size,
	}, projection.Projection{})
	if merr != nil {
		return nil, merr
	}

	for iy := 0; iy < size; iy++ {
		for ix := 0; ix < size; ix++ {
			v := values[iy*size+ix]
			q := 0.0
			if dz != 0 {
				q = (float64(v) - float64(zMin)) / dz
			}
			m.SetZ(ix, iy, uint16(q+0.5))
		}
	}
	return m, nil
}

func (hgtCodec) Write(path string, m *grid.Map) *turtleerr.Error {
	if !m.Projection.IsNone() {
		return turtleerr.New(turtleerr.BadFormat, "hgtCodec.Write", "HGT cannot carry a projection")
	}
	if m.NX != m.NY {
		return turtleerr.New(turtleerr.BadFormat, "hgtCodec.Write", "HGT requires a square raster")
	}

	buf := make([]byte, m.NX*m.NY*2)
	for iy := 0; iy < m.NY; iy++ {
		for ix := 0; ix < m.NX; ix++ {
			z := m.Z0 + float64(m.GetZ(ix, iy))*m.DZ
			binary.BigEndian.PutUint16(buf[(iy*m.NX+ix)*2:], uint16(int16(z)))
		}
	}

	if werr := os.WriteFile(path, buf, 0o644); werr != nil {
		return turtleerr.Wrap(turtleerr.PathError, "hgtCodec.Write", werr, "write %q", path)
	}
	return nil
}

// hgtFilename synthesises a canonical SW-corner filename for (lat0, lon0),
// e.g. "N45E003.hgt".
func hgtFilename(lat0, lon0 int) string {
	ns := "N"
	if lat0 < 0 {
		ns = "S"
		lat0 = -lat0
	}
	ew := "E"
	if lon0 < 0 {
		ew = "W"
		lon0 = -lon0
	}
	return fmt.Sprintf("%s%02d%s%03d.hgt", ns, lat0, ew, lon0)
}
