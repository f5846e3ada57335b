package codec

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/niess/turtle-sub000/internal/grid"
	"github.com/niess/turtle-sub000/internal/projection"
	"github.com/niess/turtle-sub000/internal/turtleerr"
)

func init() {
	register("asc", ascCodec{})
}

// ascCodec reads/writes the Esri ASCII grid format: a six-field
// header (ncols/nrows/xllcorner/yllcorner/cellsize/NODATA_value) followed
// by row-major, top-to-bottom values. NODATA cells are excluded from the
// [zmin, zmax] pre-scan but stored as 0.
type ascCodec struct{}

const ascNoData = -9999.0

func readASCHeaderField(scanner *bufio.Scanner, name string) (float64, *turtleerr.Error) {
	if !scanner.Scan() {
		return 0, turtleerr.New(turtleerr.BadFormat, "ascCodec.Read", "missing %s header field", name)
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) != 2 {
		return 0, turtleerr.New(turtleerr.BadFormat, "ascCodec.Read", "malformed %s header line %q", name, scanner.Text())
	}
	v, perr := strconv.ParseFloat(fields[1], 64)
	if perr != nil {
		return 0, turtleerr.Wrap(turtleerr.BadFormat, "ascCodec.Read", perr, "bad %s value %q", name, fields[1])
	}
	return v, nil
}

func (ascCodec) Read(path string) (*grid.Map, *turtleerr.Error) {
	f, oerr := os.Open(path)
	if oerr != nil {
		return nil, turtleerr.Wrap(turtleerr.PathError, "ascCodec.Read", oerr, "open %q", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)

	ncolsF, err := readASCHeaderField(scanner, "ncols")
	if err != nil {
		return nil, err
	}
	nrowsF, err := readASCHeaderField(scanner, "nrows")
	if err != nil {
		return nil, err
	}
	xll, err := readASCHeaderField(scanner, "xllcorner")
	if err != nil {
		return nil, err
	}
	yll, err := readASCHeaderField(scanner, "yllcorner")
	if err != nil {
		return nil, err
	}
	cellsize, err := readASCHeaderField(scanner, "cellsize")
	if err != nil {
		return nil, err
	}
	nodata, err := readASCHeaderField(scanner, "NODATA_value")
	if err != nil {
		return nil, err
	}

	nx, ny := int(ncolsF), int(nrowsF)
	values := make([]float64, 0, nx*ny)
	for scanner.Scan() {
		for _, tok := range strings.Fields(scanner.Text()) {
			v, perr := strconv.ParseFloat(tok, 64)
			if perr != nil {
				return nil, turtleerr.Wrap(turtleerr.BadFormat, "ascCodec.Read", perr, "bad value %q", tok)
			}
			values = append(values, v)
		}
	}
	if len(values) != nx*ny {
		return nil, turtleerr.New(turtleerr.BadFormat, "ascCodec.Read", "%q has %d values, want %d", path, len(values), nx*ny)
	}

	zMin, zMax := 0.0, 0.0
	haveRange := false
	for _, v := range values {
		if v == nodata {
			continue
		}
		if !haveRange {
			zMin, zMax = v, v
			haveRange = true
			continue
		}
		if v < zMin {
			zMin = v
		}
		if v > zMax {
			zMax = v
		}
	}
	dz := 0.0
	if haveRange {
		dz = (zMax - zMin) / 65535.0
	}

	// Data is row-major top-to-bottom, while xllcorner/yllcorner name the
	// bottom-left (south-west) corner: row 0 is the northern edge, so Y0
	// is the north bound and DY is negative.
	m, merr := grid.Create(grid.Info{
		X0: xll, Y0: yll + float64(ny-1)*cellsize, X1: xll + float64(nx-1)*cellsize, Y1: yll,
		Z0: zMin, Z1: zMax, NX: nx, NY: ny,
	}, projection.Projection{})
	if merr != nil {
		return nil, merr
	}

	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			v := values[iy*nx+ix]
			if v == nodata || dz == 0 {
				m.SetZ(ix, iy, 0)
				continue
			}
			q := (v - zMin) / dz
			m.SetZ(ix, iy, uint16(q+0.5))
		}
	}
	return m, nil
}

func (ascCodec) Write(path string, m *grid.Map) *turtleerr.Error {
	if !m.Projection.IsNone() {
		return turtleerr.New(turtleerr.BadFormat, "ascCodec.Write", "ASC cannot carry a projection")
	}
	cellsize := m.DX
	if cellsize == 0 {
		cellsize = -m.DY
	}

	f, oerr := os.Create(path)
	if oerr != nil {
		return turtleerr.Wrap(turtleerr.PathError, "ascCodec.Write", oerr, "create %q", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "ncols %d\n", m.NX)
	fmt.Fprintf(w, "nrows %d\n", m.NY)
	fmt.Fprintf(w, "xllcorner %g\n", m.X0)
	fmt.Fprintf(w, "yllcorner %g\n", m.Y1)
	fmt.Fprintf(w, "cellsize %g\n", cellsize)
	fmt.Fprintf(w, "NODATA_value %g\n", ascNoData)

	for iy := 0; iy < m.NY; iy++ {
		for ix := 0; ix < m.NX; ix++ {
			if ix > 0 {
				w.WriteByte(' ')
			}
			z := m.Z0 + float64(m.GetZ(ix, iy))*m.DZ
			fmt.Fprintf(w, "%g", z)
		}
		w.WriteByte('\n')
	}
	if ferr := w.Flush(); ferr != nil {
		return turtleerr.Wrap(turtleerr.PathError, "ascCodec.Write", ferr, "flush %q", path)
	}
	return nil
}
