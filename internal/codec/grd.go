package codec

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/niess/turtle-sub000/internal/grid"
	"github.com/niess/turtle-sub000/internal/projection"
	"github.com/niess/turtle-sub000/internal/turtleerr"
)

func init() {
	register("grd", grdCodec{})
}

// grdCodec reads/writes the EGM96-style text grid format: a header
// line "y_min y_max x_min x_max dy dx" followed by row-major values.
// Quantisation range is computed by a pre-scan, since the format stores
// plain floats rather than a declared z0/dz.
type grdCodec struct{}

func (grdCodec) Read(path string) (*grid.Map, *turtleerr.Error) {
	f, oerr := os.Open(path)
	if oerr != nil {
		return nil, turtleerr.Wrap(turtleerr.PathError, "grdCodec.Read", oerr, "open %q", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)

	if !scanner.Scan() {
		return nil, turtleerr.New(turtleerr.BadFormat, "grdCodec.Read", "empty file %q", path)
	}
	header := strings.Fields(scanner.Text())
	if len(header) != 6 {
		return nil, turtleerr.New(turtleerr.BadFormat, "grdCodec.Read", "malformed header in %q", path)
	}
	vals := make([]float64, 6)
	for i, tok := range header {
		v, perr := strconv.ParseFloat(tok, 64)
		if perr != nil {
			return nil, turtleerr.Wrap(turtleerr.BadFormat, "grdCodec.Read", perr, "bad header field %q", tok)
		}
		vals[i] = v
	}
	yMin, yMax, xMin, xMax, dy, dx := vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]

	nx := int(math.Round((xMax-xMin)/dx)) + 1
	ny := int(math.Round((yMax-yMin)/dy)) + 1

	values := make([]float64, 0, nx*ny)
	for scanner.Scan() {
		for _, tok := range strings.Fields(scanner.Text()) {
			v, perr := strconv.ParseFloat(tok, 64)
			if perr != nil {
				return nil, turtleerr.Wrap(turtleerr.BadFormat, "grdCodec.Read", perr, "bad value %q", tok)
			}
			values = append(values, v)
		}
	}
	if len(values) != nx*ny {
		return nil, turtleerr.New(turtleerr.BadFormat, "grdCodec.Read", "%q has %d values, want %d", path, len(values), nx*ny)
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
	dz := (zMax - zMin) / 65535.0

	m, merr := grid.Create(grid.Info{X0: xMin, Y0: yMin, X1: xMax, Y1: yMax, Z0: zMin, Z1: zMax, NX: nx, NY: ny}, projection.Projection{})
	if merr != nil {
		return nil, merr
	}
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			v := values[iy*nx+ix]
			q := 0.0
			if dz != 0 {
				q = (v - zMin) / dz
			}
			m.SetZ(ix, iy, uint16(q+0.5))
		}
	}
	return m, nil
}

func (grdCodec) Write(path string, m *grid.Map) *turtleerr.Error {
	if !m.Projection.IsNone() {
		return turtleerr.New(turtleerr.BadFormat, "grdCodec.Write", "GRD cannot carry a projection")
	}

	f, oerr := os.Create(path)
	if oerr != nil {
		return turtleerr.Wrap(turtleerr.PathError, "grdCodec.Write", oerr, "create %q", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%g %g %g %g %g %g\n", m.Y0, m.Y1, m.X0, m.X1, m.DY, m.DX)
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
		return turtleerr.Wrap(turtleerr.PathError, "grdCodec.Write", ferr, "flush %q", path)
	}
	return nil
}
