package codec

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"strconv"

	"github.com/niess/turtle-sub000/internal/grid"
	"github.com/niess/turtle-sub000/internal/projection"
	"github.com/niess/turtle-sub000/internal/turtleerr"
)

func init() {
	register("png", pngCodec{})
}

// pngCodec is the only writable projection map format: 16-bit
// grayscale PNG, row order top-to-bottom, metadata carried in a "Comment"
// tEXt chunk as JSON with hex-float-encoded bounds for exact round-trip.
// The encoder/decoder are hand-rolled against the chunk layout directly
// (no filtering on write, all five PNG filter types supported on read)
// because the standard library's image/png has no API for writing or
// reading ancillary text chunks.
type pngCodec struct{}

type pngTopography struct {
	X0         string `json:"x0"`
	Y0         string `json:"y0"`
	Z0         string `json:"z0"`
	X1         string `json:"x1"`
	Y1         string `json:"y1"`
	Z1         string `json:"z1"`
	Projection string `json:"projection"`
}

type pngComment struct {
	Topography pngTopography `json:"topography"`
}

func hexFloat(v float64) string { return strconv.FormatFloat(v, 'x', -1, 64) }

func parseHexFloat(s string) (float64, *turtleerr.Error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, turtleerr.Wrap(turtleerr.BadJSON, "codec.parseHexFloat", err, "bad hex-float %q", s)
	}
	return v, nil
}

func (pngCodec) Write(path string, m *grid.Map) *turtleerr.Error {
	topo := pngTopography{
		X0: hexFloat(m.X0), Y0: hexFloat(m.Y0), Z0: hexFloat(m.Z0),
		X1: hexFloat(m.X1), Y1: hexFloat(m.Y1), Z1: hexFloat(m.Z1),
		Projection: projection.Name(m.Projection),
	}
	commentJSON, jerr := json.Marshal(pngComment{Topography: topo})
	if jerr != nil {
		return turtleerr.Wrap(turtleerr.BadJSON, "pngCodec.Write", jerr, "marshal topography comment")
	}

	rows := make([]byte, m.NY*(1+m.NX*2))
	stride := 1 + m.NX*2
	for iy := 0; iy < m.NY; iy++ {
		row := rows[iy*stride : (iy+1)*stride]
		row[0] = 0 // filter type None
		for ix := 0; ix < m.NX; ix++ {
			binary.BigEndian.PutUint16(row[1+ix*2:], m.GetZ(ix, iy))
		}
	}

	idat, zerr := deflateFilteredRows(rows)
	if zerr != nil {
		return turtleerr.Wrap(turtleerr.LibraryError, "pngCodec.Write", zerr, "deflate pixel data")
	}

	var ihdr bytes.Buffer
	binary.Write(&ihdr, binary.BigEndian, uint32(m.NX))
	binary.Write(&ihdr, binary.BigEndian, uint32(m.NY))
	ihdr.WriteByte(16) // bit depth
	ihdr.WriteByte(0)  // color type: grayscale
	ihdr.WriteByte(0)  // compression method
	ihdr.WriteByte(0)  // filter method
	ihdr.WriteByte(0)  // interlace method

	text := append([]byte("Comment\x00"), commentJSON...)

	f, oerr := os.Create(path)
	if oerr != nil {
		return turtleerr.Wrap(turtleerr.PathError, "pngCodec.Write", oerr, "create %q", path)
	}
	defer f.Close()

	if _, werr := f.Write(pngSignature[:]); werr != nil {
		return turtleerr.Wrap(turtleerr.PathError, "pngCodec.Write", werr, "write signature")
	}
	if werr := writeChunk(f, "IHDR", ihdr.Bytes()); werr != nil {
		return turtleerr.Wrap(turtleerr.PathError, "pngCodec.Write", werr, "write IHDR")
	}
	if werr := writeChunk(f, "tEXt", text); werr != nil {
		return turtleerr.Wrap(turtleerr.PathError, "pngCodec.Write", werr, "write tEXt")
	}
	if werr := writeChunk(f, "IDAT", idat); werr != nil {
		return turtleerr.Wrap(turtleerr.PathError, "pngCodec.Write", werr, "write IDAT")
	}
	if werr := writeChunk(f, "IEND", nil); werr != nil {
		return turtleerr.Wrap(turtleerr.PathError, "pngCodec.Write", werr, "write IEND")
	}
	return nil
}

func (pngCodec) Read(path string) (*grid.Map, *turtleerr.Error) {
	f, oerr := os.Open(path)
	if oerr != nil {
		return nil, turtleerr.Wrap(turtleerr.PathError, "pngCodec.Read", oerr, "open %q", path)
	}
	defer f.Close()

	chunks, cerr := readChunks(f)
	if cerr != nil {
		return nil, turtleerr.Wrap(turtleerr.BadFormat, "pngCodec.Read", cerr, "parse chunks of %q", path)
	}

	var width, height uint32
	var bitDepth, colorType byte
	var idat []byte
	var comment []byte
	haveIHDR := false

	for _, c := range chunks {
		switch string(c.typ[:]) {
		case "IHDR":
			if len(c.data) < 13 {
				return nil, turtleerr.New(turtleerr.BadFormat, "pngCodec.Read", "short IHDR in %q", path)
			}
			width = binary.BigEndian.Uint32(c.data[0:4])
			height = binary.BigEndian.Uint32(c.data[4:8])
			bitDepth = c.data[8]
			colorType = c.data[9]
			haveIHDR = true
		case "tEXt":
			if i := bytes.IndexByte(c.data, 0); i >= 0 && string(c.data[:i]) == "Comment" {
				comment = c.data[i+1:]
			}
		case "IDAT":
			idat = append(idat, c.data...)
		}
	}

	if !haveIHDR || bitDepth != 16 || colorType != 0 {
		return nil, turtleerr.New(turtleerr.BadFormat, "pngCodec.Read", "%q is not a 16-bit grayscale PNG", path)
	}
	if comment == nil {
		return nil, turtleerr.New(turtleerr.BadFormat, "pngCodec.Read", "%q has no topography comment", path)
	}

	var c pngComment
	if jerr := json.Unmarshal(comment, &c); jerr != nil {
		return nil, turtleerr.Wrap(turtleerr.BadJSON, "pngCodec.Read", jerr, "parse topography comment")
	}

	x0, err := parseHexFloat(c.Topography.X0)
	if err != nil {
		return nil, err
	}
	y0, err := parseHexFloat(c.Topography.Y0)
	if err != nil {
		return nil, err
	}
	z0, err := parseHexFloat(c.Topography.Z0)
	if err != nil {
		return nil, err
	}
	x1, err := parseHexFloat(c.Topography.X1)
	if err != nil {
		return nil, err
	}
	y1, err := parseHexFloat(c.Topography.Y1)
	if err != nil {
		return nil, err
	}
	z1, err := parseHexFloat(c.Topography.Z1)
	if err != nil {
		return nil, err
	}

	var proj projection.Projection
	if c.Topography.Projection != "" {
		proj, err = projection.Configure(c.Topography.Projection)
		if err != nil {
			return nil, err
		}
	}

	raw, ierr := inflateIDAT(idat)
	if ierr != nil {
		return nil, turtleerr.Wrap(turtleerr.BadFormat, "pngCodec.Read", ierr, "inflate IDAT of %q", path)
	}

	pixels := unfilterScanlines(raw, int(width), int(height), 2)

	m, merr := grid.Create(grid.Info{X0: x0, Y0: y0, X1: x1, Y1: y1, Z0: z0, Z1: z1, NX: int(width), NY: int(height)}, proj)
	if merr != nil {
		return nil, merr
	}
	for iy := 0; iy < m.NY; iy++ {
		for ix := 0; ix < m.NX; ix++ {
			v := binary.BigEndian.Uint16(pixels[(iy*m.NX+ix)*2:])
			m.SetZ(ix, iy, v)
		}
	}
	return m, nil
}
