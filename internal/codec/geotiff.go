package codec

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/niess/turtle-sub000/internal/grid"
	"github.com/niess/turtle-sub000/internal/projection"
	"github.com/niess/turtle-sub000/internal/turtleerr"
)

func mathAbs(v float64) float64 { return math.Abs(v) }

func init() {
	register("tif", geotiffCodec{})
	register("tiff", geotiffCodec{})
}

// geotiffCodec is a minimal single-strip, uncompressed baseline GeoTIFF
// reader/writer, 16-bit signed samples, little-endian. It carries only
// two georeferencing tags: ModelPixelScale (dx, dy, 0)
// and ModelTiepoint (six doubles, of which the first and the fourth/fifth
// give the raster's origin). No TIFF compression, multi-strip layout, or
// GeoKeyDirectory (projected CS) support is implemented, since nothing in
// this format is ever written with a projection attached.
type geotiffCodec struct{}

const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagSampleFormat    = 339
	tagModelPixelScale = 33550
	tagModelTiepoint   = 33922
)

const (
	tiffShort  = 3
	tiffLong   = 4
	tiffDouble = 12
)

type ifdEntry struct {
	tag, typ   uint16
	count      uint32
	valueBytes []byte
}

func (geotiffCodec) Write(path string, m *grid.Map) *turtleerr.Error {
	if !m.Projection.IsNone() {
		return turtleerr.New(turtleerr.BadFormat, "geotiffCodec.Write", "GeoTIFF cannot carry a projection")
	}
	if m.Z0 != -32768 || m.DZ != 1 {
		return turtleerr.New(turtleerr.BadFormat, "geotiffCodec.Write", "GeoTIFF requires the default 1 m/unit elevation scale")
	}

	pixelData := make([]byte, m.NX*m.NY*2)
	for iy := 0; iy < m.NY; iy++ {
		for ix := 0; ix < m.NX; ix++ {
			z := int16(m.Z0 + float64(m.GetZ(ix, iy))*m.DZ)
			binary.LittleEndian.PutUint16(pixelData[(iy*m.NX+ix)*2:], uint16(z))
		}
	}

	le := binary.LittleEndian
	u16 := func(v uint16) []byte { b := make([]byte, 2); le.PutUint16(b, v); return b }
	u32 := func(v uint32) []byte { b := make([]byte, 4); le.PutUint32(b, v); return b }
	f64s := func(vs ...float64) []byte {
		b := make([]byte, 8*len(vs))
		for i, v := range vs {
			le.PutUint64(b[i*8:], math.Float64bits(v))
		}
		return b
	}

	entries := []ifdEntry{
		{tagImageWidth, tiffLong, 1, u32(uint32(m.NX))},
		{tagImageLength, tiffLong, 1, u32(uint32(m.NY))},
		{tagBitsPerSample, tiffShort, 1, u16(16)},
		{tagCompression, tiffShort, 1, u16(1)},
		{tagPhotometric, tiffShort, 1, u16(1)},
		{tagSamplesPerPixel, tiffShort, 1, u16(1)},
		{tagRowsPerStrip, tiffLong, 1, u32(uint32(m.NY))},
		{tagStripByteCounts, tiffLong, 1, u32(uint32(len(pixelData)))},
		{tagSampleFormat, tiffShort, 1, u16(2)},
		{tagModelPixelScale, tiffDouble, 3, f64s(m.DX, mathAbs(m.DY), 0)},
		{tagModelTiepoint, tiffDouble, 6, f64s(0, 0, 0, m.X0, m.Y0, 0)},
	}
	// StripOffsets is filled in once the header/IFD size is known.
	entries = append(entries, ifdEntry{tagStripOffsets, tiffLong, 1, u32(0)})

	header := []byte{'I', 'I', 42, 0, 0, 0, 0, 0}
	le.PutUint32(header[4:], 8)

	sortIFDEntries(entries)

	// Each IFD entry is 12 bytes; any value wider than 4 bytes is stored
	// out-of-line after the IFD and referenced by offset.
	ifdHeaderSize := 2 + 12*len(entries) + 4
	ifdStart := 8
	overflowStart := ifdStart + ifdHeaderSize

	var overflow []byte
	ifdBody := make([]byte, 0, ifdHeaderSize)
	ifdBody = append(ifdBody, u16(uint16(len(entries)))...)

	for i := range entries {
		e := &entries[i]
		if e.tag == tagStripOffsets {
			e.valueBytes = u32(uint32(overflowStart + len(overflow)))
		}
	}

	for _, e := range entries {
		ifdBody = append(ifdBody, u16(e.tag)...)
		ifdBody = append(ifdBody, u16(e.typ)...)
		ifdBody = append(ifdBody, u32(e.count)...)
		if len(e.valueBytes) <= 4 {
			v := make([]byte, 4)
			copy(v, e.valueBytes)
			ifdBody = append(ifdBody, v...)
		} else {
			ifdBody = append(ifdBody, u32(uint32(overflowStart+len(overflow)))...)
			overflow = append(overflow, e.valueBytes...)
		}
	}
	ifdBody = append(ifdBody, u32(0)...) // no next IFD

	out := make([]byte, 0, overflowStart+len(overflow)+len(pixelData))
	out = append(out, header...)
	out = append(out, ifdBody...)
	out = append(out, overflow...)
	out = append(out, pixelData...)

	if werr := os.WriteFile(path, out, 0o644); werr != nil {
		return turtleerr.Wrap(turtleerr.PathError, "geotiffCodec.Write", werr, "write %q", path)
	}
	return nil
}

func sortIFDEntries(e []ifdEntry) {
	for i := 1; i < len(e); i++ {
		for j := i; j > 0 && e[j-1].tag > e[j].tag; j-- {
			e[j-1], e[j] = e[j], e[j-1]
		}
	}
}

func (geotiffCodec) Read(path string) (*grid.Map, *turtleerr.Error) {
	raw, oerr := os.ReadFile(path)
	if oerr != nil {
		return nil, turtleerr.Wrap(turtleerr.PathError, "geotiffCodec.Read", oerr, "open %q", path)
	}
	if len(raw) < 8 || raw[0] != 'I' || raw[1] != 'I' {
		return nil, turtleerr.New(turtleerr.BadFormat, "geotiffCodec.Read", "%q is not a little-endian baseline TIFF", path)
	}
	le := binary.LittleEndian
	ifdOffset := le.Uint32(raw[4:8])

	n := le.Uint16(raw[ifdOffset : ifdOffset+2])
	pos := ifdOffset + 2

	var width, height, rowsPerStrip, stripOffset, stripBytes uint32
	var bitsPerSample, sampleFormat uint16 = 16, 2
	var pixelScale [3]float64
	var tiePoint [6]float64

	readValue := func(typ uint16, count uint32, valOff []byte) []byte {
		size := tiffTypeSize(typ) * int(count)
		if size <= 4 {
			return valOff[:size]
		}
		off := le.Uint32(valOff)
		return raw[off : int(off)+size]
	}

	for i := uint32(0); i < uint32(n); i++ {
		entry := raw[pos+i*12 : pos+i*12+12]
		tag := le.Uint16(entry[0:2])
		typ := le.Uint16(entry[2:4])
		count := le.Uint32(entry[4:8])
		val := readValue(typ, count, entry[8:12])

		switch tag {
		case tagImageWidth:
			width = tiffAsUint32(val, typ)
		case tagImageLength:
			height = tiffAsUint32(val, typ)
		case tagBitsPerSample:
			bitsPerSample = le.Uint16(val)
		case tagSampleFormat:
			sampleFormat = le.Uint16(val)
		case tagRowsPerStrip:
			rowsPerStrip = tiffAsUint32(val, typ)
		case tagStripOffsets:
			stripOffset = tiffAsUint32(val, typ)
		case tagStripByteCounts:
			stripBytes = tiffAsUint32(val, typ)
		case tagModelPixelScale:
			for j := 0; j < 3; j++ {
				pixelScale[j] = math.Float64frombits(le.Uint64(val[j*8:]))
			}
		case tagModelTiepoint:
			for j := 0; j < 6; j++ {
				tiePoint[j] = math.Float64frombits(le.Uint64(val[j*8:]))
			}
		}
	}
	_ = rowsPerStrip
	_ = stripBytes

	if bitsPerSample != 16 || sampleFormat != 2 {
		return nil, turtleerr.New(turtleerr.BadFormat, "geotiffCodec.Read", "%q is not a 16-bit signed-integer TIFF", path)
	}

	x0 := tiePoint[3]
	y0 := tiePoint[4]
	dx := pixelScale[0]
	dy := -pixelScale[1] // row 0 is the tiepoint's north row; row increases southward

	nx, ny := int(width), int(height)
	pixels := raw[stripOffset : int(stripOffset)+nx*ny*2]

	m, merr := grid.Create(grid.Info{
		X0: x0, Y0: y0, X1: x0 + dx*float64(nx-1), Y1: y0 + dy*float64(ny-1),
		Z0: -32768, Z1: 32767, NX: nx, NY: ny,
	}, projection.Projection{})
	if merr != nil {
		return nil, merr
	}
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			v := int16(le.Uint16(pixels[(iy*nx+ix)*2:]))
			m.SetZ(ix, iy, uint16(int32(v)+32768))
		}
	}
	return m, nil
}

func tiffTypeSize(typ uint16) int {
	switch typ {
	case tiffShort:
		return 2
	case tiffLong:
		return 4
	case tiffDouble:
		return 8
	default:
		return 1
	}
}

func tiffAsUint32(v []byte, typ uint16) uint32 {
	if typ == tiffShort {
		return uint32(binary.LittleEndian.Uint16(v))
	}
	return binary.LittleEndian.Uint32(v)
}
