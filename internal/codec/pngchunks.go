package codec

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/niess/turtle-sub000/internal/turtleerr"
)

var pngSignature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

type pngChunk struct {
	typ  [4]byte
	data []byte
}

func writeChunk(w io.Writer, typ string, data []byte) error {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	if _, err := w.Write(length[:]); err != nil {
		return err
	}

	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)

	if _, err := w.Write([]byte(typ)); err != nil {
		return err
	}
	if len(data) > 0 {
		if _, err := w.Write(data); err != nil {
			return err
		}
	}

	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	_, err := w.Write(sum[:])
	return err
}

func readChunks(r io.Reader) ([]pngChunk, error) {
	var sig [8]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return nil, err
	}
	if sig != pngSignature {
		return nil, turtleerr.New(turtleerr.BadFormat, "codec.readChunks", "not a PNG file")
	}

	var chunks []pngChunk
	for {
		var length [4]byte
		if _, err := io.ReadFull(r, length[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		n := binary.BigEndian.Uint32(length[:])

		var typ [4]byte
		if _, err := io.ReadFull(r, typ[:]); err != nil {
			return nil, err
		}

		data := make([]byte, n)
		if n > 0 {
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, err
			}
		}

		var crc [4]byte
		if _, err := io.ReadFull(r, crc[:]); err != nil {
			return nil, err
		}

		chunks = append(chunks, pngChunk{typ: typ, data: data})
		if string(typ[:]) == "IEND" {
			break
		}
	}
	return chunks, nil
}

// unfilterScanlines reverses the PNG filter applied to each scanline, per
// the PNG spec's five filter types (none, sub, up, average, paeth).
func unfilterScanlines(raw []byte, width, height int, bpp int) []byte {
	stride := width * bpp
	out := make([]byte, height*stride)
	rowLen := stride + 1

	var prev []byte
	for y := 0; y < height; y++ {
		row := raw[y*rowLen : y*rowLen+rowLen]
		filter := row[0]
		cur := out[y*stride : (y+1)*stride]
		copy(cur, row[1:])

		for x := 0; x < stride; x++ {
			var a, b, c byte
			if x >= bpp {
				a = cur[x-bpp]
			}
			if prev != nil {
				b = prev[x]
			}
			if prev != nil && x >= bpp {
				c = prev[x-bpp]
			}

			switch filter {
			case 0:
			case 1:
				cur[x] += a
			case 2:
				cur[x] += b
			case 3:
				cur[x] += byte((int(a) + int(b)) / 2)
			case 4:
				cur[x] += paeth(a, b, c)
			}
		}
		prev = cur
	}
	return out
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func inflateIDAT(idat []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(idat))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func deflateFilteredRows(rows []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(rows); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
