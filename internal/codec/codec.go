// Package codec implements per-extension file codecs, dispatched through
// a compile-time registry keyed by file extension.
package codec

import (
	"path/filepath"
	"strings"

	"github.com/niess/turtle-sub000/internal/config"
	"github.com/niess/turtle-sub000/internal/grid"
	"github.com/niess/turtle-sub000/internal/turtleerr"
)

// Codec reads and writes one file format's byte layout into/from a
// *grid.Map. Read returns a fully populated Map, metadata included; Write
// persists an in-memory Map.
type Codec interface {
	// Read loads path into a new Map built with grid.Create, which keeps
	// the default row-major cell accessors.
	Read(path string) (*grid.Map, *turtleerr.Error)
	// Write persists m to path in this format, or returns BadFormat if m
	// cannot be represented (e.g. a projected GeoTIFF).
	Write(path string, m *grid.Map) *turtleerr.Error
}

var registry = map[string]Codec{}

func register(ext string, c Codec) { registry[strings.ToLower(ext)] = c }

// ForPath returns the codec matching path's extension, or BadExtension if
// none is registered.
func ForPath(path string) (Codec, *turtleerr.Error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	c, ok := registry[ext]
	if !ok {
		return nil, turtleerr.New(turtleerr.BadExtension, "codec.ForPath", "no codec registered for extension %q", ext)
	}
	return c, nil
}

// Load dispatches to the codec matching path's extension and reads it.
func Load(path string) (*grid.Map, *turtleerr.Error) {
	c, err := ForPath(path)
	if err != nil {
		return nil, err
	}
	return c.Read(path)
}

// Dump dispatches to the codec matching path's extension and writes m.
func Dump(path string, m *grid.Map) *turtleerr.Error {
	c, err := ForPath(path)
	if err != nil {
		return err
	}
	return c.Write(path, m)
}

// DumpDefault behaves like Dump, but when path carries no extension at
// all it appends the ambient TURTLE_DEFAULT_EXTENSION (see
// internal/config) before dispatching, so a caller writing a map without
// committing to a format up front still gets one.
func DumpDefault(path string, m *grid.Map) *turtleerr.Error {
	if filepath.Ext(path) == "" {
		path = path + "." + strings.TrimPrefix(config.Load().Codec.DefaultExtension, ".")
	}
	return Dump(path, m)
}
