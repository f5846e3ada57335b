// Package turtle is the public facade for the TURTLE geometric-transport
// library: it re-exports the object handles of spec.md §6 ("object
// handles for Projection, Map, Stack, Client, Stepper; opaque to the
// caller") so a consumer outside this module can hold and pass them
// without importing anything under internal/, which Go's own visibility
// rule would otherwise forbid.
//
// Every type here is a plain alias of its internal/ counterpart, so the
// methods documented on, say, *Stack in internal/stack carry over
// unchanged; this file only adds the top-level constructors a caller
// needs to get started, plus a couple of config-driven convenience
// wrappers.
package turtle

import (
	"github.com/niess/turtle-sub000/internal/client"
	"github.com/niess/turtle-sub000/internal/codec"
	"github.com/niess/turtle-sub000/internal/config"
	"github.com/niess/turtle-sub000/internal/grid"
	"github.com/niess/turtle-sub000/internal/projection"
	"github.com/niess/turtle-sub000/internal/stack"
	"github.com/niess/turtle-sub000/internal/stepper"
	"github.com/niess/turtle-sub000/internal/turtleerr"
)

// Object handles (spec.md §3/§6), re-exported from internal/.
type (
	// Projection is the tagged Lambert/UTM/None projection value
	// (component B).
	Projection = projection.Projection
	// Map is the quantised regular grid (component D).
	Map = grid.Map
	// Tile is a Map specialisation owned by a Stack (component E).
	Tile = grid.Tile
	// Info describes a Map's axis ranges and cell counts.
	Info = grid.Info
	// Stack is the bounded LRU tile cache (component F).
	Stack = stack.Stack
	// Client is a per-session cursor pinning at most one Tile of a
	// Stack (component G).
	Client = client.Client
	// Stepper is the layered ground-geometry engine (component H).
	Stepper = stepper.Stepper
	// Layer, Data and Sampler describe one Stepper's geometry.
	Layer   = stepper.Layer
	Data    = stepper.Data
	Sampler = stepper.Sampler
	// Flat, MapData and StackData are the three built-in Samplers.
	Flat      = stepper.Flat
	MapData   = stepper.MapData
	StackData = stepper.StackData
	// StepResult is Stepper.Step's sample output.
	StepResult = stepper.StepResult
	// LockFunc/UnlockFunc are the binary-semaphore callbacks a
	// multi-client Stack is built with.
	LockFunc   = stack.LockFunc
	UnlockFunc = stack.UnlockFunc
	// Error and Kind are the error taxonomy of spec.md §7.
	Error = turtleerr.Error
	Kind  = turtleerr.Kind
	// Config is the ambient settings loaded from the environment.
	Config = config.Config
)

// Error kinds (spec.md §7), re-exported from internal/turtleerr.
const (
	Success       = turtleerr.Success
	BadAddress    = turtleerr.BadAddress
	BadExtension  = turtleerr.BadExtension
	BadFormat     = turtleerr.BadFormat
	BadProjection = turtleerr.BadProjection
	BadJSON       = turtleerr.BadJSON
	DomainError   = turtleerr.DomainError
	LibraryError  = turtleerr.LibraryError
	LockError     = turtleerr.LockError
	MemoryError   = turtleerr.MemoryError
	PathError     = turtleerr.PathError
	UnlockError   = turtleerr.UnlockError
)

// LoadConfig reads the ambient TURTLE_* environment configuration
// (tile archive root/size, default LLA parameters, codec defaults,
// glog verbosity). Every component below that takes no explicit
// configuration (NewStepper, NewStackFromConfig, DumpMapDefault) consults the same
// cached value.
func LoadConfig() *Config { return config.Load() }

// SetErrorHandler installs the process-wide handler invoked whenever any
// TURTLE operation constructs an Error (spec.md §7). Passing nil
// disables reporting, equivalent to SetNullErrorHandler.
func SetErrorHandler(h func(*Error)) { turtleerr.SetHandler(h) }

// SetNullErrorHandler disables error reporting; operations still return
// their Error, but nothing is logged.
func SetNullErrorHandler() { turtleerr.SetNullHandler() }

// ConfigureProjection parses a projection tag (component B, spec §4.B),
// e.g. "Lambert 93" or "UTM 31N".
func ConfigureProjection(tag string) (Projection, *Error) { return projection.Configure(tag) }

// ProjectionName renders p back to its canonical tag, round-tripping
// with ConfigureProjection.
func ProjectionName(p Projection) string { return projection.Name(p) }

// Project converts a geodetic point to p's projected coordinates.
func Project(p Projection, latDeg, lonDeg float64) (x, y float64) {
	return projection.Project(p, latDeg, lonDeg)
}

// Unproject converts a projected coordinate back to geodetic, inverting
// Project.
func Unproject(p Projection, x, y float64) (latDeg, lonDeg float64) {
	return projection.Unproject(p, x, y)
}

// NewMap allocates a zeroed quantised grid (component D, spec §4.D).
func NewMap(info Info, proj Projection) (*Map, *Error) { return grid.Create(info, proj) }

// LoadMap reads path through the codec matching its extension
// (component C, spec §4.C/§6).
func LoadMap(path string) (*Map, *Error) { return codec.Load(path) }

// DumpMap writes m to path through the codec matching its extension.
func DumpMap(path string, m *Map) *Error { return codec.Dump(path, m) }

// DumpMapDefault behaves like DumpMap, but falls back to the ambient
// TURTLE_DEFAULT_EXTENSION (see Config.Codec) when path has no
// extension of its own.
func DumpMapDefault(path string, m *Map) *Error { return codec.DumpDefault(path, m) }

// NewStack scans root for archived tiles and builds a bounded cache
// (component F, spec §4.F). Providing exactly one of lockFn/unlockFn is
// an error; providing both enables concurrent multi-Client use.
func NewStack(root string, maxSize int, lockFn LockFunc, unlockFn UnlockFunc) (*Stack, *Error) {
	return stack.Create(root, maxSize, lockFn, unlockFn)
}

// NewStackFromConfig builds a Stack the same way as NewStack, but takes
// its root directory and cache bound from the ambient configuration
// (TURTLE_STACK_ROOT / TURTLE_STACK_MAX_SIZE) instead of explicit
// arguments.
func NewStackFromConfig(lockFn LockFunc, unlockFn UnlockFunc) (*Stack, *Error) {
	return stack.CreateFromConfig(lockFn, unlockFn)
}

// NewClient starts an idle per-session cursor against s (component G,
// spec §4.G); s must have been built with both lockFn and unlockFn set.
func NewClient(s *Stack) (*Client, *Error) { return client.Create(s) }

// NewStepper builds an empty layered Stepper (component H, spec §4.H)
// with its LLA parameters defaulted from the ambient configuration.
func NewStepper() *Stepper { return stepper.New() }

// NewData wraps a Sampler (Flat, MapData or StackData) as a Layer entry.
func NewData(s Sampler) *Data { return stepper.NewData(s) }
