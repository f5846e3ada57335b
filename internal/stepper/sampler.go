package stepper

import (
	"github.com/niess/turtle-sub000/internal/client"
	"github.com/niess/turtle-sub000/internal/grid"
	"github.com/niess/turtle-sub000/internal/stack"
	"github.com/niess/turtle-sub000/internal/turtleerr"
)

// Sampler reports the ground elevation at a geodetic point, and whether
// the point falls inside whatever backs it. A Sampler never sees an
// altitude or a direction; those belong to the Stepper built on top of
// it.
type Sampler interface {
	Sample(lat, lon float64) (elevation float64, inside bool, err *turtleerr.Error)
}

// Flat is an infinite, constant-elevation Data entry. It never reports
// "outside", so stacking it below other Data in a Layer gives that
// layer a fallback floor.
type Flat struct{ Offset float64 }

func (f Flat) Sample(lat, lon float64) (float64, bool, *turtleerr.Error) {
	return f.Offset, true, nil
}

// MapData samples a single in-memory grid.Map directly, with no locking
// and no Stack behind it — useful for small rasters loaded wholesale,
// such as the segments gpxprofile synthesises from a recorded track.
type MapData struct {
	M      *grid.Map
	Offset float64
}

func (d MapData) Sample(lat, lon float64) (float64, bool, *turtleerr.Error) {
	z, inside := d.M.Elevation(lon, lat)
	if !inside {
		return 0, false, nil
	}
	return z + d.Offset, true, nil
}

// StackData samples a bounded stack.Stack of archived tiles: a Data entry
// backed by a whole tile archive rather than one in-memory Map. When the
// Stack has lockers installed, a client.Client is created lazily and kept
// for the life of this Data entry so repeated queries benefit from its
// pinned-tile fast path; unlocked stacks are queried directly in
// single-threaded mode.
type StackData struct {
	S      *stack.Stack
	Offset float64

	c *client.Client
}

func (d *StackData) Sample(lat, lon float64) (float64, bool, *turtleerr.Error) {
	if d.S.HasLockers() {
		if d.c == nil {
			c, cerr := client.Create(d.S)
			if cerr != nil {
				return 0, false, cerr
			}
			d.c = c
		}
		z, inside, err := d.c.Elevation(lat, lon)
		if err != nil || !inside {
			return 0, false, err
		}
		return z + d.Offset, true, nil
	}

	z, inside, err := d.S.Elevation(lat, lon)
	if err != nil || !inside {
		return 0, false, err
	}
	return z + d.Offset, true, nil
}

// Data wraps a Sampler as a Layer entry. The LLA acceleration cache lives
// on the owning Stepper rather than per Data entry: every Data in a
// Stepper is queried at the same (lat, lon), so one cache anchored at
// that query point serves all of them without redundant recentring.
type Data struct {
	Sampler Sampler
}

// NewData wraps a Sampler as a Layer entry.
func NewData(s Sampler) *Data { return &Data{Sampler: s} }

// Layer is an ordered stack of Data within one Stepper level. Later
// entries take priority: the last entry that reports "inside" wins.
type Layer []*Data

// topInside scans l front-to-back and returns the index and elevation of
// the last Data entry that reported being inside, or index -1 if none
// did.
func (l Layer) topInside(lat, lon float64) (idx int, elevation float64, err *turtleerr.Error) {
	idx = -1
	for i, d := range l {
		e, inside, serr := d.Sampler.Sample(lat, lon)
		if serr != nil {
			return -1, 0, serr
		}
		if inside {
			idx, elevation = i, e
		}
	}
	return idx, elevation, nil
}
