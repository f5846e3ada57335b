// Package stepper implements a layered ground geometry engine driving
// forward stepping and change-of-medium (ground crossing) detection over
// Flat/Map/Stack-backed elevation data.
package stepper

import (
	"math"

	"github.com/niess/turtle-sub000/internal/config"
	"github.com/niess/turtle-sub000/internal/grid"
	"github.com/niess/turtle-sub000/internal/turtleerr"
)

// Stepper is an ordered list of Layers (earlier Layers have higher
// priority), an optional geoid correction Map, the LLA acceleration
// parameters, and the last computed sample.
type Stepper struct {
	Layers []Layer
	Geoid  *grid.Map

	LocalRange       float64
	SlopeFactor      float64
	ResolutionFactor float64

	lla        llaFrame
	lastSample *StepResult
}

// New builds an empty Stepper with the default LLA parameters, taken
// from the ambient configuration (TURTLE_LLA_LOCAL_RANGE,
// TURTLE_LLA_SLOPE_FACTOR, TURTLE_LLA_RESOLUTION_FACTOR — see
// internal/config) rather than hardcoded constants, so an embedding
// process can tune LLA behaviour without every caller threading the
// parameters through by hand.
func New() *Stepper {
	cfg := config.Load().Stepper
	return &Stepper{
		LocalRange:       cfg.LocalRange,
		SlopeFactor:      cfg.SlopeFactor,
		ResolutionFactor: cfg.ResolutionFactor,
	}
}

// AddLayer appends layer. Layers added first are scanned first and so
// have the highest priority when resolving which layer's ground applies
// at a given point.
func (s *Stepper) AddLayer(layer Layer) { s.Layers = append(s.Layers, layer) }

// SetGeoid attaches a geoid undulation Map. Ground elevations reported
// by any Data become WGS84-relative altitudes via
// altitude_above_WGS84 = altitude_above_geoid + geoid.elevation(lon, lat).
func (s *Stepper) SetGeoid(g *grid.Map) { s.Geoid = g }

func (s *Stepper) groundWGS84(lat, lon, raw float64) float64 {
	if s.Geoid == nil {
		return raw
	}
	u, inside := s.Geoid.Elevation(lon, lat)
	if !inside {
		return raw
	}
	return raw + u
}

func (s *Stepper) toECEF(lat, lon, h float64) [3]float64 {
	return s.lla.toECEF(lat, lon, h, s.LocalRange)
}

func (s *Stepper) fromECEF(ecef [3]float64) (lat, lon, h float64) {
	return s.lla.fromECEF(ecef, s.LocalRange)
}

// topLayer returns the first (highest-priority) Layer whose top Data
// entry is inside (lat, lon), the matching Data entry's index within
// that Layer, and the WGS84-relative ground elevation there.
// layerIdx is -1 when no Layer is inside.
func (s *Stepper) topLayer(lat, lon float64) (layerIdx, dataIdx int, ground float64, err *turtleerr.Error) {
	for li, layer := range s.Layers {
		idx, raw, serr := layer.topInside(lat, lon)
		if serr != nil {
			return -1, -1, 0, serr
		}
		if idx >= 0 {
			return li, idx, s.groundWGS84(lat, lon, raw), nil
		}
	}
	return -1, -1, 0, nil
}

// multiLayerElevation brackets altitude between the nearest Layer ground
// elevations below and above it, across all Layers (not just the
// highest-priority one).
func (s *Stepper) multiLayerElevation(lat, lon, altitude float64) (below, above float64, anyInside bool, err *turtleerr.Error) {
	below, above = math.Inf(-1), math.Inf(1)
	for _, layer := range s.Layers {
		idx, raw, serr := layer.topInside(lat, lon)
		if serr != nil {
			return 0, 0, false, serr
		}
		if idx < 0 {
			continue
		}
		anyInside = true
		g := s.groundWGS84(lat, lon, raw)
		if g <= altitude && g > below {
			below = g
		}
		if g > altitude && g < above {
			above = g
		}
	}
	return below, above, anyInside, nil
}

// Position finds the named layer's top-most inside Data entry and
// returns the ECEF point at height above its ground. dataIndex is -1
// (and ecef is left at its zero value) when that layer is not inside at
// (lat, lon).
func (s *Stepper) Position(lat, lon, height float64, layerIndex int) (ecef [3]float64, dataIndex int, err *turtleerr.Error) {
	if layerIndex < 0 || layerIndex >= len(s.Layers) {
		return ecef, -1, turtleerr.New(turtleerr.BadFormat, "stepper.Position", "layer index %d out of range (%d layers)", layerIndex, len(s.Layers))
	}
	idx, raw, serr := s.Layers[layerIndex].topInside(lat, lon)
	if serr != nil {
		return ecef, -1, serr
	}
	if idx < 0 {
		return ecef, -1, nil
	}
	ground := s.groundWGS84(lat, lon, raw)
	return s.toECEF(lat, lon, ground+height), idx, nil
}

// StepResult is the output of Step. Elevation has one entry when the
// Stepper has a single Layer (the scalar ground elevation there) or two
// entries — [below, above], infinite where unbounded — when it has
// several. LayerIndex/DataIndex are (0, dataIndex) in the single-layer
// case and (layerIndex, dataIndex) otherwise. Step produces no StepResult
// for a point outside every Layer's data; it returns DomainError instead.
type StepResult struct {
	Latitude, Longitude, Altitude float64
	Elevation                    []float64
	Step                         float64
	LayerIndex, DataIndex        int
}

func (s *Stepper) buildResult(lat, lon, altitude float64, layerIdx, dataIdx int, ds float64) (*StepResult, *turtleerr.Error) {
	var elevation []float64
	if len(s.Layers) <= 1 {
		_, _, ground, err := s.topLayer(lat, lon)
		if err != nil {
			return nil, err
		}
		elevation = []float64{ground}
	} else {
		below, above, anyInside, err := s.multiLayerElevation(lat, lon, altitude)
		if err != nil {
			return nil, err
		}
		if !anyInside {
			layerIdx, dataIdx = -1, -1
		}
		elevation = []float64{below, above}
	}
	return &StepResult{
		Latitude:   lat,
		Longitude:  lon,
		Altitude:   altitude,
		Elevation:  elevation,
		Step:       ds,
		LayerIndex: layerIdx,
		DataIndex:  dataIdx,
	}, nil
}

// Step runs in sample mode when direction is nil (compute ground
// elevation and a tentative step size at position), or move mode when
// direction is a unit ECEF vector (tentatively advance by that step, and
// if the ground-crossing classification flips, locate the crossing by
// dichotomy). It returns the resulting ECEF position (equal to the input
// in sample mode) and the sample taken there.
func (s *Stepper) Step(position [3]float64, direction *[3]float64) (newPosition [3]float64, result *StepResult, err *turtleerr.Error) {
	lat0, lon0, h0 := s.fromECEF(position)
	layerIdx0, dataIdx0, ground0, serr := s.topLayer(lat0, lon0)
	if serr != nil {
		return position, nil, serr
	}
	if layerIdx0 < 0 {
		return position, nil, turtleerr.New(turtleerr.DomainError, "stepper.Step", "position (%.6f, %.6f) is outside all data", lat0, lon0)
	}
	ds := math.Max(s.ResolutionFactor, s.SlopeFactor*math.Abs(h0-ground0))

	if direction == nil {
		result, err = s.buildResult(lat0, lon0, h0, layerIdx0, dataIdx0, ds)
		if err != nil {
			return position, nil, err
		}
		s.lastSample = result
		return position, result, nil
	}

	advance := func(offset float64) (pos [3]float64, lat, lon, h float64, layerIdx, dataIdx int, ground float64, aerr *turtleerr.Error) {
		pos = [3]float64{
			position[0] + direction[0]*offset,
			position[1] + direction[1]*offset,
			position[2] + direction[2]*offset,
		}
		lat, lon, h = s.fromECEF(pos)
		layerIdx, dataIdx, ground, aerr = s.topLayer(lat, lon)
		return
	}

	inside0 := h0 < ground0

	insideAtOffset := func(layerIdx int, h, ground float64) bool {
		if layerIdx < 0 {
			return false
		}
		return h < ground
	}

	hiPos, hiLat, hiLon, hiH, hiLayer, hiData, hiGround, aerr := advance(ds)
	if aerr != nil {
		return position, nil, aerr
	}
	insideHi := insideAtOffset(hiLayer, hiH, hiGround)

	finalPos, finalLat, finalLon, finalH, finalLayer, finalData, finalGround := hiPos, hiLat, hiLon, hiH, hiLayer, hiData, hiGround

	if insideHi != inside0 {
		lo, hi := 0.0, ds
		for hi-lo > 1e-8 {
			mid := (lo + hi) / 2
			_, midLat, midLon, midH, midLayer, midData, midGround, merr := advance(mid)
			if merr != nil {
				return position, nil, merr
			}
			if insideAtOffset(midLayer, midH, midGround) == inside0 {
				lo = mid
			} else {
				hi = mid
				finalLat, finalLon, finalH, finalLayer, finalData, finalGround = midLat, midLon, midH, midLayer, midData, midGround
			}
		}
		finalOffset := hi + s.ResolutionFactor
		finalPos, finalLat, finalLon, finalH, finalLayer, finalData, finalGround, aerr = advance(finalOffset)
		if aerr != nil {
			return position, nil, aerr
		}
	}

	if finalLayer < 0 {
		return position, nil, turtleerr.New(turtleerr.DomainError, "stepper.Step", "position (%.6f, %.6f) is outside all data", finalLat, finalLon)
	}

	nextDs := math.Max(s.ResolutionFactor, s.SlopeFactor*math.Abs(finalH-finalGround))
	result, err = s.buildResult(finalLat, finalLon, finalH, finalLayer, finalData, nextDs)
	if err != nil {
		return position, nil, err
	}
	s.lastSample = result
	return finalPos, result, nil
}
