package stepper

import (
	"math"

	"github.com/niess/turtle-sub000/internal/grid"
	"github.com/niess/turtle-sub000/internal/projection"
	"github.com/niess/turtle-sub000/internal/turtleerr"
	"github.com/tkrajina/gpxgo/gpx"
)

// ProfilePoint is one sample of a GPX track's elevation profile: the
// cumulative distance (metres) along the track, its elevation, and the
// geodetic point it was recorded at.
type ProfilePoint struct {
	Distance  float64
	Elevation float64
	Lat, Lon  float64
}

// haversineMeters returns the great-circle distance in metres between two
// points; Profile sums it along a recorded GPX track to build the
// cumulative-distance axis of its elevation profile.
func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadius * c
}

// Profile extracts the elevation profile of the first track of a parsed
// GPX document, across all of its segments in order, skipping points with
// no recorded elevation.
func Profile(g *gpx.GPX) []ProfilePoint {
	var profile []ProfilePoint
	if len(g.Tracks) == 0 {
		return profile
	}

	var dist float64
	var prevLat, prevLon float64
	first := true
	for _, seg := range g.Tracks[0].Segments {
		for _, pt := range seg.Points {
			if !pt.Elevation.NotNull() {
				continue
			}
			if !first {
				dist += haversineMeters(prevLat, prevLon, pt.Latitude, pt.Longitude)
			}
			profile = append(profile, ProfilePoint{
				Distance:  dist,
				Elevation: pt.Elevation.Value(),
				Lat:       pt.Latitude,
				Lon:       pt.Longitude,
			})
			prevLat, prevLon = pt.Latitude, pt.Longitude
			first = false
		}
	}
	return profile
}

// profilePad widens each segment's bounding rectangle by roughly a metre
// of longitude/latitude so that a query exactly on a recorded point still
// falls strictly inside its Map.
const profilePad = 1e-5

// FromProfile builds a single-Layer Stepper whose ground is a chain of
// small Maps, one per consecutive pair of profile points, each holding
// that segment's (averaged) recorded elevation. It reproduces a GPX
// track as a walkable Stepper ground surface, driving Stepper.Step from
// real recorded trackpoints.
func FromProfile(profile []ProfilePoint) (*Stepper, *turtleerr.Error) {
	s := New()
	var layer Layer
	for i := 1; i < len(profile); i++ {
		a, b := profile[i-1], profile[i]

		lonLo, lonHi := math.Min(a.Lon, b.Lon)-profilePad, math.Max(a.Lon, b.Lon)+profilePad
		latLo, latHi := math.Min(a.Lat, b.Lat)-profilePad, math.Max(a.Lat, b.Lat)+profilePad

		elevation := (a.Elevation + b.Elevation) / 2
		m, err := grid.Create(grid.Info{
			X0: lonLo, Y0: latLo, X1: lonHi, Y1: latHi,
			Z0: elevation - 1, Z1: elevation + 1,
			NX: 2, NY: 2,
		}, projection.Projection{})
		if err != nil {
			return nil, err
		}
		for iy := 0; iy < 2; iy++ {
			for ix := 0; ix < 2; ix++ {
				if ferr := m.Fill(ix, iy, elevation); ferr != nil {
					return nil, ferr
				}
			}
		}
		layer = append(layer, NewData(MapData{M: m}))
	}
	s.AddLayer(layer)
	return s, nil
}

// ParseProfile parses raw GPX document bytes and builds a Stepper from
// its first track's elevation profile in one call.
func ParseProfile(data []byte) (*Stepper, *turtleerr.Error) {
	g, perr := gpx.ParseBytes(data)
	if perr != nil {
		return nil, turtleerr.Wrap(turtleerr.BadFormat, "stepper.ParseProfile", perr, "parse GPX document")
	}
	profile := Profile(g)
	if len(profile) < 2 {
		return nil, turtleerr.New(turtleerr.BadFormat, "stepper.ParseProfile", "GPX track has fewer than 2 elevation-tagged points")
	}
	return FromProfile(profile)
}
