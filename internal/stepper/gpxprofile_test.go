package stepper

import (
	"testing"

	"github.com/niess/turtle-sub000/internal/wgs84"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="turtle-sub000-test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk>
    <name>test climb</name>
    <trkseg>
      <trkpt lat="45.000000" lon="3.000000"><ele>1000</ele></trkpt>
      <trkpt lat="45.001000" lon="3.000500"><ele>1010</ele></trkpt>
      <trkpt lat="45.002000" lon="3.001000"><ele>1020</ele></trkpt>
    </trkseg>
  </trk>
</gpx>
`

func TestParseProfileBuildsWalkableStepper(t *testing.T) {
	s, err := ParseProfile([]byte(sampleGPX))
	require.Nil(t, err)
	require.Len(t, s.Layers, 1)
	require.Len(t, s.Layers[0], 2) // 3 points -> 2 segments

	x, y, z := wgs84.ECEFFromGeodetic(45.0005, 3.00025, 1005)
	_, result, serr := s.Step([3]float64{x, y, z}, nil)
	require.Nil(t, serr)
	require.NotNil(t, result)
	assert.InDelta(t, 1005, result.Elevation[0], 1)
}

func TestProfileSkipsPointsWithoutElevation(t *testing.T) {
	const gpxNoEle = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" xmlns="http://www.topografix.com/GPX/1/1">
  <trk><trkseg>
    <trkpt lat="45.0" lon="3.0"></trkpt>
    <trkpt lat="45.001" lon="3.0005"><ele>1010</ele></trkpt>
  </trkseg></trk>
</gpx>
`
	_, err := ParseProfile([]byte(gpxNoEle))
	require.NotNil(t, err)
	assert.Equal(t, "BadFormat", err.Kind.String())
}
