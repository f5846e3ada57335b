// Package projection implements the tagged-variant Projection (None /
// Lambert / UTM), its case-sensitive name parser/formatter, and the
// Lambert (IGN NTG_71) and UTM (Krüger series, order 3) project/unproject
// algorithms.
package projection

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/niess/turtle-sub000/internal/turtleerr"
)

// Variant distinguishes the three shapes a Projection can take.
type Variant int

const (
	None Variant = iota
	LambertVariant
	UTMVariant
)

// LambertZone names one of the six recognised NTG_71 zones.
type LambertZone int

const (
	LambertI LambertZone = iota
	LambertII
	LambertIIe
	LambertIII
	LambertIV
	Lambert93
)

func (z LambertZone) String() string {
	switch z {
	case LambertI:
		return "I"
	case LambertII:
		return "II"
	case LambertIIe:
		return "IIe"
	case LambertIII:
		return "III"
	case LambertIV:
		return "IV"
	case Lambert93:
		return "93"
	default:
		return "?"
	}
}

// Projection is a value type: two Projections with the same fields are
// equal by value.
type Projection struct {
	Variant Variant
	Lambert LambertZone
	// Longitude0 is UTM's central meridian, degrees.
	Longitude0 float64
	// Hemisphere is +1 (North) or -1 (South), UTM only.
	Hemisphere int
}

// IsNone reports whether p carries no projection (a geographic map/tile).
func (p Projection) IsNone() bool { return p.Variant == None }

var lambertNames = map[string]LambertZone{
	"I": LambertI, "II": LambertII, "IIe": LambertIIe,
	"III": LambertIII, "IV": LambertIV, "93": Lambert93,
}

// Configure parses a case-sensitive projection tag: "Lambert
// I|II|IIe|III|IV|93", "UTM <N>[NS]" (integer zone in [1,60]) or "UTM
// <longitude>[NS]" (a token containing '.').
func Configure(tag string) (Projection, *turtleerr.Error) {
	fields := strings.Fields(tag)
	if len(fields) != 2 {
		return Projection{}, turtleerr.New(turtleerr.BadProjection, "projection.Configure", "malformed tag %q", tag)
	}

	switch fields[0] {
	case "Lambert":
		zone, ok := lambertNames[fields[1]]
		if !ok {
			return Projection{}, turtleerr.New(turtleerr.BadProjection, "projection.Configure", "unknown Lambert zone %q", fields[1])
		}
		return Projection{Variant: LambertVariant, Lambert: zone}, nil

	case "UTM":
		return configureUTM(fields[1])

	default:
		return Projection{}, turtleerr.New(turtleerr.BadProjection, "projection.Configure", "unknown projection family %q", fields[0])
	}
}

func configureUTM(token string) (Projection, *turtleerr.Error) {
	hemisphere := 1
	body := token
	if n := len(token); n > 0 {
		switch token[n-1] {
		case 'N':
			hemisphere = 1
			body = token[:n-1]
		case 'S':
			hemisphere = -1
			body = token[:n-1]
		}
	}

	if strings.Contains(body, ".") {
		lon0, err := strconv.ParseFloat(body, 64)
		if err != nil {
			return Projection{}, turtleerr.New(turtleerr.BadProjection, "projection.Configure", "bad UTM longitude %q", body)
		}
		return Projection{Variant: UTMVariant, Longitude0: lon0, Hemisphere: hemisphere}, nil
	}

	zone, err := strconv.Atoi(body)
	if err != nil || zone < 1 || zone > 60 {
		return Projection{}, turtleerr.New(turtleerr.BadProjection, "projection.Configure", "bad UTM zone %q", body)
	}
	return Projection{Variant: UTMVariant, Longitude0: float64(6*zone - 183), Hemisphere: hemisphere}, nil
}

// Name round-trips a Projection back to its tag. A UTM projection whose
// central longitude matches an integer zone's 6N-183 within float epsilon
// re-renders as "UTM <N>N/S", else as "UTM <longitude>N/S".
func Name(p Projection) string {
	switch p.Variant {
	case None:
		return ""
	case LambertVariant:
		return "Lambert " + p.Lambert.String()
	case UTMVariant:
		ns := "N"
		if p.Hemisphere < 0 {
			ns = "S"
		}
		zone := math.Round((p.Longitude0 + 183) / 6)
		if math.Abs(6*zone-183-p.Longitude0) <= floatEpsilon {
			return fmt.Sprintf("UTM %d%s", int(zone), ns)
		}
		return fmt.Sprintf("UTM %s%s", strconv.FormatFloat(p.Longitude0, 'f', -1, 64), ns)
	default:
		return ""
	}
}

// floatEpsilon is the FLT_EPSILON tolerance used when round-tripping a
// UTM zone number.
const floatEpsilon = 1.1920929e-7

// Project maps a geodetic (lat, lon) in degrees to projected (x, y) metres.
func Project(p Projection, latDeg, lonDeg float64) (x, y float64) {
	switch p.Variant {
	case LambertVariant:
		return lambertProject(p.Lambert, latDeg, lonDeg)
	case UTMVariant:
		return utmProject(p.Longitude0, p.Hemisphere, latDeg, lonDeg)
	default:
		return lonDeg, latDeg
	}
}

// Unproject is Project's inverse.
func Unproject(p Projection, x, y float64) (latDeg, lonDeg float64) {
	switch p.Variant {
	case LambertVariant:
		return lambertUnproject(p.Lambert, x, y)
	case UTMVariant:
		return utmUnproject(p.Longitude0, p.Hemisphere, x, y)
	default:
		return y, x
	}
}
