package filemeta

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/roofprep/internal/roof"
)

// Attribute token prefixes. A token's value follows the prefix directly,
// e.g. "height12.5" or "roofshapeGable".
const (
	prefixHeight        = "height"
	prefixNumStories    = "numstories"
	prefixRoofShape     = "roofshape"
	prefixFootprintArea = "fpArea"

	missingValue = "NA"
)

// Attributes are the optional building properties embedded in a filename.
// A nil field is missing.
type Attributes struct {
	Height        *float64
	NumStories    *float64
	RoofShape     *string
	FootprintArea *float64
}

// ParseAttributes reads attribute tokens from an underscore-delimited stem.
// Later tokens override earlier ones. "NA" marks a value as missing; a
// value that does not parse is ignored.
func ParseAttributes(stem string) Attributes {
	var a Attributes
	for _, token := range strings.Split(stem, "_") {
		switch {
		case strings.HasPrefix(token, prefixHeight):
			a.Height = parseNumber(a.Height, token, prefixHeight)
		case strings.HasPrefix(token, prefixNumStories):
			a.NumStories = parseNumber(a.NumStories, token, prefixNumStories)
		case strings.HasPrefix(token, prefixRoofShape):
			v := strings.TrimPrefix(token, prefixRoofShape)
			if v == missingValue || v == "" {
				a.RoofShape = nil
			} else {
				a.RoofShape = &v
			}
		case strings.HasPrefix(token, prefixFootprintArea):
			a.FootprintArea = parseNumber(a.FootprintArea, token, prefixFootprintArea)
		}
	}
	return a
}

func parseNumber(current *float64, token, prefix string) *float64 {
	v := strings.TrimPrefix(token, prefix)
	if v == missingValue {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Debug("Ignoring unparseable attribute token", "token", token)
		return current
	}
	return &f
}

// ForMaterial applies material-specific overrides: amorphous roofs are
// always flat.
func (a Attributes) ForMaterial(m roof.Material) Attributes {
	if m.IsAmorphous() {
		flat := roof.FlatRoofShape
		a.RoofShape = &flat
	}
	return a
}
