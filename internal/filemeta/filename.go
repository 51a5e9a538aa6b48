// Package filemeta recovers city and building metadata from dataset image
// filenames.
//
// Three filename dialects exist in the dataset and are tried in a fixed
// order: a hyphen-delimited city prefix, a city followed by "_height"
// attribute tokens, and a city followed by "_imsat" with an inline
// latitude/longitude pair.
package filemeta

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lehigh-university-libraries/roofprep/internal/geocode"
)

// Dialect identifies which filename convention produced the city key.
type Dialect string

const (
	DialectHyphen Dialect = "hyphen"
	DialectHeight Dialect = "height"
	DialectImsat  Dialect = "imsat"
)

const (
	heightToken     = "height"
	heightSeparator = "_height"
	imsatToken      = "imsat"
	imsatSeparator  = "_imsat"
	imsatMarker     = "imsat_"

	// Fractional digits allowed on the latitude when splitting a
	// concatenated coordinate pair. The second pass exists for a handful of
	// filenames whose latitude carries eight digits.
	primaryLatitudeDigits  = 7
	fallbackLatitudeDigits = 8

	maxLongitude = 180.0
)

var (
	// ErrNoCity is returned when no dialect matches the filename.
	ErrNoCity = errors.New("could not parse city name from filename")

	// ErrCoordinates is returned when an imsat coordinate cannot be split.
	ErrCoordinates = errors.New("failed to parse lat/lon from filename")

	primaryCoordinatePattern  = coordinatePattern(primaryLatitudeDigits)
	fallbackCoordinatePattern = coordinatePattern(fallbackLatitudeDigits)
)

func coordinatePattern(latDigits int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`^(-?\d+\.\d{1,%d})(-?\d+\.\d+)`, latDigits))
}

// Name is everything recoverable from an image filename alone.
type Name struct {
	Filename string
	Stem     string
	Dialect  Dialect

	// CityPart is the raw city substring; CityKey is its normalized form.
	CityPart string
	CityKey  string

	// Inline is the coordinate embedded after "imsat_", when it parsed.
	Inline *geocode.Point
	// InlineErr is set when the filename carries "imsat_" but the
	// coordinate could not be split.
	InlineErr error
}

// HasInlineToken reports whether the filename carries an imsat coordinate
// block, parsed or not.
func (n Name) HasInlineToken() bool {
	return n.Inline != nil || n.InlineErr != nil
}

// DisplayName returns the city as it appears in prompts.
func (n Name) DisplayName() string {
	return DisplayName(n.CityPart)
}

// Stem strips the directory and final extension from a filename.
func Stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Parse extracts the city key and inline coordinate from a filename.
func Parse(filename string) (Name, error) {
	n := Name{
		Filename: filepath.Base(filename),
		Stem:     Stem(filename),
	}

	cityPart, dialect, ok := cityPart(n.Stem)
	if !ok || strings.TrimSpace(cityPart) == "" {
		return n, fmt.Errorf("%w: %s", ErrNoCity, n.Filename)
	}
	n.CityPart = cityPart
	n.Dialect = dialect
	n.CityKey = geocode.NormalizeKey(cityPart)

	if i := strings.LastIndex(n.Stem, imsatMarker); i >= 0 {
		block := n.Stem[i+len(imsatMarker):]
		if j := strings.Index(block, "_"); j >= 0 {
			block = block[:j]
		}
		p, err := ParseCoordinates(block)
		if err != nil {
			n.InlineErr = err
		} else {
			n.Inline = &p
		}
	}

	return n, nil
}

// cityPart applies the dialects in order: hyphen, height, imsat.
func cityPart(stem string) (string, Dialect, bool) {
	switch {
	case strings.Contains(stem, "-"):
		before, _, _ := strings.Cut(stem, "-")
		return before, DialectHyphen, true
	case strings.Contains(stem, heightToken):
		before, _, _ := strings.Cut(stem, heightSeparator)
		return before, DialectHeight, true
	case strings.Contains(stem, imsatToken):
		before, _, _ := strings.Cut(stem, imsatSeparator)
		return before, DialectImsat, true
	}
	return "", "", false
}

// ParseCoordinates splits a concatenated signed latitude/longitude block
// such as "48.85662.3522" into a point.
func ParseCoordinates(block string) (geocode.Point, error) {
	lat, lon, ok := matchCoordinates(primaryCoordinatePattern, block)
	if !ok || lon > maxLongitude || lon < -maxLongitude {
		lat, lon, ok = matchCoordinates(fallbackCoordinatePattern, block)
	}
	if !ok {
		return geocode.Point{}, fmt.Errorf("%w: %q", ErrCoordinates, block)
	}
	return geocode.Point{Lat: lat, Lon: lon}, nil
}

func matchCoordinates(pattern *regexp.Regexp, block string) (float64, float64, bool) {
	m := pattern.FindStringSubmatch(block)
	if m == nil {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// DisplayName turns a raw city part into title case with spaces,
// e.g. "new_york" becomes "New York".
func DisplayName(cityPart string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(cityPart, "_", " "))
}
