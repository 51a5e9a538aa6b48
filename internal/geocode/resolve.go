package geocode

import (
	"errors"
	"fmt"
)

// FallbackThresholdMiles is the largest distance at which an inline
// filename coordinate is trusted over the reference table.
const FallbackThresholdMiles = 150.0

// UnknownValue is recorded when continent or country cannot be resolved.
const UnknownValue = "Unknown"

// ErrUnresolved is returned when neither the city key nor an inline
// coordinate leads to a reference city.
var ErrUnresolved = errors.New("city not found in reference table")

// Method records which path produced a Resolution.
type Method string

const (
	// MethodExact: no inline coordinate, exact key hit.
	MethodExact Method = "exact"
	// MethodInline: inline coordinate within the threshold was kept.
	MethodInline Method = "inline"
	// MethodExactOverride: inline coordinate too far, exact key coordinates used.
	MethodExactOverride Method = "exact_override"
	// MethodNearest: inline coordinate too far and no key; nearest city adopted.
	MethodNearest Method = "nearest"
)

// Resolution is the geocoded identity of one image.
type Resolution struct {
	CityKey   string
	Point     Point
	Continent string
	Country   string
	Method    Method

	// NearestKey and NearestMiles are set whenever a nearest-city search ran.
	NearestKey   string
	NearestMiles float64
}

// Resolve geocodes a filename city key, optionally with the coordinate
// parsed from the filename.
//
// Without a coordinate only the exact key is consulted. With one, the
// nearest reference city is found; beyond FallbackThresholdMiles the
// coordinate is discarded in favour of the exact key or, failing that, the
// nearest city's identity and position.
func (g *Gazetteer) Resolve(cityKey string, inline *Point) (Resolution, error) {
	key := NormalizeKey(cityKey)
	exact, hasExact := g.Lookup(key)

	if inline == nil {
		if !hasExact {
			return Resolution{}, fmt.Errorf("%w: %q", ErrUnresolved, key)
		}
		if !exact.HasPoint {
			return Resolution{}, fmt.Errorf("%w: %q has no coordinates", ErrUnresolved, key)
		}
		return resolution(key, exact.Point, exact, MethodExact), nil
	}

	nearest, miles, found := g.Nearest(*inline)
	if !found || miles > FallbackThresholdMiles {
		var res Resolution
		switch {
		case hasExact && exact.HasPoint:
			res = resolution(key, exact.Point, exact, MethodExactOverride)
		case found:
			res = resolution(nearest.Key, nearest.Point, nearest, MethodNearest)
		default:
			return Resolution{}, fmt.Errorf("%w: %q and no reference coordinates", ErrUnresolved, key)
		}
		if found {
			res.NearestKey = nearest.Key
			res.NearestMiles = miles
		}
		return res, nil
	}

	identity := nearest
	if hasExact {
		identity = exact
	}
	res := resolution(key, *inline, identity, MethodInline)
	res.NearestKey = nearest.Key
	res.NearestMiles = miles
	return res, nil
}

func resolution(key string, p Point, identity City, method Method) Resolution {
	res := Resolution{
		CityKey:   key,
		Point:     p,
		Continent: identity.Continent,
		Country:   identity.Country,
		Method:    method,
	}
	if res.Continent == "" {
		res.Continent = UnknownValue
	}
	if res.Country == "" {
		res.Country = UnknownValue
	}
	return res
}
