package geocode

import (
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/s2"
)

// EarthRadiusMiles is the mean Earth radius used for great-circle distances.
// No ellipsoid correction is applied.
const EarthRadiusMiles = 3958.8

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

// Valid reports whether both components are finite and in range.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return math.Abs(p.Lat) <= 90 && math.Abs(p.Lon) <= 180
}

// Haversine returns the great-circle distance between a and b in miles.
// s2.LatLng.Distance evaluates the haversine formula on the unit sphere.
func Haversine(a, b Point) float64 {
	la := s2.LatLngFromDegrees(a.Lat, a.Lon)
	lb := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return la.Distance(lb).Radians() * EarthRadiusMiles
}

// NormalizeKey turns a city name into the join key shared by the reference
// table, filename parsing and allow-list checks: lowercase, commas removed,
// spaces replaced with underscores.
func NormalizeKey(city string) string {
	key := strings.ToLower(strings.TrimSpace(city))
	key = strings.ReplaceAll(key, ",", "")
	return strings.ReplaceAll(key, " ", "_")
}
