package geocode

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/patrickmn/go-cache"
	"golang.org/x/text/encoding/charmap"
)

// Reference CSV column names.
const (
	ColumnCity          = "City"
	ColumnContinent     = "Continent"
	ColumnCountry       = "Country"
	ColumnLatitude      = "Latitude"
	ColumnLongitude     = "Longitude"
	ColumnRoofMaterials = "Roof Materials"
)

// UnknownKey is the key given to reference rows with an empty city name.
const UnknownKey = "unknown"

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}

	// materialClassPattern extracts the class from one {'class': 'X', ...} entry
	materialClassPattern = regexp.MustCompile(`['"]class['"]\s*:\s*['"]([^'"]+)['"]`)
)

// City is one row of the reference table.
type City struct {
	Name      string
	Key       string
	Continent string
	Country   string
	Point     Point

	// HasPoint is false when the row's coordinates are missing or unparseable.
	HasPoint bool

	// Materials is the permitted material list; nil when the row has none.
	Materials []string
}

// Gazetteer is the immutable reference city table for a run.
type Gazetteer struct {
	cities  []City
	byKey   map[string]int
	nearest *cache.Cache
}

type nearestHit struct {
	index int
	miles float64
}

// New builds a gazetteer from already-parsed rows. Keys are normalized;
// on duplicate keys the last row wins.
func New(cities []City) *Gazetteer {
	g := &Gazetteer{
		cities:  make([]City, len(cities)),
		byKey:   make(map[string]int, len(cities)),
		nearest: cache.New(cache.NoExpiration, 0),
	}
	for i, c := range cities {
		if c.Key == "" {
			c.Key = NormalizeKey(c.Name)
		} else {
			c.Key = NormalizeKey(c.Key)
		}
		if c.Key == "" {
			c.Key = UnknownKey
		}
		g.cities[i] = c
		g.byKey[c.Key] = i
	}
	return g
}

// Load reads a reference CSV from disk.
func Load(path string) (*Gazetteer, error) {
	slog.Debug("Opening reference city CSV", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read city csv: %w", err)
	}

	g, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse city csv %s: %w", path, err)
	}

	slog.Debug("Reference city CSV loaded", "path", path, "rows", len(g.cities), "keys", len(g.byKey))
	return g, nil
}

// Read parses a reference CSV. Input that is not valid UTF-8 is decoded as
// Latin-1.
func Read(r io.Reader) (*Gazetteer, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode latin-1 csv: %w", err)
		}
		raw = decoded
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv is empty")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols[ColumnCity]; !ok {
		return nil, fmt.Errorf("missing required column %q", ColumnCity)
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	_, hasMaterials := cols[ColumnRoofMaterials]

	var cities []City
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}

		city := City{
			Name:      field(row, ColumnCity),
			Continent: field(row, ColumnContinent),
			Country:   field(row, ColumnCountry),
		}
		city.Key = NormalizeKey(city.Name)

		lat, latErr := parseFloat(field(row, ColumnLatitude))
		lon, lonErr := parseFloat(field(row, ColumnLongitude))
		if latErr == nil && lonErr == nil {
			city.Point = Point{Lat: lat, Lon: lon}
			city.HasPoint = true
		} else {
			slog.Warn("Reference city has no usable coordinates", "city", city.Name, "line", line)
		}

		if hasMaterials {
			materials, err := ParseMaterials(field(row, ColumnRoofMaterials))
			if err != nil {
				slog.Warn("Error parsing materials for city", "city", city.Name, "line", line, "error", err)
			} else {
				city.Materials = materials
			}
		}

		cities = append(cities, city)
	}

	return New(cities), nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

// ParseMaterials parses a stringified list of {'class': ...} objects, the
// format of the reference CSV's "Roof Materials" column.
func ParseMaterials(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, errors.New("no material list")
	}
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("material list is not a list: %q", s)
	}

	matches := materialClassPattern.FindAllStringSubmatch(s, -1)
	if entries := strings.Count(s, "{"); entries != len(matches) {
		return nil, fmt.Errorf("found %d entries but %d classes", entries, len(matches))
	}

	materials := make([]string, 0, len(matches))
	for _, m := range matches {
		materials = append(materials, strings.TrimSpace(m[1]))
	}
	return materials, nil
}

// Len returns the number of reference rows.
func (g *Gazetteer) Len() int {
	return len(g.cities)
}

// Cities returns the reference rows in file order.
func (g *Gazetteer) Cities() []City {
	out := make([]City, len(g.cities))
	copy(out, g.cities)
	return out
}

// Lookup finds a city by key. The key is normalized first.
func (g *Gazetteer) Lookup(key string) (City, bool) {
	i, ok := g.byKey[NormalizeKey(key)]
	if !ok {
		return City{}, false
	}
	return g.cities[i], true
}

// Allowed returns the permitted material classes for a city. ok is false
// when the city is unknown or its row carried no parseable list.
func (g *Gazetteer) Allowed(key string) ([]string, bool) {
	c, ok := g.Lookup(key)
	if !ok || c.Materials == nil {
		return nil, false
	}
	return c.Materials, true
}

// Nearest returns the reference city closest to p and the distance in
// miles. Rows without coordinates are ignored; ties go to the earlier row.
func (g *Gazetteer) Nearest(p Point) (City, float64, bool) {
	cacheKey := p.String()
	if v, ok := g.nearest.Get(cacheKey); ok {
		hit := v.(nearestHit)
		return g.cities[hit.index], hit.miles, true
	}

	best := -1
	bestMiles := math.Inf(1)
	for i, c := range g.cities {
		if !c.HasPoint {
			continue
		}
		if d := Haversine(p, c.Point); d < bestMiles {
			best = i
			bestMiles = d
		}
	}
	if best < 0 {
		return City{}, 0, false
	}

	g.nearest.Set(cacheKey, nearestHit{index: best, miles: bestMiles}, cache.NoExpiration)
	return g.cities[best], bestMiles, true
}

// Suggest returns up to limit reference keys within maxDist edits of key,
// closest first. It returns nothing when key matches exactly.
func (g *Gazetteer) Suggest(key string, maxDist, limit int) []string {
	key = NormalizeKey(key)
	if _, ok := g.byKey[key]; ok || key == "" {
		return nil
	}

	type candidate struct {
		key  string
		dist int
	}
	var candidates []candidate
	for k := range g.byKey {
		if d := levenshtein.ComputeDistance(key, k); d <= maxDist {
			candidates = append(candidates, candidate{key: k, dist: d})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].key < candidates[j].key
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.key
	}
	return out
}
