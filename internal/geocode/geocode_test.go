package geocode

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	paris  = Point{Lat: 48.8566, Lon: 2.3522}
	london = Point{Lat: 51.5074, Lon: -0.1278}
	sydney = Point{Lat: -33.8688, Lon: 151.2093}
)

func testGazetteer() *Gazetteer {
	return New([]City{
		{Name: "Paris", Continent: "Europe", Country: "France", Point: paris, HasPoint: true},
		{Name: "London", Continent: "Europe", Country: "United Kingdom", Point: london, HasPoint: true},
		{Name: "Sydney", Continent: "Oceania", Country: "Australia", Point: sydney, HasPoint: true},
		{Name: "Atlantis", Continent: "", Country: ""},
	})
}

func TestHaversine(t *testing.T) {
	t.Run("zero for identical points", func(t *testing.T) {
		for _, p := range []Point{paris, london, sydney, {}, {Lat: 90, Lon: 180}} {
			assert.Zero(t, Haversine(p, p), "point %s", p)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][2]Point{{paris, london}, {london, sydney}, {sydney, paris}}
		for _, pair := range pairs {
			assert.InDelta(t, Haversine(pair[0], pair[1]), Haversine(pair[1], pair[0]), 1e-9)
		}
	})

	t.Run("known distances", func(t *testing.T) {
		assert.InDelta(t, 213.478, Haversine(paris, london), 0.01)
		assert.InDelta(t, 69.094, Haversine(Point{0, 0}, Point{0, 1}), 0.01)
	})
}

func TestNormalizeKey(t *testing.T) {
	tests := map[string]string{
		"Paris":              "paris",
		"New York":           "new_york",
		"Washington, D.C.":   "washington_d.c.",
		"  Rio de Janeiro  ": "rio_de_janeiro",
		"already_normalized": "already_normalized",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeKey(in), "input %q", in)
	}
}

func TestResolveExact(t *testing.T) {
	g := testGazetteer()

	res, err := g.Resolve("Paris", nil)
	require.NoError(t, err)
	assert.Equal(t, "paris", res.CityKey)
	assert.Equal(t, paris, res.Point)
	assert.Equal(t, "Europe", res.Continent)
	assert.Equal(t, "France", res.Country)
	assert.Equal(t, MethodExact, res.Method)

	_, err = g.Resolve("gotham", nil)
	assert.True(t, errors.Is(err, ErrUnresolved))

	_, err = g.Resolve("atlantis", nil)
	assert.True(t, errors.Is(err, ErrUnresolved), "city without coordinates cannot be placed")
}

func TestResolveInlineWithinThreshold(t *testing.T) {
	g := testGazetteer()
	inline := Point{Lat: 48.9, Lon: 2.4}

	// the filename key is not in the table; identity comes from the nearest city
	res, err := g.Resolve("paris_suburb", &inline)
	require.NoError(t, err)
	assert.Equal(t, "paris_suburb", res.CityKey)
	assert.Equal(t, inline, res.Point)
	assert.Equal(t, "Europe", res.Continent)
	assert.Equal(t, "France", res.Country)
	assert.Equal(t, MethodInline, res.Method)
	assert.Equal(t, "paris", res.NearestKey)
	assert.Less(t, res.NearestMiles, FallbackThresholdMiles)

	// an exact key wins over the nearest city for continent and country
	res, err = g.Resolve("sydney", &inline)
	require.NoError(t, err)
	assert.Equal(t, "Oceania", res.Continent)
	assert.Equal(t, inline, res.Point)
}

func TestResolveInlineBeyondThreshold(t *testing.T) {
	g := testGazetteer()
	// mid-Atlantic, well over 150 miles from every reference city
	inline := Point{Lat: 40.0, Lon: -30.0}

	t.Run("adopts nearest city wholesale", func(t *testing.T) {
		res, err := g.Resolve("nowhere", &inline)
		require.NoError(t, err)
		assert.Equal(t, MethodNearest, res.Method)
		assert.Equal(t, "london", res.CityKey)
		assert.Equal(t, london, res.Point)
		assert.Equal(t, "United Kingdom", res.Country)
		assert.Greater(t, res.NearestMiles, FallbackThresholdMiles)
	})

	t.Run("prefers exact key", func(t *testing.T) {
		res, err := g.Resolve("Sydney", &inline)
		require.NoError(t, err)
		assert.Equal(t, MethodExactOverride, res.Method)
		assert.Equal(t, "sydney", res.CityKey)
		assert.Equal(t, sydney, res.Point)
	})
}

func TestResolveEmptyTable(t *testing.T) {
	g := New(nil)
	inline := Point{Lat: 1, Lon: 1}
	_, err := g.Resolve("x", &inline)
	assert.True(t, errors.Is(err, ErrUnresolved))
}

func TestNearestTieGoesToEarlierRow(t *testing.T) {
	g := New([]City{
		{Name: "A", Point: Point{0, 1}, HasPoint: true},
		{Name: "B", Point: Point{0, -1}, HasPoint: true},
	})
	c, miles, ok := g.Nearest(Point{0, 0})
	require.True(t, ok)
	assert.Equal(t, "a", c.Key)
	assert.InDelta(t, 69.094, miles, 0.01)

	// second call is served from the memo
	c2, miles2, ok := g.Nearest(Point{0, 0})
	require.True(t, ok)
	assert.Equal(t, c, c2)
	assert.Equal(t, miles, miles2)
}

func TestReadCSV(t *testing.T) {
	csvText := "City,Continent,Country,Latitude,Longitude,Roof Materials\n" +
		`Paris,Europe,France,48.8566,2.3522,"[{'class': 'ClayTiles', 'share': 0.5}, {'class': 'MetalSheetMaterials'}]"` + "\n" +
		`"Washington, D.C.",North America,United States,38.9072,-77.0369,[]` + "\n" +
		`Lost City,Atlantis,,not-a-number,,nan` + "\n" +
		`,Nowhere,,1,1,` + "\n"

	g, err := Read(strings.NewReader(csvText))
	require.NoError(t, err)
	assert.Equal(t, 4, g.Len())

	c, ok := g.Lookup("washington_d.c.")
	require.True(t, ok)
	assert.Equal(t, "United States", c.Country)
	assert.True(t, c.HasPoint)

	allowed, ok := g.Allowed("paris")
	require.True(t, ok)
	assert.Equal(t, []string{"ClayTiles", "MetalSheetMaterials"}, allowed)

	allowed, ok = g.Allowed("Washington, D.C.")
	require.True(t, ok, "an empty list is still a list")
	assert.Empty(t, allowed)

	_, ok = g.Allowed("lost_city")
	assert.False(t, ok)

	lost, ok := g.Lookup("lost city")
	require.True(t, ok)
	assert.False(t, lost.HasPoint)

	_, ok = g.Lookup(UnknownKey)
	assert.True(t, ok, "empty city names map to the unknown key")
}

func TestReadLatin1(t *testing.T) {
	// "Zürich" encoded as ISO-8859-1
	raw := []byte("City,Continent,Country,Latitude,Longitude\nZ\xfcrich,Europe,Switzerland,47.3769,8.5417\n")
	g, err := Read(strings.NewReader(string(raw)))
	require.NoError(t, err)

	c, ok := g.Lookup("zürich")
	require.True(t, ok)
	assert.Equal(t, "Zürich", c.Name)
}

func TestReadMissingCityColumn(t *testing.T) {
	_, err := Read(strings.NewReader("Name,Latitude\nParis,1\n"))
	assert.Error(t, err)

	_, err = Read(strings.NewReader(""))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.csv")
	require.NoError(t, os.WriteFile(path, []byte("City,Continent,Country,Latitude,Longitude\nParis,Europe,France,48.8566,2.3522\n"), 0644))

	g, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestParseMaterials(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{name: "single quotes", in: "[{'class': 'Thatch'}]", want: []string{"Thatch"}},
		{name: "double quotes", in: `[{"class": "WoodTiles"}, {"class": "Unknown"}]`, want: []string{"WoodTiles", "Unknown"}},
		{name: "empty list", in: "[]", want: []string{}},
		{name: "nan", in: "nan", wantErr: true},
		{name: "blank", in: "", wantErr: true},
		{name: "not a list", in: "{'class': 'Thatch'}", wantErr: true},
		{name: "entry without class", in: "[{'class': 'Thatch'}, {'name': 'x'}]", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMaterials(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuggest(t *testing.T) {
	g := testGazetteer()
	assert.Equal(t, []string{"paris"}, g.Suggest("pariss", 2, 3))
	assert.Nil(t, g.Suggest("paris", 2, 3))
	assert.Empty(t, g.Suggest("zzzzzzzz", 1, 3))
}
