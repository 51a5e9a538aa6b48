package manifest

import (
	"cmp"
	"maps"
	"slices"
)

// Availability is how many records carry an optional attribute.
type Availability struct {
	Column  string  `json:"column" yaml:"column"`
	Count   int     `json:"count" yaml:"count"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// Count is one bucket of a grouped count.
type Count struct {
	Key   string `json:"key" yaml:"key"`
	Count int    `json:"count" yaml:"count"`
}

// Stats summarizes a metadata manifest.
type Stats struct {
	Total        int            `json:"total" yaml:"total"`
	Availability []Availability `json:"availability" yaml:"availability"`
	BySplit      []Count        `json:"by_split" yaml:"by_split"`
	ByMaterial   []Count        `json:"by_material" yaml:"by_material"`
	ByContinent  []Count        `json:"by_continent" yaml:"by_continent"`
}

// Summarize counts attribute availability and groups records by split,
// material class and continent. Groups are sorted by descending count, then
// key.
func Summarize(records []Record) Stats {
	s := Stats{Total: len(records)}

	for _, col := range AttributeColumns {
		a := Availability{Column: col}
		for _, r := range records {
			if r.has(col) {
				a.Count++
			}
		}
		if s.Total > 0 {
			a.Percent = 100 * float64(a.Count) / float64(s.Total)
		}
		s.Availability = append(s.Availability, a)
	}

	splits := map[string]int{}
	materials := map[string]int{}
	continents := map[string]int{}
	for _, r := range records {
		split := r.Split
		if split == "" {
			split = "(none)"
		}
		splits[split]++
		materials[r.MaterialClass]++
		continents[r.Continent]++
	}
	s.BySplit = sortedCounts(splits)
	s.ByMaterial = sortedCounts(materials)
	s.ByContinent = sortedCounts(continents)

	return s
}

func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, Count{Key: k, Count: m[k]})
	}
	slices.SortStableFunc(out, func(a, b Count) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return out
}
