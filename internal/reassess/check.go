// Package reassess moves images whose material class is not permitted for
// their city into a reassess folder for manual review, and can undo those
// moves from a journal.
package reassess

import (
	"slices"

	"github.com/lehigh-university-libraries/roofprep/internal/filemeta"
	"github.com/lehigh-university-libraries/roofprep/internal/roof"
)

// Verdict is the outcome of checking one image against its city's list.
type Verdict string

const (
	VerdictAllowed    Verdict = "allowed"
	VerdictDisallowed Verdict = "disallowed"
	// VerdictNoCity: the filename carries no recognizable city.
	VerdictNoCity Verdict = "no_city"
	// VerdictNoList: the city is missing from the table or has no list.
	VerdictNoList Verdict = "no_material_list"
)

// AllowList reports the permitted material classes for a city key.
type AllowList interface {
	Allowed(cityKey string) ([]string, bool)
}

// Decision is the verdict for one image.
type Decision struct {
	Filename string
	CityKey  string
	Material roof.Material
	Verdict  Verdict
}

// Check decides whether an image in a material folder belongs there.
func Check(list AllowList, filename string, material roof.Material) Decision {
	d := Decision{Filename: filename, Material: material}

	name, err := filemeta.Parse(filename)
	if err != nil {
		d.Verdict = VerdictNoCity
		return d
	}
	d.CityKey = name.CityKey

	allowed, ok := list.Allowed(name.CityKey)
	switch {
	case !ok:
		d.Verdict = VerdictNoList
	case slices.Contains(allowed, material.String()):
		d.Verdict = VerdictAllowed
	default:
		d.Verdict = VerdictDisallowed
	}
	return d
}
