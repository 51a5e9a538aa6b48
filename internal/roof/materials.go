package roof

import "sort"

// Material is a roof-covering class. Dataset folders are named after it.
type Material string

const (
	Thatch                      Material = "Thatch"
	GreenVegetative             Material = "GreenVegetative"
	StoneSlates                 Material = "StoneSlates"
	ClayTiles                   Material = "ClayTiles"
	AsphaltTiles                Material = "AsphaltTiles"
	ConcreteTiles               Material = "ConcreteTiles"
	WoodTiles                   Material = "WoodTiles"
	MetalSheetMaterials         Material = "MetalSheetMaterials"
	PolycarbonateSheetMaterials Material = "PolycarbonateSheetMaterials"
	GlassSheetMaterials         Material = "GlassSheetMaterials"
	AmorphousConcrete           Material = "AmorphousConcrete"
	AmorphousAsphalt            Material = "AmorphousAsphalt"
	AmorphousMembrane           Material = "AmorphousMembrane"
	AmorphousFabric             Material = "AmorphousFabric"
	Unknown                     Material = "Unknown"
)

// FlatRoofShape is the roof shape recorded for every amorphous material.
const FlatRoofShape = "Flat"

// descriptions holds the prompt fragment for each material class
var descriptions = map[Material]string{
	Thatch:                      "thatched roof (dried grasses / straw or palm)",
	GreenVegetative:             "roof with vegetation on it",
	StoneSlates:                 "dark stone slate roof",
	ClayTiles:                   "tiled clay / tiled ceramic roof",
	AsphaltTiles:                "angled asphalt shingle roof",
	ConcreteTiles:               "tiled concrete / tiled cement roof",
	WoodTiles:                   "wood shingle roof",
	MetalSheetMaterials:         "corrugated or tiled metal roof (silver / dark / painted)",
	PolycarbonateSheetMaterials: "polycarbonate roof",
	GlassSheetMaterials:         "glass roof (clear or mirrored)",
	AmorphousConcrete:           "flat concrete roof",
	AmorphousAsphalt:            "asphalt-coated roof (bitumen layer or rolled roofing)",
	AmorphousMembrane:           "membrane roof (bright EPDM/TPO)",
	AmorphousFabric:             "tensile fabric roof (PVC / PTFE / canvas)",
	Unknown:                     "unknown material, image may be too low resolution or obstructed",
}

// Parse maps a folder name to its material class. Matching is exact:
// "claytiles" is not a material folder.
func Parse(folder string) (Material, bool) {
	m := Material(folder)
	_, ok := descriptions[m]
	return m, ok
}

// Description returns the prompt fragment for the material.
func (m Material) Description() string {
	return descriptions[m]
}

// IsAmorphous reports whether the material has no tiled structure.
// Amorphous roofs are always recorded as flat.
func (m Material) IsAmorphous() bool {
	switch m {
	case AmorphousMembrane, AmorphousFabric, AmorphousConcrete, AmorphousAsphalt:
		return true
	}
	return false
}

func (m Material) String() string {
	return string(m)
}

// All returns every known material class sorted by name.
func All() []Material {
	all := make([]Material, 0, len(descriptions))
	for m := range descriptions {
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all
}
