package manifest

// PromptRow pairs an image with its training prompt.
type PromptRow struct {
	Image  string `json:"image" parquet:"image"`
	Prompt string `json:"prompt" parquet:"prompt"`
	Split  string `json:"split,omitempty" parquet:"split"`
}

// Record is one row of the metadata manifest. Optional building attributes
// are nil when the filename did not carry them.
type Record struct {
	Image         string  `json:"image" parquet:"image"`
	Split         string  `json:"split" parquet:"split"`
	City          string  `json:"city" parquet:"city"`
	Latitude      float64 `json:"latitude" parquet:"latitude"`
	Longitude     float64 `json:"longitude" parquet:"longitude"`
	MaterialClass string  `json:"material_class" parquet:"material_class"`
	Country       string  `json:"country" parquet:"country"`
	Continent     string  `json:"continent" parquet:"continent"`
	Filename      string  `json:"filename" parquet:"filename"`

	Height        *float64 `json:"height" parquet:"height"`
	NumStories    *float64 `json:"numstories" parquet:"numstories"`
	RoofShape     *string  `json:"roofshape" parquet:"roofshape"`
	FootprintArea *float64 `json:"fpArea" parquet:"fpArea"`
}

// Column names, in output order.
const (
	ColImage         = "image"
	ColPrompt        = "prompt"
	ColSplit         = "split"
	ColCity          = "city"
	ColLatitude      = "latitude"
	ColLongitude     = "longitude"
	ColMaterialClass = "material_class"
	ColCountry       = "country"
	ColContinent     = "continent"
	ColFilename      = "filename"
	ColHeight        = "height"
	ColNumStories    = "numstories"
	ColRoofShape     = "roofshape"
	ColFootprintArea = "fpArea"
)

// RecordColumns is the metadata manifest header.
var RecordColumns = []string{
	ColImage, ColSplit, ColCity, ColLatitude, ColLongitude, ColMaterialClass,
	ColCountry, ColContinent, ColFilename,
	ColHeight, ColNumStories, ColRoofShape, ColFootprintArea,
}

// AttributeColumns are the optional columns reported on by Summarize.
var AttributeColumns = []string{ColFootprintArea, ColHeight, ColNumStories, ColRoofShape}

func (r Record) has(column string) bool {
	switch column {
	case ColHeight:
		return r.Height != nil
	case ColNumStories:
		return r.NumStories != nil
	case ColRoofShape:
		return r.RoofShape != nil
	case ColFootprintArea:
		return r.FootprintArea != nil
	}
	return false
}
