package config

const (
	defaultLogLevel  = "info"
	defaultLogFormat = "auto"

	// DefaultMetadataName is the metadata manifest written into the dataset
	// root when no output path is configured.
	DefaultMetadataName = "roof_materials_augmented_all.csv"

	// DefaultJournalName is the verify journal kept in the dataset root.
	DefaultJournalName = ".roofprep_journal.db"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Dataset: Dataset{
			Splits:     []string{"train", "val"},
			Extensions: []string{".jpg", ".jpeg", ".png"},
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
