package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDataset()
	c.normalizeLogging()
	return c.normalizeOutputs()
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(EnvDatasetDir); ok && strings.TrimSpace(value) != "" {
		c.Paths.DatasetDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv(EnvCityCSV); ok && strings.TrimSpace(value) != "" {
		c.Paths.CityCSV = strings.TrimSpace(value)
	}

	var err error
	if c.Paths.DatasetDir, err = expandPath(strings.TrimSpace(c.Paths.DatasetDir)); err != nil {
		return fmt.Errorf("paths.dataset_dir: %w", err)
	}
	if c.Paths.CityCSV, err = expandPath(strings.TrimSpace(c.Paths.CityCSV)); err != nil {
		return fmt.Errorf("paths.city_csv: %w", err)
	}
	if c.Paths.OutputCSV, err = expandPath(strings.TrimSpace(c.Paths.OutputCSV)); err != nil {
		return fmt.Errorf("paths.output_csv: %w", err)
	}
	if c.Paths.Journal, err = expandPath(strings.TrimSpace(c.Paths.Journal)); err != nil {
		return fmt.Errorf("paths.journal: %w", err)
	}
	return nil
}

func (c *Config) normalizeDataset() {
	splits := c.Dataset.Splits[:0:0]
	for _, s := range c.Dataset.Splits {
		if s = strings.TrimSpace(s); s != "" {
			splits = append(splits, s)
		}
	}
	c.Dataset.Splits = splits

	exts := c.Dataset.Extensions[:0:0]
	for _, e := range c.Dataset.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	if len(exts) == 0 {
		exts = Default().Dataset.Extensions
	}
	c.Dataset.Extensions = exts
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeOutputs() error {
	var err error
	if c.Outputs.SummaryYAML, err = expandPath(strings.TrimSpace(c.Outputs.SummaryYAML)); err != nil {
		return fmt.Errorf("outputs.summary_yaml: %w", err)
	}
	if c.Outputs.MetricsFile, err = expandPath(strings.TrimSpace(c.Outputs.MetricsFile)); err != nil {
		return fmt.Errorf("outputs.metrics_file: %w", err)
	}
	return nil
}

// MetadataOutput returns the configured metadata manifest path, or the
// default file inside the dataset root.
func (c *Config) MetadataOutput() string {
	if c.Paths.OutputCSV != "" {
		return c.Paths.OutputCSV
	}
	if c.Paths.DatasetDir == "" {
		return ""
	}
	return filepath.Join(c.Paths.DatasetDir, DefaultMetadataName)
}

// JournalPath returns the configured journal database, or the default file
// inside the dataset root.
func (c *Config) JournalPath() string {
	if c.Paths.Journal != "" {
		return c.Paths.Journal
	}
	if c.Paths.DatasetDir == "" {
		return ""
	}
	return filepath.Join(c.Paths.DatasetDir, DefaultJournalName)
}
