package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"auto", "text", "json"}
)

// Validate ensures the configuration is usable. Paths are not required here;
// each command checks the ones it needs.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateDataset()
}

func (c *Config) validateLogging() error {
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %s, got %q", strings.Join(validLevels, ", "), c.Logging.Level)
	}
	if !contains(validFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format must be one of %s, got %q", strings.Join(validFormats, ", "), c.Logging.Format)
	}
	return nil
}

func (c *Config) validateDataset() error {
	for _, s := range c.Dataset.Splits {
		if strings.ContainsAny(s, `/\`) || s == "." || s == ".." {
			return fmt.Errorf("dataset.splits entry %q must be a plain folder name", s)
		}
	}
	if len(c.Dataset.Extensions) == 0 {
		return errors.New("dataset.extensions must not be empty")
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
