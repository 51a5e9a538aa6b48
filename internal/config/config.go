// Package config loads, normalizes, and validates roofprep settings.
//
// Settings come from an optional TOML file, then environment variables
// (ROOFPREP_DATASET_DIR, ROOFPREP_CITY_CSV, usually supplied through a .env
// file), then command-line flags applied by the caller.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	// EnvConfigPath points at a config file when --config is not given.
	EnvConfigPath = "ROOFPREP_CONFIG"
	EnvDatasetDir = "ROOFPREP_DATASET_DIR"
	EnvCityCSV    = "ROOFPREP_CITY_CSV"

	projectConfigName = "roofprep.toml"
	userConfigPath    = "~/.config/roofprep/config.toml"
)

// Paths holds dataset and output locations.
type Paths struct {
	DatasetDir string `toml:"dataset_dir"`
	CityCSV    string `toml:"city_csv"`
	OutputCSV  string `toml:"output_csv"`
	Journal    string `toml:"journal"`
}

// Dataset describes the on-disk dataset layout.
type Dataset struct {
	Splits     []string `toml:"splits"`
	Extensions []string `toml:"extensions"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Outputs lists optional run artifacts.
type Outputs struct {
	SummaryYAML string `toml:"summary_yaml"`
	MetricsFile string `toml:"metrics_file"`
}

// Config is the full roofprep configuration.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Dataset Dataset `toml:"dataset"`
	Logging Logging `toml:"logging"`
	Outputs Outputs `toml:"outputs"`
}

// DefaultConfigPath returns the per-user config file location.
func DefaultConfigPath() (string, error) {
	return expandPath(userConfigPath)
}

// Load locates, parses, and validates a configuration file. A missing file
// is not an error; defaults are used and exists is false.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("failed to open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("failed to parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("failed to stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(userPath); err == nil && !info.IsDir() {
		return userPath, true, nil
	}

	return userPath, false, nil
}

// Marshal renders the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// CreateSample writes the sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write sample config: %w", err)
	}
	return nil
}

// ExpandPath applies tilde expansion and makes path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
