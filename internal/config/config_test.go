package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/lehigh-university-libraries/roofprep/internal/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvConfigPath, "")
	t.Setenv(config.EnvDatasetDir, "")
	t.Setenv(config.EnvCityCSV, "")
	t.Chdir(t.TempDir())
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("Expected no config file in temp HOME")
	}
	if resolved != filepath.Join(home, ".config", "roofprep", "config.toml") {
		t.Errorf("Unexpected resolved path: %s", resolved)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "auto" {
		t.Errorf("Unexpected logging defaults: %+v", cfg.Logging)
	}
	if strings.Join(cfg.Dataset.Splits, ",") != "train,val" {
		t.Errorf("Unexpected splits: %v", cfg.Dataset.Splits)
	}
	if cfg.MetadataOutput() != "" || cfg.JournalPath() != "" {
		t.Error("Expected no derived paths without a dataset dir")
	}
}

func TestLoadCustomPath(t *testing.T) {
	home := isolate(t)

	path := filepath.Join(t.TempDir(), "custom.toml")
	content := `
[paths]
dataset_dir = "~/data/roofnet"
city_csv = "/srv/cities.csv"

[dataset]
splits = ["train", " ", "test"]
extensions = ["JPG", ".tif"]

[logging]
level = "DEBUG"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Errorf("Expected %s to exist, got %s (exists=%v)", path, resolved, exists)
	}

	wantDataset := filepath.Join(home, "data", "roofnet")
	if cfg.Paths.DatasetDir != wantDataset {
		t.Errorf("Expected dataset dir %s, got %s", wantDataset, cfg.Paths.DatasetDir)
	}
	if cfg.MetadataOutput() != filepath.Join(wantDataset, config.DefaultMetadataName) {
		t.Errorf("Unexpected metadata output: %s", cfg.MetadataOutput())
	}
	if cfg.JournalPath() != filepath.Join(wantDataset, config.DefaultJournalName) {
		t.Errorf("Unexpected journal path: %s", cfg.JournalPath())
	}
	if strings.Join(cfg.Dataset.Splits, ",") != "train,test" {
		t.Errorf("Expected blank split dropped, got %v", cfg.Dataset.Splits)
	}
	if strings.Join(cfg.Dataset.Extensions, ",") != ".jpg,.tif" {
		t.Errorf("Expected normalized extensions, got %v", cfg.Dataset.Extensions)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Unexpected logging: %+v", cfg.Logging)
	}
}

func TestLoadProjectFileAndEnvPath(t *testing.T) {
	isolate(t)

	if err := os.WriteFile("roofprep.toml", []byte("[logging]\nlevel = \"warn\"\n"), 0o644); err != nil {
		t.Fatalf("Failed to write project config: %v", err)
	}
	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || filepath.Base(resolved) != "roofprep.toml" || cfg.Logging.Level != "warn" {
		t.Errorf("Expected project config to be used, got %s level=%s", resolved, cfg.Logging.Level)
	}

	envPath := filepath.Join(t.TempDir(), "env.toml")
	if err := os.WriteFile(envPath, []byte("[logging]\nlevel = \"error\"\n"), 0o644); err != nil {
		t.Fatalf("Failed to write env config: %v", err)
	}
	t.Setenv(config.EnvConfigPath, envPath)
	cfg, resolved, _, err = config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != envPath || cfg.Logging.Level != "error" {
		t.Errorf("Expected $%s to win, got %s level=%s", config.EnvConfigPath, resolved, cfg.Logging.Level)
	}
}

func TestEnvOverridesDatasetPaths(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "c.toml")
	if err := os.WriteFile(path, []byte("[paths]\ndataset_dir = \"/from/file\"\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv(config.EnvDatasetDir, "/from/env")
	t.Setenv(config.EnvCityCSV, "/env/cities.csv")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DatasetDir != filepath.Clean("/from/env") {
		t.Errorf("Expected env dataset dir, got %s", cfg.Paths.DatasetDir)
	}
	if cfg.Paths.CityCSV != filepath.Clean("/env/cities.csv") {
		t.Errorf("Expected env city csv, got %s", cfg.Paths.CityCSV)
	}
}

func TestCreateSample(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read sample: %v", err)
	}
	var decoded map[string]any
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Sample is not valid TOML: %v", err)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Errorf("Sample config should load cleanly: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	isolate(t)

	tests := []struct {
		name    string
		content string
	}{
		{name: "bad level", content: "[logging]\nlevel = \"loud\"\n"},
		{name: "bad format", content: "[logging]\nformat = \"xml\"\n"},
		{name: "split with separator", content: "[dataset]\nsplits = [\"train/a\"]\n"},
		{name: "unknown key", content: "[paths]\nnope = 1\n"},
		{name: "malformed toml", content: "[paths\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DatasetDir = "/data"

	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "dataset_dir") || !strings.Contains(out, "/data") {
		t.Errorf("Expected dataset_dir in output, got:\n%s", data)
	}
}
