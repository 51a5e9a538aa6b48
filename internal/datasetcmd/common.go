// Package datasetcmd implements the roofprep dataset subcommands. Each
// NewXxxCmd constructor binds flags and hands off to an executeXxx function
// that does the work and can be driven directly from tests.
package datasetcmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/roofprep/internal/config"
	"github.com/lehigh-university-libraries/roofprep/internal/dataset"
	"github.com/lehigh-university-libraries/roofprep/internal/logging"
	"github.com/lehigh-university-libraries/roofprep/internal/metrics"
	"github.com/lehigh-university-libraries/roofprep/internal/roof"
	"github.com/lehigh-university-libraries/roofprep/internal/summary"
)

// Skip reasons reported in summaries and metrics.
const (
	reasonNoCity            = "no_city"
	reasonBadCoordinates    = "bad_coordinates"
	reasonCityNotFound      = "city_not_found"
	reasonNoMaterialList    = "no_material_list"
	reasonDestinationExists = "destination_exists"
)

// Globals holds the persistent flags shared by every subcommand.
type Globals struct {
	ConfigPath  string
	Verbose     bool
	LogFormat   string
	SummaryYAML string
	MetricsFile string
}

// Setup loads the configuration, applies global flag overrides and installs
// the process logger.
func (g *Globals) Setup() (*config.Config, error) {
	cfg, path, exists, err := config.Load(g.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	format := cfg.Logging.Format
	if g.LogFormat != "" {
		format = g.LogFormat
	}
	if err := logging.Setup(logging.Options{Level: cfg.Logging.Level, Format: format, Verbose: g.Verbose}); err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}

	if exists {
		slog.Debug("Loaded config", "path", path)
	} else {
		slog.Debug("No config file found, using defaults", "path", path)
	}

	if err := overridePath(&cfg.Outputs.SummaryYAML, g.SummaryYAML); err != nil {
		return nil, err
	}
	if err := overridePath(&cfg.Outputs.MetricsFile, g.MetricsFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overridePath replaces *dst with the expanded flag value when one was given.
func overridePath(dst *string, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	expanded, err := config.ExpandPath(value)
	if err != nil {
		return fmt.Errorf("failed to resolve %q: %w", value, err)
	}
	*dst = expanded
	return nil
}

// splitList parses a comma separated --splits value.
func splitList(value string) []string {
	var splits []string
	for _, s := range strings.Split(value, ",") {
		if s = strings.TrimSpace(s); s != "" {
			splits = append(splits, s)
		}
	}
	return splits
}

// newWalker builds a dataset walker; no splits means a flat layout and no
// extensions keeps the walker defaults.
func newWalker(root string, splits, extensions []string) *dataset.Walker {
	opts := []dataset.Option{dataset.WithSplits(splits...)}
	if len(extensions) > 0 {
		opts = append(opts, dataset.WithExtensions(extensions...))
	}
	return dataset.NewWalker(root, opts...)
}

// tally counts one run into both the summary and the metrics recorder.
type tally struct {
	run     *summary.Run
	metrics *metrics.Recorder
}

func newTally(command, datasetDir string) *tally {
	return &tally{
		run:     summary.New(command, datasetDir),
		metrics: metrics.New(command),
	}
}

func (t *tally) scanned() {
	t.run.Scanned++
}

func (t *tally) written(m roof.Material) {
	t.run.Written++
	t.metrics.Processed(m.String())
}

func (t *tally) moved(m roof.Material) {
	t.run.Moved++
	t.metrics.Moved(m.String())
}

func (t *tally) skip(reason string) {
	t.run.Skip(reason)
	t.metrics.Skipped(reason)
}

// finish stamps the run, writes the optional artifacts and prints the
// summary to out.
func (t *tally) finish(out io.Writer, outputs config.Outputs) error {
	t.run.Finish()
	t.metrics.Finish(t.run.Duration)

	if outputs.SummaryYAML != "" {
		if err := t.run.SaveYAML(outputs.SummaryYAML); err != nil {
			return err
		}
		slog.Debug("Wrote run summary", "path", outputs.SummaryYAML)
	}
	if outputs.MetricsFile != "" {
		if err := t.metrics.WriteTextfile(outputs.MetricsFile); err != nil {
			return err
		}
		slog.Debug("Wrote metrics", "path", outputs.MetricsFile)
	}

	t.run.Print(out)
	return nil
}
