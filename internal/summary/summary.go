// Package summary tracks the outcome of a command run and reports it as a
// terminal summary or a YAML file.
package summary

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/roofprep/internal/manifest"
)

// Run is the record of one command execution.
type Run struct {
	ID         string          `yaml:"id"`
	Command    string          `yaml:"command"`
	DatasetDir string          `yaml:"datasetdir"`
	Output     string          `yaml:"output,omitempty"`
	Started    time.Time       `yaml:"started"`
	Duration   time.Duration   `yaml:"duration"`
	DryRun     bool            `yaml:"dryrun,omitempty"`
	Scanned    int             `yaml:"scanned"`
	Written    int             `yaml:"written"`
	Moved      int             `yaml:"moved,omitempty"`
	Skipped    map[string]int  `yaml:"skipped,omitempty"`
	Stats      *manifest.Stats `yaml:"stats,omitempty"`
}

// New starts a run with a fresh id.
func New(command, datasetDir string) *Run {
	return &Run{
		ID:         uuid.NewString(),
		Command:    command,
		DatasetDir: datasetDir,
		Started:    time.Now(),
		Skipped:    map[string]int{},
	}
}

// Skip counts one skipped image under reason.
func (r *Run) Skip(reason string) {
	if r.Skipped == nil {
		r.Skipped = map[string]int{}
	}
	r.Skipped[reason]++
}

// SkippedTotal is the number of skipped images across all reasons.
func (r *Run) SkippedTotal() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

// Finish stamps the run duration.
func (r *Run) Finish() {
	r.Duration = time.Since(r.Started).Round(time.Millisecond)
}

// SkipReasons returns the skip reasons in sorted order.
func (r *Run) SkipReasons() []string {
	return slices.Sorted(maps.Keys(r.Skipped))
}

// SaveYAML writes the run to path.
func (r *Run) SaveYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create summary directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

// LoadYAML reads a run written by SaveYAML.
func LoadYAML(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read summary: %w", err)
	}
	var r Run
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse summary: %w", err)
	}
	return &r, nil
}
