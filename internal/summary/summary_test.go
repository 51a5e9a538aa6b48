package summary

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/roofprep/internal/manifest"
)

func TestRunSkipAndSave(t *testing.T) {
	r := New("metadata", "/data/roofnet")
	r.Scanned = 5
	r.Written = 3
	r.Skip("no_city")
	r.Skip("no_city")
	r.Skip("bad_coordinates")
	r.Stats = &manifest.Stats{Total: 3}
	r.Finish()

	if r.ID == "" {
		t.Error("Expected a run id")
	}
	if r.SkippedTotal() != 3 {
		t.Errorf("Expected 3 skipped, got %d", r.SkippedTotal())
	}
	if got := strings.Join(r.SkipReasons(), ","); got != "bad_coordinates,no_city" {
		t.Errorf("Unexpected skip reasons: %s", got)
	}

	path := filepath.Join(t.TempDir(), "runs", "summary.yaml")
	if err := r.SaveYAML(path); err != nil {
		t.Fatalf("SaveYAML failed: %v", err)
	}
	loaded, err := LoadYAML(path)
	if err != nil {
		t.Fatalf("LoadYAML failed: %v", err)
	}
	if loaded.ID != r.ID || loaded.Command != "metadata" || loaded.Skipped["no_city"] != 2 {
		t.Errorf("Unexpected loaded run: %+v", loaded)
	}
	if loaded.Stats == nil || loaded.Stats.Total != 3 {
		t.Errorf("Expected stats to survive, got %+v", loaded.Stats)
	}
}

func TestPrint(t *testing.T) {
	r := New("verify", "/data")
	r.DryRun = true
	r.Skip("city_not_in_table")

	var buf bytes.Buffer
	r.Print(&buf)
	out := buf.String()

	for _, want := range []string{"ROOFPREP VERIFY SUMMARY", "dry run", "Moved:", "city_not_in_table"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestPrintStats(t *testing.T) {
	s := manifest.Stats{
		Total:        4,
		Availability: []manifest.Availability{{Column: "height", Count: 1, Percent: 25}},
		ByMaterial:   []manifest.Count{{Key: "Thatch", Count: 4}},
	}

	var buf bytes.Buffer
	PrintStats(&buf, s)
	out := buf.String()

	for _, want := range []string{"Total records: 4", "1/4", "25.00%", "Thatch", "Continent"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderTablePadsRows(t *testing.T) {
	out := RenderTable([]string{"A", "B"}, [][]string{{"only"}}, nil)
	if !strings.Contains(out, "only") {
		t.Errorf("Expected row content, got:\n%s", out)
	}
	if RenderTable(nil, nil, nil) != "" {
		t.Error("Expected empty output without headers")
	}
}
