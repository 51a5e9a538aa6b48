package reassess

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"
)

// RestoreReport counts the outcome of undoing a run.
type RestoreReport struct {
	RunID     string
	Restored  int
	Missing   int
	Conflicts int
	// ByMaterial counts restored files per material class.
	ByMaterial map[string]int
}

// Restore moves every pending entry of runID back to its source and marks
// it restored. Entries whose reassess copy is gone are counted as missing;
// entries whose source path is occupied are left alone as conflicts.
func Restore(ctx context.Context, j *Journal, runID string, dryRun bool) (RestoreReport, error) {
	report := RestoreReport{RunID: runID, ByMaterial: map[string]int{}}

	entries, err := j.Entries(ctx, runID, true)
	if err != nil {
		return report, err
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if _, err := os.Stat(e.Destination); errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Reassessed file no longer exists", "path", e.Destination)
			report.Missing++
			continue
		}

		if dryRun {
			slog.Info("Would restore", "from", e.Destination, "to", e.Source)
			report.Restored++
			report.ByMaterial[e.Material]++
			continue
		}

		if err := relocate(e.Destination, e.Source); err != nil {
			if errors.Is(err, ErrDestinationExists) {
				slog.Warn("Original path is occupied, leaving file in reassess", "path", e.Source)
				report.Conflicts++
				continue
			}
			return report, err
		}
		if err := j.MarkRestored(ctx, e.ID, time.Now()); err != nil {
			return report, err
		}
		slog.Info("Restored", "file", e.Source, "material", e.Material, "city", e.CityKey)
		report.Restored++
		report.ByMaterial[e.Material]++
	}

	return report, nil
}
