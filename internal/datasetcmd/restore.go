package datasetcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/roofprep/internal/reassess"
	"github.com/lehigh-university-libraries/roofprep/internal/roof"
	"github.com/lehigh-university-libraries/roofprep/internal/summary"
)

const (
	reasonMissing        = "missing_in_reassess"
	reasonSourceOccupied = "source_occupied"
)

type restoreOptions struct {
	DatasetDir  string
	JournalPath string
	RunID       string
	DryRun      bool
}

// NewRestoreCmd creates the restore command
func NewRestoreCmd(g *Globals) *cobra.Command {
	var (
		datasetDir string
		journal    string
		runID      string
		dryRun     bool
		list       bool
	)

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Move the files of a verify run back out of reassess/",
		Long: `Undo a verify run using its move journal. Without --run the most recent
run is restored. Files that were removed from reassess are reported as
missing; files whose original path is taken again are left where they are.

--list prints the journaled runs instead of restoring.`,
		Example: `  roofprep dataset restore --dataset_dir ./train
  roofprep dataset restore --dataset_dir ./train --list
  roofprep dataset restore --dataset_dir ./train --run 5f0c9a3e-... --dry_run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.Setup()
			if err != nil {
				return err
			}
			if err := overridePath(&cfg.Paths.DatasetDir, datasetDir); err != nil {
				return err
			}
			if err := overridePath(&cfg.Paths.Journal, journal); err != nil {
				return err
			}

			opts := restoreOptions{
				DatasetDir:  cfg.Paths.DatasetDir,
				JournalPath: cfg.JournalPath(),
				RunID:       runID,
				DryRun:      dryRun,
			}
			if list {
				return executeListRuns(cmd.Context(), cmd.OutOrStdout(), opts.JournalPath)
			}

			t := newTally("restore", opts.DatasetDir)
			if err := executeRestore(cmd.Context(), opts, t); err != nil {
				return err
			}
			return t.finish(cmd.OutOrStdout(), cfg.Outputs)
		},
	}

	cmd.Flags().StringVar(&datasetDir, "dataset_dir", "", "Dataset folder the run verified (defaults to paths.dataset_dir)")
	cmd.Flags().StringVar(&journal, "journal", "", "Move journal database (defaults to {dataset_dir}/.roofprep_journal.db)")
	cmd.Flags().StringVar(&runID, "run", "", "Run id to restore (defaults to the latest run)")
	cmd.Flags().BoolVar(&dryRun, "dry_run", false, "Report what would be restored without moving files")
	cmd.Flags().BoolVar(&list, "list", false, "List journaled runs and exit")

	return cmd
}

func executeRestore(ctx context.Context, opts restoreOptions, t *tally) error {
	if opts.JournalPath == "" {
		return fmt.Errorf("--dataset_dir or --journal is required")
	}
	t.run.DryRun = opts.DryRun

	if !opts.DryRun && opts.DatasetDir != "" {
		lock, err := reassess.AcquireLock(opts.DatasetDir)
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				slog.Warn("Failed to release dataset lock", "error", err)
			}
		}()
	}

	journal, err := reassess.OpenJournal(ctx, opts.JournalPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	runID := opts.RunID
	if runID == "" {
		if runID, err = journal.LatestRun(ctx); err != nil {
			if errors.Is(err, reassess.ErrNoRuns) {
				return fmt.Errorf("nothing to restore: %w", err)
			}
			return err
		}
	}
	slog.Info("Restoring run", "run", runID, "journal", journal.Path())

	report, err := reassess.Restore(ctx, journal, runID, opts.DryRun)
	if err != nil {
		return fmt.Errorf("failed to restore run %s: %w", runID, err)
	}

	for material, n := range report.ByMaterial {
		m, ok := roof.Parse(material)
		if !ok {
			t.run.Moved += n
			continue
		}
		for range n {
			t.moved(m)
		}
	}
	for range report.Missing {
		t.skip(reasonMissing)
	}
	for range report.Conflicts {
		t.skip(reasonSourceOccupied)
	}
	t.run.Scanned = report.Restored + report.Missing + report.Conflicts
	return nil
}

func executeListRuns(ctx context.Context, out io.Writer, journalPath string) error {
	if journalPath == "" {
		return fmt.Errorf("--dataset_dir or --journal is required")
	}
	journal, err := reassess.OpenJournal(ctx, journalPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	runs, err := journal.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded in", journalPath)
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.RunID,
			r.Started.Local().Format(time.DateTime),
			strconv.Itoa(r.Moves),
			strconv.Itoa(r.Restored),
		})
	}
	fmt.Fprintln(out, summary.RenderTable(
		[]string{"Run", "Started", "Moved", "Restored"},
		rows,
		[]summary.Align{summary.AlignLeft, summary.AlignLeft, summary.AlignRight, summary.AlignRight},
	))
	return nil
}
