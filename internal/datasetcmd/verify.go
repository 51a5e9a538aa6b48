package datasetcmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/roofprep/internal/dataset"
	"github.com/lehigh-university-libraries/roofprep/internal/geocode"
	"github.com/lehigh-university-libraries/roofprep/internal/reassess"
)

type verifyOptions struct {
	DatasetDir  string
	CityCSV     string
	JournalPath string
	DryRun      bool
	// Splits is empty for the usual flat {root}/{Material} layout.
	Splits     []string
	Extensions []string
}

// NewVerifyCmd creates the verify command
func NewVerifyCmd(g *Globals) *cobra.Command {
	var (
		datasetDir string
		cityCSV    string
		journal    string
		splits     string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Move images whose material is not listed for their city into reassess/",
		Long: `Check every image against the "Roof Materials" list of its city in the
reference CSV. Images whose material folder is not in that list are moved
into a reassess folder inside the material folder for manual review.

Cities without a list, and filenames without a city, are logged and left
in place. Existing files in reassess are never overwritten.

Every move is recorded in a journal under a run id so that
"roofprep dataset restore" can put the files back. --dry_run only reports
what would move.`,
		Example: `  # See what would move
  roofprep dataset verify --dataset_dir ./train --city_csv ./city_materials.csv --dry_run

  # Move, then undo the run
  roofprep dataset verify --dataset_dir ./train --city_csv ./city_materials.csv
  roofprep dataset restore --dataset_dir ./train`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.Setup()
			if err != nil {
				return err
			}
			if err := overridePath(&cfg.Paths.DatasetDir, datasetDir); err != nil {
				return err
			}
			if err := overridePath(&cfg.Paths.CityCSV, cityCSV); err != nil {
				return err
			}
			if err := overridePath(&cfg.Paths.Journal, journal); err != nil {
				return err
			}

			opts := verifyOptions{
				DatasetDir:  cfg.Paths.DatasetDir,
				CityCSV:     cfg.Paths.CityCSV,
				JournalPath: cfg.JournalPath(),
				DryRun:      dryRun,
				Splits:      splitList(splits),
				Extensions:  cfg.Dataset.Extensions,
			}

			t := newTally("verify", opts.DatasetDir)
			if err := executeVerify(cmd.Context(), opts, t); err != nil {
				return err
			}
			return t.finish(cmd.OutOrStdout(), cfg.Outputs)
		},
	}

	cmd.Flags().StringVar(&datasetDir, "dataset_dir", "", "Folder holding the material class folders (defaults to paths.dataset_dir)")
	cmd.Flags().StringVar(&cityCSV, "city_csv", "", "Reference CSV with City and Roof Materials columns (defaults to paths.city_csv)")
	cmd.Flags().StringVar(&journal, "journal", "", "Move journal database (defaults to {dataset_dir}/.roofprep_journal.db)")
	cmd.Flags().StringVar(&splits, "splits", "", "Comma separated split folders to verify instead of a flat layout")
	cmd.Flags().BoolVar(&dryRun, "dry_run", false, "Report moves without touching any file")

	return cmd
}

func executeVerify(ctx context.Context, opts verifyOptions, t *tally) error {
	if opts.DatasetDir == "" {
		return fmt.Errorf("--dataset_dir is required")
	}
	if opts.CityCSV == "" {
		return fmt.Errorf("--city_csv is required")
	}
	t.run.DryRun = opts.DryRun

	gazetteer, err := geocode.Load(opts.CityCSV)
	if err != nil {
		return err
	}

	mover := &reassess.Mover{DryRun: opts.DryRun, RunID: t.run.ID}
	if !opts.DryRun {
		lock, err := reassess.AcquireLock(opts.DatasetDir)
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				slog.Warn("Failed to release dataset lock", "error", err)
			}
		}()

		journal, err := reassess.OpenJournal(ctx, opts.JournalPath)
		if err != nil {
			return err
		}
		defer journal.Close()
		mover.Journal = journal
		slog.Debug("Journaling moves", "path", journal.Path(), "run", t.run.ID)
	}

	walker := newWalker(opts.DatasetDir, opts.Splits, opts.Extensions)
	_, err = walker.Walk(ctx, func(img dataset.Image) error {
		t.scanned()

		d := reassess.Check(gazetteer, img.Name, img.Material)
		switch d.Verdict {
		case reassess.VerdictNoCity:
			slog.Warn("Could not parse city name from filename", "file", img.Path)
			t.skip(reasonNoCity)
		case reassess.VerdictNoList:
			slog.Warn("No material list found for city", "city", d.CityKey, "file", img.Name)
			t.skip(reasonNoMaterialList)
		case reassess.VerdictDisallowed:
			err := mover.Apply(ctx, reassess.Plan(img.Path, d.CityKey, img.Material))
			if errors.Is(err, reassess.ErrDestinationExists) {
				slog.Warn("Already in reassess, leaving in place", "file", img.Path)
				t.skip(reasonDestinationExists)
				return nil
			}
			if err != nil {
				return err
			}
			t.moved(img.Material)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to verify dataset: %w", err)
	}

	slog.Info("Verification complete", "scanned", t.run.Scanned, "moved", t.run.Moved, "dry_run", opts.DryRun)
	return nil
}
