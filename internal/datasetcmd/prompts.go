package datasetcmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/roofprep/internal/config"
	"github.com/lehigh-university-libraries/roofprep/internal/dataset"
	"github.com/lehigh-university-libraries/roofprep/internal/filemeta"
	"github.com/lehigh-university-libraries/roofprep/internal/manifest"
)

type promptsOptions struct {
	DatasetDir string
	OutputPath string
	// Subset reads a flat {root}/{Material} folder and omits the split column.
	Subset     bool
	Splits     []string
	Extensions []string
}

// NewPromptsCmd creates the prompts command
func NewPromptsCmd(g *Globals) *cobra.Command {
	var (
		datasetDir string
		outputCSV  string
		splits     string
		subset     bool
	)

	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Write an image/prompt manifest for vision-language training",
		Long: `Walk the dataset and pair every image with a prompt built from its
material class and the city in its filename, e.g.
"thatched roof (dried grasses / straw or palm) in New York".

By default the dataset has train and val split folders and the manifest
carries a split column. With --subset the dataset directory is read as a
flat set of material folders and the split column is left out.

An output path ending in .parquet writes Parquet instead of CSV.`,
		Example: `  # Full dataset with train/val splits
  roofprep dataset prompts --dataset_dir ./RoofClassificationData_VLM \
    --output_csv ./roof_dataset_clip_prompts_all.csv

  # A single flat folder of material classes
  roofprep dataset prompts --subset --dataset_dir ./RoofClassificationData_VLM/train \
    --output_csv ./roof_dataset_clip_prompts_subset.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.Setup()
			if err != nil {
				return err
			}
			if err := overridePath(&cfg.Paths.DatasetDir, datasetDir); err != nil {
				return err
			}
			output, err := config.ExpandPath(outputCSV)
			if err != nil {
				return err
			}

			opts := promptsOptions{
				DatasetDir: cfg.Paths.DatasetDir,
				OutputPath: output,
				Subset:     subset,
				Splits:     cfg.Dataset.Splits,
				Extensions: cfg.Dataset.Extensions,
			}
			if cmd.Flags().Changed("splits") {
				opts.Splits = splitList(splits)
			}

			t := newTally("prompts", opts.DatasetDir)
			t.run.Output = opts.OutputPath
			if err := executePrompts(cmd.Context(), opts, t); err != nil {
				return err
			}
			return t.finish(cmd.OutOrStdout(), cfg.Outputs)
		},
	}

	cmd.Flags().StringVar(&datasetDir, "dataset_dir", "", "Dataset root folder (defaults to paths.dataset_dir)")
	cmd.Flags().StringVar(&outputCSV, "output_csv", "", "Manifest to write, .csv or .parquet (required)")
	cmd.Flags().StringVar(&splits, "splits", "", "Comma separated split folders (defaults to dataset.splits)")
	cmd.Flags().BoolVar(&subset, "subset", false, "Read a flat folder of material classes and omit the split column")

	_ = cmd.MarkFlagRequired("output_csv")

	return cmd
}

func executePrompts(ctx context.Context, opts promptsOptions, t *tally) error {
	if opts.DatasetDir == "" {
		return fmt.Errorf("--dataset_dir is required")
	}

	splits := opts.Splits
	if opts.Subset {
		splits = nil
	}
	walker := newWalker(opts.DatasetDir, splits, opts.Extensions)

	var rows []manifest.PromptRow
	stats, err := walker.Walk(ctx, func(img dataset.Image) error {
		t.scanned()

		name, err := filemeta.Parse(img.Name)
		if err != nil {
			slog.Warn("Could not parse city name from filename", "file", img.Name)
			t.skip(reasonNoCity)
			return nil
		}

		rows = append(rows, manifest.PromptRow{
			Image:  filepath.ToSlash(img.RelPath),
			Prompt: img.Material.Description() + " in " + name.DisplayName(),
			Split:  img.Split,
		})
		t.written(img.Material)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk dataset: %w", err)
	}
	slog.Debug("Walked dataset", "images", stats.Images, "skipped_folders", len(stats.SkippedFolders))

	if err := manifest.WritePrompts(opts.OutputPath, rows, !opts.Subset); err != nil {
		return err
	}
	slog.Info("Dataset CSV saved", "path", opts.OutputPath, "entries", len(rows))
	return nil
}
