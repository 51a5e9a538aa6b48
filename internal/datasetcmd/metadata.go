package datasetcmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/roofprep/internal/config"
	"github.com/lehigh-university-libraries/roofprep/internal/dataset"
	"github.com/lehigh-university-libraries/roofprep/internal/filemeta"
	"github.com/lehigh-university-libraries/roofprep/internal/geocode"
	"github.com/lehigh-university-libraries/roofprep/internal/manifest"
)

// Edit distance and count used when suggesting reference keys for a city
// that failed to resolve.
const (
	suggestMaxDistance = 2
	suggestLimit       = 3
)

type metadataOptions struct {
	DatasetDir string
	CityCSV    string
	OutputPath string
	Splits     []string
	Extensions []string
}

// NewMetadataCmd creates the metadata command
func NewMetadataCmd(g *Globals) *cobra.Command {
	var (
		datasetDir string
		cityCSV    string
		outputCSV  string
		splits     string
	)

	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Write the per-image metadata manifest with geocoded cities",
		Long: `Walk the train and val splits and build one record per image: the city
from the filename, its coordinates, country and continent from the reference
city CSV, and any height, story count, roof shape or footprint area tokens
carried in the filename.

Filenames with an imsat coordinate are matched to the nearest reference
city. A coordinate more than 150 miles from every reference city is
distrusted and the city's table coordinates, or the nearest city, are used.

The manifest defaults to roof_materials_augmented_all.csv in the dataset
directory. An output path ending in .parquet writes Parquet.`,
		Example: `  roofprep dataset metadata --dataset_dir ./RoofClassificationData_VLM \
    --city_csv ./city_coordinates.csv

  # Parquet output with a run summary
  roofprep dataset metadata --output_csv ./roofs.parquet --summary_yaml ./metadata-run.yaml`,
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
			if err := overridePath(&cfg.Paths.OutputCSV, outputCSV); err != nil {
				return err
			}

			opts := metadataOptions{
				DatasetDir: cfg.Paths.DatasetDir,
				CityCSV:    cfg.Paths.CityCSV,
				OutputPath: cfg.MetadataOutput(),
				Splits:     cfg.Dataset.Splits,
				Extensions: cfg.Dataset.Extensions,
			}
			if cmd.Flags().Changed("splits") {
				opts.Splits = splitList(splits)
			}

			t := newTally("metadata", opts.DatasetDir)
			t.run.Output = opts.OutputPath
			if err := executeMetadata(cmd.Context(), opts, t); err != nil {
				return err
			}
			return t.finish(cmd.OutOrStdout(), cfg.Outputs)
		},
	}

	cmd.Flags().StringVar(&datasetDir, "dataset_dir", "", "Dataset root with split subfolders (defaults to paths.dataset_dir)")
	cmd.Flags().StringVar(&cityCSV, "city_csv", "", "Reference CSV with City, Continent, Country, Latitude, Longitude (defaults to paths.city_csv)")
	cmd.Flags().StringVar(&outputCSV, "output_csv", "", "Manifest to write, .csv or .parquet (defaults to {dataset_dir}/"+config.DefaultMetadataName+")")
	cmd.Flags().StringVar(&splits, "splits", "", "Comma separated split folders (defaults to dataset.splits)")

	return cmd
}

func executeMetadata(ctx context.Context, opts metadataOptions, t *tally) error {
	if opts.DatasetDir == "" {
		return fmt.Errorf("--dataset_dir is required")
	}
	if opts.CityCSV == "" {
		return fmt.Errorf("--city_csv is required")
	}
	if opts.OutputPath == "" {
		opts.OutputPath = filepath.Join(opts.DatasetDir, config.DefaultMetadataName)
	}

	gazetteer, err := geocode.Load(opts.CityCSV)
	if err != nil {
		return err
	}
	slog.Info("Loaded reference cities", "path", opts.CityCSV, "cities", gazetteer.Len())

	walker := newWalker(opts.DatasetDir, opts.Splits, opts.Extensions)

	var records []manifest.Record
	stats, err := walker.Walk(ctx, func(img dataset.Image) error {
		t.scanned()
		if rec, reason := buildRecord(gazetteer, img); reason != "" {
			t.skip(reason)
		} else {
			records = append(records, rec)
			t.written(img.Material)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk dataset: %w", err)
	}
	for _, missing := range stats.MissingMaterials {
		slog.Warn("Folder not found", "path", filepath.Join(opts.DatasetDir, missing))
	}

	summary := manifest.Summarize(records)
	t.run.Stats = &summary

	if err := manifest.WriteRecords(opts.OutputPath, records); err != nil {
		return err
	}
	slog.Info("Combined metadata CSV saved", "path", opts.OutputPath, "records", len(records))
	return nil
}

// buildRecord geocodes one image. A non-empty reason means the image is
// skipped.
func buildRecord(gazetteer *geocode.Gazetteer, img dataset.Image) (manifest.Record, string) {
	name, err := filemeta.Parse(img.Name)
	if err != nil {
		slog.Warn("Could not parse city name from filename", "file", img.Path)
		return manifest.Record{}, reasonNoCity
	}
	if name.InlineErr != nil {
		slog.Warn("Failed to parse lat/lon from filename", "file", img.Path, "error", name.InlineErr)
		return manifest.Record{}, reasonBadCoordinates
	}

	res, err := gazetteer.Resolve(name.CityKey, name.Inline)
	if err != nil {
		attrs := []any{"city", name.CityKey, "file", img.Path}
		if suggestions := gazetteer.Suggest(name.CityKey, suggestMaxDistance, suggestLimit); len(suggestions) > 0 {
			attrs = append(attrs, "did_you_mean", suggestions)
		}
		if !errors.Is(err, geocode.ErrUnresolved) {
			attrs = append(attrs, "error", err)
		}
		slog.Warn("No lat/lon found for city", attrs...)
		return manifest.Record{}, reasonCityNotFound
	}

	switch res.Method {
	case geocode.MethodNearest:
		slog.Info("No city match in filename. Using closest city",
			"file", img.Name, "closest", res.CityKey, "miles", fmt.Sprintf("%.1f", res.NearestMiles))
	case geocode.MethodExactOverride:
		slog.Debug("Inline coordinate far from reference city, using table coordinates",
			"file", img.Name, "city", res.CityKey, "nearest", res.NearestKey, "miles", fmt.Sprintf("%.1f", res.NearestMiles))
	}
	if res.Continent == geocode.UnknownValue {
		slog.Warn("No continent found for city_key", "city", res.CityKey, "file", img.Name)
	}

	attrs := filemeta.ParseAttributes(name.Stem).ForMaterial(img.Material)
	return manifest.Record{
		Image:         filepath.ToSlash(img.RelPath),
		Split:         img.Split,
		City:          res.CityKey,
		Latitude:      res.Point.Lat,
		Longitude:     res.Point.Lon,
		MaterialClass: img.Material.String(),
		Country:       res.Country,
		Continent:     res.Continent,
		Filename:      img.Name,
		Height:        attrs.Height,
		NumStories:    attrs.NumStories,
		RoofShape:     attrs.RoofShape,
		FootprintArea: attrs.FootprintArea,
	}, ""
}
