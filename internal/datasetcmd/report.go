package datasetcmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/roofprep/internal/manifest"
	"github.com/lehigh-university-libraries/roofprep/internal/summary"
)

// NewReportCmd creates the report command
func NewReportCmd(g *Globals) *cobra.Command {
	var (
		manifestPath string
		format       string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize an existing metadata manifest",
		Long: `Load a metadata manifest written by "roofprep dataset metadata" (CSV or
Parquet) and report record counts per split, material class and continent,
plus how many records carry each optional attribute.`,
		Example: `  roofprep dataset report --manifest ./roof_materials_augmented_all.csv
  roofprep dataset report --manifest ./roofs.parquet --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := g.Setup(); err != nil {
				return err
			}
			return executeReport(cmd.OutOrStdout(), manifestPath, format)
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Metadata manifest, .csv or .parquet (required)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, csv)")

	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}

func executeReport(out io.Writer, manifestPath, format string) error {
	records, err := manifest.ReadRecords(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}
	stats := manifest.Summarize(records)

	switch format {
	case "text":
		fmt.Fprintf(out, "Manifest: %s\n\n", manifestPath)
		summary.PrintStats(out, stats)
		return nil
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(stats)
	case "csv":
		return printCSVReport(out, stats)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// printCSVReport writes one group,key,count,percent row per statistic.
func printCSVReport(out io.Writer, stats manifest.Stats) error {
	writer := csv.NewWriter(out)

	if err := writer.Write([]string{"group", "key", "count", "percent"}); err != nil {
		return err
	}
	if err := writer.Write([]string{"total", "records", strconv.Itoa(stats.Total), ""}); err != nil {
		return err
	}
	for _, a := range stats.Availability {
		row := []string{"availability", a.Column, strconv.Itoa(a.Count), strconv.FormatFloat(a.Percent, 'f', 2, 64)}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	for _, group := range []struct {
		name   string
		counts []manifest.Count
	}{
		{"split", stats.BySplit},
		{"material", stats.ByMaterial},
		{"continent", stats.ByContinent},
	} {
		for _, c := range group.counts {
			if err := writer.Write([]string{group.name, c.Key, strconv.Itoa(c.Count), ""}); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}
