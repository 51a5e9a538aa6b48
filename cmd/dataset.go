package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/roofprep/internal/datasetcmd"
)

func newDatasetCmd(globals *datasetcmd.Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Roof material dataset tools",
		Long: `Tools for preparing the roof material dataset.

Generates CLIP-style prompt manifests and geocoded metadata manifests from image
filenames, verifies material classes against per-city allow-lists, and restores
images moved by a verify run.`,
	}

	cmd.PersistentFlags().StringVar(&globals.SummaryYAML, "summary_yaml", "", "Write the run summary to this YAML file")
	cmd.PersistentFlags().StringVar(&globals.MetricsFile, "metrics_file", "", "Write run metrics in Prometheus textfile format")

	// Add dataset subcommands
	cmd.AddCommand(datasetcmd.NewPromptsCmd(globals))
	cmd.AddCommand(datasetcmd.NewMetadataCmd(globals))
	cmd.AddCommand(datasetcmd.NewVerifyCmd(globals))
	cmd.AddCommand(datasetcmd.NewRestoreCmd(globals))
	cmd.AddCommand(datasetcmd.NewInspectCmd(globals))
	cmd.AddCommand(datasetcmd.NewReportCmd(globals))

	return cmd
}
