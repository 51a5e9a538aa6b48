package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/roofprep/internal/datasetcmd"
)

func NewRootCmd() *cobra.Command {
	globals := &datasetcmd.Globals{}

	cmd := &cobra.Command{
		Use:   "roofprep",
		Short: "Roof material dataset preparation for vision-language training",
		Long: `Roofprep prepares a roof-material image dataset for vision-language model training.

It reads city, coordinate and building attributes from image filenames, geocodes
them against a reference city table, writes prompt and metadata manifests, and
moves images whose material is not expected for their city into reassess folders
for manual review.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVar(&globals.ConfigPath, "config", "", "Config file (defaults to ./roofprep.toml or ~/.config/roofprep/config.toml)")
	cmd.PersistentFlags().BoolVarP(&globals.Verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&globals.LogFormat, "log_format", "", "Log format: auto, text or json (defaults to logging.format)")

	// Add subcommands
	cmd.AddCommand(newDatasetCmd(globals))
	cmd.AddCommand(newConfigCmd(globals))

	return cmd
}
