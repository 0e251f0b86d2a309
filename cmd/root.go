package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/food3d/curator/internal/curatecmd"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "food3d",
		Short: "Curate paired RGB/depth captures into training archives",
		Long: `food3d is a toolkit for curating Food3D RGB/depth captures.

Browse the captures class by class, move bad pairs to a trash folder, snapshot
frames, and consolidate what is left into shuffled train/val archives.

Settings are read from flags, FOOD3D_* environment variables (a .env file is
loaded if present), food3d.yaml, and built-in defaults, in that order.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			slog.SetDefault(curatecmd.NewLogger(os.Stderr, verbose))
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")
	cmd.PersistentFlags().String("config", "", "Config file (default ./food3d.yaml if present)")
	cmd.PersistentFlags().String("log-file", "food3d.log", "Log file used while the browser is open")

	// Add subcommands
	cmd.AddCommand(curatecmd.NewBrowseCmd())
	cmd.AddCommand(curatecmd.NewBuildCmd())
	cmd.AddCommand(curatecmd.NewSampleCmd())
	cmd.AddCommand(curatecmd.NewConvertCmd())
	cmd.AddCommand(curatecmd.NewStatsCmd())

	return cmd
}
