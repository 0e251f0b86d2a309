package curatecmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/food3d/curator/internal/builder"
	"github.com/food3d/curator/internal/config"
)

// NewSampleCmd creates the sample command
func NewSampleCmd() *cobra.Command {
	var dataRoot string
	var outDir string
	var seed int64
	var width int

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write one random RGB frame per class as JPEG",
		Long: `Pick one random record pair from every class and write its RGB frame to
<out>/<class>.jpg. Useful for a quick visual overview of the dataset.`,
		Example: `  # One picture per class in ./samples
  food3d sample --out ./samples

  # Thumbnails at most 320 pixels wide
  food3d sample --out ./samples --width 320`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if flagSet(cmd, "data") {
				cfg.DataRoot = dataRoot
			}
			if flagSet(cmd, "seed") {
				cfg.Seed = seed
			}
			return executeSample(cfg, outDir, width, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&dataRoot, "data", config.DefaultDataRoot, "Dataset root containing one directory per class")
	cmd.Flags().StringVar(&outDir, "out", "samples", "Directory the sample images are written to")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 derives one from the clock)")
	cmd.Flags().IntVar(&width, "width", 0, "Downscale images wider than this (0 keeps full size)")

	return cmd
}

func executeSample(cfg config.Config, outDir string, width int, out io.Writer) error {
	res, err := builder.Sample(cfg.DataRoot, outDir, cfg.Seed, width)
	if err != nil {
		return fmt.Errorf("sample failed: %w", err)
	}

	fmt.Fprintf(out, "Wrote %d samples to %s (seed %d)\n", len(res.Written), outDir, res.Seed)
	for _, name := range res.Empty {
		fmt.Fprintf(out, "  %s: no record pairs\n", name)
	}

	failed := make([]string, 0, len(res.Failed))
	for name := range res.Failed {
		failed = append(failed, name)
	}
	sort.Strings(failed)
	for _, name := range failed {
		fmt.Fprintf(out, "  %s: %s\n", name, res.Failed[name])
	}
	return nil
}
