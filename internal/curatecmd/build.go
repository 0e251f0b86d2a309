package curatecmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/food3d/curator/internal/archive"
	"github.com/food3d/curator/internal/builder"
	"github.com/food3d/curator/internal/config"
)

// NewBuildCmd creates the build command that writes train/val archives
func NewBuildCmd() *cobra.Command {
	var dataRoot string
	var target string
	var factor int
	var ratio float64
	var seed int64
	var workers int
	var format string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build shuffled train/val archives from the curated data",
		Long: `Assign every class to train or val, shuffle the pairs of each split,
downsample them and write <target>-train.h5 and <target>-val.h5.

Each class is drawn independently: it goes to train when a uniform draw is
below --split, so the fraction of train classes only matches --split on
average. Pairs that fail to load are skipped and listed in the manifest
<target>-manifest.yaml together with the seed used.`,
		Example: `  # Build with defaults (70/30 split, full resolution)
  food3d build --target ./out/food3d

  # Halve the resolution and reproduce an earlier split
  food3d build --target ./out/food3d --factor 2 --seed 1718000000

  # Parquet output with parallel loading
  food3d build --target ./out/food3d --format parquet --workers 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if flagSet(cmd, "data") {
				cfg.DataRoot = dataRoot
			}
			if flagSet(cmd, "target") {
				cfg.Target = target
			}
			if flagSet(cmd, "factor") {
				cfg.Downsample = factor
			}
			if flagSet(cmd, "split") {
				cfg.SplitRatio = ratio
			}
			if flagSet(cmd, "seed") {
				cfg.Seed = seed
			}
			if flagSet(cmd, "workers") {
				cfg.Workers = workers
			}
			if flagSet(cmd, "format") {
				f, err := archive.ParseFormat(format)
				if err != nil {
					return err
				}
				cfg.Format = f
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return executeBuild(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&dataRoot, "data", config.DefaultDataRoot, "Dataset root containing one directory per class")
	cmd.Flags().StringVar(&target, "target", config.DefaultTarget, "Output prefix; archives are <target>-train and <target>-val")
	cmd.Flags().IntVar(&factor, "factor", config.DefaultDownsample, "Keep every n-th pixel along each axis")
	cmd.Flags().Float64Var(&ratio, "split", config.DefaultSplitRatio, "Probability that a class goes to train")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 derives one from the clock)")
	cmd.Flags().IntVar(&workers, "workers", 1, "Pairs loaded in parallel")
	cmd.Flags().StringVar(&format, "format", string(archive.FormatHDF5), "Archive format: hdf5 or parquet")

	return cmd
}

func executeBuild(ctx context.Context, cfg config.Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := builder.Build(ctx, builder.Options{
		Root:         cfg.DataRoot,
		TargetPrefix: cfg.Target,
		Downsample:   cfg.Downsample,
		SplitRatio:   cfg.SplitRatio,
		Seed:         cfg.Seed,
		Workers:      cfg.Workers,
		Format:       cfg.Format,
	})
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	fmt.Fprintf(out, "\nBuild complete (seed %d)\n", res.Seed)
	for _, sr := range []*builder.SplitResult{res.Train, res.Val} {
		fmt.Fprintf(out, "  %-5s %5d samples, %d skipped -> %s\n", sr.Name, sr.Samples, len(sr.Skipped), sr.Output)
	}
	fmt.Fprintf(out, "  manifest -> %s\n", res.Manifest)
	return nil
}
