// Package builder consolidates a curated dataset into shuffled train and
// validation archives.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/food3d/curator/internal/archive"
	"github.com/food3d/curator/internal/discover"
	"github.com/food3d/curator/internal/manifest"
	"github.com/food3d/curator/internal/record"
)

const DefaultSplitRatio = 0.7

var (
	// ErrEmptySplit is returned when a split ends up without samples
	ErrEmptySplit = errors.New("split has no samples")
	// ErrInvalidOptions is returned for out-of-range build options
	ErrInvalidOptions = errors.New("invalid build options")
)

// Options configures a build
type Options struct {
	Root         string
	TargetPrefix string
	Downsample   int
	SplitRatio   float64
	// Seed 0 picks a time-derived seed; the seed used is reported in Result
	Seed    int64
	Workers int
	Format  archive.Format
}

func (o *Options) validate() error {
	if o.TargetPrefix == "" {
		return fmt.Errorf("%w: target prefix is required", ErrInvalidOptions)
	}
	if o.Downsample < 1 {
		return fmt.Errorf("%w: downsample factor must be >= 1, got %d", ErrInvalidOptions, o.Downsample)
	}
	if o.SplitRatio < 0 || o.SplitRatio > 1 {
		return fmt.Errorf("%w: split ratio must be within [0,1], got %v", ErrInvalidOptions, o.SplitRatio)
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Format == "" {
		o.Format = archive.FormatHDF5
	}
	return nil
}

// SplitResult describes one written archive
type SplitResult struct {
	Name    string
	Output  string
	Samples int
	Skipped []manifest.SkippedPair
	batch   *archive.Batch
}

// Result summarises a finished build
type Result struct {
	Seed     int64
	Plan     *Plan
	Train    *SplitResult
	Val      *SplitResult
	Manifest string
}

// OutputPath names the archive of a split
func OutputPath(prefix, split string, format archive.Format) string {
	return prefix + "-" + split + format.Ext()
}

// removeOutputs deletes the files a previous build with the same prefix
// and format produced, so a failed build never leaves stale archives behind.
func removeOutputs(opts Options) error {
	paths := []string{
		OutputPath(opts.TargetPrefix, SplitTrain, opts.Format),
		OutputPath(opts.TargetPrefix, SplitVal, opts.Format),
		manifest.Path(opts.TargetPrefix),
	}
	for _, p := range paths {
		err := os.Remove(p)
		if err == nil {
			slog.Info("Removed previous output", "path", p)
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove previous output %s: %w", p, err)
		}
	}
	return nil
}

// Build splits the classes under opts.Root, loads and downsamples every
// pair in shuffled order and writes one archive per split plus a manifest.
// Archives and the manifest left by an earlier build under the same prefix
// are removed first. Nothing is written unless both splits have samples.
func Build(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	index, err := discover.Discover(opts.Root)
	if err != nil {
		return nil, err
	}

	seed := ResolveSeed(opts.Seed)
	plan := NewPlan(index, opts.SplitRatio, seed)
	slog.Info("Split classes",
		"seed", seed,
		"ratio", opts.SplitRatio,
		"train_classes", len(plan.Classes(SplitTrain)),
		"train_pairs", len(plan.Train),
		"val_classes", len(plan.Classes(SplitVal)),
		"val_pairs", len(plan.Val))

	if err := removeOutputs(opts); err != nil {
		return nil, err
	}

	for _, split := range []string{SplitTrain, SplitVal} {
		if len(plan.Pairs(split)) == 0 {
			return nil, fmt.Errorf("%w: %s has no pairs (seed %d)", ErrEmptySplit, split, seed)
		}
	}

	result := &Result{Seed: seed, Plan: plan}
	for _, split := range []string{SplitTrain, SplitVal} {
		sr, err := loadSplit(ctx, split, plan.Pairs(split), opts)
		if err != nil {
			return nil, err
		}
		if sr.Samples == 0 {
			return nil, fmt.Errorf("%w: every %s pair failed to load", ErrEmptySplit, split)
		}
		sr.Output = OutputPath(opts.TargetPrefix, split, opts.Format)

		if split == SplitTrain {
			result.Train = sr
		} else {
			result.Val = sr
		}
	}

	for _, sr := range []*SplitResult{result.Train, result.Val} {
		if err := archive.Write(sr.Output, opts.Format, sr.batch); err != nil {
			return nil, err
		}
		slog.Info("Wrote split", "split", sr.Name, "path", sr.Output, "samples", sr.Samples, "skipped", len(sr.Skipped))
	}

	result.Manifest = manifest.Path(opts.TargetPrefix)
	if err := manifest.Save(result.Manifest, newManifest(opts, result)); err != nil {
		return nil, err
	}

	return result, nil
}

type loaded struct {
	rgb   *record.RGB
	depth *record.Depth
	err   error
}

// loadSplit loads pairs concurrently into slots indexed by position, so
// the batch order is the shuffled order regardless of completion order.
func loadSplit(ctx context.Context, split string, pairs []discover.Pair, opts Options) (*SplitResult, error) {
	slots := make([]loaded, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, p := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = loadPair(p, opts.Downsample)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading %s split: %w", split, err)
	}

	sr := &SplitResult{Name: split, batch: &archive.Batch{}}
	for i, p := range pairs {
		s := slots[i]
		err := s.err
		if err == nil {
			err = sr.batch.Append(p.RGBPath, s.rgb, s.depth)
		}
		if err != nil {
			slog.Warn("Skipping record pair", "split", split, "id", p.ID(), "error", err)
			sr.Skipped = append(sr.Skipped, manifest.SkippedPair{
				RGB:    p.RGBPath,
				Depth:  p.DepthPath,
				Reason: err.Error(),
			})
			continue
		}
		slog.Debug("Added record pair", "split", split, "position", i, "id", p.ID())
	}
	sr.Samples = sr.batch.Len()
	return sr, nil
}

func loadPair(p discover.Pair, factor int) loaded {
	rgb, depth, err := record.LoadPair(p)
	if err != nil {
		return loaded{err: err}
	}
	if rgb, err = rgb.Downsample(factor); err != nil {
		return loaded{err: err}
	}
	if depth, err = depth.Downsample(factor); err != nil {
		return loaded{err: err}
	}
	return loaded{rgb: rgb, depth: depth}
}

func newManifest(opts Options, r *Result) *manifest.Manifest {
	m := &manifest.Manifest{
		Timestamp:  time.Now().Format("2006-01-02_15-04-05"),
		Root:       opts.Root,
		Seed:       r.Seed,
		SplitRatio: opts.SplitRatio,
		Downsample: opts.Downsample,
		Format:     string(opts.Format),
	}

	for _, sr := range []*SplitResult{r.Train, r.Val} {
		split := manifest.Split{
			Name:    sr.Name,
			Output:  sr.Output,
			Samples: sr.Samples,
			Skipped: sr.Skipped,
		}
		for _, a := range r.Plan.Classes(sr.Name) {
			split.Classes = append(split.Classes, manifest.ClassEntry{
				Name:  a.Class.Name(),
				Pairs: len(a.Class.Pairs),
				Draw:  a.Draw,
			})
		}
		m.Splits = append(m.Splits, split)
	}
	return m
}
