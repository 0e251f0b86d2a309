package builder

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/food3d/curator/internal/discover"
	"github.com/food3d/curator/internal/images"
	"github.com/food3d/curator/internal/record"
)

// SampleResult lists what Sample wrote
type SampleResult struct {
	Seed    int64
	Written []string
	// Empty holds the names of classes without pairs
	Empty []string
	// Failed maps class names to the load error of their picked pair
	Failed map[string]string
}

// Sample writes one randomly picked RGB frame per class to outDir/<class>.jpg
func Sample(root, outDir string, seed int64, maxWidth int) (*SampleResult, error) {
	index, err := discover.Discover(root)
	if err != nil {
		return nil, err
	}

	seed = ResolveSeed(seed)
	rng := rand.New(rand.NewSource(seed))
	res := &SampleResult{Seed: seed, Failed: make(map[string]string)}

	for _, c := range index.Classes {
		if len(c.Pairs) == 0 {
			slog.Warn("Class has no record pairs", "class", c.Name())
			res.Empty = append(res.Empty, c.Name())
			continue
		}

		pair := c.Pairs[rng.Intn(len(c.Pairs))]
		rgb, err := record.LoadRGB(pair.RGBPath)
		if err != nil {
			slog.Warn("Failed to load sample", "class", c.Name(), "id", pair.ID(), "error", err)
			res.Failed[c.Name()] = err.Error()
			continue
		}

		path, err := images.SaveJPEG(outDir, c.Name()+".jpg", rgb, maxWidth)
		if err != nil {
			return nil, fmt.Errorf("failed to write sample for %s: %w", c.Name(), err)
		}
		slog.Debug("Wrote sample", "class", c.Name(), "id", pair.ID(), "path", path)
		res.Written = append(res.Written, path)
	}

	return res, nil
}
