package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/food3d/curator/internal/archive"
	"github.com/food3d/curator/internal/discover"
	"github.com/food3d/curator/internal/manifest"
	"github.com/food3d/curator/internal/testutil"
)

// writeDataset creates classes c0..c{n-1}, class i holding i+1 captures
func writeDataset(t *testing.T, classes int) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), "data")
	for i := 0; i < classes; i++ {
		class := fmt.Sprintf("c%d", i)
		testutil.MkClass(t, root, class)
		for j := 0; j <= i; j++ {
			testutil.WriteCapture(t, root, class, fmt.Sprintf("%s_%d", class, j), 6, 8)
		}
	}
	return root
}

// seedWithBothSplits finds a seed whose plan puts pairs in both splits,
// with at least two in train
func seedWithBothSplits(t *testing.T, root string, ratio float64) (int64, *Plan) {
	t.Helper()

	ix, err := discover.Discover(root)
	require.NoError(t, err)
	for seed := int64(1); seed < 1000; seed++ {
		plan := NewPlan(ix, ratio, seed)
		if len(plan.Train) > 1 && len(plan.Val) > 0 {
			return seed, plan
		}
	}
	t.Fatal("no seed produced two non-empty splits")
	return 0, nil
}

func sources(t *testing.T, path string) []string {
	t.Helper()

	samples, err := archive.ReadParquet(path)
	require.NoError(t, err)
	out := make([]string, 0, len(samples))
	for _, s := range samples {
		out = append(out, s.Source)
	}
	return out
}

func rgbPaths(pairs []discover.Pair) []string {
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.RGBPath)
	}
	return out
}

func TestNewPlanAssignsEachClassOnce(t *testing.T) {
	root := writeDataset(t, 6)
	ix, err := discover.Discover(root)
	require.NoError(t, err)

	plan := NewPlan(ix, 0.5, 99)
	require.Len(t, plan.Assignments, 6)

	seen := make(map[string]string)
	for _, a := range plan.Assignments {
		_, dup := seen[a.Class.Name()]
		assert.False(t, dup, "class %s assigned twice", a.Class.Name())
		seen[a.Class.Name()] = a.Split
		assert.Equal(t, a.Draw < 0.5, a.Split == SplitTrain)
	}

	// largest class is drawn first
	assert.Equal(t, "c5", plan.Assignments[0].Class.Name())
	assert.Equal(t, ix.TotalPairs(), len(plan.Train)+len(plan.Val))

	for _, p := range plan.Train {
		assert.Equal(t, SplitTrain, seen[filepath.Base(filepath.Dir(p.RGBPath))])
	}
	for _, p := range plan.Val {
		assert.Equal(t, SplitVal, seen[filepath.Base(filepath.Dir(p.RGBPath))])
	}

	again := NewPlan(ix, 0.5, 99)
	assert.Equal(t, plan.Train, again.Train)
	assert.Equal(t, plan.Val, again.Val)
}

func TestNewPlanRatioBounds(t *testing.T) {
	root := writeDataset(t, 3)
	ix, err := discover.Discover(root)
	require.NoError(t, err)

	all := NewPlan(ix, 1, 5)
	assert.Len(t, all.Train, 6)
	assert.Empty(t, all.Val)

	none := NewPlan(ix, 0, 5)
	assert.Empty(t, none.Train)
	assert.Len(t, none.Val, 6)
}

func TestBuildFollowsPlan(t *testing.T) {
	root := writeDataset(t, 5)
	seed, plan := seedWithBothSplits(t, root, 0.5)
	prefix := filepath.Join(t.TempDir(), "out", "food3d")
	require.NoError(t, os.MkdirAll(filepath.Dir(prefix), 0755))

	res, err := Build(context.Background(), Options{
		Root:         root,
		TargetPrefix: prefix,
		Downsample:   2,
		SplitRatio:   0.5,
		Seed:         seed,
		Workers:      4,
		Format:       archive.FormatParquet,
	})
	require.NoError(t, err)
	assert.Equal(t, seed, res.Seed)

	assert.Equal(t, prefix+"-train.parquet", res.Train.Output)
	assert.Equal(t, rgbPaths(plan.Train), sources(t, res.Train.Output))
	assert.Equal(t, rgbPaths(plan.Val), sources(t, res.Val.Output))

	samples, err := archive.ReadParquet(res.Val.Output)
	require.NoError(t, err)
	assert.Equal(t, int32(3), samples[0].Height)
	assert.Equal(t, int32(4), samples[0].Width)
	assert.Len(t, samples[0].Image, 3*3*4)

	m, err := manifest.Load(res.Manifest)
	require.NoError(t, err)
	assert.Equal(t, seed, m.Seed)
	assert.Equal(t, len(plan.Classes(SplitTrain)), len(m.Split(SplitTrain).Classes))
	assert.Equal(t, len(plan.Classes(SplitVal)), len(m.Split(SplitVal).Classes))
}

func TestBuildSkipsBrokenPair(t *testing.T) {
	root := writeDataset(t, 5)
	seed, plan := seedWithBothSplits(t, root, 0.5)
	require.NoError(t, os.Remove(plan.Train[0].DepthPath))

	res, err := Build(context.Background(), Options{
		Root:         root,
		TargetPrefix: filepath.Join(t.TempDir(), "food3d"),
		Downsample:   1,
		SplitRatio:   0.5,
		Seed:         seed,
		Format:       archive.FormatParquet,
	})
	require.NoError(t, err)

	require.Len(t, res.Train.Skipped, 1)
	assert.Equal(t, plan.Train[0].RGBPath, res.Train.Skipped[0].RGB)
	assert.Equal(t, len(plan.Train)-1, res.Train.Samples)
	assert.Equal(t, rgbPaths(plan.Train[1:]), sources(t, res.Train.Output))
}

func TestBuildEmptySplit(t *testing.T) {
	root := writeDataset(t, 3)
	prefix := filepath.Join(t.TempDir(), "food3d")

	// outputs of an earlier run under the same prefix
	for _, p := range []string{prefix + "-train.parquet", prefix + "-val.parquet", manifest.Path(prefix)} {
		require.NoError(t, os.WriteFile(p, []byte("stale"), 0644))
	}

	_, err := Build(context.Background(), Options{
		Root:         root,
		TargetPrefix: prefix,
		Downsample:   1,
		SplitRatio:   1,
		Seed:         3,
		Format:       archive.FormatParquet,
	})
	assert.ErrorIs(t, err, ErrEmptySplit)
	assert.NoFileExists(t, prefix+"-train.parquet")
	assert.NoFileExists(t, prefix+"-val.parquet")
	assert.NoFileExists(t, manifest.Path(prefix))
}

func TestBuildInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"missing prefix", Options{Downsample: 1, SplitRatio: 0.7}},
		{"zero factor", Options{TargetPrefix: "x", Downsample: 0, SplitRatio: 0.7}},
		{"ratio above one", Options{TargetPrefix: "x", Downsample: 1, SplitRatio: 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(context.Background(), tt.opts)
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}

func TestBuildSeedZeroIsRecorded(t *testing.T) {
	assert.Equal(t, int64(7), ResolveSeed(7))
	assert.NotZero(t, ResolveSeed(0))
}

func TestSample(t *testing.T) {
	root := writeDataset(t, 2)
	testutil.MkClass(t, root, "empty")
	out := filepath.Join(t.TempDir(), "samples")

	res, err := Sample(root, out, 11, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"empty"}, res.Empty)
	assert.Len(t, res.Written, 2)
	assert.FileExists(t, filepath.Join(out, "c0.jpg"))
	assert.FileExists(t, filepath.Join(out, "c1.jpg"))
}
