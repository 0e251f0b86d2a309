package builder

import (
	"math/rand"
	"sort"
	"time"

	"github.com/food3d/curator/internal/discover"
)

const (
	SplitTrain = "train"
	SplitVal   = "val"
)

// Assignment records which split a class was drawn into
type Assignment struct {
	Class *discover.Class
	// Draw is the uniform value in [0,1) compared against the split ratio
	Draw  float64
	Split string
}

// Plan is the class-wise split and the shuffled pair order of each split
type Plan struct {
	Seed        int64
	Ratio       float64
	Assignments []Assignment
	Train       []discover.Pair
	Val         []discover.Pair
}

// Pairs returns the shuffled pairs of a split
func (p *Plan) Pairs(split string) []discover.Pair {
	if split == SplitTrain {
		return p.Train
	}
	return p.Val
}

// Classes returns the assignments of a split in draw order
func (p *Plan) Classes(split string) []Assignment {
	var out []Assignment
	for _, a := range p.Assignments {
		if a.Split == split {
			out = append(out, a)
		}
	}
	return out
}

// ResolveSeed maps 0 to a time-derived seed
func ResolveSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

// NewPlan draws one value per class, largest classes first, and sends the
// class to train when the draw is below ratio. The pairs of each split are
// then shuffled with the same generator. Equal seeds give equal plans.
func NewPlan(index *discover.Index, ratio float64, seed int64) *Plan {
	rng := rand.New(rand.NewSource(seed))
	plan := &Plan{Seed: seed, Ratio: ratio}

	classes := append([]*discover.Class(nil), index.Classes...)
	sort.SliceStable(classes, func(i, j int) bool {
		if len(classes[i].Pairs) != len(classes[j].Pairs) {
			return len(classes[i].Pairs) < len(classes[j].Pairs)
		}
		return classes[i].Path < classes[j].Path
	})

	for i := len(classes) - 1; i >= 0; i-- {
		c := classes[i]
		draw := float64(rng.Intn(1000)) / 1000
		a := Assignment{Class: c, Draw: draw, Split: SplitVal}
		if draw < ratio {
			a.Split = SplitTrain
			plan.Train = append(plan.Train, c.Pairs...)
		} else {
			plan.Val = append(plan.Val, c.Pairs...)
		}
		plan.Assignments = append(plan.Assignments, a)
	}

	rng.Shuffle(len(plan.Train), func(i, j int) {
		plan.Train[i], plan.Train[j] = plan.Train[j], plan.Train[i]
	})
	rng.Shuffle(len(plan.Val), func(i, j int) {
		plan.Val[i], plan.Val[j] = plan.Val[j], plan.Val[i]
	})
	return plan
}
