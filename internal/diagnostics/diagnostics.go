// Package diagnostics computes the per-frame figures shown while browsing:
// grayscale intensity, relative sharpness, depth statistics and a depth
// histogram.
package diagnostics

import (
	"math"

	"github.com/food3d/curator/internal/record"
)

// HistogramBins matches the bin count of the capture viewer
const HistogramBins = 150

// Report bundles the diagnostics for one record pair
type Report struct {
	Sharpness float64
	Depth     DepthStats
	Histogram Histogram
}

// DepthStats summarises a depth frame in metres. Zero marks an invalid pixel.
type DepthStats struct {
	Min        float64
	Max        float64
	Mean       float64
	ValidRatio float64
}

// Histogram counts depth values in equal-width bins between Min and Max
type Histogram struct {
	Min    float64
	Max    float64
	Counts []int
}

// Compute builds the full report for a pair
func Compute(rgb *record.RGB, depth *record.Depth) Report {
	return Report{
		Sharpness: Sharpness(Grayscale(rgb), rgb.Height, rgb.Width),
		Depth:     Stats(depth),
		Histogram: NewHistogram(depth.Values, HistogramBins),
	}
}

// Grayscale returns luma (0.299 R + 0.587 G + 0.114 B) in row-major order
func Grayscale(rgb *record.RGB) []float64 {
	plane := rgb.Height * rgb.Width
	gray := make([]float64, plane)
	for i := 0; i < plane; i++ {
		gray[i] = 0.299*float64(rgb.Pix[i]) +
			0.587*float64(rgb.Pix[plane+i]) +
			0.114*float64(rgb.Pix[2*plane+i])
	}
	return gray
}

// Sharpness is the mean gradient magnitude of a grayscale image. The
// horizontal difference drops the first row and the vertical difference
// drops the first column so both grids line up.
func Sharpness(gray []float64, h, w int) float64 {
	if h < 2 || w < 2 {
		return 0
	}

	var sum float64
	for y := 0; y < h-1; y++ {
		for x := 0; x < w-1; x++ {
			dx := gray[(y+1)*w+x+1] - gray[(y+1)*w+x]
			dy := gray[(y+1)*w+x+1] - gray[y*w+x+1]
			sum += math.Sqrt(dx*dx + dy*dy)
		}
	}
	return sum / float64((h-1)*(w-1))
}

// Stats computes min, max and mean over the valid (non-zero) depth pixels
func Stats(depth *record.Depth) DepthStats {
	var s DepthStats
	if len(depth.Values) == 0 {
		return s
	}

	valid := 0
	s.Min = math.Inf(1)
	s.Max = math.Inf(-1)
	for _, v := range depth.Values {
		f := float64(v)
		if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		valid++
		s.Mean += f
		s.Min = math.Min(s.Min, f)
		s.Max = math.Max(s.Max, f)
	}

	if valid == 0 {
		return DepthStats{}
	}
	s.Mean /= float64(valid)
	s.ValidRatio = float64(valid) / float64(len(depth.Values))
	return s
}

// NewHistogram bins values over their full range. A constant input puts
// every value into the first bin.
func NewHistogram(values []float32, bins int) Histogram {
	h := Histogram{Counts: make([]int, bins)}
	if len(values) == 0 || bins <= 0 {
		return h
	}

	h.Min, h.Max = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		h.Min = math.Min(h.Min, float64(v))
		h.Max = math.Max(h.Max, float64(v))
	}

	width := (h.Max - h.Min) / float64(bins)
	for _, v := range values {
		i := 0
		if width > 0 {
			i = int((float64(v) - h.Min) / width)
		}
		// the maximum belongs to the last bin
		if i >= bins {
			i = bins - 1
		}
		h.Counts[i]++
	}
	return h
}

// Rebin merges adjacent bins so the histogram fits n columns
func (h Histogram) Rebin(n int) []int {
	if n <= 0 || n >= len(h.Counts) {
		return append([]int(nil), h.Counts...)
	}
	out := make([]int, n)
	for i, c := range h.Counts {
		out[i*n/len(h.Counts)] += c
	}
	return out
}
