package record

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/food3d/curator/internal/discover"
)

var (
	// ErrFileNotFound is returned when a record path does not exist
	ErrFileNotFound = errors.New("record file not found")
	// ErrInvalidKind is returned when a file name carries neither record suffix
	ErrInvalidKind = errors.New("file is not a food3d record")
)

// DecodeError reports a record file that exists but could not be decoded
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not read record %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Kind distinguishes the two record file types
type Kind int

const (
	KindUnknown Kind = iota
	KindRGB
	KindDepth
)

func (k Kind) String() string {
	switch k {
	case KindRGB:
		return "rgb"
	case KindDepth:
		return "depth"
	default:
		return "unknown"
	}
}

// KindOf classifies a path by its file name suffix
func KindOf(path string) Kind {
	switch {
	case strings.HasSuffix(path, discover.DepthSuffix):
		return KindDepth
	case strings.HasSuffix(path, discover.RGBSuffix):
		return KindRGB
	default:
		return KindUnknown
	}
}

// RGB is an 8-bit color frame stored channel-first in R, G, B order.
// Pix[c*Height*Width + y*Width + x] holds channel c of pixel (x, y).
type RGB struct {
	Height int
	Width  int
	Pix    []uint8
}

// At returns channel c of the pixel at (x, y)
func (r *RGB) At(c, y, x int) uint8 {
	return r.Pix[c*r.Height*r.Width+y*r.Width+x]
}

// HWC returns the pixels reordered to height-width-channel layout
func (r *RGB) HWC() []uint8 {
	plane := r.Height * r.Width
	out := make([]uint8, plane*3)
	for i := 0; i < plane; i++ {
		out[i*3] = r.Pix[i]
		out[i*3+1] = r.Pix[plane+i]
		out[i*3+2] = r.Pix[2*plane+i]
	}
	return out
}

// Downsample keeps every factor-th pixel along both spatial axes
func (r *RGB) Downsample(factor int) (*RGB, error) {
	if factor < 1 {
		return nil, fmt.Errorf("invalid downsample factor %d", factor)
	}
	h, w := decimated(r.Height, factor), decimated(r.Width, factor)
	out := &RGB{Height: h, Width: w, Pix: make([]uint8, 3*h*w)}
	for c := 0; c < 3; c++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Pix[c*h*w+y*w+x] = r.At(c, y*factor, x*factor)
			}
		}
	}
	return out, nil
}

// Depth is a single-channel float32 frame in row-major order
type Depth struct {
	Height int
	Width  int
	Values []float32
}

// At returns the value at (x, y)
func (d *Depth) At(y, x int) float32 {
	return d.Values[y*d.Width+x]
}

// Downsample keeps every factor-th pixel along both spatial axes
func (d *Depth) Downsample(factor int) (*Depth, error) {
	if factor < 1 {
		return nil, fmt.Errorf("invalid downsample factor %d", factor)
	}
	h, w := decimated(d.Height, factor), decimated(d.Width, factor)
	out := &Depth{Height: h, Width: w, Values: make([]float32, h*w)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Values[y*w+x] = d.At(y*factor, x*factor)
		}
	}
	return out, nil
}

// decimated is the length of 0, f, 2f, ... below n
func decimated(n, factor int) int {
	return (n + factor - 1) / factor
}

// TransformDepth converts millimetres to metres and zeroes non-finite
// values. The input is left untouched; apply once per load.
func TransformDepth(d *Depth) *Depth {
	out := &Depth{Height: d.Height, Width: d.Width, Values: make([]float32, len(d.Values))}
	for i, v := range d.Values {
		f := float64(v)
		if math.IsInf(f, 0) || math.IsNaN(f) {
			v = 0
		}
		out.Values[i] = v / 1000
	}
	return out
}

// Load reads a record file and returns *RGB or *Depth depending on its kind
func Load(path string) (any, error) {
	switch KindOf(path) {
	case KindRGB:
		return LoadRGB(path)
	case KindDepth:
		return LoadDepth(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidKind, path)
	}
}

// LoadRGB decodes a BGRA record into a channel-first RGB frame
func LoadRGB(path string) (*RGB, error) {
	if KindOf(path) != KindRGB {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKind, path)
	}
	if err := checkExists(path); err != nil {
		return nil, err
	}

	arr, err := readUint8(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if len(arr.shape) != 3 || arr.shape[2] < 3 {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("expected HxWx4 BGRA array, got shape %v", arr.shape)}
	}

	h, w, channels := arr.shape[0], arr.shape[1], arr.shape[2]
	plane := h * w
	rgb := &RGB{Height: h, Width: w, Pix: make([]uint8, 3*plane)}
	for i := 0; i < plane; i++ {
		px := arr.data[i*channels : i*channels+3]
		// BGR(A) -> RGB, alpha ignored
		rgb.Pix[i] = px[2]
		rgb.Pix[plane+i] = px[1]
		rgb.Pix[2*plane+i] = px[0]
	}

	slog.Debug("Loaded RGB record", "path", path, "height", h, "width", w)
	return rgb, nil
}

// LoadDepth decodes a depth record as stored, cast to float32
func LoadDepth(path string) (*Depth, error) {
	if KindOf(path) != KindDepth {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKind, path)
	}
	if err := checkExists(path); err != nil {
		return nil, err
	}

	arr, err := readFloat32(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if len(arr.shape) != 2 {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("expected 2-D depth array, got shape %v", arr.shape)}
	}

	slog.Debug("Loaded depth record", "path", path, "height", arr.shape[0], "width", arr.shape[1])
	return &Depth{Height: arr.shape[0], Width: arr.shape[1], Values: arr.data}, nil
}

// LoadDepthMeters loads a depth record and applies TransformDepth
func LoadDepthMeters(path string) (*Depth, error) {
	d, err := LoadDepth(path)
	if err != nil {
		return nil, err
	}
	return TransformDepth(d), nil
}

// LoadPair loads both records of a pair, depth in metres
func LoadPair(p discover.Pair) (*RGB, *Depth, error) {
	rgb, err := LoadRGB(p.RGBPath)
	if err != nil {
		return nil, nil, err
	}
	depth, err := LoadDepthMeters(p.DepthPath)
	if err != nil {
		return nil, nil, err
	}
	return rgb, depth, nil
}

func checkExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("failed to stat record: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}
	return nil
}
