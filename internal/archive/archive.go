// Package archive stacks loaded record pairs and writes them to a single
// training file per split.
package archive

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/food3d/curator/internal/record"
)

// Format selects the archive file type
type Format string

const (
	FormatHDF5    Format = "hdf5"
	FormatParquet Format = "parquet"
)

// ErrShapeMismatch is returned when a sample does not match the batch shape
var ErrShapeMismatch = errors.New("sample shape does not match batch")

// ParseFormat accepts "hdf5", "h5" or "parquet". Empty means hdf5.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hdf5", "h5":
		return FormatHDF5, nil
	case "parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported archive format: %s", s)
	}
}

// Ext returns the file extension, including the dot
func (f Format) Ext() string {
	if f == FormatParquet {
		return ".parquet"
	}
	return ".h5"
}

// Batch holds samples of a single shape in insertion order. Images are
// channel-first RGB, depths are metres.
type Batch struct {
	Height  int
	Width   int
	Sources []string
	Images  [][]uint8
	Depths  [][]float32
}

// Len returns the number of samples
func (b *Batch) Len() int {
	return len(b.Images)
}

// Append adds a sample. The first sample fixes the batch shape.
func (b *Batch) Append(source string, rgb *record.RGB, depth *record.Depth) error {
	if rgb.Height != depth.Height || rgb.Width != depth.Width {
		return fmt.Errorf("%w: rgb %dx%d, depth %dx%d", ErrShapeMismatch, rgb.Height, rgb.Width, depth.Height, depth.Width)
	}
	if b.Len() == 0 {
		b.Height, b.Width = rgb.Height, rgb.Width
	} else if rgb.Height != b.Height || rgb.Width != b.Width {
		return fmt.Errorf("%w: got %dx%d, batch is %dx%d", ErrShapeMismatch, rgb.Height, rgb.Width, b.Height, b.Width)
	}

	b.Sources = append(b.Sources, source)
	b.Images = append(b.Images, rgb.Pix)
	b.Depths = append(b.Depths, depth.Values)
	return nil
}

// Write replaces path with an archive of the batch
func Write(path string, format Format, b *Batch) error {
	if b.Len() == 0 {
		return errors.New("refusing to write an empty archive")
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove existing archive: %w", err)
	}

	slog.Info("Writing archive", "path", path, "format", format, "samples", b.Len(), "height", b.Height, "width", b.Width)

	var err error
	switch format {
	case FormatHDF5:
		err = writeHDF5(path, b)
	case FormatParquet:
		err = writeParquet(path, b)
	default:
		err = fmt.Errorf("unsupported archive format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("failed to write archive %s: %w", path, err)
	}
	return nil
}
