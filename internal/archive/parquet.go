package archive

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/parquet-go/parquet-go"
)

// Sample is one row of a parquet archive
type Sample struct {
	Index  int32     `parquet:"index"`
	Source string    `parquet:"source"`
	Height int32     `parquet:"height"`
	Width  int32     `parquet:"width"`
	Image  []byte    `parquet:"image"`
	Depth  []float32 `parquet:"depth,list"`
}

const rowBatch = 64

func writeParquet(path string, b *Batch) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[Sample](file, parquet.Compression(&parquet.Zstd))

	rows := make([]Sample, 0, rowBatch)
	for i := 0; i < b.Len(); i++ {
		rows = append(rows, Sample{
			Index:  int32(i),
			Source: b.Sources[i],
			Height: int32(b.Height),
			Width:  int32(b.Width),
			Image:  b.Images[i],
			Depth:  b.Depths[i],
		})
		if len(rows) == rowBatch || i == b.Len()-1 {
			if _, err := writer.Write(rows); err != nil {
				return fmt.Errorf("failed to write parquet rows: %w", err)
			}
			rows = rows[:0]
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return file.Close()
}

// ReadParquet loads every sample of a parquet archive
func ReadParquet(path string) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	slog.Debug("Parquet archive opened", "path", path, "num_rows", pf.NumRows())

	reader := parquet.NewGenericReader[Sample](pf)
	defer reader.Close()

	var samples []Sample
	for {
		// fresh buffer per read, the reader may reuse slice fields
		rows := make([]Sample, rowBatch)
		n, err := reader.Read(rows)
		samples = append(samples, rows[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return samples, nil
}
