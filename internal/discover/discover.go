package discover

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// RGBSuffix marks an RGB record file
	RGBSuffix = "_bgr.npz"
	// DepthSuffix marks the depth record file paired with an RGB record
	DepthSuffix = "_depth.npz"
)

// Pair is one RGB record and the depth record derived from its name
type Pair struct {
	RGBPath   string `yaml:"rgb" json:"rgb"`
	DepthPath string `yaml:"depth" json:"depth"`
}

// ID returns the capture identifier shared by both files of the pair
func (p Pair) ID() string {
	return FileID(p.RGBPath)
}

// Class is a directory of captures belonging to one category
type Class struct {
	// Path is the class directory and serves as the class identifier
	Path  string
	Pairs []Pair
}

// Name returns the base name of the class directory
func (c *Class) Name() string {
	return filepath.Base(c.Path)
}

// Index maps every class under a dataset root to its record pairs.
// Classes are ordered by path and pairs by RGB path.
type Index struct {
	Root    string
	Classes []*Class
}

// Len returns the number of classes
func (ix *Index) Len() int {
	return len(ix.Classes)
}

// Class returns the class at position i
func (ix *Index) Class(i int) *Class {
	return ix.Classes[i]
}

// Names returns the class names in index order
func (ix *Index) Names() []string {
	names := make([]string, 0, len(ix.Classes))
	for _, c := range ix.Classes {
		names = append(names, c.Name())
	}
	return names
}

// TotalPairs counts the pairs across all classes
func (ix *Index) TotalPairs() int {
	total := 0
	for _, c := range ix.Classes {
		total += len(c.Pairs)
	}
	return total
}

// DepthPathFor derives the depth record path from an RGB record path.
// The depth file is not checked for existence.
func DepthPathFor(rgbPath string) string {
	return strings.TrimSuffix(rgbPath, RGBSuffix) + DepthSuffix
}

// FileID strips the RGB suffix from a record path
func FileID(rgbPath string) string {
	return strings.TrimSuffix(rgbPath, RGBSuffix)
}

// Discover scans the immediate subdirectories of root and pairs every
// RGB record with its derived depth record.
func Discover(root string) (*Index, error) {
	slog.Debug("Scanning dataset root", "root", root)

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset root: %w", err)
	}

	index := &Index{Root: root}
	for _, entry := range entries {
		classDir := filepath.Join(root, entry.Name())
		// os.Stat follows symlinked class directories
		info, err := os.Stat(classDir)
		if err != nil {
			slog.Warn("Skipping unreadable entry", "path", classDir, "error", err)
			continue
		}
		if !info.IsDir() {
			continue
		}

		pairs, err := scanClass(classDir)
		if err != nil {
			return nil, err
		}

		index.Classes = append(index.Classes, &Class{Path: classDir, Pairs: pairs})
		slog.Debug("Discovered class", "class", entry.Name(), "pairs", len(pairs))
	}

	// os.ReadDir already sorts by name; keep the order explicit for readers of Index
	sort.Slice(index.Classes, func(i, j int) bool {
		return index.Classes[i].Path < index.Classes[j].Path
	})

	return index, nil
}

func scanClass(classDir string) ([]Pair, error) {
	entries, err := os.ReadDir(classDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read class directory %s: %w", classDir, err)
	}

	pairs := make([]Pair, 0, len(entries)/2)
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), RGBSuffix) {
			continue
		}

		rgbPath := filepath.Join(classDir, entry.Name())
		info, err := os.Stat(rgbPath)
		if err != nil {
			slog.Warn("Skipping unreadable record", "path", rgbPath, "error", err)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		pairs = append(pairs, Pair{
			RGBPath:   rgbPath,
			DepthPath: DepthPathFor(rgbPath),
		})
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].RGBPath < pairs[j].RGBPath })
	return pairs, nil
}
