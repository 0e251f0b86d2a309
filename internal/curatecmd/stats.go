package curatecmd

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/food3d/curator/internal/archive"
	"github.com/food3d/curator/internal/config"
	"github.com/food3d/curator/internal/discover"
)

// ClassStats is one row of the stats table
type ClassStats struct {
	Name  string `yaml:"name"`
	Pairs int    `yaml:"pairs"`
}

// DatasetStats is the YAML form of the stats output
type DatasetStats struct {
	Root    string       `yaml:"root"`
	Classes []ClassStats `yaml:"classes"`
	Total   int          `yaml:"total"`
}

// ArchiveStats summarizes a parquet archive written by build
type ArchiveStats struct {
	Path    string       `yaml:"path"`
	Samples int          `yaml:"samples"`
	Height  int          `yaml:"height"`
	Width   int          `yaml:"width"`
	Classes []ClassStats `yaml:"classes"`
}

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	var dataRoot string
	var archivePath string
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count record pairs per class",
		Long: `Count the record pairs of every class under the dataset root, or with
--archive, the samples per class stored in a parquet archive written by build.`,
		Example: `  food3d stats --data ../data
  food3d stats --yaml > counts.yaml
  food3d stats --archive food3d-train.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if archivePath != "" {
				return executeArchiveStats(archivePath, asYAML, cmd.OutOrStdout())
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if flagSet(cmd, "data") {
				cfg.DataRoot = dataRoot
			}
			return executeStats(cfg.DataRoot, asYAML, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&dataRoot, "data", config.DefaultDataRoot, "Dataset root containing one directory per class")
	cmd.Flags().StringVar(&archivePath, "archive", "", "Summarize a parquet archive instead of the dataset root")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print YAML instead of a table")

	return cmd
}

func executeStats(root string, asYAML bool, out io.Writer) error {
	index, err := discover.Discover(root)
	if err != nil {
		return err
	}

	stats := DatasetStats{Root: root, Total: index.TotalPairs()}
	for _, c := range index.Classes {
		stats.Classes = append(stats.Classes, ClassStats{Name: c.Name(), Pairs: len(c.Pairs)})
	}

	if asYAML {
		return writeYAML(out, &stats)
	}

	writeClassTable(out, stats.Classes)
	fmt.Fprintf(out, "%d classes, %d pairs\n", len(stats.Classes), stats.Total)
	return nil
}

// executeArchiveStats reads a parquet archive back and counts its samples
// per class, the class being the directory the source RGB record came from.
func executeArchiveStats(path string, asYAML bool, out io.Writer) error {
	samples, err := archive.ReadParquet(path)
	if err != nil {
		return err
	}

	stats := ArchiveStats{Path: path, Samples: len(samples)}
	counts := make(map[string]int)
	for _, s := range samples {
		if stats.Height == 0 {
			stats.Height, stats.Width = int(s.Height), int(s.Width)
		}
		counts[filepath.Base(filepath.Dir(s.Source))]++
	}
	for name, n := range counts {
		stats.Classes = append(stats.Classes, ClassStats{Name: name, Pairs: n})
	}
	sort.Slice(stats.Classes, func(i, j int) bool { return stats.Classes[i].Name < stats.Classes[j].Name })

	if asYAML {
		return writeYAML(out, &stats)
	}

	writeClassTable(out, stats.Classes)
	fmt.Fprintf(out, "%d samples of %dx%d from %d classes\n", stats.Samples, stats.Height, stats.Width, len(stats.Classes))
	return nil
}

func writeYAML(out io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func writeClassTable(out io.Writer, classes []ClassStats) {
	width := len("class")
	for _, c := range classes {
		width = max(width, len(c.Name))
	}
	fmt.Fprintf(out, "%-*s  %s\n", width, "class", "pairs")
	for _, c := range classes {
		fmt.Fprintf(out, "%-*s  %5d\n", width, c.Name, c.Pairs)
	}
}
