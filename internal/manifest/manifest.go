package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Suffix is appended to the target prefix to name the manifest file
const Suffix = "-manifest.yaml"

// Manifest records how a dataset build was produced so it can be repeated
type Manifest struct {
	Timestamp  string  `yaml:"timestamp"`
	Root       string  `yaml:"root"`
	Seed       int64   `yaml:"seed"`
	SplitRatio float64 `yaml:"splitratio"`
	Downsample int     `yaml:"downsample"`
	Format     string  `yaml:"format"`
	Splits     []Split `yaml:"splits"`
}

// Split describes one output archive
type Split struct {
	Name    string        `yaml:"name"`
	Output  string        `yaml:"output,omitempty"`
	Samples int           `yaml:"samples"`
	Classes []ClassEntry  `yaml:"classes"`
	Skipped []SkippedPair `yaml:"skipped,omitempty"`
}

// ClassEntry is a class assigned to a split along with the draw that put it there
type ClassEntry struct {
	Name  string  `yaml:"name"`
	Pairs int     `yaml:"pairs"`
	Draw  float64 `yaml:"draw"`
}

// SkippedPair is a pair left out of an archive
type SkippedPair struct {
	RGB    string `yaml:"rgb"`
	Depth  string `yaml:"depth"`
	Reason string `yaml:"reason"`
}

// Path returns the manifest path for a target prefix
func Path(prefix string) string {
	return prefix + Suffix
}

// Split returns the split with the given name, or nil
func (m *Manifest) Split(name string) *Split {
	for i := range m.Splits {
		if m.Splits[i].Name == name {
			return &m.Splits[i]
		}
	}
	return nil
}

// Save writes the manifest as YAML
func Save(path string, m *Manifest) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

// Load reads a manifest written by Save
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}
