package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/food3d/curator/internal/archive"
)

const (
	// ErrCodeNotFound means an explicitly requested config file is missing
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid means the file, an environment variable or a value is malformed
	ErrCodeInvalid = "config_invalid"
)

const (
	// DefaultFile is read from the working directory when present
	DefaultFile = "food3d.yaml"
	// EnvPrefix prefixes every environment override
	EnvPrefix = "FOOD3D_"

	DefaultDataRoot   = "../data"
	DefaultTrashRoot  = "../trash"
	DefaultSnapRoot   = "../snaps"
	DefaultTarget     = "food3d"
	DefaultSplitRatio = 0.7
	DefaultDownsample = 1
)

// FileConfig is the layout of food3d.yaml. Unset fields keep lower
// precedence values.
type FileConfig struct {
	DataRoot      string   `yaml:"data"`
	TrashRoot     string   `yaml:"trash"`
	SnapRoot      string   `yaml:"snaps"`
	Target        string   `yaml:"target"`
	SplitRatio    *float64 `yaml:"splitratio"`
	Downsample    int      `yaml:"downsample"`
	Seed          int64    `yaml:"seed"`
	Workers       int      `yaml:"workers"`
	Format        string   `yaml:"format"`
	SnapshotWidth int      `yaml:"snapshotwidth"`
}

// Config is the merged configuration handed to commands
type Config struct {
	DataRoot      string
	TrashRoot     string
	SnapRoot      string
	Target        string
	SplitRatio    float64
	Downsample    int
	Seed          int64
	Workers       int
	Format        archive.Format
	SnapshotWidth int
}

// Error is a configuration error with a stable code
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Code == ErrCodeNotFound:
		return fmt.Sprintf("%s: config file %q not found", e.Code, e.Path)
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s: %q: %v", e.Code, e.Path, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code extracts the error code, or "" when err is not an *Error
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		DataRoot:   DefaultDataRoot,
		TrashRoot:  DefaultTrashRoot,
		SnapRoot:   DefaultSnapRoot,
		Target:     DefaultTarget,
		SplitRatio: DefaultSplitRatio,
		Downsample: DefaultDownsample,
		Format:     archive.FormatHDF5,
	}
}

// Load layers defaults, the YAML file and the environment, in increasing
// precedence. An empty path reads DefaultFile if it exists; a named path
// must exist. Command-line flags are applied by the caller on top.
func Load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Defaults()

	required := path != ""
	if !required {
		path = DefaultFile
	}

	fc, exists, err := readFile(path)
	if err != nil {
		return Config{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}
	if !exists && required {
		return Config{}, &Error{Code: ErrCodeNotFound, Path: path, Err: os.ErrNotExist}
	}
	if err := cfg.applyFile(fc); err != nil {
		return Config{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}

	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, &Error{Code: ErrCodeInvalid, Err: err}
	}

	return cfg, nil
}

func readFile(path string) (FileConfig, bool, error) {
	var fc FileConfig

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fc, false, nil
		}
		return fc, false, err
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, true, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return fc, true, nil
}

func (c *Config) applyFile(fc FileConfig) error {
	setString(&c.DataRoot, fc.DataRoot)
	setString(&c.TrashRoot, fc.TrashRoot)
	setString(&c.SnapRoot, fc.SnapRoot)
	setString(&c.Target, fc.Target)
	if fc.SplitRatio != nil {
		c.SplitRatio = *fc.SplitRatio
	}
	if fc.Downsample != 0 {
		c.Downsample = fc.Downsample
	}
	if fc.Seed != 0 {
		c.Seed = fc.Seed
	}
	if fc.Workers != 0 {
		c.Workers = fc.Workers
	}
	if fc.SnapshotWidth != 0 {
		c.SnapshotWidth = fc.SnapshotWidth
	}
	if fc.Format != "" {
		f, err := archive.ParseFormat(fc.Format)
		if err != nil {
			return err
		}
		c.Format = f
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("DATA"); ok {
		c.DataRoot = v
	}
	if v, ok := get("TRASH"); ok {
		c.TrashRoot = v
	}
	if v, ok := get("SNAPS"); ok {
		c.SnapRoot = v
	}
	if v, ok := get("TARGET"); ok {
		c.Target = v
	}
	if v, ok := get("SPLIT_RATIO"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sSPLIT_RATIO: %w", EnvPrefix, err)
		}
		c.SplitRatio = f
	}
	if v, ok := get("FORMAT"); ok {
		f, err := archive.ParseFormat(v)
		if err != nil {
			return fmt.Errorf("%sFORMAT: %w", EnvPrefix, err)
		}
		c.Format = f
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"DOWNSAMPLE", &c.Downsample},
		{"WORKERS", &c.Workers},
		{"SNAPSHOT_WIDTH", &c.SnapshotWidth},
	}
	for _, e := range ints {
		v, ok := get(e.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, e.name, err)
		}
		*e.dst = n
	}

	if v, ok := get("SEED"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sSEED: %w", EnvPrefix, err)
		}
		c.Seed = n
	}
	return nil
}

// Validate checks the merged values
func (c Config) Validate() error {
	var errs []error
	if c.SplitRatio < 0 || c.SplitRatio > 1 {
		errs = append(errs, fmt.Errorf("split ratio must be within [0,1], got %v", c.SplitRatio))
	}
	if c.Downsample < 1 {
		errs = append(errs, fmt.Errorf("downsample factor must be >= 1, got %d", c.Downsample))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if c.SnapshotWidth < 0 {
		errs = append(errs, fmt.Errorf("snapshot width must be >= 0, got %d", c.SnapshotWidth))
	}
	if len(errs) > 0 {
		return &Error{Code: ErrCodeInvalid, Err: errors.Join(errs...)}
	}
	return nil
}

func setString(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = v
	}
}
