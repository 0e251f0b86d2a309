package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/food3d/curator/internal/archive"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "food3d.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", env(nil))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg != Defaults() {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
	if cfg.DataRoot != "../data" || cfg.SplitRatio != 0.7 || cfg.Downsample != 1 {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, `
data: /srv/food
trash: /srv/trash
splitratio: 0.5
downsample: 4
format: parquet
`)

	cfg, err := Load(path, env(map[string]string{
		"FOOD3D_TRASH":      "/env/trash",
		"FOOD3D_DOWNSAMPLE": "2",
		"FOOD3D_SEED":       "17",
	}))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"file over default", cfg.DataRoot, "/srv/food"},
		{"env over file", cfg.TrashRoot, "/env/trash"},
		{"default kept", cfg.SnapRoot, DefaultSnapRoot},
		{"file ratio", cfg.SplitRatio, 0.5},
		{"env downsample", cfg.Downsample, 2},
		{"env seed", cfg.Seed, int64(17)},
		{"file format", cfg.Format, archive.FormatParquet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, tt.got)
			}
		})
	}
}

func TestLoadZeroRatioFromFile(t *testing.T) {
	path := writeConfig(t, "splitratio: 0\n")
	cfg, err := Load(path, env(nil))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SplitRatio != 0 {
		t.Errorf("Expected explicit ratio 0, got %v", cfg.SplitRatio)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		env  map[string]string
		code string
	}{
		{
			name: "missing explicit file",
			path: filepath.Join(t.TempDir(), "nope.yaml"),
			code: ErrCodeNotFound,
		},
		{
			name: "malformed yaml",
			path: writeConfig(t, "data: [oops"),
			code: ErrCodeInvalid,
		},
		{
			name: "bad format",
			path: writeConfig(t, "format: tar"),
			code: ErrCodeInvalid,
		},
		{
			name: "bad env number",
			path: writeConfig(t, ""),
			env:  map[string]string{"FOOD3D_WORKERS": "many"},
			code: ErrCodeInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path, env(tt.env))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if Code(err) != tt.code {
				t.Errorf("Expected code %s, got %s (%v)", tt.code, Code(err), err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}

	cfg.SplitRatio = 1.2
	cfg.Downsample = 0
	err := cfg.Validate()
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("Expected %s, got %v", ErrCodeInvalid, err)
	}
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Err == nil {
		t.Errorf("Expected wrapped validation errors, got %v", err)
	}
}
