package record

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/food3d/curator/internal/testutil"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		path     string
		expected Kind
	}{
		{"/d/apple/1_bgr.npz", KindRGB},
		{"/d/apple/1_depth.npz", KindDepth},
		{"/d/apple/1.npz", KindUnknown},
		{"/d/apple/1_bgr.npy", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := KindOf(tt.path); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestLoadInvalidKind(t *testing.T) {
	_, err := Load("/tmp/whatever.npz")
	if !errors.Is(err, ErrInvalidKind) {
		t.Errorf("Expected ErrInvalidKind, got %v", err)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"x_bgr.npz", "x_depth.npz"} {
		_, err := Load(filepath.Join(dir, name))
		if !errors.Is(err, ErrFileNotFound) {
			t.Errorf("Expected ErrFileNotFound for %s, got %v", name, err)
		}
	}
}

func TestLoadRGBReordersChannels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a_bgr.npz")
	// 2 rows, 3 cols; B=10*y+x, G=100, R=200, A=7
	testutil.WriteBGRA(t, path, 2, 3, func(y, x int) [4]uint8 {
		return [4]uint8{uint8(10*y + x), 100, 200, 7}
	})

	v, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	rgb, ok := v.(*RGB)
	if !ok {
		t.Fatalf("Expected *RGB, got %T", v)
	}

	if rgb.Height != 2 || rgb.Width != 3 {
		t.Fatalf("Expected 2x3, got %dx%d", rgb.Height, rgb.Width)
	}
	if len(rgb.Pix) != 3*2*3 {
		t.Fatalf("Expected %d values, got %d", 18, len(rgb.Pix))
	}

	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			if r := rgb.At(0, y, x); r != 200 {
				t.Errorf("R at (%d,%d) = %d, want 200", x, y, r)
			}
			if g := rgb.At(1, y, x); g != 100 {
				t.Errorf("G at (%d,%d) = %d, want 100", x, y, g)
			}
			if b := rgb.At(2, y, x); b != uint8(10*y+x) {
				t.Errorf("B at (%d,%d) = %d, want %d", x, y, b, 10*y+x)
			}
		}
	}
}

func TestLoadDepth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a_depth.npz")
	testutil.WriteDepth(t, path, 2, 2, []float32{1000, 2000, 0, 500})

	d, err := LoadDepth(path)
	if err != nil {
		t.Fatalf("LoadDepth failed: %v", err)
	}
	if d.Height != 2 || d.Width != 2 {
		t.Fatalf("Expected 2x2, got %dx%d", d.Height, d.Width)
	}
	if d.At(0, 1) != 2000 {
		t.Errorf("Expected raw value 2000, got %f", d.At(0, 1))
	}

	m, err := LoadDepthMeters(path)
	if err != nil {
		t.Fatalf("LoadDepthMeters failed: %v", err)
	}
	if m.At(0, 1) != 2 {
		t.Errorf("Expected 2m, got %f", m.At(0, 1))
	}
}

func TestLoadDepthUint16(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a_depth.npz")
	testutil.WriteNPZ(t, path, testutil.EncodeNPY("<u2", []int{1, 2}, []byte{0xe8, 0x03, 0xd0, 0x07}))

	d, err := LoadDepth(path)
	if err != nil {
		t.Fatalf("LoadDepth failed: %v", err)
	}
	if d.Values[0] != 1000 || d.Values[1] != 2000 {
		t.Errorf("Expected [1000 2000], got %v", d.Values)
	}
}

func TestLoadDecodeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken_bgr.npz")
	if err := os.WriteFile(path, []byte("not a zip"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	_, err := LoadRGB(path)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("Expected DecodeError, got %v", err)
	}
	if de.Path != path {
		t.Errorf("Expected path %s, got %s", path, de.Path)
	}
}

func TestLoadRGBRejectsWrongRank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flat_bgr.npz")
	testutil.WriteNPZ(t, path, testutil.EncodeNPY("|u1", []int{4}, []byte{1, 2, 3, 4}))

	_, err := LoadRGB(path)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Errorf("Expected DecodeError, got %v", err)
	}
}

func TestTransformDepth(t *testing.T) {
	inf := float32(math.Inf(1))
	nan := float32(math.NaN())
	in := &Depth{Height: 1, Width: 5, Values: []float32{inf, nan, 1000, 250, float32(math.Inf(-1))}}

	out := TransformDepth(in)

	expected := []float32{0, 0, 1, 0.25, 0}
	for i, v := range expected {
		if out.Values[i] != v {
			t.Errorf("Index %d: expected %f, got %f", i, v, out.Values[i])
		}
	}

	// input untouched
	if !math.IsInf(float64(in.Values[0]), 1) {
		t.Error("TransformDepth must not modify its input")
	}
}

func TestTransformDepthRoundTrip(t *testing.T) {
	out := TransformDepth(&Depth{Height: 1, Width: 1, Values: []float32{1000}})
	if out.Values[0] != 1 {
		t.Errorf("Expected 1.0, got %f", out.Values[0])
	}
}

func TestDownsample(t *testing.T) {
	tests := []struct {
		name      string
		h, w      int
		factor    int
		expectedH int
		expectedW int
	}{
		{"even", 100, 100, 2, 50, 50},
		{"odd rounds up", 5, 7, 2, 3, 4},
		{"identity", 4, 3, 1, 4, 3},
		{"factor larger than image", 3, 3, 10, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rgb := &RGB{Height: tt.h, Width: tt.w, Pix: make([]uint8, 3*tt.h*tt.w)}
			for i := range rgb.Pix {
				rgb.Pix[i] = uint8(i)
			}
			small, err := rgb.Downsample(tt.factor)
			if err != nil {
				t.Fatalf("Downsample failed: %v", err)
			}
			if small.Height != tt.expectedH || small.Width != tt.expectedW {
				t.Errorf("Expected %dx%d, got %dx%d", tt.expectedH, tt.expectedW, small.Height, small.Width)
			}

			depth := &Depth{Height: tt.h, Width: tt.w, Values: make([]float32, tt.h*tt.w)}
			d, err := depth.Downsample(tt.factor)
			if err != nil {
				t.Fatalf("Downsample failed: %v", err)
			}
			if d.Height != tt.expectedH || d.Width != tt.expectedW {
				t.Errorf("Expected %dx%d, got %dx%d", tt.expectedH, tt.expectedW, d.Height, d.Width)
			}
		})
	}
}

func TestDownsamplePicksEveryNthPixel(t *testing.T) {
	d := &Depth{Height: 3, Width: 4, Values: []float32{
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,
	}}
	small, err := d.Downsample(2)
	if err != nil {
		t.Fatalf("Downsample failed: %v", err)
	}
	expected := []float32{0, 2, 8, 10}
	for i, v := range expected {
		if small.Values[i] != v {
			t.Errorf("Index %d: expected %f, got %f", i, v, small.Values[i])
		}
	}

	if _, err := d.Downsample(0); err == nil {
		t.Error("Expected error for factor 0, got nil")
	}
}

func TestHWC(t *testing.T) {
	rgb := &RGB{Height: 1, Width: 2, Pix: []uint8{
		1, 2, // R
		3, 4, // G
		5, 6, // B
	}}
	hwc := rgb.HWC()
	expected := []uint8{1, 3, 5, 2, 4, 6}
	for i, v := range expected {
		if hwc[i] != v {
			t.Errorf("Index %d: expected %d, got %d", i, v, hwc[i])
		}
	}
}

func TestConvertNPYToNPZ(t *testing.T) {
	dir := t.TempDir()
	npyPath := filepath.Join(dir, "frame_depth.npy")
	payload := testutil.EncodeNPY("<f4", []int{1, 1}, []byte{0, 0, 0x7a, 0x44}) // 1000.0
	if err := os.WriteFile(npyPath, payload, 0644); err != nil {
		t.Fatalf("Failed to write npy: %v", err)
	}

	out, err := ConvertNPYToNPZ(npyPath)
	if err != nil {
		t.Fatalf("ConvertNPYToNPZ failed: %v", err)
	}
	if out != filepath.Join(dir, "frame_depth.npz") {
		t.Errorf("Unexpected output path %s", out)
	}

	d, err := LoadDepthMeters(out)
	if err != nil {
		t.Fatalf("LoadDepthMeters failed: %v", err)
	}
	if d.Values[0] != 1 {
		t.Errorf("Expected 1m, got %f", d.Values[0])
	}
}

func TestConvertRejectsNonNPY(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.npy")
	if err := os.WriteFile(path, []byte("junk"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := ConvertNPYToNPZ(path); err == nil {
		t.Error("Expected error for invalid npy, got nil")
	}
}
