package images

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/food3d/curator/internal/record"
)

func solid(h, w int, r, g, b uint8) *record.RGB {
	plane := h * w
	rgb := &record.RGB{Height: h, Width: w, Pix: make([]uint8, 3*plane)}
	for i := 0; i < plane; i++ {
		rgb.Pix[i] = r
		rgb.Pix[plane+i] = g
		rgb.Pix[2*plane+i] = b
	}
	return rgb
}

func TestToImage(t *testing.T) {
	img := ToImage(solid(2, 3, 10, 20, 30))

	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Fatalf("Expected 3x2 image, got %v", img.Bounds())
	}
	c := img.RGBAAt(2, 1)
	if c.R != 10 || c.G != 20 || c.B != 30 || c.A != 255 {
		t.Errorf("Unexpected pixel %+v", c)
	}
}

func TestFitWidth(t *testing.T) {
	img := ToImage(solid(40, 100, 1, 2, 3))

	if got := FitWidth(img, 0); got != image.Image(img) {
		t.Error("Expected unchanged image for maxWidth 0")
	}
	if got := FitWidth(img, 200); got != image.Image(img) {
		t.Error("Expected unchanged image when already narrow enough")
	}

	small := FitWidth(img, 50)
	if small.Bounds().Dx() != 50 || small.Bounds().Dy() != 20 {
		t.Errorf("Expected 50x20, got %v", small.Bounds())
	}
}

func TestSaveJPEGOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snaps")

	path, err := SaveJPEG(dir, "apple.jpg", solid(8, 8, 255, 0, 0), 0)
	if err != nil {
		t.Fatalf("SaveJPEG failed: %v", err)
	}
	if path != filepath.Join(dir, "apple.jpg") {
		t.Errorf("Unexpected path %s", path)
	}

	if _, err := SaveJPEG(dir, "apple.jpg", solid(4, 6, 0, 0, 255), 0); err != nil {
		t.Fatalf("second SaveJPEG failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read snapshot: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if img.Bounds().Dx() != 6 || img.Bounds().Dy() != 4 {
		t.Errorf("Expected overwritten 6x4 image, got %v", img.Bounds())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".apple.jpg.tmp-") {
			t.Errorf("Temporary file left behind: %s", e.Name())
		}
	}
}

func TestEncodeJPEGRejectsEmpty(t *testing.T) {
	if _, err := EncodeJPEG(&record.RGB{}, 0); err == nil {
		t.Error("Expected error for empty image, got nil")
	}
}
