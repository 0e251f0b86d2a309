package images

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/food3d/curator/internal/record"
)

// DefaultQuality is the JPEG quality used for snapshots
const DefaultQuality = 95

// ToImage converts a channel-first RGB frame to an image.RGBA
func ToImage(rgb *record.RGB) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, rgb.Width, rgb.Height))
	hwc := rgb.HWC()
	for i := 0; i < rgb.Width*rgb.Height; i++ {
		img.Pix[i*4] = hwc[i*3]
		img.Pix[i*4+1] = hwc[i*3+1]
		img.Pix[i*4+2] = hwc[i*3+2]
		img.Pix[i*4+3] = 0xff
	}
	return img
}

// FitWidth scales img down so it is at most maxWidth wide, keeping the
// aspect ratio. Images already narrow enough, or maxWidth <= 0, are
// returned unchanged.
func FitWidth(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}

	h := b.Dy() * maxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Rect, img, b, draw.Over, nil)
	return dst
}

// EncodeJPEG renders an RGB frame as JPEG
func EncodeJPEG(rgb *record.RGB, maxWidth int) ([]byte, error) {
	if rgb.Width <= 0 || rgb.Height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", rgb.Width, rgb.Height)
	}

	var out bytes.Buffer
	img := FitWidth(ToImage(rgb), maxWidth)
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: DefaultQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}

// SaveJPEG writes an RGB frame to dir/name, replacing any existing file.
// The data goes to a temporary file in dir first and is renamed into place.
func SaveJPEG(dir, name string, rgb *record.RGB, maxWidth int) (string, error) {
	data, err := EncodeJPEG(rgb, maxWidth)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close snapshot: %w", err)
	}

	dst := filepath.Join(dir, name)
	if err := os.Rename(tmpName, dst); err != nil {
		return "", fmt.Errorf("failed to place snapshot: %w", err)
	}
	return dst, nil
}
