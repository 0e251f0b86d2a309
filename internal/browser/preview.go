package browser

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/food3d/curator/internal/images"
	"github.com/food3d/curator/internal/record"
)

// renderRGB draws the frame with half blocks, two pixel rows per line
func renderRGB(rgb *record.RGB, cols int) string {
	return halfBlocks(images.FitWidth(images.ToImage(rgb), cols))
}

// renderDepth draws the depth map in grayscale, nearest is brightest.
// Invalid pixels stay black.
func renderDepth(d *record.Depth, cols int) string {
	return halfBlocks(images.FitWidth(depthImage(d), cols))
}

func depthImage(d *record.Depth) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, d.Width, d.Height))

	var lo, hi float32
	for _, v := range d.Values {
		if v <= 0 {
			continue
		}
		if lo == 0 || v < lo {
			lo = v
		}
		hi = max(hi, v)
	}

	for i, v := range d.Values {
		if v <= 0 {
			continue
		}
		shade := float32(255)
		if hi > lo {
			shade = 55 + 200*(hi-v)/(hi-lo)
		}
		img.Pix[i] = uint8(shade)
	}
	return img
}

func halfBlocks(img image.Image) string {
	b := img.Bounds()
	var lines []string
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		var line strings.Builder
		for x := b.Min.X; x < b.Max.X; x++ {
			style := lipgloss.NewStyle().Foreground(hex(img.At(x, y)))
			if y+1 < b.Max.Y {
				style = style.Background(hex(img.At(x, y+1)))
			}
			line.WriteString(style.Render("▀"))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

func hex(c color.Color) lipgloss.Color {
	r, g, b, _ := c.RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
}
