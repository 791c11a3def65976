// Package render turns waterfall tiles into images. The core rendering is
// the backend's normalized grayscale mapping; Annotated adds frequency and
// time scales around the tile for standalone inspection.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/juney329/mancat-v2/internal/store"
)

// minSpan guards against a flat tile dividing by zero during
// normalization.
const minSpan = 1e-6

// Grayscale maps the tile onto an 8-bit grayscale image, normalized over
// the tile's own min/max. Row 0 is the earliest selected time.
func Grayscale(t *store.Tile) *image.Gray {
	rows := len(t.Values)
	cols := 0
	if rows > 0 {
		cols = len(t.Values[0])
	}
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	if rows == 0 || cols == 0 {
		return img
	}

	lo, hi := t.Values[0][0], t.Values[0][0]
	for _, row := range t.Values {
		for _, v := range row {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	span := hi - lo
	if span < minSpan {
		span = minSpan
	}

	for y, row := range t.Values {
		for x, v := range row {
			norm := (v - lo) / span
			if norm < 0 {
				norm = 0
			} else if norm > 1 {
				norm = 1
			}
			img.SetGray(x, y, color.Gray{Y: uint8(norm * 255)})
		}
	}
	return img
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("render: encoding png: %w", err)
	}
	return nil
}

func formatFrequency(freq float64) string {
	switch {
	case freq >= 1e9:
		return fmt.Sprintf("%.1f GHz", freq/1e9)
	case freq >= 1e6:
		return fmt.Sprintf("%.1f MHz", freq/1e6)
	case freq >= 1e3:
		return fmt.Sprintf("%.1f kHz", freq/1e3)
	default:
		return fmt.Sprintf("%.0f Hz", freq)
	}
}

func formatFrequencyRange(min, max float64) string {
	return fmt.Sprintf("Freq: %s - %s", formatFrequency(min), formatFrequency(max))
}
