package render

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/juney329/mancat-v2/internal/store"
)

func testTile() *store.Tile {
	return &store.Tile{
		Values: [][]float64{
			{-120, -80, -40},
			{-120, -120, -120},
		},
		Times: []int64{0, 10},
		Freqs: []float64{100e6, 150e6, 200e6},
	}
}

func TestGrayscale(t *testing.T) {
	img := Grayscale(testTile())
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("image is %dx%d, want 3x2", b.Dx(), b.Dy())
	}

	// Normalization maps the tile minimum to black and the maximum to white.
	if got := img.GrayAt(0, 0).Y; got != 0 {
		t.Errorf("minimum sample = %d, want 0", got)
	}
	if got := img.GrayAt(2, 0).Y; got != 255 {
		t.Errorf("maximum sample = %d, want 255", got)
	}
	// The midpoint lands halfway.
	if got := img.GrayAt(1, 0).Y; got < 126 || got > 128 {
		t.Errorf("midpoint sample = %d, want about 127", got)
	}
}

func TestGrayscale_FlatTile(t *testing.T) {
	tile := &store.Tile{
		Values: [][]float64{{-50, -50}, {-50, -50}},
		Times:  []int64{0, 1},
		Freqs:  []float64{1e6, 2e6},
	}
	// A flat tile must render without dividing by zero.
	img := Grayscale(tile)
	if got := img.GrayAt(0, 0).Y; got != 0 {
		t.Errorf("flat tile sample = %d, want 0", got)
	}
}

func TestGrayscale_EmptyTile(t *testing.T) {
	img := Grayscale(&store.Tile{})
	if b := img.Bounds(); b.Dx() != 0 || b.Dy() != 0 {
		t.Errorf("empty tile rendered as %dx%d", b.Dx(), b.Dy())
	}
}

func TestEncodePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, Grayscale(testTile())); err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Failed to decode produced PNG: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("decoded image is %dx%d, want 3x2", b.Dx(), b.Dy())
	}
}

func TestAnnotated(t *testing.T) {
	img, err := Annotated(testTile())
	if err != nil {
		t.Fatalf("Failed to annotate: %v", err)
	}
	// Borders are added around the tile area.
	b := img.Bounds()
	if b.Dx() != 3+leftBorder+rightBorder || b.Dy() != 2+topBorder+bottomBorder {
		t.Errorf("annotated image is %dx%d, want %dx%d",
			b.Dx(), b.Dy(), 3+leftBorder+rightBorder, 2+topBorder+bottomBorder)
	}

	if _, err := Annotated(&store.Tile{}); err == nil {
		t.Error("Expected error for empty tile")
	}
}

func TestFormatFrequency(t *testing.T) {
	testCases := []struct {
		freq float64
		want string
	}{
		{500, "500 Hz"},
		{2_500, "2.5 kHz"},
		{433_920_000, "433.9 MHz"},
		{5_800_000_000, "5.8 GHz"},
	}
	for _, tc := range testCases {
		if got := formatFrequency(tc.freq); got != tc.want {
			t.Errorf("formatFrequency(%v) = %q, want %q", tc.freq, got, tc.want)
		}
	}
}
