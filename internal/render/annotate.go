package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/juney329/mancat-v2/internal/store"
)

const (
	tickMarkLength = 5
	pixelsPerLabel = 150.0

	// Border sizes in pixels
	topBorder    = 30
	leftBorder   = 70
	bottomBorder = 30
	rightBorder  = 20
)

// Annotated renders the tile with frequency and time scales and an info
// bar: frequency labels along the top, relative-time labels on the left,
// and the window summary underneath.
func Annotated(t *store.Tile) (*image.RGBA, error) {
	if len(t.Freqs) == 0 || len(t.Times) == 0 {
		return nil, fmt.Errorf("render: cannot annotate an empty tile")
	}

	tileImg := Grayscale(t)
	width := tileImg.Bounds().Dx()
	height := tileImg.Bounds().Dy()

	img := image.NewRGBA(image.Rect(0, 0, width+leftBorder+rightBorder, height+topBorder+bottomBorder))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	area := image.Rect(leftBorder, topBorder, leftBorder+width, topBorder+height)
	draw.Draw(img, area, tileImg, image.Point{}, draw.Src)

	a := annotator{img: img, face: basicfont.Face7x13}
	a.drawFrequencyScale(t, width)
	a.drawTimeScale(t, height)
	a.drawInfoBar(t, width, height)
	return img, nil
}

type annotator struct {
	img  *image.RGBA
	face font.Face
}

func (a *annotator) drawString(s string, x, y int) {
	d := font.Drawer{
		Dst:  a.img,
		Src:  image.Black,
		Face: a.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func (a *annotator) stringWidth(s string) int {
	return font.MeasureString(a.face, s).Round()
}

func (a *annotator) drawFrequencyScale(t *store.Tile, width int) {
	fMin, fMax := t.Freqs[0], t.Freqs[len(t.Freqs)-1]
	if fMax <= fMin {
		label := formatFrequency(fMin)
		a.drawString(label, leftBorder, topBorder-tickMarkLength-2)
		return
	}

	step := niceFrequencyStep(fMax-fMin, width)
	start := math.Ceil(fMin/step) * step
	for freq := start; freq <= fMax; freq += step {
		ratio := (freq - fMin) / (fMax - fMin)
		x := leftBorder + int(ratio*float64(width))

		for y := topBorder - tickMarkLength; y < topBorder; y++ {
			a.img.Set(x, y, color.Black)
		}

		label := formatFrequency(freq)
		a.drawString(label, x-a.stringWidth(label)/2, topBorder-tickMarkLength-2)
	}
}

func (a *annotator) drawTimeScale(t *store.Tile, height int) {
	tMin, tMax := t.Times[0], t.Times[len(t.Times)-1]
	span := tMax - tMin
	step := niceTimeStep(span, height)

	for rel := tMin; rel <= tMax; rel += step {
		var y int
		if span > 0 {
			y = topBorder + int(float64(rel-tMin)/float64(span)*float64(height-1))
		} else {
			y = topBorder
		}

		for x := leftBorder - tickMarkLength; x < leftBorder; x++ {
			a.img.Set(x, y, color.Black)
		}

		label := (time.Duration(rel) * time.Second).String()
		a.drawString(label, leftBorder-tickMarkLength-a.stringWidth(label)-3, y+4)

		if step == 0 {
			break
		}
	}
}

func (a *annotator) drawInfoBar(t *store.Tile, width, height int) {
	info := fmt.Sprintf("%s; %d x %d; t %d-%ds",
		formatFrequencyRange(t.Freqs[0], t.Freqs[len(t.Freqs)-1]),
		height, width,
		t.Times[0], t.Times[len(t.Times)-1])
	a.drawString(info, leftBorder, topBorder+height+bottomBorder/2+4)
}

func niceFrequencyStep(span float64, width int) float64 {
	steps := []float64{
		1, 10, 100,
		1_000, 10_000, 100_000,
		1_000_000, 10_000_000, 100_000_000,
		1_000_000_000,
	}

	desired := float64(width) / pixelsPerLabel
	if desired < 1 {
		desired = 1
	}
	target := span / desired

	for _, step := range steps {
		if step >= target {
			if span/step >= 2 {
				return step
			}
			break
		}
	}
	return span / 2
}

func niceTimeStep(span int64, height int) int64 {
	if span <= 0 {
		return 0
	}
	labels := int64(height) / 40
	if labels < 2 {
		labels = 2
	}
	steps := []int64{1, 2, 5, 10, 30, 60, 300, 600, 1800, 3600, 7200, 14400}
	target := span / labels
	for _, step := range steps {
		if step >= target {
			return step
		}
	}
	return span / 2
}
