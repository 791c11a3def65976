// Package tier derives multi-resolution frequency summaries from a stored
// waterfall matrix.
package tier

import (
	"fmt"
	"math"

	"github.com/juney329/mancat-v2/internal/quant"
)

// DefaultBlockRows bounds peak memory during summarization: the matrix is
// processed this many rows at a time regardless of its height.
const DefaultBlockRows = 1024

// DefaultDecimations is the standard ascending tier set.
var DefaultDecimations = []int{1, 2, 4, 8}

// Tier is a read-only frequency summary at one decimation factor. Each of
// the ceil(F/d) bins aggregates d adjacent frequency columns across the full
// time extent. Freqs is strided, not averaged: every d-th sample of the
// original axis, so each bin maps back to an original coordinate.
type Tier struct {
	Decimation int       `json:"decim"`
	Min        []float64 `json:"min"`
	Max        []float64 `json:"max"`
	Avg        []float64 `json:"avg"`
	Freqs      []float64 `json:"f_axis"`
}

// Bins returns the number of reduced frequency bins.
func (t *Tier) Bins() int { return len(t.Min) }

// RowSource supplies quantized matrix rows. dst receives count*cols codes.
type RowSource interface {
	ReadRows(dst []int16, row, count int) error
}

// Build computes one Tier per decimation factor by streaming the matrix in
// fixed-size row blocks. A trailing bin narrower than d aggregates only its
// real columns; the padding participates in neither the extrema nor the
// average.
//
// The per-tier average is the plain mean of per-block averages, weighting
// every block equally even when the final block is short. This matches the
// reference pipeline and is exact only when rows is a multiple of blockRows;
// do not silently switch to a row-weighted mean.
func Build(src RowSource, rows, cols int, params quant.Params, freqs []float64, decims []int, blockRows int) ([]Tier, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("tier: empty matrix (%dx%d)", rows, cols)
	}
	if len(freqs) != cols {
		return nil, fmt.Errorf("tier: frequency axis length %d does not match %d columns", len(freqs), cols)
	}
	if blockRows <= 0 {
		blockRows = DefaultBlockRows
	}

	tiers := make([]Tier, 0, len(decims))
	buf := make([]int16, blockRows*cols)
	for _, d := range decims {
		if d <= 0 {
			return nil, fmt.Errorf("tier: invalid decimation %d", d)
		}
		t, err := buildOne(src, rows, cols, params, freqs, d, blockRows, buf)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return tiers, nil
}

func buildOne(src RowSource, rows, cols int, params quant.Params, freqs []float64, d, blockRows int, buf []int16) (Tier, error) {
	k := (cols + d - 1) / d

	accMin := make([]float64, k)
	accMax := make([]float64, k)
	accSum := make([]float64, k)
	for i := 0; i < k; i++ {
		accMin[i] = math.Inf(1)
		accMax[i] = math.Inf(-1)
	}

	binSum := make([]float64, k)
	binCnt := make([]int, k)
	blocks := 0

	for start := 0; start < rows; start += blockRows {
		n := blockRows
		if start+n > rows {
			n = rows - start
		}
		block := buf[:n*cols]
		if err := src.ReadRows(block, start, n); err != nil {
			return Tier{}, fmt.Errorf("tier: reading rows %d-%d: %w", start, start+n, err)
		}

		for i := 0; i < k; i++ {
			binSum[i] = 0
			binCnt[i] = 0
		}
		for r := 0; r < n; r++ {
			row := block[r*cols : (r+1)*cols]
			for c, code := range row {
				v := params.Dequantize(code)
				bin := c / d
				if v < accMin[bin] {
					accMin[bin] = v
				}
				if v > accMax[bin] {
					accMax[bin] = v
				}
				binSum[bin] += v
				binCnt[bin]++
			}
		}
		for i := 0; i < k; i++ {
			accSum[i] += binSum[i] / float64(binCnt[i])
		}
		blocks++
	}

	avg := make([]float64, k)
	for i := range avg {
		avg[i] = accSum[i] / float64(blocks)
	}

	reduced := make([]float64, 0, k)
	for i := 0; i < cols; i += d {
		reduced = append(reduced, freqs[i])
	}

	return Tier{
		Decimation: d,
		Min:        accMin,
		Max:        accMax,
		Avg:        avg,
		Freqs:      reduced,
	}, nil
}
