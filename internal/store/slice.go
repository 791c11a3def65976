package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/juney329/mancat-v2/internal/spectrum"
)

// resolveWindow maps an optional [start, end] value range onto a half-open
// index range of the axis. A nil bound is unbounded on that side. The
// result always selects at least one element, even for zero-width or fully
// out-of-range requests, and satisfies 0 <= lo < hi <= len(axis) for any
// non-empty axis.
func resolveWindow(axis []float64, start, end *float64) (lo, hi int) {
	n := len(axis)
	if n == 0 {
		return 0, 0
	}
	if start != nil {
		lo = sort.SearchFloat64s(axis, *start) // first index with axis[i] >= start
	}
	hi = n
	if end != nil {
		e := *end
		hi = sort.Search(n, func(i int) bool { return axis[i] > e }) // first index with axis[i] > end
	}
	if hi < lo+1 {
		hi = lo + 1
	}
	if lo > n-1 {
		lo = n - 1
	}
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	return lo, hi
}

// selectIndices picks exactly max evenly spaced indices from [0, n), or nil
// when no downsampling is needed. Selection is stride-based, deterministic,
// and intentionally lossy: floor(i*n/max) for each output position.
func selectIndices(n, max int) []int {
	if max <= 0 || n <= max {
		return nil
	}
	out := make([]int, max)
	for i := range out {
		idx := i * n / max
		if idx > n-1 {
			idx = n - 1
		}
		out[i] = idx
	}
	return out
}

// Summary is a windowed set of summary curves over a shared frequency axis.
// Every curve has the same length as Freqs.
type Summary struct {
	Freqs  []float64            `json:"freqs"`
	Curves map[string][]float64 `json:"curves"`
}

// SummaryRange resolves the frequency window [f0, f1] against the band's
// full-resolution summary curves. When the window holds more than maxPoints
// samples, the axis and every curve are re-derived by piecewise-linear
// interpolation onto a uniform axis of exactly maxPoints samples spanning
// the window. maxPoints <= 0 means uncapped. The returned axis and all
// curves share one length: min(window size, maxPoints).
func (b *Band) SummaryRange(f0, f1 *float64, maxPoints int) (*Summary, error) {
	full, err := b.fullResTier()
	if err != nil {
		return nil, err
	}

	lo, hi := resolveWindow(b.freqs, f0, f1)
	window := b.freqs[lo:hi]
	curves := map[string][]float64{
		"min": full.Min[lo:hi],
		"avg": full.Avg[lo:hi],
		"max": full.Max[lo:hi],
	}

	if maxPoints <= 0 || len(window) <= maxPoints {
		out := &Summary{Freqs: window, Curves: make(map[string][]float64, len(curves))}
		for name, values := range curves {
			out.Curves[name] = values
		}
		return out, nil
	}

	target := spectrum.Linspace(window[0], window[len(window)-1], maxPoints)
	out := &Summary{Freqs: target, Curves: make(map[string][]float64, len(curves))}
	for name, values := range curves {
		out.Curves[name] = spectrum.Interp(target, window, values)
	}
	return out, nil
}

// Tile is a bounded rectangular window of the waterfall matrix. Values is
// rows×cols in dequantized dB; Times and Freqs carry the exact original
// axis values of the selected rows and columns, so every sample maps back
// to an original coordinate.
type Tile struct {
	Values [][]float64 `json:"values"`
	Times  []int64     `json:"times"` // relative seconds
	Freqs  []float64   `json:"freqs"`
}

// Tile resolves independent frequency and time windows and extracts the
// sub-matrix by random access against the memory-mapped store. When a
// window exceeds its cap, exactly maxH rows (and independently maxW
// columns) are kept by deterministic evenly spaced stride selection.
// Output dimensions never exceed (maxH, maxW).
func (b *Band) Tile(ctx context.Context, f0, f1, t0, t1 *float64, maxW, maxH int) (*Tile, error) {
	colLo, colHi := resolveWindow(b.freqs, f0, f1)
	rowLo, rowHi := resolveWindow(b.timesF, t0, t1)

	rowSel := selectIndices(rowHi-rowLo, maxH)
	colSel := selectIndices(colHi-colLo, maxW)

	nRows := rowHi - rowLo
	if rowSel != nil {
		nRows = len(rowSel)
	}
	nCols := colHi - colLo
	if colSel != nil {
		nCols = len(colSel)
	}

	params := b.meta.Params()
	tile := &Tile{
		Values: make([][]float64, nRows),
		Times:  make([]int64, nRows),
		Freqs:  make([]float64, nCols),
	}
	for i := range tile.Freqs {
		col := colLo + i
		if colSel != nil {
			col = colLo + colSel[i]
		}
		tile.Freqs[i] = b.freqs[col]
	}

	seg := make([]int16, colHi-colLo)
	for i := 0; i < nRows; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := rowLo + i
		if rowSel != nil {
			row = rowLo + rowSel[i]
		}
		if err := b.mat.readRowSegment(seg, row, colLo, colHi); err != nil {
			return nil, fmt.Errorf("store: reading matrix row %d for band %s: %w", row, b.ID, err)
		}

		values := make([]float64, nCols)
		for j := range values {
			c := j
			if colSel != nil {
				c = colSel[j]
			}
			values[j] = params.Dequantize(seg[c])
		}
		tile.Values[i] = values
		tile.Times[i] = b.times[row]
	}
	return tile, nil
}
