// Package merge groups decoded sweep traces into per-band matrices aligned
// to a canonical frequency axis.
package merge

import (
	"sort"

	"github.com/juney329/mancat-v2/internal/frame"
	"github.com/juney329/mancat-v2/internal/spectrum"
)

// Merger accumulates traces across any number of input streams. Bands are
// keyed by exact (start, stop) equality. The first trace seen for a band
// fixes its canonical frequency axis; later traces whose axis differs in
// length or endpoints are linearly resampled onto it. Interior spacing
// differences are not checked.
type Merger struct {
	bands map[spectrum.BandRange]*accum
}

type accum struct {
	freqs     []float64
	times     []int64
	rows      [][]float64
	resampled int
}

func New() *Merger {
	return &Merger{bands: make(map[spectrum.BandRange]*accum)}
}

// AddMessage folds every trace element of a decoded frame into the merger.
// Elements without a trace (empty or inverted frequency range) are skipped.
func (m *Merger) AddMessage(msg *frame.Message) {
	for i := range msg.Elements {
		el := &msg.Elements[i]
		if !el.HasTrace() {
			continue
		}
		m.Add(spectrum.Trace{
			Band:     spectrum.BandRange{Start: el.Start, Stop: el.Stop},
			UnixTime: msg.UnixTime,
			Freqs:    el.Freqs(),
			Powers:   el.Powers(),
		})
	}
}

// Add folds a single trace into its band.
func (m *Merger) Add(t spectrum.Trace) {
	acc, ok := m.bands[t.Band]
	if !ok {
		acc = &accum{freqs: append([]float64(nil), t.Freqs...)}
		m.bands[t.Band] = acc
	}
	powers := t.Powers
	if ok && axisDiffers(acc.freqs, t.Freqs) {
		powers = spectrum.Interp(acc.freqs, t.Freqs, t.Powers)
		acc.resampled++
	}
	acc.times = append(acc.times, t.UnixTime)
	acc.rows = append(acc.rows, powers)
}

func axisDiffers(canon, axis []float64) bool {
	if len(axis) != len(canon) {
		return true
	}
	if len(canon) == 0 {
		return false
	}
	return axis[0] != canon[0] || axis[len(axis)-1] != canon[len(canon)-1]
}

// Bands returns the discovered band ranges ordered by (start, stop).
func (m *Merger) Bands() []spectrum.BandRange {
	out := make([]spectrum.BandRange, 0, len(m.bands))
	for b := range m.bands {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Merged finalizes every band: rows are stably sorted by capture time, so
// duplicate timestamps keep their encounter order. Bands are returned
// ordered by (start, stop).
func (m *Merger) Merged() []*spectrum.MergedBand {
	out := make([]*spectrum.MergedBand, 0, len(m.bands))
	for _, band := range m.Bands() {
		acc := m.bands[band]
		order := make([]int, len(acc.times))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(i, j int) bool {
			return acc.times[order[i]] < acc.times[order[j]]
		})

		mb := &spectrum.MergedBand{
			Band:      band,
			Freqs:     acc.freqs,
			Times:     make([]int64, len(order)),
			Rows:      make([][]float64, len(order)),
			Resampled: acc.resampled,
		}
		for i, idx := range order {
			mb.Times[i] = acc.times[idx]
			mb.Rows[i] = acc.rows[idx]
		}
		out = append(out, mb)
	}
	return out
}
