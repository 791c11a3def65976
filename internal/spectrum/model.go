package spectrum

import "fmt"

// BandRange identifies a contiguous frequency band by its sweep endpoints
// in Hz. Traces are grouped into bands by exact equality of both endpoints;
// there is deliberately no tolerance, matching the capture tooling which
// emits bit-identical endpoints for repeated sweeps of the same band.
type BandRange struct {
	Start float64 // Hz, inclusive
	Stop  float64 // Hz, exclusive
}

func (b BandRange) String() string {
	return fmt.Sprintf("%.3f-%.3f MHz", b.Start/1e6, b.Stop/1e6)
}

// Less orders bands by (Start, Stop).
func (b BandRange) Less(other BandRange) bool {
	if b.Start != other.Start {
		return b.Start < other.Start
	}
	return b.Stop < other.Stop
}

// Trace is a single decoded sweep: one row of power samples over the band's
// frequency span, captured at UnixTime.
type Trace struct {
	Band     BandRange
	UnixTime int64     // capture time, seconds since epoch
	Freqs    []float64 // Hz, ascending, same length as Powers
	Powers   []float64 // dB
}

// MergedBand holds every trace collected for one band, aligned to the
// canonical frequency axis and sorted chronologically. Rows is a T×F matrix
// in row-major chronological order.
type MergedBand struct {
	Band      BandRange
	Freqs     []float64 // canonical axis, fixed by the first trace seen
	Times     []int64   // absolute capture times, ascending after merge
	Rows      [][]float64
	Resampled int // traces regridded onto the canonical axis
}
