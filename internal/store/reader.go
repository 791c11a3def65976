package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/exp/mmap"

	"github.com/juney329/mancat-v2/internal/tier"
)

var (
	// ErrBandNotFound indicates no published artifact set exists for the
	// requested band id.
	ErrBandNotFound = errors.New("store: band not found")

	// ErrEmptyFrequencyAxis indicates the matrix shape cannot be inferred
	// because the frequency axis has no samples.
	ErrEmptyFrequencyAxis = errors.New("store: frequency axis is empty, cannot infer matrix shape")
)

// Band is an open, read-only handle on one published artifact set. The
// matrix is memory-mapped and accessed randomly; axes, metadata and tiers
// are loaded eagerly since they are small. A Band is safe for concurrent
// readers because nothing mutates it after open.
type Band struct {
	ID string

	meta   Meta
	freqs  []float64
	times  []int64   // relative seconds, times[0] == 0
	timesF []float64 // float copy of times for window resolution
	tiers  []tier.Tier

	mm   *mmap.ReaderAt
	mat  *matrixAt
	rows int
	cols int
}

func openBand(root, id string) (*Band, error) {
	dir := bandDir(root, id)
	meta, err := readMeta(filepath.Join(dir, metaFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrBandNotFound, id)
		}
		return nil, fmt.Errorf("store: reading metadata for band %s: %w", id, err)
	}

	b := &Band{ID: id, meta: meta}
	if b.freqs, err = readFloat64s(filepath.Join(dir, freqsFile)); err != nil {
		return nil, fmt.Errorf("store: reading frequency axis for band %s: %w", id, err)
	}
	if b.times, err = readInt64s(filepath.Join(dir, timesFile)); err != nil {
		return nil, fmt.Errorf("store: reading time axis for band %s: %w", id, err)
	}
	b.timesF = make([]float64, len(b.times))
	for i, t := range b.times {
		b.timesF[i] = float64(t)
	}

	tiersData, err := os.ReadFile(filepath.Join(dir, tiersFile))
	if err != nil {
		return nil, fmt.Errorf("store: reading tiers for band %s: %w", id, err)
	}
	if err = json.Unmarshal(tiersData, &b.tiers); err != nil {
		return nil, fmt.Errorf("store: parsing tiers for band %s: %w", id, err)
	}

	if b.mm, err = mmap.Open(filepath.Join(dir, matrixFile)); err != nil {
		return nil, fmt.Errorf("store: mapping matrix for band %s: %w", id, err)
	}
	if err = b.resolveShape(); err != nil {
		b.mm.Close()
		return nil, err
	}
	b.mat = &matrixAt{ra: b.mm, cols: b.cols}
	return b, nil
}

// resolveShape takes the matrix shape from metadata when present, otherwise
// derives it from the mapped file size and the frequency axis length.
func (b *Band) resolveShape() error {
	b.rows, b.cols = b.meta.NumTraces, b.meta.NumFreqs
	if b.rows > 0 && b.cols > 0 {
		return nil
	}
	b.cols = len(b.freqs)
	if b.cols == 0 {
		return fmt.Errorf("%w (band %s)", ErrEmptyFrequencyAxis, b.ID)
	}
	b.rows = b.mm.Len() / 2 / b.cols
	return nil
}

// Close unmaps the matrix. The Band must not be used afterwards.
func (b *Band) Close() error {
	return b.mm.Close()
}

func (b *Band) Meta() Meta { return b.meta }

// FreqAxis returns the canonical frequency axis. Callers must not modify it.
func (b *Band) FreqAxis() []float64 { return b.freqs }

// TimeAxis returns the relative time axis in seconds. Callers must not
// modify it.
func (b *Band) TimeAxis() []int64 { return b.times }

// Tiers returns the available resolution tiers, ascending by decimation.
func (b *Band) Tiers() []tier.Tier { return b.tiers }

// Tier returns the tier with the given decimation factor.
func (b *Band) Tier(decimation int) (*tier.Tier, bool) {
	for i := range b.tiers {
		if b.tiers[i].Decimation == decimation {
			return &b.tiers[i], true
		}
	}
	return nil, false
}

// Curves returns the summary curve names servable by SummaryRange.
func (b *Band) Curves() []string { return []string{"min", "avg", "max"} }

func (b *Band) fullResTier() (*tier.Tier, error) {
	t, ok := b.Tier(1)
	if !ok {
		return nil, fmt.Errorf("store: band %s has no full-resolution tier", b.ID)
	}
	return t, nil
}

func readFloat64s(path string) ([]float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(raw)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	return out, nil
}

func readInt64s(path string) ([]int64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(raw)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	return out, nil
}
