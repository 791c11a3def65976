package store

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/juney329/mancat-v2/internal/quant"
	"github.com/juney329/mancat-v2/internal/spectrum"
	"github.com/juney329/mancat-v2/internal/tier"
)

// Writer builds per-band artifact sets under a data root. It is the sole
// producer for a band; a published set is never mutated, only replaced.
type Writer struct {
	root      string
	decims    []int
	blockRows int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithDecimations overrides the tier decimation set. Factors must be
// positive and ascending.
func WithDecimations(decims []int) WriterOption {
	return func(w *Writer) {
		if len(decims) > 0 {
			w.decims = decims
		}
	}
}

// WithBlockRows overrides the tier builder's row block size.
func WithBlockRows(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 {
			w.blockRows = n
		}
	}
}

func NewWriter(root string, opts ...WriterOption) *Writer {
	w := &Writer{
		root:      root,
		decims:    tier.DefaultDecimations,
		blockRows: tier.DefaultBlockRows,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Result reports what WriteBand produced.
type Result struct {
	Meta  Meta
	Dir   string
	Bytes int64 // total artifact bytes written
}

// WriteBand quantizes the merged band, writes the full artifact set into a
// staging directory, derives its tiers, and atomically publishes the set
// under the band id, replacing any previous set.
func (w *Writer) WriteBand(id string, band *spectrum.MergedBand, params quant.Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	rows, cols := len(band.Rows), len(band.Freqs)
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("store: band %s has no traces", id)
	}

	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return nil, fmt.Errorf("store: creating data root: %w", err)
	}
	stage, err := os.MkdirTemp(w.root, stagePrefix+id+".tmp-")
	if err != nil {
		return nil, fmt.Errorf("store: creating staging directory: %w", err)
	}
	defer os.RemoveAll(stage)

	res := &Result{Dir: bandDir(w.root, id)}
	if err := w.writeArtifacts(stage, id, band, params, res); err != nil {
		return nil, err
	}
	if err := publish(stage, res.Dir); err != nil {
		return nil, err
	}
	return res, nil
}

func (w *Writer) writeArtifacts(stage, id string, band *spectrum.MergedBand, params quant.Params, res *Result) error {
	rows, cols := len(band.Rows), len(band.Freqs)

	err := writeArtifact(filepath.Join(stage, matrixFile), res, func(out *bufio.Writer) error {
		row := make([]int16, cols)
		raw := make([]byte, cols*2)
		for _, powers := range band.Rows {
			if len(powers) != cols {
				return fmt.Errorf("row length %d does not match axis length %d", len(powers), cols)
			}
			params.QuantizeRow(row, powers)
			for i, code := range row {
				binary.LittleEndian.PutUint16(raw[2*i:], uint16(code))
			}
			if _, err := out.Write(raw); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: writing matrix for band %s: %w", id, err)
	}

	err = writeArtifact(filepath.Join(stage, freqsFile), res, func(out *bufio.Writer) error {
		var raw [8]byte
		for _, f := range band.Freqs {
			binary.LittleEndian.PutUint64(raw[:], math.Float64bits(f))
			if _, err := out.Write(raw[:]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: writing frequency axis for band %s: %w", id, err)
	}

	unix0 := band.Times[0]
	err = writeArtifact(filepath.Join(stage, timesFile), res, func(out *bufio.Writer) error {
		var raw [8]byte
		for _, t := range band.Times {
			binary.LittleEndian.PutUint64(raw[:], uint64(t-unix0))
			if _, err := out.Write(raw[:]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: writing time axis for band %s: %w", id, err)
	}

	tiers, err := w.buildTiers(filepath.Join(stage, matrixFile), band, params)
	if err != nil {
		return fmt.Errorf("store: building tiers for band %s: %w", id, err)
	}
	err = writeArtifact(filepath.Join(stage, tiersFile), res, func(out *bufio.Writer) error {
		return json.NewEncoder(out).Encode(tiers)
	})
	if err != nil {
		return fmt.Errorf("store: writing tiers for band %s: %w", id, err)
	}

	meta := Meta{
		DBMin:     params.DBMin,
		DBMax:     params.DBMax,
		Scale:     params.Scale,
		NumTraces: rows,
		NumFreqs:  cols,
		FreqStart: band.Band.Start,
		FreqStop:  band.Band.Stop,
		Unix0:     unix0,
		Resampled: band.Resampled,
	}
	for i := range tiers {
		meta.Levels = append(meta.Levels, Level{Decimation: tiers[i].Decimation, Bins: tiers[i].Bins()})
	}
	err = writeArtifact(filepath.Join(stage, metaFile), res, func(out *bufio.Writer) error {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(&meta)
	})
	if err != nil {
		return fmt.Errorf("store: writing metadata for band %s: %w", id, err)
	}

	res.Meta = meta
	return nil
}

// buildTiers streams the staged matrix back in row blocks so peak memory
// stays bounded regardless of the band's time extent.
func (w *Writer) buildTiers(matrixPath string, band *spectrum.MergedBand, params quant.Params) ([]tier.Tier, error) {
	f, err := os.Open(matrixPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src := &matrixAt{ra: f, cols: len(band.Freqs)}
	return tier.Build(src, len(band.Rows), len(band.Freqs), params, band.Freqs, w.decims, w.blockRows)
}

// writeArtifact writes one file through a buffered writer, flushes and
// syncs it, and accounts its size.
func writeArtifact(path string, res *Result, fn func(*bufio.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cErr)
		}
	}()

	out := bufio.NewWriter(f)
	if err = fn(out); err != nil {
		return err
	}
	if err = out.Flush(); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		return err
	}
	res.Bytes += info.Size()
	return nil
}

// publish atomically swaps the staged artifact set into place. Any previous
// set is renamed aside before the swap and removed after, so a reader either
// finds the old complete set or the new one.
func publish(stage, dir string) error {
	old := dir + ".old"
	replaced := false
	if _, err := os.Stat(dir); err == nil {
		_ = os.RemoveAll(old)
		if err := os.Rename(dir, old); err != nil {
			return fmt.Errorf("store: moving previous artifact set aside: %w", err)
		}
		replaced = true
	}
	if err := os.Rename(stage, dir); err != nil {
		if replaced {
			_ = os.Rename(old, dir) // best-effort restore
		}
		return fmt.Errorf("store: publishing artifact set: %w", err)
	}
	if replaced {
		if err := os.RemoveAll(old); err != nil {
			return fmt.Errorf("store: removing previous artifact set: %w", err)
		}
	}
	return nil
}
