// Package app wires configuration, logging and the domain packages into the
// mancat command's subcommands.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/juney329/mancat-v2/internal/catalog"
	"github.com/juney329/mancat-v2/internal/frame"
	"github.com/juney329/mancat-v2/internal/merge"
	"github.com/juney329/mancat-v2/internal/spectrum"
	"github.com/juney329/mancat-v2/internal/store"
)

// sweepExt is the capture file extension picked up when an input path is a
// directory.
const sweepExt = ".sweep"

// IngestOptions carries the ingest subcommand's flags.
type IngestOptions struct {
	Inputs    []string
	ListBands bool // discover and print bands without writing artifacts
}

// RunIngest merges every input capture, then quantizes and publishes one
// artifact set per discovered band. With ListBands set it stops after
// discovery and prints the bands instead.
func RunIngest(ctx context.Context, config *Config, logger *slog.Logger, opts IngestOptions) error {
	inputs, err := findInputs(opts.Inputs)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no input files found")
	}

	merger := merge.New()
	for _, path := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		frames, bytes, err := ingestFile(path, merger)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		logger.Info("ingested capture file",
			slog.String("path", path),
			slog.String("frames", humanize.Comma(int64(frames))),
			slog.String("size", humanize.Bytes(uint64(bytes))))
	}

	merged := merger.Merged()
	if opts.ListBands {
		for i, band := range merged {
			fmt.Printf("[%d] %s (%s traces)\n", i, band.Band, humanize.Comma(int64(len(band.Rows))))
		}
		return nil
	}
	if len(merged) == 0 {
		return fmt.Errorf("no trace data found in inputs")
	}

	writer := store.NewWriter(config.Store.DataDir,
		store.WithDecimations(config.Ingest.Decimations),
		store.WithBlockRows(config.Ingest.BlockRows))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		errs    []error
		records []catalog.BandRecord
	)
	for i, band := range merged {
		wg.Add(1)
		go func(id string, band *spectrum.MergedBand) {
			defer wg.Done()
			res, err := writer.WriteBand(id, band, config.Ingest.Quant)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("band %s: %w", id, err))
				return
			}
			logger.Info("published band",
				slog.String("band", id),
				slog.String("range", band.Band.String()),
				slog.Int("traces", res.Meta.NumTraces),
				slog.Int("freqs", res.Meta.NumFreqs),
				slog.Int("resampled", res.Meta.Resampled),
				slog.String("size", humanize.Bytes(uint64(res.Bytes))))
			records = append(records, catalog.BandRecord{
				BandID:    id,
				FreqStart: res.Meta.FreqStart,
				FreqStop:  res.Meta.FreqStop,
				NumTraces: res.Meta.NumTraces,
				NumFreqs:  res.Meta.NumFreqs,
				Resampled: res.Meta.Resampled,
			})
		}(strconv.Itoa(i), band)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return err
	}
	if config.Ingest.CatalogPath != "" {
		if err := recordRun(config, inputs, records); err != nil {
			return fmt.Errorf("recording run in catalog: %w", err)
		}
	}

	logger.Info("ingest complete",
		slog.Int("inputs", len(inputs)),
		slog.Int("bands", len(merged)),
		slog.String("dataDir", config.Store.DataDir))
	return nil
}

func ingestFile(path string, merger *merge.Merger) (frames int, bytes int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil {
		bytes = info.Size()
	}

	r := frame.NewReader(f)
	for {
		payload, err := r.Next()
		if err == io.EOF {
			return frames, bytes, nil
		}
		if err != nil {
			return frames, bytes, err
		}
		msg, err := frame.DecodeMessage(payload)
		if err != nil {
			return frames, bytes, err
		}
		merger.AddMessage(msg)
		frames++
	}
}

// findInputs expands the given paths: files are taken as-is, directories are
// walked for capture files. The result keeps the caller's path order.
func findInputs(paths []string) ([]string, error) {
	var inputs []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			inputs = append(inputs, path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == sweepExt {
				inputs = append(inputs, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", path, err)
		}
	}
	return inputs, nil
}

func recordRun(config *Config, inputs []string, records []catalog.BandRecord) (err error) {
	cat, err := catalog.New(config.Ingest.CatalogPath)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := cat.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	runID, err := cat.BeginRun(config.Store.DataDir, config.Ingest.Quant, len(inputs))
	if err != nil {
		return err
	}
	return cat.RecordBands(runID, records)
}
