package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/juney329/mancat-v2/internal/query"
)

// PeaksOptions carries the peaks subcommand's flags.
type PeaksOptions struct {
	Band       string
	Curve      string
	F0, F1     *float64
	Height     *float64
	Prominence *float64
	Distance   int
}

// RunPeaks extracts peaks from a band's summary curve and prints them.
func RunPeaks(ctx context.Context, config *Config, logger *slog.Logger, opts PeaksOptions, out io.Writer) error {
	svc, ds := newService(config)
	defer ds.Close()

	found, err := svc.Peaks(ctx, query.PeaksRequest{
		Band:       opts.Band,
		Curve:      opts.Curve,
		F0:         opts.F0,
		F1:         opts.F1,
		Height:     opts.Height,
		Prominence: opts.Prominence,
		Distance:   opts.Distance,
	})
	if err != nil {
		return fmt.Errorf("extracting peaks: %w", err)
	}
	if len(found) == 0 {
		fmt.Fprintln(out, "no peaks found")
		return nil
	}

	for _, p := range found {
		fmt.Fprintf(out, "%.6f MHz  %7.2f dB  prominence %.2f\n",
			p.Freq/1e6, p.Value, p.Properties["prominence"])
	}
	return nil
}
