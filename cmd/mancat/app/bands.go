package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/juney329/mancat-v2/internal/spectrum"
)

// RunBands lists every published band in the configured store.
func RunBands(ctx context.Context, config *Config, logger *slog.Logger, out io.Writer) error {
	svc, ds := newService(config)
	defer ds.Close()

	infos, err := svc.Bands(ctx)
	if err != nil {
		return fmt.Errorf("listing bands: %w", err)
	}
	if len(infos) == 0 {
		fmt.Fprintln(out, "no bands published")
		return nil
	}

	for _, info := range infos {
		band := spectrum.BandRange{Start: info.Meta.FreqStart, Stop: info.Meta.FreqStop}
		fmt.Fprintf(out, "[%s] %s: %s traces x %s bins, started %s\n",
			info.ID, band,
			humanize.Comma(int64(info.Meta.NumTraces)),
			humanize.Comma(int64(info.Meta.NumFreqs)),
			time.Unix(info.Meta.Unix0, 0).UTC().Format(time.RFC3339))
	}
	return nil
}
