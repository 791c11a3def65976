package app

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/juney329/mancat-v2/internal/query"
	"github.com/juney329/mancat-v2/internal/render"
)

// TileOptions carries the tile subcommand's flags. Nil window bounds leave
// that side of the window open.
type TileOptions struct {
	Band           string
	F0, F1, T0, T1 *float64
	MaxWidth       int
	MaxHeight      int
	Annotate       bool
	Output         string
}

// RunTile extracts a waterfall tile and writes it as a PNG.
func RunTile(ctx context.Context, config *Config, logger *slog.Logger, opts TileOptions) (err error) {
	svc, ds := newService(config)
	defer ds.Close()

	tile, err := svc.Tile(ctx, query.TileRequest{
		Band:      opts.Band,
		F0:        opts.F0,
		F1:        opts.F1,
		T0:        opts.T0,
		T1:        opts.T1,
		MaxWidth:  opts.MaxWidth,
		MaxHeight: opts.MaxHeight,
	})
	if err != nil {
		return fmt.Errorf("extracting tile: %w", err)
	}

	var img image.Image = render.Grayscale(tile)
	if opts.Annotate {
		if img, err = render.Annotated(tile); err != nil {
			return err
		}
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing output file: %w", cErr)
		}
	}()

	if err = render.EncodePNG(f, img); err != nil {
		return err
	}
	logger.Info("wrote tile",
		slog.String("band", opts.Band),
		slog.Int("rows", len(tile.Times)),
		slog.Int("cols", len(tile.Freqs)),
		slog.String("output", opts.Output))
	return nil
}
