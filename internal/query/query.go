// Package query is the serving surface a transport layer wraps: every
// operation takes an explicit, typed request and a context, and runs
// against an explicit Dataset handle under a request-scoped timeout.
// Output sizes are bounded structurally by the configured caps rather than
// by runtime throttling.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/juney329/mancat-v2/internal/markers"
	"github.com/juney329/mancat-v2/internal/peaks"
	"github.com/juney329/mancat-v2/internal/playback"
	"github.com/juney329/mancat-v2/internal/store"
)

// ErrUnknownCurve indicates a peak or summary request named a curve the
// band does not serve.
var ErrUnknownCurve = errors.New("query: unknown summary curve")

// Limits caps query output sizes and bounds request latency. Zero fields
// take the defaults.
type Limits struct {
	MaxPoints     int           // summary samples per response
	MaxTileWidth  int           // tile columns
	MaxTileHeight int           // tile rows
	Timeout       time.Duration // per-request deadline
}

// DefaultLimits mirrors the transport layer's historical defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxPoints:     2200,
		MaxTileWidth:  1600,
		MaxTileHeight: 600,
		Timeout:       10 * time.Second,
	}
}

func (l Limits) withDefaults() Limits {
	def := DefaultLimits()
	if l.MaxPoints <= 0 {
		l.MaxPoints = def.MaxPoints
	}
	if l.MaxTileWidth <= 0 {
		l.MaxTileWidth = def.MaxTileWidth
	}
	if l.MaxTileHeight <= 0 {
		l.MaxTileHeight = def.MaxTileHeight
	}
	if l.Timeout <= 0 {
		l.Timeout = def.Timeout
	}
	return l
}

// Service serves read-only queries against a persisted dataset.
type Service struct {
	ds      *store.Dataset
	markers *markers.Store
	limits  Limits
}

func NewService(ds *store.Dataset, mk *markers.Store, limits Limits) *Service {
	return &Service{ds: ds, markers: mk, limits: limits.withDefaults()}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.limits.Timeout)
}

// Bands lists every published band with its metadata.
func (s *Service) Bands(ctx context.Context) ([]store.BandInfo, error) {
	_, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.ds.Bands()
}

// Meta returns one band's metadata.
func (s *Service) Meta(ctx context.Context, bandID string) (store.Meta, error) {
	_, cancel := s.withTimeout(ctx)
	defer cancel()
	b, err := s.ds.Band(bandID)
	if err != nil {
		return store.Meta{}, err
	}
	return b.Meta(), nil
}

// SummaryRequest selects a frequency window of a band's summary curves.
// Nil bounds are unbounded; MaxPoints <= 0 takes the configured cap, and
// explicit values are still clamped to it.
type SummaryRequest struct {
	Band      string
	F0, F1    *float64
	MaxPoints int
}

// Summary returns equal-length curve and axis arrays for the window.
func (s *Service) Summary(ctx context.Context, req SummaryRequest) (*store.Summary, error) {
	_, cancel := s.withTimeout(ctx)
	defer cancel()

	maxPoints := req.MaxPoints
	if maxPoints <= 0 || maxPoints > s.limits.MaxPoints {
		maxPoints = s.limits.MaxPoints
	}
	b, err := s.ds.Band(req.Band)
	if err != nil {
		return nil, err
	}
	return b.SummaryRange(req.F0, req.F1, maxPoints)
}

// TileRequest selects a rectangular waterfall window. Nil bounds are
// unbounded on their side; caps of zero take the configured limits, and
// explicit values are still clamped to them.
type TileRequest struct {
	Band           string
	F0, F1, T0, T1 *float64
	MaxWidth       int
	MaxHeight      int
}

// Tile returns a bounded sub-matrix with the exact axis values selected.
func (s *Service) Tile(ctx context.Context, req TileRequest) (*store.Tile, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	maxW := req.MaxWidth
	if maxW <= 0 || maxW > s.limits.MaxTileWidth {
		maxW = s.limits.MaxTileWidth
	}
	maxH := req.MaxHeight
	if maxH <= 0 || maxH > s.limits.MaxTileHeight {
		maxH = s.limits.MaxTileHeight
	}
	b, err := s.ds.Band(req.Band)
	if err != nil {
		return nil, err
	}
	return b.Tile(ctx, req.F0, req.F1, req.T0, req.T1, maxW, maxH)
}

// PeaksRequest runs peak extraction against a named summary curve within an
// optional frequency window.
type PeaksRequest struct {
	Band       string
	Curve      string // "min", "avg" or "max"
	F0, F1     *float64
	Height     *float64
	Prominence *float64
	Distance   int
}

// Peak is an accepted maximum mapped back onto the frequency axis.
type Peak struct {
	Freq       float64            `json:"freq"`
	Value      float64            `json:"value"`
	Properties map[string]float64 `json:"properties"`
}

// Peaks extracts local maxima from the requested curve window. The curve is
// evaluated at full window resolution; the response size is bounded by the
// distance constraint, not by a sample cap.
func (s *Service) Peaks(ctx context.Context, req PeaksRequest) ([]Peak, error) {
	_, cancel := s.withTimeout(ctx)
	defer cancel()

	b, err := s.ds.Band(req.Band)
	if err != nil {
		return nil, err
	}
	summary, err := b.SummaryRange(req.F0, req.F1, 0)
	if err != nil {
		return nil, err
	}
	values, ok := summary.Curves[req.Curve]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCurve, req.Curve)
	}

	found := peaks.Find(values, peaks.Options{
		Height:     req.Height,
		Prominence: req.Prominence,
		Distance:   req.Distance,
	})
	out := make([]Peak, 0, len(found))
	for _, p := range found {
		out = append(out, Peak{
			Freq:  summary.Freqs[p.Index],
			Value: p.Height,
			Properties: map[string]float64{
				"peak_height": p.Height,
				"prominence":  p.Prominence,
				"left_base":   float64(p.LeftBase),
				"right_base":  float64(p.RightBase),
			},
		})
	}
	return out, nil
}

// Markers returns the band's user annotations.
func (s *Service) Markers(ctx context.Context, bandID string) ([]markers.Marker, error) {
	_, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.ds.Band(bandID); err != nil {
		return nil, err
	}
	return s.markers.Load(bandID)
}

// SaveMarkers replaces the band's user annotations.
func (s *Service) SaveMarkers(ctx context.Context, bandID string, ms []markers.Marker) error {
	_, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.ds.Band(bandID); err != nil {
		return err
	}
	return s.markers.Save(bandID, ms)
}

// Playback creates a playback cursor over the band's timeline. The caller
// owns the cursor and drives it, typically via Cursor.Run from a streaming
// transport.
func (s *Service) Playback(ctx context.Context, bandID string, windowSec, rate float64) (*playback.Cursor, error) {
	_, cancel := s.withTimeout(ctx)
	defer cancel()

	b, err := s.ds.Band(bandID)
	if err != nil {
		return nil, err
	}
	return playback.NewCursor(b.TimeAxis(), b.Meta().Unix0, windowSec, rate), nil
}
