package query

import (
	"context"
	"errors"
	"testing"

	"github.com/juney329/mancat-v2/internal/markers"
	"github.com/juney329/mancat-v2/internal/quant"
	"github.com/juney329/mancat-v2/internal/spectrum"
	"github.com/juney329/mancat-v2/internal/store"
)

// newTestService publishes one synthetic band and wraps it in a service. The
// band carries a single strong line at column 250 so peak extraction has a
// known answer.
func newTestService(t *testing.T, limits Limits) *Service {
	t.Helper()
	root := t.TempDir()

	band := &spectrum.MergedBand{
		Band:  spectrum.BandRange{Start: 100e6, Stop: 200e6},
		Freqs: spectrum.Linspace(100e6, 200e6, 500),
	}
	for r := 0; r < 50; r++ {
		band.Times = append(band.Times, 1_700_000_000+int64(r))
		row := make([]float64, 500)
		for c := range row {
			row[c] = -120
		}
		row[250] = -40
		row[100] = -80
		band.Rows = append(band.Rows, row)
	}
	if _, err := store.NewWriter(root).WriteBand("0", band, quant.Default()); err != nil {
		t.Fatalf("Failed to write band: %v", err)
	}

	ds := store.NewDataset(root)
	t.Cleanup(func() { ds.Close() })
	return NewService(ds, markers.NewStore(root), limits)
}

func TestService_Bands(t *testing.T) {
	svc := newTestService(t, Limits{})
	infos, err := svc.Bands(context.Background())
	if err != nil {
		t.Fatalf("Failed to list bands: %v", err)
	}
	if len(infos) != 1 || infos[0].ID != "0" {
		t.Fatalf("bands = %v, want one band with id 0", infos)
	}
	if infos[0].Meta.NumTraces != 50 {
		t.Errorf("NumTraces = %d, want 50", infos[0].Meta.NumTraces)
	}

	meta, err := svc.Meta(context.Background(), "0")
	if err != nil {
		t.Fatalf("Failed to read meta: %v", err)
	}
	if meta.NumFreqs != 500 {
		t.Errorf("NumFreqs = %d, want 500", meta.NumFreqs)
	}
}

func TestService_SummaryClampsToLimit(t *testing.T) {
	svc := newTestService(t, Limits{MaxPoints: 100})
	ctx := context.Background()

	// An oversized request is clamped, not rejected.
	s, err := svc.Summary(ctx, SummaryRequest{Band: "0", MaxPoints: 100000})
	if err != nil {
		t.Fatalf("Failed to summarize: %v", err)
	}
	if len(s.Freqs) != 100 {
		t.Errorf("axis has %d samples, want the 100-sample limit", len(s.Freqs))
	}

	// An unset cap takes the limit too.
	s, err = svc.Summary(ctx, SummaryRequest{Band: "0"})
	if err != nil {
		t.Fatalf("Failed to summarize: %v", err)
	}
	if len(s.Freqs) != 100 {
		t.Errorf("default axis has %d samples, want 100", len(s.Freqs))
	}

	// A smaller explicit cap is honored.
	s, err = svc.Summary(ctx, SummaryRequest{Band: "0", MaxPoints: 10})
	if err != nil {
		t.Fatalf("Failed to summarize: %v", err)
	}
	if len(s.Freqs) != 10 {
		t.Errorf("axis has %d samples, want 10", len(s.Freqs))
	}
}

func TestService_TileClampsToLimits(t *testing.T) {
	svc := newTestService(t, Limits{MaxTileWidth: 40, MaxTileHeight: 20})
	ctx := context.Background()

	tile, err := svc.Tile(ctx, TileRequest{Band: "0", MaxWidth: 5000, MaxHeight: 5000})
	if err != nil {
		t.Fatalf("Failed to extract tile: %v", err)
	}
	if len(tile.Freqs) > 40 || len(tile.Times) > 20 {
		t.Errorf("tile is %dx%d, caps are 20x40", len(tile.Times), len(tile.Freqs))
	}
}

func TestService_Peaks(t *testing.T) {
	svc := newTestService(t, Limits{})
	ctx := context.Background()

	h := -100.0
	found, err := svc.Peaks(ctx, PeaksRequest{Band: "0", Curve: "max", Height: &h})
	if err != nil {
		t.Fatalf("Failed to extract peaks: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("Expected 2 peaks above -100 dB, got %d", len(found))
	}

	// Peaks come back in frequency order with their axis coordinates.
	axis := spectrum.Linspace(100e6, 200e6, 500)
	if found[0].Freq != axis[100] {
		t.Errorf("first peak at %v Hz, want %v", found[0].Freq, axis[100])
	}
	if found[1].Freq != axis[250] {
		t.Errorf("second peak at %v Hz, want %v", found[1].Freq, axis[250])
	}
	if found[1].Value != -40 {
		t.Errorf("strong line value = %v, want -40", found[1].Value)
	}
	for _, key := range []string{"peak_height", "prominence", "left_base", "right_base"} {
		if _, ok := found[1].Properties[key]; !ok {
			t.Errorf("peak properties missing %q", key)
		}
	}
	if got := found[1].Properties["prominence"]; got != 80 {
		t.Errorf("strong line prominence = %v, want 80", got)
	}
}

func TestService_PeaksUnknownCurve(t *testing.T) {
	svc := newTestService(t, Limits{})
	_, err := svc.Peaks(context.Background(), PeaksRequest{Band: "0", Curve: "median"})
	if !errors.Is(err, ErrUnknownCurve) {
		t.Errorf("Expected ErrUnknownCurve, got %v", err)
	}
}

func TestService_UnknownBand(t *testing.T) {
	svc := newTestService(t, Limits{})
	ctx := context.Background()

	if _, err := svc.Meta(ctx, "9"); !errors.Is(err, store.ErrBandNotFound) {
		t.Errorf("Meta: expected ErrBandNotFound, got %v", err)
	}
	if _, err := svc.Markers(ctx, "9"); !errors.Is(err, store.ErrBandNotFound) {
		t.Errorf("Markers: expected ErrBandNotFound, got %v", err)
	}
	if err := svc.SaveMarkers(ctx, "9", nil); !errors.Is(err, store.ErrBandNotFound) {
		t.Errorf("SaveMarkers: expected ErrBandNotFound, got %v", err)
	}
}

func TestService_Markers(t *testing.T) {
	svc := newTestService(t, Limits{})
	ctx := context.Background()

	ms, err := svc.Markers(ctx, "0")
	if err != nil {
		t.Fatalf("Failed to load markers: %v", err)
	}
	if len(ms) != 0 {
		t.Errorf("fresh band has %d markers, want 0", len(ms))
	}

	want := []markers.Marker{{ID: "m1", Freq: 150e6, Label: "carrier"}}
	if err := svc.SaveMarkers(ctx, "0", want); err != nil {
		t.Fatalf("Failed to save markers: %v", err)
	}
	ms, err = svc.Markers(ctx, "0")
	if err != nil {
		t.Fatalf("Failed to reload markers: %v", err)
	}
	if len(ms) != 1 || ms[0] != want[0] {
		t.Errorf("markers = %v, want %v", ms, want)
	}
}

func TestService_Playback(t *testing.T) {
	svc := newTestService(t, Limits{})
	c, err := svc.Playback(context.Background(), "0", 10, 2)
	if err != nil {
		t.Fatalf("Failed to create playback cursor: %v", err)
	}

	w := c.Step()
	if w.T1 != 0 {
		t.Errorf("first cursor position = %v, want 0", w.T1)
	}
	if w.CursorUnix != 1_700_000_000 {
		t.Errorf("first cursor unix = %v, want capture epoch", w.CursorUnix)
	}
	w = c.Step()
	if w.T1 != 1 {
		t.Errorf("second cursor position = %v, want 1", w.T1)
	}
}
