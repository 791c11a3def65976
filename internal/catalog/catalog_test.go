package catalog

import (
	"path/filepath"
	"testing"

	"github.com/juney329/mancat-v2/internal/quant"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Failed to create catalog: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Failed to close catalog: %v", err)
		}
	})
	return s
}

func TestStore_RecordAndListRuns(t *testing.T) {
	s := newTestStore(t)

	runID, err := s.BeginRun("/data", quant.Default(), 3)
	if err != nil {
		t.Fatalf("Failed to begin run: %v", err)
	}
	if runID <= 0 {
		t.Fatalf("BeginRun returned id %d", runID)
	}

	bands := []BandRecord{
		{BandID: "0", FreqStart: 100e6, FreqStop: 200e6, NumTraces: 300, NumFreqs: 500},
		{BandID: "1", FreqStart: 400e6, FreqStop: 500e6, NumTraces: 120, NumFreqs: 256, Resampled: 4},
	}
	if err := s.RecordBands(runID, bands); err != nil {
		t.Fatalf("Failed to record bands: %v", err)
	}

	runs, err := s.Runs()
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.ID != runID || run.DataDir != "/data" || run.Inputs != 3 {
		t.Errorf("run = %+v", run)
	}
	if run.DBMin != -200 || run.DBMax != 0 || run.Scale != 100 {
		t.Errorf("run quant params = (%v, %v, %d), want defaults", run.DBMin, run.DBMax, run.Scale)
	}
	if run.StartedAt.IsZero() {
		t.Error("StartedAt not recorded")
	}

	got, err := s.RunBands(runID)
	if err != nil {
		t.Fatalf("Failed to list run bands: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 band records, got %d", len(got))
	}
	for i := range bands {
		if got[i].BandID != bands[i].BandID ||
			got[i].FreqStart != bands[i].FreqStart ||
			got[i].NumTraces != bands[i].NumTraces ||
			got[i].Resampled != bands[i].Resampled {
			t.Errorf("record %d = %+v, want %+v", i, got[i], bands[i])
		}
		if got[i].RunID != runID {
			t.Errorf("record %d run id = %d, want %d", i, got[i].RunID, runID)
		}
	}
}

func TestStore_MultipleRuns(t *testing.T) {
	s := newTestStore(t)

	first, err := s.BeginRun("/data", quant.Default(), 1)
	if err != nil {
		t.Fatalf("Failed to begin first run: %v", err)
	}
	second, err := s.BeginRun("/data", quant.Default(), 2)
	if err != nil {
		t.Fatalf("Failed to begin second run: %v", err)
	}
	if second <= first {
		t.Errorf("run ids not increasing: %d then %d", first, second)
	}

	if err := s.RecordBands(first, []BandRecord{{BandID: "0"}}); err != nil {
		t.Fatalf("Failed to record first run bands: %v", err)
	}
	if err := s.RecordBands(second, []BandRecord{{BandID: "0"}, {BandID: "1"}}); err != nil {
		t.Fatalf("Failed to record second run bands: %v", err)
	}

	got, err := s.RunBands(second)
	if err != nil {
		t.Fatalf("Failed to list second run bands: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("second run has %d band records, want 2", len(got))
	}
}

func TestStore_RecordBandsEmpty(t *testing.T) {
	s := newTestStore(t)
	if err := s.RecordBands(1, nil); err != nil {
		t.Errorf("RecordBands with no records failed: %v", err)
	}
}
