package catalog

import "time"

// Run records one ingestion batch.
type Run struct {
	ID        int64
	StartedAt time.Time
	DataDir   string
	DBMin     float64
	DBMax     float64
	Scale     int
	Inputs    int // number of input files processed
}

// BandRecord records one band artifact set produced by a run.
type BandRecord struct {
	ID        int64
	RunID     int64
	BandID    string
	FreqStart float64
	FreqStop  float64
	NumTraces int
	NumFreqs  int
	Resampled int
}
