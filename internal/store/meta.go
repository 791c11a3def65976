package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/juney329/mancat-v2/internal/quant"
)

// Meta describes a published band artifact set. Field names follow the
// on-disk JSON document.
type Meta struct {
	DBMin     float64 `json:"db_min"`
	DBMax     float64 `json:"db_max"`
	Scale     int     `json:"scale"`
	NumTraces int     `json:"n_traces"`
	NumFreqs  int     `json:"n_freqs"`
	FreqStart float64 `json:"f_start"`
	FreqStop  float64 `json:"f_stop"`
	Unix0     int64   `json:"unix0"`     // absolute epoch of the first capture
	Resampled int     `json:"resampled"` // traces regridded during merge, diagnostic only
	Levels    []Level `json:"levels"`
}

// Level records an available tier.
type Level struct {
	Decimation int `json:"decim"`
	Bins       int `json:"k"`
}

// Params returns the quantization parameters the matrix was written with.
func (m *Meta) Params() quant.Params {
	return quant.Params{DBMin: m.DBMin, DBMax: m.DBMax, Scale: m.Scale}
}

func readMeta(path string) (Meta, error) {
	var m Meta
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}
