// Package quant maps dB power values onto compact int16 codes for the
// memory-mapped waterfall store.
package quant

import (
	"fmt"
	"math"
)

// Params defines the quantization range and resolution. Scale is the number
// of codes per dB, so the mapping is reversible within ±0.5/Scale dB for
// values inside [DBMin, DBMax]. Values outside the range are clipped, never
// rejected; callers relying on exact round-trips must pre-validate.
type Params struct {
	DBMin float64 `json:"db_min" yaml:"dbMin"`
	DBMax float64 `json:"db_max" yaml:"dbMax"`
	Scale int     `json:"scale" yaml:"scale"`
}

// Default returns the standard -200..0 dB range at 100 codes per dB.
func Default() Params {
	return Params{DBMin: -200.0, DBMax: 0.0, Scale: 100}
}

func (p Params) Validate() error {
	if p.Scale <= 0 {
		return fmt.Errorf("quant: scale must be positive, got %d", p.Scale)
	}
	if p.DBMin >= p.DBMax {
		return fmt.Errorf("quant: db_min %.1f must be below db_max %.1f", p.DBMin, p.DBMax)
	}
	if top := (p.DBMax - p.DBMin) * float64(p.Scale); top > math.MaxInt16 {
		return fmt.Errorf("quant: range %.1f dB at scale %d exceeds int16 codes", p.DBMax-p.DBMin, p.Scale)
	}
	return nil
}

// Quantize clips v to [DBMin, DBMax] and converts it to a code.
func (p Params) Quantize(v float64) int16 {
	if v < p.DBMin {
		v = p.DBMin
	} else if v > p.DBMax {
		v = p.DBMax
	}
	return int16(math.Round((v - p.DBMin) * float64(p.Scale)))
}

// Dequantize recovers the dB value for a code.
func (p Params) Dequantize(code int16) float64 {
	return float64(code)/float64(p.Scale) + p.DBMin
}

// QuantizeRow quantizes src into dst. The slices must be the same length.
func (p Params) QuantizeRow(dst []int16, src []float64) {
	for i, v := range src {
		dst[i] = p.Quantize(v)
	}
}
