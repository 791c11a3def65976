package tier

import (
	"math"
	"testing"

	"github.com/juney329/mancat-v2/internal/quant"
)

// memSource serves rows from an in-memory quantized matrix.
type memSource struct {
	codes []int16
	cols  int
}

func (m *memSource) ReadRows(dst []int16, row, count int) error {
	copy(dst, m.codes[row*m.cols:(row+count)*m.cols])
	return nil
}

func quantize(params quant.Params, rows [][]float64) *memSource {
	cols := len(rows[0])
	src := &memSource{cols: cols}
	for _, row := range rows {
		buf := make([]int16, cols)
		params.QuantizeRow(buf, row)
		src.codes = append(src.codes, buf...)
	}
	return src
}

func TestBuild_FullResolution(t *testing.T) {
	params := quant.Default()
	rows := [][]float64{
		{-10, -20, -30, -40},
		{-50, -10, -70, -20},
	}
	freqs := []float64{100, 110, 120, 130}

	tiers, err := Build(quantize(params, rows), 2, 4, params, freqs, []int{1}, 0)
	if err != nil {
		t.Fatalf("Failed to build tiers: %v", err)
	}
	tier := tiers[0]

	if tier.Bins() != 4 {
		t.Fatalf("Expected 4 bins at decimation 1, got %d", tier.Bins())
	}
	wantMin := []float64{-50, -20, -70, -40}
	wantMax := []float64{-10, -10, -30, -20}
	wantAvg := []float64{-30, -15, -50, -30}
	for i := 0; i < 4; i++ {
		if tier.Min[i] != wantMin[i] {
			t.Errorf("Min[%d] = %v, want %v", i, tier.Min[i], wantMin[i])
		}
		if tier.Max[i] != wantMax[i] {
			t.Errorf("Max[%d] = %v, want %v", i, tier.Max[i], wantMax[i])
		}
		if math.Abs(tier.Avg[i]-wantAvg[i]) > 1e-9 {
			t.Errorf("Avg[%d] = %v, want %v", i, tier.Avg[i], wantAvg[i])
		}
	}
	for i, f := range freqs {
		if tier.Freqs[i] != f {
			t.Errorf("Freqs[%d] = %v, want %v", i, tier.Freqs[i], f)
		}
	}
}

func TestBuild_TrailingNarrowBin(t *testing.T) {
	params := quant.Default()
	// 5 columns at decimation 2: bins of width 2, 2, 1. The trailing bin
	// aggregates only its single real column.
	rows := [][]float64{
		{-10, -20, -30, -40, -50},
	}
	freqs := []float64{0, 1, 2, 3, 4}

	tiers, err := Build(quantize(params, rows), 1, 5, params, freqs, []int{2}, 0)
	if err != nil {
		t.Fatalf("Failed to build tiers: %v", err)
	}
	tier := tiers[0]

	if tier.Bins() != 3 {
		t.Fatalf("Expected ceil(5/2)=3 bins, got %d", tier.Bins())
	}
	if tier.Min[2] != -50 || tier.Max[2] != -50 || tier.Avg[2] != -50 {
		t.Errorf("trailing bin = (%v, %v, %v), want (-50, -50, -50)",
			tier.Min[2], tier.Max[2], tier.Avg[2])
	}
	if tier.Avg[0] != -15 {
		t.Errorf("Avg[0] = %v, want -15", tier.Avg[0])
	}

	// Strided axis keeps every d-th original sample.
	wantFreqs := []float64{0, 2, 4}
	for i := range wantFreqs {
		if tier.Freqs[i] != wantFreqs[i] {
			t.Errorf("Freqs[%d] = %v, want %v", i, tier.Freqs[i], wantFreqs[i])
		}
	}
}

func TestBuild_BlockAverageIsUnweighted(t *testing.T) {
	params := quant.Default()
	// Three rows with blockRows=2: the first block holds two rows averaging
	// -20, the second holds one row at -80. The tier average weights both
	// blocks equally, giving -50, not the row-weighted -40.
	rows := [][]float64{
		{-10},
		{-30},
		{-80},
	}
	freqs := []float64{0}

	tiers, err := Build(quantize(params, rows), 3, 1, params, freqs, []int{1}, 2)
	if err != nil {
		t.Fatalf("Failed to build tiers: %v", err)
	}
	if got := tiers[0].Avg[0]; math.Abs(got-(-50)) > 1e-9 {
		t.Errorf("Avg = %v, want -50 (per-block mean of block means)", got)
	}
	if tiers[0].Min[0] != -80 || tiers[0].Max[0] != -10 {
		t.Errorf("extrema = (%v, %v), want (-80, -10)", tiers[0].Min[0], tiers[0].Max[0])
	}
}

func TestBuild_Deterministic(t *testing.T) {
	params := quant.Default()
	rows := make([][]float64, 100)
	for i := range rows {
		row := make([]float64, 17)
		for j := range row {
			row[j] = -float64((i*31+j*7)%150) - 10
		}
		rows[i] = row
	}
	freqs := make([]float64, 17)
	for i := range freqs {
		freqs[i] = float64(i)
	}
	src := quantize(params, rows)

	first, err := Build(src, 100, 17, params, freqs, DefaultDecimations, 16)
	if err != nil {
		t.Fatalf("Failed to build tiers: %v", err)
	}
	second, err := Build(src, 100, 17, params, freqs, DefaultDecimations, 16)
	if err != nil {
		t.Fatalf("Failed to rebuild tiers: %v", err)
	}

	for ti := range first {
		if first[ti].Bins() != (17+first[ti].Decimation-1)/first[ti].Decimation {
			t.Errorf("tier %d has %d bins, want ceil(17/%d)", ti, first[ti].Bins(), first[ti].Decimation)
		}
		for i := 0; i < first[ti].Bins(); i++ {
			if first[ti].Min[i] != second[ti].Min[i] ||
				first[ti].Max[i] != second[ti].Max[i] ||
				first[ti].Avg[i] != second[ti].Avg[i] {
				t.Fatalf("tier %d bin %d differs between identical builds", ti, i)
			}
		}
	}
}

func TestBuild_InvalidInputs(t *testing.T) {
	params := quant.Default()
	src := quantize(params, [][]float64{{-10}})

	if _, err := Build(src, 0, 1, params, []float64{0}, []int{1}, 0); err == nil {
		t.Error("Expected error for empty matrix")
	}
	if _, err := Build(src, 1, 1, params, []float64{0, 1}, []int{1}, 0); err == nil {
		t.Error("Expected error for axis length mismatch")
	}
	if _, err := Build(src, 1, 1, params, []float64{0}, []int{0}, 0); err == nil {
		t.Error("Expected error for zero decimation")
	}
}
