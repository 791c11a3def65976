package store

import (
	"encoding/binary"
	"fmt"
	"io"
)

// matrixAt adapts an io.ReaderAt over a flat int16 matrix file into the
// row-block access the tier builder needs.
type matrixAt struct {
	ra   io.ReaderAt
	cols int
}

// ReadRows decodes count rows starting at row into dst, which must hold
// count*cols codes.
func (m *matrixAt) ReadRows(dst []int16, row, count int) error {
	need := count * m.cols
	if len(dst) < need {
		return fmt.Errorf("store: row buffer holds %d codes, need %d", len(dst), need)
	}
	raw := make([]byte, need*2)
	off := int64(row) * int64(m.cols) * 2
	if _, err := m.ra.ReadAt(raw, off); err != nil {
		return err
	}
	decodeCodes(dst[:need], raw)
	return nil
}

// readRowSegment decodes columns [colLo, colHi) of one row.
func (m *matrixAt) readRowSegment(dst []int16, row, colLo, colHi int) error {
	n := colHi - colLo
	raw := make([]byte, n*2)
	off := (int64(row)*int64(m.cols) + int64(colLo)) * 2
	if _, err := m.ra.ReadAt(raw, off); err != nil {
		return err
	}
	decodeCodes(dst[:n], raw)
	return nil
}

func decodeCodes(dst []int16, raw []byte) {
	for i := range dst {
		dst[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
}
