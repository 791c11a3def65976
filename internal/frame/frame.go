// Package frame reads and writes length-delimited spectral sweep frames.
//
// A stream is a sequence of frames. Each frame is a 4-byte little-endian
// unsigned length followed by that many payload bytes. A short read while
// fetching either the header or the payload marks the end of the stream and
// is reported as io.EOF, never as an error: capture tooling truncates files
// mid-frame when interrupted and the preceding frames remain valid.
//
// The payload is a single sweep message, little-endian throughout:
//
//	int64   unix_time       capture time, seconds since epoch
//	uint16  element_count
//	per element:
//	  float64 start         band start frequency, Hz
//	  float64 stop          band stop frequency, Hz
//	  float64 min           minimum power in this record, dB
//	  float64 max           maximum power in this record, dB
//	  uint32  n             number of codes
//	  uint16  code[n]       power codes over [min, max]
//
// Power is recovered as min + (code/65535)*(max-min). Frequencies are the
// linear interpolation of i/(n-1) between start and stop inclusive.
package frame

import (
	"bufio"
	"encoding/binary"
	"io"
)

// Reader yields raw frame payloads from a byte stream.
type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next frame payload. It returns io.EOF when the stream
// ends, including when the header or payload is truncated.
func (r *Reader) Next() ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r.r, hdr[:]); err != nil {
		return nil, io.EOF
	}
	n := binary.LittleEndian.Uint32(hdr[:])
	payload := make([]byte, n)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return nil, io.EOF
	}
	return payload, nil
}

// Writer frames encoded messages onto a byte stream.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write encodes m and writes it as one length-prefixed frame.
func (w *Writer) Write(m *Message) error {
	payload := m.Encode()
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.w.Write(payload)
	return err
}
