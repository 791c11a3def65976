package frame

import (
	"encoding/binary"
	"fmt"
	"math"
)

const codeMax = 65535

// Message is one decoded sweep frame: a capture timestamp and the trace
// elements recorded at that instant.
type Message struct {
	UnixTime int64
	Elements []Element
}

// Element is a single trace record. Codes span the record-local value range
// [Min, Max]; an element with Start >= Stop carries no usable trace.
type Element struct {
	Start float64 // Hz
	Stop  float64 // Hz
	Min   float64 // dB
	Max   float64 // dB
	Codes []uint16
}

// HasTrace reports whether the element holds a decodable trace.
func (e *Element) HasTrace() bool {
	return e.Start < e.Stop && len(e.Codes) > 0
}

// Powers decodes the element's codes into dB values.
func (e *Element) Powers() []float64 {
	out := make([]float64, len(e.Codes))
	span := e.Max - e.Min
	for i, c := range e.Codes {
		out[i] = e.Min + (float64(c)/codeMax)*span
	}
	return out
}

// Freqs returns the element's frequency axis: len(Codes) evenly spaced
// values from Start to Stop inclusive.
func (e *Element) Freqs() []float64 {
	n := len(e.Codes)
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = e.Start
		return out
	}
	step := (e.Stop - e.Start) / float64(n-1)
	for i := range out {
		out[i] = e.Start + float64(i)*step
	}
	out[n-1] = e.Stop
	return out
}

// NewElement quantizes powers into an element using the record-local
// [min, max] range, so the encoding is as tight as the data allows.
func NewElement(start, stop float64, powers []float64) Element {
	e := Element{Start: start, Stop: stop, Codes: make([]uint16, len(powers))}
	if len(powers) == 0 {
		return e
	}
	e.Min, e.Max = powers[0], powers[0]
	for _, p := range powers[1:] {
		e.Min = math.Min(e.Min, p)
		e.Max = math.Max(e.Max, p)
	}
	span := e.Max - e.Min
	if span == 0 {
		return e // all codes zero, decode yields Min
	}
	for i, p := range powers {
		e.Codes[i] = uint16(math.Round((p - e.Min) / span * codeMax))
	}
	return e
}

// Encode serializes the message payload; the frame length prefix is added
// by Writer.
func (m *Message) Encode() []byte {
	size := 8 + 2
	for _, e := range m.Elements {
		size += 4*8 + 4 + 2*len(e.Codes)
	}
	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(m.UnixTime))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(m.Elements)))
	for _, e := range m.Elements {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(e.Start))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(e.Stop))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(e.Min))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(e.Max))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.Codes)))
		for _, c := range e.Codes {
			buf = binary.LittleEndian.AppendUint16(buf, c)
		}
	}
	return buf
}

// DecodeMessage parses a frame payload. Unlike frame truncation, a payload
// that does not parse is a hard error: the length prefix promised a complete
// message.
func DecodeMessage(payload []byte) (*Message, error) {
	d := decoder{buf: payload}
	var m Message
	m.UnixTime = int64(d.uint64())
	count := int(d.uint16())
	m.Elements = make([]Element, 0, count)
	for i := 0; i < count; i++ {
		var e Element
		e.Start = d.float64()
		e.Stop = d.float64()
		e.Min = d.float64()
		e.Max = d.float64()
		n := int(d.uint32())
		if d.err == nil && n > d.remaining()/2 {
			return nil, fmt.Errorf("frame: element %d declares %d codes, %d bytes left", i, n, d.remaining())
		}
		e.Codes = make([]uint16, n)
		for j := range e.Codes {
			e.Codes[j] = d.uint16()
		}
		if d.err != nil {
			return nil, fmt.Errorf("frame: truncated element %d: %w", i, d.err)
		}
		m.Elements = append(m.Elements, e)
	}
	if d.err != nil {
		return nil, fmt.Errorf("frame: truncated message: %w", d.err)
	}
	return &m, nil
}

type decoder struct {
	buf []byte
	off int
	err error
}

var errShortPayload = fmt.Errorf("short payload")

func (d *decoder) remaining() int { return len(d.buf) - d.off }

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.remaining() < n {
		d.err = errShortPayload
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) uint16() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (d *decoder) uint32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *decoder) uint64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *decoder) float64() float64 {
	return math.Float64frombits(d.uint64())
}
