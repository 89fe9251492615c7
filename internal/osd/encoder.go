package osd

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"time"
)

// frameHeaderSize is delta_time (float64) plus frame_size (uint32).
const frameHeaderSize = 8 + 4

// Encoder writes an OSD log to an underlying writer. Writes are buffered;
// call Flush before closing the destination.
type Encoder struct {
	w       *bufio.Writer
	scratch [frameHeaderSize]byte
	written int64
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// WriteHeader writes the log header. It must be called once, before any frame.
func (e *Encoder) WriteHeader(h Header) error {
	buf, _ := h.MarshalBinary()
	n, err := e.w.Write(buf)
	e.written += int64(n)
	return err
}

// WriteFrame writes one frame record stamped with delta since capture start.
func (e *Encoder) WriteFrame(delta time.Duration, payload []byte) error {
	binary.LittleEndian.PutUint64(e.scratch[0:8], math.Float64bits(delta.Seconds()))
	binary.LittleEndian.PutUint32(e.scratch[8:12], uint32(len(payload)))
	n, err := e.w.Write(e.scratch[:])
	e.written += int64(n)
	if err != nil {
		return err
	}
	n, err = e.w.Write(payload)
	e.written += int64(n)
	return err
}

// Flush writes any buffered data to the underlying writer.
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

// Written returns the number of bytes accepted so far, buffered or not.
func (e *Encoder) Written() int64 {
	return e.written
}
