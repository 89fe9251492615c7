package osd

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/Iron-Ham/osdrec/internal/errors"
)

// Record is one decoded frame record.
type Record struct {
	// Delta is the elapsed capture time stored with the frame. For v2 logs
	// it is derived from FrameNumber and the decoder's frame rate.
	Delta time.Duration
	// FrameNumber is the stored frame number of a v2 record, or the record's
	// index in the log for the other layouts.
	FrameNumber uint32
	// Payload holds the row-major cell values. Wide cells above 0xff are
	// stored as 0.
	Payload []byte
	// Wide holds the row-major 16-bit cells of v2 and DJO3 records; nil for v3.
	Wide []uint16
}

// Decoder reads an OSD log written by Encoder, plus the older v2 and DJO3
// layouts.
type Decoder struct {
	r          *bufio.Reader
	offset     int64
	header     Header
	headerRead bool
	maxFrame   uint32
	frameRate  float64
	index      uint32
}

const (
	// DefaultMaxFrameSize bounds frame_size when decoding so a corrupt length
	// cannot trigger a huge allocation.
	DefaultMaxFrameSize = 1 << 16
	// DefaultFrameRate converts v2 frame numbers into deltas.
	DefaultFrameRate = 60

	djo3HeaderSize  = 40
	djo3Cells       = 1060
	djo3Width       = 53
	djo3Height      = 20
	djo3FrameHeader = 4
	v2FrameHeader   = 8
)

var djo3Signature = []byte("DJO3")

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r), maxFrame: DefaultMaxFrameSize, frameRate: DefaultFrameRate}
}

// SetFrameRate sets the rate used to turn v2 frame numbers into deltas.
// Non-positive rates are ignored.
func (d *Decoder) SetFrameRate(fps float64) {
	if fps > 0 {
		d.frameRate = fps
	}
}

// ReadHeader reads and validates the log header. A log without the MSPOSD
// magic whose first 40 bytes end in "DJO3" is read as a DJO3 log.
func (d *Decoder) ReadHeader() (Header, error) {
	if peek, _ := d.r.Peek(djo3HeaderSize); len(peek) == djo3HeaderSize &&
		!bytes.Equal(peek[:len(magic)], magic[:]) &&
		bytes.Equal(peek[djo3HeaderSize-len(djo3Signature):], djo3Signature) {
		h := Header{
			Version:    VersionDJO3,
			CharWidth:  djo3Width,
			CharHeight: djo3Height,
			Firmware:   strings.TrimRight(string(peek[:4]), "\x00"),
		}
		n, _ := d.r.Discard(djo3HeaderSize)
		d.offset += int64(n)
		d.header = h
		d.headerRead = true
		return h, nil
	}

	var h Header
	buf := make([]byte, HeaderSize)
	n, err := io.ReadFull(d.r, buf)
	d.offset += int64(n)
	if err != nil {
		return h, errors.NewFormatError("read header", errors.ErrInvalidHeader).WithOffset(d.offset)
	}
	if err := h.UnmarshalBinary(buf); err != nil {
		return h, err
	}
	d.header = h
	d.headerRead = true
	return h, nil
}

// Next returns the next frame record. It returns io.EOF when the log ends on
// a record boundary and a FormatError wrapping ErrTruncatedFrame otherwise.
func (d *Decoder) Next() (Record, error) {
	if !d.headerRead {
		if _, err := d.ReadHeader(); err != nil {
			return Record{}, err
		}
	}

	var (
		rec Record
		err error
	)
	switch d.header.Version {
	case VersionV2:
		rec, err = d.nextV2()
	case VersionDJO3:
		rec, err = d.nextDJO3()
	default:
		rec, err = d.nextV3()
	}
	if err != nil {
		return Record{}, err
	}
	d.index++
	return rec, nil
}

func (d *Decoder) nextV3() (Record, error) {
	start := d.offset
	var fh [frameHeaderSize]byte
	if err := d.readRecordHeader(fh[:], start); err != nil {
		return Record{}, err
	}

	seconds := math.Float64frombits(binary.LittleEndian.Uint64(fh[0:8]))
	size := binary.LittleEndian.Uint32(fh[8:12])
	if size > d.maxFrame {
		return Record{}, errors.NewFormatError("frame size out of range", errors.ErrTruncatedFrame).WithOffset(start)
	}

	payload := make([]byte, size)
	n, err := io.ReadFull(d.r, payload)
	d.offset += int64(n)
	if err != nil {
		return Record{}, errors.NewFormatError("read frame payload", errors.ErrTruncatedFrame).WithOffset(start)
	}

	return Record{
		Delta:       time.Duration(math.Round(seconds * float64(time.Second))),
		FrameNumber: d.index,
		Payload:     payload,
	}, nil
}

func (d *Decoder) nextV2() (Record, error) {
	start := d.offset
	var fh [v2FrameHeader]byte
	if err := d.readRecordHeader(fh[:], start); err != nil {
		return Record{}, err
	}

	frameNumber := binary.LittleEndian.Uint32(fh[0:4])
	size := binary.LittleEndian.Uint32(fh[4:8])
	if size > d.maxFrame {
		return Record{}, errors.NewFormatError("frame size out of range", errors.ErrTruncatedFrame).WithOffset(start)
	}

	cells, err := d.readCells(int(size), start)
	if err != nil {
		return Record{}, err
	}
	cells = columnsToRows(cells, int(d.header.CharHeight))

	return Record{
		Delta:       time.Duration(math.Round(float64(frameNumber) / d.frameRate * float64(time.Second))),
		FrameNumber: frameNumber,
		Payload:     narrow(cells),
		Wide:        cells,
	}, nil
}

func (d *Decoder) nextDJO3() (Record, error) {
	start := d.offset
	var fh [djo3FrameHeader]byte
	if err := d.readRecordHeader(fh[:], start); err != nil {
		return Record{}, err
	}

	ms := binary.LittleEndian.Uint32(fh[:])
	cells, err := d.readCells(djo3Cells, start)
	if err != nil {
		return Record{}, err
	}

	return Record{
		Delta:       time.Duration(ms) * time.Millisecond,
		FrameNumber: d.index,
		Payload:     narrow(cells),
		Wide:        cells,
	}, nil
}

// readRecordHeader fills buf, returning io.EOF only when nothing was read.
func (d *Decoder) readRecordHeader(buf []byte, start int64) error {
	n, err := io.ReadFull(d.r, buf)
	d.offset += int64(n)
	if err == io.EOF {
		return io.EOF
	}
	if err != nil {
		return errors.NewFormatError("read frame header", errors.ErrTruncatedFrame).WithOffset(start)
	}
	return nil
}

func (d *Decoder) readCells(count int, start int64) ([]uint16, error) {
	raw := make([]byte, 2*count)
	n, err := io.ReadFull(d.r, raw)
	d.offset += int64(n)
	if err != nil {
		return nil, errors.NewFormatError("read frame payload", errors.ErrTruncatedFrame).WithOffset(start)
	}
	cells := make([]uint16, count)
	for i := range cells {
		cells[i] = binary.LittleEndian.Uint16(raw[2*i:])
	}
	return cells, nil
}

// columnsToRows reorders column-major cells into row-major order. Cells are
// returned as stored when they do not fill whole columns of the given height.
func columnsToRows(cells []uint16, height int) []uint16 {
	if height <= 0 || len(cells)%height != 0 {
		return cells
	}
	width := len(cells) / height
	out := make([]uint16, len(cells))
	for col := 0; col < width; col++ {
		for row := 0; row < height; row++ {
			out[row*width+col] = cells[col*height+row]
		}
	}
	return out
}

func narrow(cells []uint16) []byte {
	out := make([]byte, len(cells))
	for i, c := range cells {
		if c <= 0xff {
			out[i] = byte(c)
		}
	}
	return out
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int64 {
	return d.offset
}

// ReadFile decodes a whole log. Records read before a truncated tail are
// returned together with the error.
func ReadFile(path string) (Header, []Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer f.Close()

	dec := NewDecoder(f)
	h, err := dec.ReadHeader()
	if err != nil {
		return h, nil, err
	}

	var records []Record
	for {
		rec, err := dec.Next()
		if err == io.EOF {
			return h, records, nil
		}
		if err != nil {
			return h, records, err
		}
		records = append(records, rec)
	}
}
