package osd

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/Iron-Ham/osdrec/internal/errors"
)

// Log versions. Version is the one this package writes; the others are
// read-only layouts produced by earlier goggles builds.
const (
	Version uint16 = 3
	// VersionV2 records carry a frame number and 16-bit cells stored
	// column-major.
	VersionV2 uint16 = 2
	// VersionDJO3 marks the 40-byte "DJO3" layout: a millisecond delta and
	// 1060 16-bit cells per record. It has no version field on disk.
	VersionDJO3 uint16 = 99
)

// MaxGridSide is the largest width or height a header can describe; the
// fields are one byte wide.
const MaxGridSide = 255

// HeaderSize is the encoded size of a Header in bytes.
const HeaderSize = len(magic) + 2 + 4 + 4 + len(fontVariant)

var (
	magic       = [7]byte{'M', 'S', 'P', 'O', 'S', 'D', 0}
	fontVariant = [5]byte{'D', 'J', 'O', '3', 0}
)

// Header describes the grid and font geometry of a log.
type Header struct {
	Version    uint16
	CharWidth  uint8
	CharHeight uint8
	FontWidth  uint8
	FontHeight uint8
	XOffset    uint16
	YOffset    uint16
	// Firmware is the 4-byte firmware tag of a DJO3 log, empty otherwise.
	Firmware string
}

// fontMetrics is one row of the font lookup table.
type fontMetrics struct {
	fontWidth, fontHeight uint8
	xOffset, yOffset      uint16
}

// The goggles render a 53x20 grid with the small font at the origin; every
// other grid uses the large font shifted right by 180px.
var (
	smallGridArea    = 53 * 20
	smallGridMetrics = fontMetrics{fontWidth: 24, fontHeight: 36, xOffset: 0, yOffset: 0}
	defaultMetrics   = fontMetrics{fontWidth: 36, fontHeight: 54, xOffset: 180, yOffset: 0}
)

// HeaderFor returns the header for a log whose first frame is width x height.
// Both must be in 1..MaxGridSide; the capture session rejects larger shapes
// before a header is ever built.
func HeaderFor(width, height int) Header {
	m := defaultMetrics
	if width*height == smallGridArea {
		m = smallGridMetrics
	}
	return Header{
		Version:    Version,
		CharWidth:  uint8(width),
		CharHeight: uint8(height),
		FontWidth:  m.fontWidth,
		FontHeight: m.fontHeight,
		XOffset:    m.xOffset,
		YOffset:    m.yOffset,
	}
}

// MarshalBinary encodes the header into its 22-byte wire form.
func (h Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, HeaderSize)
	buf = append(buf, magic[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, h.Version)
	buf = append(buf, h.CharWidth, h.CharHeight, h.FontWidth, h.FontHeight)
	buf = binary.LittleEndian.AppendUint16(buf, h.XOffset)
	buf = binary.LittleEndian.AppendUint16(buf, h.YOffset)
	buf = append(buf, fontVariant[:]...)
	return buf, nil
}

// UnmarshalBinary decodes a header, rejecting a bad magic or unsupported version.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return errors.NewFormatError("read header", io.ErrUnexpectedEOF).WithOffset(int64(len(data)))
	}
	if !bytes.Equal(data[:len(magic)], magic[:]) {
		return errors.NewFormatError("bad magic", errors.ErrInvalidHeader).WithOffset(0)
	}
	p := data[len(magic):]
	version := binary.LittleEndian.Uint16(p)
	if version != Version && version != VersionV2 {
		return errors.NewFormatError("unsupported version", errors.ErrInvalidHeader).WithOffset(int64(len(magic)))
	}
	*h = Header{
		Version:    version,
		CharWidth:  p[2],
		CharHeight: p[3],
		FontWidth:  p[4],
		FontHeight: p[5],
		XOffset:    binary.LittleEndian.Uint16(p[6:]),
		YOffset:    binary.LittleEndian.Uint16(p[8:]),
	}
	return nil
}

// WideCells reports whether records of this log store 16-bit cells.
func (h Header) WideCells() bool {
	return h.Version == VersionV2 || h.Version == VersionDJO3
}

// Format names the record layout for display.
func (h Header) Format() string {
	switch h.Version {
	case Version:
		return "v3"
	case VersionV2:
		return "v2 (16-bit cells, frame numbers)"
	case VersionDJO3:
		return "DJO3 (16-bit cells, ms deltas)"
	default:
		return "unknown"
	}
}

// Cells returns the grid area declared by the header.
func (h Header) Cells() int {
	return int(h.CharWidth) * int(h.CharHeight)
}
