package capture

import (
	"time"

	"github.com/Iron-Ham/osdrec/internal/errors"
	"github.com/Iron-Ham/osdrec/internal/osd"
)

const (
	// MaxGridCells is the default upper bound on width*height of a frame.
	MaxGridCells = 2000
	// DefaultBufferSlots is the default ring size. One slot is kept free, so
	// DefaultBufferSlots-1 frames can be pending.
	DefaultBufferSlots = 10
)

// CellSource returns the value of the cell at a row-major index. ok is false
// when the cell is absent, which is recorded as 0x00.
type CellSource func(index int) (value byte, ok bool)

// Frame is one captured grid snapshot.
type Frame struct {
	Width  int
	Height int
	// Delta is the time since the session started, taken when the frame was
	// submitted.
	Delta   time.Duration
	Payload []byte
}

// Cells returns width*height.
func (f Frame) Cells() int {
	return f.Width * f.Height
}

// NewFrame builds a frame by reading width*height cells from src. It fails
// with a validation CaptureError when the area is zero or above MaxGridCells,
// or when either side exceeds osd.MaxGridSide.
func NewFrame(width, height int, delta time.Duration, src CellSource) (Frame, error) {
	return newFrame(width, height, delta, src, MaxGridCells)
}

func newFrame(width, height int, delta time.Duration, src CellSource, maxCells int) (Frame, error) {
	if !validShape(width, height, maxCells) {
		return Frame{}, errors.NewValidationCaptureError(width, height, maxCells)
	}

	payload := make([]byte, width*height)
	if src != nil {
		for i := range payload {
			if v, ok := src(i); ok {
				payload[i] = v
			}
		}
	}

	return Frame{Width: width, Height: height, Delta: delta, Payload: payload}, nil
}

// validShape checks 0 < width*height <= maxCells without overflowing. Each
// side is also capped at osd.MaxGridSide since the header stores it in a byte.
func validShape(width, height, maxCells int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	if width > osd.MaxGridSide || height > osd.MaxGridSide {
		return false
	}
	if width > maxCells || height > maxCells {
		return false
	}
	return width*height <= maxCells
}

// BytesSource adapts a byte slice to a CellSource. Indices past the end are
// absent.
func BytesSource(b []byte) CellSource {
	return func(i int) (byte, bool) {
		if i < 0 || i >= len(b) {
			return 0, false
		}
		return b[i], true
	}
}
