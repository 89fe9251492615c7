package event

import "time"

// Event types published by the capture pipeline.
const (
	TypeSessionStarted = "session.started"
	TypeSessionStopped = "session.stopped"
	TypeWriterHeader   = "writer.header"
	TypeWriterFailed   = "writer.failed"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "session.started").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Session Lifecycle Events
// -----------------------------------------------------------------------------

// SessionStartedEvent is emitted once a capture session is Active.
type SessionStartedEvent struct {
	baseEvent
	Path        string // Output .osd path
	BufferSlots int    // Ring size N
}

// NewSessionStartedEvent creates a SessionStartedEvent.
func NewSessionStartedEvent(path string, bufferSlots int) SessionStartedEvent {
	return SessionStartedEvent{
		baseEvent:   newBaseEvent(TypeSessionStarted),
		Path:        path,
		BufferSlots: bufferSlots,
	}
}

// SessionStoppedEvent is emitted after the writer has been joined and the
// session is Idle again.
type SessionStoppedEvent struct {
	baseEvent
	Path      string
	Submitted uint64 // Frames accepted into the buffer
	Written   uint64 // Frames persisted to the log
	Dropped   uint64 // Frames evicted because the buffer was full
	Rejected  uint64 // Frames refused for an invalid shape
	Err       error  // Writer failure, if any
}

// NewSessionStoppedEvent creates a SessionStoppedEvent.
func NewSessionStoppedEvent(path string, submitted, written, dropped, rejected uint64, err error) SessionStoppedEvent {
	return SessionStoppedEvent{
		baseEvent: newBaseEvent(TypeSessionStopped),
		Path:      path,
		Submitted: submitted,
		Written:   written,
		Dropped:   dropped,
		Rejected:  rejected,
		Err:       err,
	}
}

// Success reports whether the session ended without a writer failure.
func (e SessionStoppedEvent) Success() bool { return e.Err == nil }

// -----------------------------------------------------------------------------
// Writer Events
// -----------------------------------------------------------------------------

// WriterHeaderEvent is emitted when the writer commits the log header, sized
// by the first frame it dequeued.
type WriterHeaderEvent struct {
	baseEvent
	Path       string
	Width      int
	Height     int
	FontWidth  int
	FontHeight int
}

// NewWriterHeaderEvent creates a WriterHeaderEvent.
func NewWriterHeaderEvent(path string, width, height, fontWidth, fontHeight int) WriterHeaderEvent {
	return WriterHeaderEvent{
		baseEvent:  newBaseEvent(TypeWriterHeader),
		Path:       path,
		Width:      width,
		Height:     height,
		FontWidth:  fontWidth,
		FontHeight: fontHeight,
	}
}

// WriterFailedEvent is emitted when a write error aborts the writer loop.
type WriterFailedEvent struct {
	baseEvent
	Path    string
	Written uint64 // Frames persisted before the failure
	Err     error
}

// NewWriterFailedEvent creates a WriterFailedEvent.
func NewWriterFailedEvent(path string, written uint64, err error) WriterFailedEvent {
	return WriterFailedEvent{
		baseEvent: newBaseEvent(TypeWriterFailed),
		Path:      path,
		Written:   written,
		Err:       err,
	}
}
