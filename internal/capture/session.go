package capture

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/Iron-Ham/osdrec/internal/errors"
	"github.com/Iron-Ham/osdrec/internal/event"
	"github.com/Iron-Ham/osdrec/internal/logging"
)

// State is the lifecycle state of a Session.
type State int32

const (
	Idle State = iota
	Active
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// rejectLogEvery throttles the debug line emitted for rejected frames.
const rejectLogEvery = 256

// SinkOpener opens the destination of an OSD log, creating or truncating it.
type SinkOpener func(path string) (io.WriteCloser, error)

// Clock returns the current time. Deltas are computed with time.Time.Sub, so
// a clock built on time.Now measures monotonic time.
type Clock func() time.Time

func createFile(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// Stats is a point-in-time view of a session's counters. Counters reset on
// every Start and keep their final values after Stop.
type Stats struct {
	Submitted    uint64 // Frames pushed into the buffer
	Rejected     uint64 // Frames refused for an invalid shape
	Dropped      uint64 // Frames evicted before the writer reached them
	Written      uint64 // Frames persisted to the sink
	Pending      int    // Frames currently buffered
	BytesWritten int64  // Bytes handed to the sink, header included
}

type counters struct {
	submitted atomic.Uint64
	rejected  atomic.Uint64
	written   atomic.Uint64
	bytes     atomic.Int64
}

func (c *counters) reset() {
	c.submitted.Store(0)
	c.rejected.Store(0)
	c.written.Store(0)
	c.bytes.Store(0)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEventBus publishes session and writer events on bus.
func WithEventBus(bus *event.Bus) Option {
	return func(s *Session) { s.bus = bus }
}

// WithBufferSlots sets the ring size N. N-1 frames can be pending.
func WithBufferSlots(n int) Option {
	return func(s *Session) { s.slots = n }
}

// WithMaxGridCells sets the largest accepted width*height.
func WithMaxGridCells(n int) Option {
	return func(s *Session) { s.maxCells = n }
}

// WithClock replaces time.Now as the session clock.
func WithClock(clock Clock) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithSinkOpener replaces the file sink.
func WithSinkOpener(open SinkOpener) Option {
	return func(s *Session) {
		if open != nil {
			s.openSink = open
		}
	}
}

// Session owns one capture at a time: the ring buffer, the writer goroutine
// and the sink. A Session can be started again after it stops.
//
// Start and Stop may be called from any goroutine. SubmitFrame is meant for a
// single producer goroutine and never blocks: while Start or Stop is running
// it returns immediately.
type Session struct {
	// lifecycle is held exclusively by Start and Stop and shared by
	// SubmitFrame, which only ever tries to acquire it.
	lifecycle sync.RWMutex

	state  atomic.Int32
	active atomic.Bool

	logger   *logging.Logger
	bus      *event.Bus
	slots    int
	maxCells int
	clock    Clock
	openSink SinkOpener

	path    atomic.Pointer[string]
	started time.Time
	buffer  atomic.Pointer[RingBuffer]
	writer  *writer
	wg      *conc.WaitGroup
	stats   counters
}

// NewSession creates an idle session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		logger:   logging.NopLogger(),
		slots:    DefaultBufferSlots,
		maxCells: MaxGridCells,
		clock:    time.Now,
		openSink: createFile,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens path and begins capturing. Calling Start on an active session
// is a no-op that returns nil, whatever the path.
//
// If the sink cannot be opened Start returns an io CaptureError and the
// session stays idle. If anything after that fails the sink is closed again
// and a spawn CaptureError is returned.
func (s *Session) Start(path string) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.State() != Idle {
		s.logger.Debug("capture already active", "path", s.Path(), "requested", path)
		return nil
	}

	sink, err := s.openSink(path)
	if err != nil {
		s.logger.Warn("failed to open osd sink", "path", path, "error", err)
		return errors.NewIOError("open sink", path, err)
	}

	buffer, err := NewRingBuffer(s.slots, s.maxCells)
	if err != nil {
		if closeErr := sink.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		s.logger.Error("capture start rolled back", "path", path, "error", err)
		return errors.NewSpawnError("allocate frame buffer", path, err)
	}

	s.stats.reset()
	s.path.Store(&path)
	s.buffer.Store(buffer)
	s.started = s.clock()
	s.active.Store(true)

	log := s.logger.WithSession(path)
	s.writer = newWriter(path, buffer, sink, s.active.Load, &s.stats, log, s.bus)
	s.wg = conc.NewWaitGroup()
	s.wg.Go(s.writer.run)

	s.state.Store(int32(Active))

	log.Info("capture started", "slots", buffer.Slots(), "max_cells", buffer.MaxCells())
	s.publish(event.NewSessionStartedEvent(path, buffer.Slots()))
	return nil
}

// SubmitFrame captures one width x height frame read from src. It does
// nothing unless the session is active. Frames with a zero area, more than
// the configured cell limit, or a side above osd.MaxGridSide are counted and
// discarded.
func (s *Session) SubmitFrame(width, height int, src CellSource) {
	if !s.lifecycle.TryRLock() {
		return
	}
	defer s.lifecycle.RUnlock()

	if s.State() != Active {
		return
	}

	if !validShape(width, height, s.maxCells) {
		if n := s.stats.rejected.Add(1); n == 1 || n%rejectLogEvery == 0 {
			s.logger.Debug("frame rejected", "width", width, "height", height, "rejected", n)
		}
		return
	}

	delta := s.clock().Sub(s.started)
	if delta < 0 {
		delta = 0
	}

	frame, err := newFrame(width, height, delta, src, s.maxCells)
	if err != nil {
		s.stats.rejected.Add(1)
		return
	}

	s.buffer.Load().Push(frame)
	s.stats.submitted.Add(1)
}

// Stop ends the capture. It waits until every buffered frame has been written
// and the sink is closed. The session is idle when Stop returns, even if an
// error is reported.
//
// The returned error describes a writer failure during the session, matching
// errors.ErrWriteFailed, or a writer panic, matching errors.ErrSpawnFailed.
// Stop on an idle session is a no-op.
func (s *Session) Stop() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.State() != Active {
		return nil
	}

	s.state.Store(int32(Stopping))
	s.active.Store(false)
	buffer := s.buffer.Load()
	buffer.Wake()

	var err error
	if r := s.wg.WaitAndRecover(); r != nil {
		err = errors.NewSpawnError("writer goroutine", s.Path(), r.AsError())
	} else {
		err = s.writer.err
	}
	s.wg = nil
	s.writer = nil

	stats := s.Stats()
	s.state.Store(int32(Idle))

	log := s.logger.WithSession(s.Path())
	if err != nil {
		log.Error("capture stopped with error", "error", err, "written", stats.Written, "dropped", stats.Dropped)
	} else {
		log.Info("capture stopped",
			"submitted", stats.Submitted,
			"written", stats.Written,
			"dropped", stats.Dropped,
			"rejected", stats.Rejected,
			"bytes", stats.BytesWritten,
		)
	}
	s.publish(event.NewSessionStoppedEvent(s.Path(), stats.Submitted, stats.Written, stats.Dropped, stats.Rejected, err))
	return err
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Path returns the output path of the current or most recent capture.
func (s *Session) Path() string {
	if p := s.path.Load(); p != nil {
		return *p
	}
	return ""
}

// Stats returns the counters of the current or most recent capture.
func (s *Session) Stats() Stats {
	st := Stats{
		Submitted:    s.stats.submitted.Load(),
		Rejected:     s.stats.rejected.Load(),
		Written:      s.stats.written.Load(),
		BytesWritten: s.stats.bytes.Load(),
	}
	if b := s.buffer.Load(); b != nil {
		st.Dropped = b.Dropped()
		st.Pending = b.Len()
	}
	return st
}

func (s *Session) publish(e event.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}
