package capture

import (
	"io"

	"github.com/Iron-Ham/osdrec/internal/errors"
	"github.com/Iron-Ham/osdrec/internal/event"
	"github.com/Iron-Ham/osdrec/internal/logging"
	"github.com/Iron-Ham/osdrec/internal/osd"
)

// writer drains a RingBuffer into an OSD log. It runs on its own goroutine
// and is the only user of the sink.
type writer struct {
	path   string
	buffer *RingBuffer
	sink   io.WriteCloser
	enc    *osd.Encoder
	active func() bool
	stats  *counters
	logger *logging.Logger
	bus    *event.Bus

	headerWritten bool
	// err is set before run returns and read by Stop after the join.
	err error
}

func newWriter(path string, buffer *RingBuffer, sink io.WriteCloser, active func() bool,
	stats *counters, logger *logging.Logger, bus *event.Bus) *writer {
	return &writer{
		path:   path,
		buffer: buffer,
		sink:   sink,
		enc:    osd.NewEncoder(sink),
		active: active,
		stats:  stats,
		logger: logger,
		bus:    bus,
	}
}

// run pops frames until the buffer is empty and the session inactive, or
// until the first write error. The sink is closed exactly once on the way out.
func (w *writer) run() {
	defer w.close()

	for {
		frame, ok := w.buffer.Pop(w.active)
		if !ok {
			return
		}
		if err := w.write(frame); err != nil {
			w.fail(err)
			return
		}
	}
}

func (w *writer) write(f Frame) error {
	if !w.headerWritten {
		h := osd.HeaderFor(f.Width, f.Height)
		if err := w.enc.WriteHeader(h); err != nil {
			return errors.NewWriteError("write header", w.path, err)
		}
		w.headerWritten = true
		w.logger.Info("osd header written",
			"width", f.Width,
			"height", f.Height,
			"font_width", h.FontWidth,
			"font_height", h.FontHeight,
		)
		w.publish(event.NewWriterHeaderEvent(w.path, f.Width, f.Height, int(h.FontWidth), int(h.FontHeight)))
	}

	if err := w.enc.WriteFrame(f.Delta, f.Payload); err != nil {
		return errors.NewWriteError("write frame", w.path, err)
	}
	w.stats.written.Add(1)
	w.stats.bytes.Store(w.enc.Written())

	// Flush whenever the writer catches up so a failing sink is noticed
	// promptly and an idle session leaves a complete file behind.
	if w.buffer.Len() == 0 {
		if err := w.enc.Flush(); err != nil {
			return errors.NewWriteError("flush", w.path, err)
		}
	}
	return nil
}

func (w *writer) fail(err error) {
	w.err = err
	written := w.stats.written.Load()
	w.logger.Error("osd writer aborted", "error", err, "written", written, "pending", w.buffer.Len())
	w.publish(event.NewWriterFailedEvent(w.path, written, err))
}

// close runs deferred from run. A panic skips the flush and is raised again
// once the sink is closed, so the session's join still reports it.
func (w *writer) close() {
	r := recover()
	if r == nil && w.err == nil {
		if err := w.enc.Flush(); err != nil {
			w.fail(errors.NewWriteError("flush", w.path, err))
		}
	}
	if err := w.sink.Close(); err != nil && w.err == nil {
		w.fail(errors.NewWriteError("close sink", w.path, err))
	}
	w.logger.Debug("osd sink closed", "written", w.stats.written.Load())

	if r != nil {
		panic(r)
	}
}

func (w *writer) publish(e event.Event) {
	if w.bus != nil {
		w.bus.Publish(e)
	}
}
