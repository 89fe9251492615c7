// Package event provides a synchronous pub-sub bus carrying capture session
// lifecycle events.
//
// The capture session publishes on the bus and the command layer subscribes,
// so neither depends on the other's internals.
//
// # Event Types
//
//   - [SessionStartedEvent] ("session.started"): the session became Active
//   - [SessionStoppedEvent] ("session.stopped"): the writer was joined, with final counters
//   - [WriterHeaderEvent] ("writer.header"): the log header was written
//   - [WriterFailedEvent] ("writer.failed"): a write error aborted the writer
//
// Events are never published from the frame submission path.
//
// # Thread Safety
//
// [Bus] is safe for concurrent use. Handlers run synchronously on the
// publishing goroutine; a panicking handler is recovered and does not prevent
// delivery to the others.
//
// # Basic Usage
//
//	bus := event.NewBus()
//	bus.Subscribe(event.TypeWriterFailed, func(e event.Event) {
//	    failed := e.(event.WriterFailedEvent)
//	    fmt.Println("writer failed:", failed.Err)
//	})
//	bus.Publish(event.NewWriterFailedEvent("clip.osd", 3, err))
package event
