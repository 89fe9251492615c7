// Package capture records OSD frames from a real-time render path into an
// OSD log without ever blocking the caller.
//
// A [Session] owns a fixed-size [RingBuffer] and a writer goroutine. The
// producer calls [Session.SubmitFrame] once per rendered frame; the frame is
// copied into the buffer and the writer drains it to the sink in push order.
//
// # Overflow
//
// The buffer holds at most N-1 frames for N slots. Pushing into a full buffer
// evicts the oldest pending frame, so a slow sink loses frames instead of
// stalling the render path. Evictions are counted in [Stats.Dropped].
//
// # Lifecycle
//
//	Idle --Start--> Active --Stop--> Stopping --> Idle
//
// Start opens the sink and spawns the writer. Stop wakes the writer, waits
// until every pending frame is written and the sink is closed, then returns.
// Both are idempotent.
//
// # Basic Usage
//
//	s := capture.NewSession(capture.WithLogger(logger))
//	if err := s.Start(capture.OutputPath("/rec/DJI_0001.mp4")); err != nil {
//	    return err
//	}
//	s.SubmitFrame(53, 20, grid.Cell)
//	if err := s.Stop(); err != nil {
//	    logger.Error("osd log incomplete", "error", err)
//	}
package capture
