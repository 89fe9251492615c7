package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/osdrec/internal/capture"
	"github.com/Iron-Ham/osdrec/internal/osd"
	"github.com/Iron-Ham/osdrec/internal/tui/styles"
)

var replayCmd = &cobra.Command{
	Use:   "replay <in.osd> <out-video-path>",
	Short: "Re-capture an existing OSD log through a new session",
	Long: `Replay feeds every frame of an existing OSD log through a fresh capture
session, producing the log for another video path. Frames are submitted at
their recorded pacing unless --fast is given.

Replaying is a way to re-size a recording against a different buffer or grid
limit configuration and to check that a log survives a round trip.`,
	Args: cobra.ExactArgs(2),
	RunE: runReplay,
}

var (
	replayFast  bool
	replaySpeed float64
)

func init() {
	replayCmd.Flags().BoolVar(&replayFast, "fast", false, "Submit frames back to back instead of at recorded pacing")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1, "Pacing multiplier when not --fast")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	if err := requirePositive("speed", replaySpeed); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	header, records, err := loadRecording(cmd, args[0])
	if err != nil {
		return err
	}

	if n := clippedCells(records); n > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), styles.Warning.Render(fmt.Sprintf("%d cells above 0xff will be replayed as blank", n)))
	}

	session, path := newCaptureSession(cmd, cfg, logger, args[1])
	if samePath(path, args[0]) {
		return fmt.Errorf("replay would overwrite its input %s", args[0])
	}
	if err := session.Start(path); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	produced := replayRecords(ctx, header, records, replayFast, replaySpeed, session.SubmitFrame)

	stopErr := session.Stop()
	printCaptureSummary(cmd.OutOrStdout(), path, produced, session.Stats())
	return stopErr
}

// replayRecords submits records in order, sleeping until each one's recorded
// delta (divided by speed) unless fast is set. It returns the number submitted.
func replayRecords(ctx context.Context, header osd.Header, records []osd.Record, fast bool, speed float64,
	submit func(width, height int, src capture.CellSource)) int {
	start := time.Now()
	for i, rec := range records {
		if !fast {
			due := time.Duration(float64(rec.Delta) / speed)
			if wait := due - time.Since(start); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return i
				case <-timer.C:
				}
			}
		}
		if ctx.Err() != nil {
			return i
		}
		width, height := recordShape(header, rec)
		submit(width, height, capture.BytesSource(rec.Payload))
	}
	return len(records)
}

// recordShape returns the grid shape of a record. Records that do not match
// the header's grid are replayed as a single row.
func recordShape(h osd.Header, rec osd.Record) (int, int) {
	if h.Cells() > 0 && len(rec.Payload) == h.Cells() {
		return int(h.CharWidth), int(h.CharHeight)
	}
	return len(rec.Payload), 1
}

// clippedCells counts legacy 16-bit cells that do not fit the 8-bit payload.
func clippedCells(records []osd.Record) int {
	n := 0
	for _, rec := range records {
		for _, c := range rec.Wide {
			if c > 0xff {
				n++
			}
		}
	}
	return n
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// loadRecording reads an OSD log. A truncated final record, which is what a
// crash mid-write leaves behind, is reported on stderr and dropped.
func loadRecording(cmd *cobra.Command, path string) (osd.Header, []osd.Record, error) {
	header, records, err := osd.ReadFile(path)
	if err == nil {
		return header, records, nil
	}
	if !isTruncated(err) {
		return osd.Header{}, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), styles.Warning.Render(fmt.Sprintf("%s: %v; using the %d complete frames", path, err, len(records))))
	return header, records, nil
}
