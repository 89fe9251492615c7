package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/osdrec/internal/capture"
	"github.com/Iron-Ham/osdrec/internal/config"
	"github.com/Iron-Ham/osdrec/internal/errors"
	"github.com/Iron-Ham/osdrec/internal/event"
	"github.com/Iron-Ham/osdrec/internal/logging"
	"github.com/Iron-Ham/osdrec/internal/tui/styles"
)

var recordCmd = &cobra.Command{
	Use:   "record <video-path>",
	Short: "Record a synthetic OSD stream next to a video path",
	Long: `Record drives a capture session with a synthetic OSD producer, writing the
log next to the given DVR recording (the video extension is replaced by .osd).

The producer renders a frame counter and elapsed time into the grid at the
requested rate. It is useful for checking sink throughput and for producing
sample logs for the inspect and play commands.

Examples:
  # Five seconds at 60 fps on the 53x20 goggles grid
  osdrec record /rec/DJI_0001.mp4

  # 500 frames as fast as possible on a 50x18 grid
  osdrec record --frames 500 --fast --width 50 --height 18 /rec/test.mp4`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

var (
	recordFPS      float64
	recordDuration time.Duration
	recordFrames   int
	recordWidth    int
	recordHeight   int
	recordFast     bool
)

func init() {
	recordCmd.Flags().Float64Var(&recordFPS, "fps", 60, "Frames per second produced")
	recordCmd.Flags().DurationVar(&recordDuration, "duration", 5*time.Second, "How long to record")
	recordCmd.Flags().IntVar(&recordFrames, "frames", 0, "Number of frames to produce (overrides --duration)")
	recordCmd.Flags().IntVar(&recordWidth, "width", 53, "Grid width in cells")
	recordCmd.Flags().IntVar(&recordHeight, "height", 20, "Grid height in cells")
	recordCmd.Flags().BoolVar(&recordFast, "fast", false, "Produce frames without pacing")
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	if err := requirePositive("fps", recordFPS); err != nil {
		return err
	}
	frames := recordFrames
	if frames <= 0 {
		frames = int(recordDuration.Seconds() * recordFPS)
	}
	if frames <= 0 {
		return errors.NewValidationError("nothing to record: duration is shorter than one frame").
			WithField("duration").WithValue(recordDuration)
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
	watchLogLevel(logger)

	session, path := newCaptureSession(cmd, cfg, logger, args[0])
	if err := session.Start(path); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var interval time.Duration
	if !recordFast {
		interval = time.Duration(float64(time.Second) / recordFPS)
	}
	grid := newSyntheticGrid(recordWidth, recordHeight)
	produced := produce(ctx, frames, interval, func(n int, elapsed time.Duration) {
		session.SubmitFrame(recordWidth, recordHeight, capture.BytesSource(grid.render(n, elapsed)))
	})

	stopErr := session.Stop()
	printCaptureSummary(cmd.OutOrStdout(), path, produced, session.Stats())
	return stopErr
}

// newCaptureSession wires a session to the command's logger and an event bus
// that reports writer failures on stderr.
func newCaptureSession(cmd *cobra.Command, cfg *config.Config, logger *logging.Logger, videoPath string) (*capture.Session, string) {
	bus := event.NewBus()
	bus.SetLogger(logger)
	bus.Subscribe(event.TypeWriterFailed, func(e event.Event) {
		if failed, ok := e.(event.WriterFailedEvent); ok {
			fmt.Fprintln(cmd.ErrOrStderr(), styles.Error.Render(fmt.Sprintf("writer stopped after %d frames: %v", failed.Written, failed.Err)))
		}
	})

	session := capture.NewSession(
		capture.WithLogger(logger),
		capture.WithEventBus(bus),
		capture.WithBufferSlots(cfg.Capture.BufferSlots),
		capture.WithMaxGridCells(cfg.Capture.MaxGridCells),
	)
	return session, capture.OutputPathWithExt(videoPath, cfg.Capture.Extension)
}

// produce calls emit for frames 0..n-1, one per interval (or back to back when
// interval is zero), until ctx is done. It returns how many frames it emitted.
func produce(ctx context.Context, n int, interval time.Duration, emit func(n int, elapsed time.Duration)) int {
	start := time.Now()
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for i := 0; i < n; i++ {
		if tick != nil && i > 0 {
			select {
			case <-ctx.Done():
				return i
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return i
		}
		emit(i, time.Since(start))
	}
	return n
}

// syntheticGrid renders a recognizable test pattern: a title, the frame
// counter, the elapsed time and a marker sweeping along the bottom row.
type syntheticGrid struct {
	width, height int
	buf           []byte
}

func newSyntheticGrid(width, height int) *syntheticGrid {
	size := 0
	if width > 0 && height > 0 {
		size = width * height
	}
	return &syntheticGrid{width: width, height: height, buf: make([]byte, size)}
}

func (g *syntheticGrid) render(n int, elapsed time.Duration) []byte {
	for i := range g.buf {
		g.buf[i] = ' '
	}
	if len(g.buf) == 0 {
		return g.buf
	}
	g.text(0, 1, "OSDREC")
	g.text(1, 1, fmt.Sprintf("FRAME %06d", n))
	g.text(2, 1, fmt.Sprintf("T+%07.3f", elapsed.Seconds()))
	g.buf[(g.height-1)*g.width+n%g.width] = '>'
	return g.buf
}

func (g *syntheticGrid) text(row, col int, s string) {
	if row >= g.height {
		return
	}
	for i := 0; i < len(s) && col+i < g.width; i++ {
		g.buf[row*g.width+col+i] = s[i]
	}
}

func printCaptureSummary(w io.Writer, path string, produced int, st capture.Stats) {
	fmt.Fprintln(w, styles.Title.Render("Capture complete"))
	row := func(label string, value any) {
		fmt.Fprintln(w, styles.Label.Render(label)+styles.Value.Render(fmt.Sprint(value)))
	}
	row("Output", path)
	row("Produced", produced)
	row("Submitted", st.Submitted)
	row("Written", st.Written)
	row("Dropped", st.Dropped)
	row("Rejected", st.Rejected)
	row("Bytes", st.BytesWritten)
}
