package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/osdrec/internal/errors"
	"github.com/Iron-Ham/osdrec/internal/osd"
	"github.com/Iron-Ham/osdrec/internal/tui/styles"
	"github.com/Iron-Ham/osdrec/internal/util"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.osd>",
	Short: "Show the header and frame summary of an OSD log",
	Long: `Inspect prints the header of an OSD log, timing statistics over all frames,
and a per-frame table with a preview of each frame's first row.

A log cut short by a crash is still inspected; the incomplete final frame is
reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var inspectLimit int

func init() {
	inspectCmd.Flags().IntVarP(&inspectLimit, "limit", "n", 20, "Number of frames to list (0 for all)")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	if info, err := os.Stat(path); err == nil && info.Size() == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is empty: the session captured no frames\n", path)
		return nil
	}

	header, records, err := loadRecording(cmd, path)
	if err != nil {
		return err
	}

	renderInspect(cmd.OutOrStdout(), path, header, records, inspectLimit, terminalWidth())
	return nil
}

// terminalWidth returns the width of stdout, or 100 when it is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 100
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return 100
	}
	return width
}

// frameSummary holds timing figures over a whole log.
type frameSummary struct {
	Count    int
	Duration time.Duration
	MinGap   time.Duration
	MaxGap   time.Duration
	Bytes    int
	Mismatch int // frames whose size differs from the header grid
}

// FPS returns the average frame rate.
func (s frameSummary) FPS() float64 {
	if s.Count < 2 || s.Duration <= 0 {
		return 0
	}
	return float64(s.Count-1) / s.Duration.Seconds()
}

func summarize(h osd.Header, records []osd.Record) frameSummary {
	s := frameSummary{Count: len(records)}
	for i, rec := range records {
		s.Bytes += len(rec.Payload)
		if len(rec.Payload) != h.Cells() {
			s.Mismatch++
		}
		if i == 0 {
			continue
		}
		gap := rec.Delta - records[i-1].Delta
		if i == 1 || gap < s.MinGap {
			s.MinGap = gap
		}
		if gap > s.MaxGap {
			s.MaxGap = gap
		}
	}
	if len(records) > 1 {
		s.Duration = records[len(records)-1].Delta - records[0].Delta
	}
	return s
}

func renderInspect(w io.Writer, path string, h osd.Header, records []osd.Record, limit, width int) {
	row := func(label string, value any) {
		fmt.Fprintln(w, styles.Label.Render(label)+styles.Value.Render(fmt.Sprint(value)))
	}

	fmt.Fprintln(w, styles.Title.Render(util.TruncateANSI(path, width)))
	row("Version", fmt.Sprintf("%d (%s)", h.Version, h.Format()))
	if h.Firmware != "" {
		row("Firmware", h.Firmware)
	}
	row("Grid", fmt.Sprintf("%dx%d (%d cells)", h.CharWidth, h.CharHeight, h.Cells()))
	row("Font", fmt.Sprintf("%dx%d", h.FontWidth, h.FontHeight))
	row("Offset", fmt.Sprintf("%d,%d", h.XOffset, h.YOffset))

	s := summarize(h, records)
	fmt.Fprintln(w)
	row("Frames", s.Count)
	row("Duration", s.Duration.Round(time.Millisecond))
	row("Avg FPS", fmt.Sprintf("%.2f", s.FPS()))
	row("Gap min/max", fmt.Sprintf("%v / %v", s.MinGap.Round(time.Microsecond), s.MaxGap.Round(time.Microsecond)))
	if h.WideCells() {
		row("Payload", fmt.Sprintf("%d cells (16-bit)", s.Bytes))
	} else {
		row("Payload", fmt.Sprintf("%d bytes", s.Bytes))
	}
	if s.Mismatch > 0 {
		fmt.Fprintln(w, styles.Warning.Render(fmt.Sprintf("%d frames differ from the header grid size", s.Mismatch)))
	}

	if len(records) == 0 {
		return
	}

	shown := records
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.TableHeader.Render(fmt.Sprintf("%6s  %10s  %6s  %6s  %s", "#", "t (s)", "size", "lit", "first row")))
	prefixWidth := 6 + 2 + 10 + 2 + 6 + 2 + 6 + 2
	previewWidth := max(width-prefixWidth, 8)
	for i, rec := range shown {
		line := fmt.Sprintf("%6d  %10.3f  %6d  %6d  ", i, rec.Delta.Seconds(), len(rec.Payload), litCells(rec.Payload))
		preview := firstRow(rec.Payload, int(h.CharWidth), previewWidth)
		fmt.Fprintln(w, line+lipgloss.NewStyle().Foreground(styles.TextColor).Render(preview))
	}
	if len(shown) < len(records) {
		fmt.Fprintln(w, styles.Muted.Render(fmt.Sprintf("... %d more frames (use -n 0 to list all)", len(records)-len(shown))))
	}
}

// litCells counts cells that draw something.
func litCells(payload []byte) int {
	n := 0
	for _, c := range payload {
		if c != 0 && c != ' ' {
			n++
		}
	}
	return n
}

// firstRow returns the printable form of the first grid row, cut to limit cells.
func firstRow(payload []byte, width, limit int) string {
	if width <= 0 || width > len(payload) {
		width = len(payload)
	}
	return util.PrintableString(payload[:min(width, limit)], '.')
}

func isTruncated(err error) bool {
	return errors.Is(err, errors.ErrTruncatedFrame)
}
