// Package player is a terminal player for OSD logs.
//
// Frames are shown at their recorded pacing, scaled by a speed multiplier.
// Cell values are glyph indices into the goggles font; printable ASCII is
// drawn as-is and everything else as a blank.
package player

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/osdrec/internal/osd"
	"github.com/Iron-Ham/osdrec/internal/tui/styles"
	"github.com/Iron-Ham/osdrec/internal/util"
)

const (
	MinSpeed = 1.0 / 16
	MaxSpeed = 16.0

	maxTitleLen = 60

	// minGap keeps back-to-back frames from flooding the event loop.
	minGap = time.Millisecond
)

// tickMsg advances playback. Ticks from an older schedule are ignored.
type tickMsg struct{ gen int }

// Model is the bubbletea model of the player.
type Model struct {
	title   string
	header  osd.Header
	records []osd.Record

	index   int
	playing bool
	speed   float64
	gen     int

	keys     keyMap
	help     help.Model
	width    int
	quitting bool
}

// New creates a player for records, starting at the first frame and playing
// at speed (clamped to [MinSpeed, MaxSpeed]).
func New(title string, header osd.Header, records []osd.Record, speed float64) Model {
	return Model{
		title:   title,
		header:  header,
		records: records,
		playing: len(records) > 1,
		speed:   clampSpeed(speed),
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
}

func clampSpeed(s float64) float64 {
	if s <= 0 {
		return 1
	}
	return min(max(s, MinSpeed), MaxSpeed)
}

// Index returns the current frame index.
func (m Model) Index() int { return m.index }

// Playing reports whether playback is running.
func (m Model) Playing() bool { return m.playing }

// Speed returns the playback multiplier.
func (m Model) Speed() float64 { return m.speed }

func (m Model) Init() tea.Cmd {
	if m.playing {
		return m.next()
	}
	return nil
}

// next schedules the tick that moves from the current frame to the following
// one after their recorded gap.
func (m Model) next() tea.Cmd {
	if m.index+1 >= len(m.records) {
		return nil
	}
	gap := m.records[m.index+1].Delta - m.records[m.index].Delta
	gap = time.Duration(float64(gap) / m.speed)
	if gap < minGap {
		gap = minGap
	}
	gen := m.gen
	return tea.Tick(gap, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		if msg.gen != m.gen || !m.playing {
			return m, nil
		}
		m.index++
		if m.index >= len(m.records)-1 {
			m.index = len(m.records) - 1
			m.playing = false
			return m, nil
		}
		return m, m.next()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		m.gen++
		if m.playing {
			m.playing = false
			return m, nil
		}
		if m.index >= len(m.records)-1 {
			m.index = 0
		}
		m.playing = len(m.records) > 1
		return m, m.resume()

	case key.Matches(msg, m.keys.Prev):
		m.gen++
		m.playing = false
		if m.index > 0 {
			m.index--
		}

	case key.Matches(msg, m.keys.Next):
		m.gen++
		m.playing = false
		if m.index < len(m.records)-1 {
			m.index++
		}

	case key.Matches(msg, m.keys.Start):
		m.gen++
		m.index = 0
		return m, m.resume()

	case key.Matches(msg, m.keys.Faster):
		m.speed = clampSpeed(m.speed * 2)
		m.gen++
		return m, m.resume()

	case key.Matches(msg, m.keys.Slower):
		m.speed = clampSpeed(m.speed / 2)
		m.gen++
		return m, m.resume()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) resume() tea.Cmd {
	if !m.playing {
		return nil
	}
	return m.next()
}

func (m Model) state() string {
	switch {
	case m.playing:
		return "playing"
	case len(m.records) > 0 && m.index == len(m.records)-1:
		return "ended"
	default:
		return "paused"
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render(util.TruncateString(m.title, maxTitleLen)))
	b.WriteString("\n")

	if len(m.records) == 0 {
		b.WriteString(styles.Muted.Render("no frames recorded"))
		b.WriteString("\n")
		b.WriteString(styles.HelpBar.Render(m.help.View(m.keys)))
		return b.String()
	}

	rec := m.records[m.index]
	b.WriteString(styles.Grid.Render(RenderGrid(rec.Payload, int(m.header.CharWidth))))
	b.WriteString("\n")

	state := m.state()
	icon := lipgloss.NewStyle().Foreground(styles.PlaybackColor(state)).Render(styles.PlaybackIcon(state))
	status := fmt.Sprintf("%s frame %d/%d  t=%.3fs  %gx  %dB",
		icon, m.index+1, len(m.records), rec.Delta.Seconds(), m.speed, len(rec.Payload))
	b.WriteString(styles.StatusBar.Render(status))
	b.WriteString("\n")
	b.WriteString(styles.HelpBar.Render(m.help.View(m.keys)))
	return b.String()
}

// RenderGrid lays payload out in rows of width cells. A width of zero or one
// that does not divide the payload renders it as a single row.
func RenderGrid(payload []byte, width int) string {
	if width <= 0 || len(payload)%width != 0 {
		width = max(len(payload), 1)
	}

	var b strings.Builder
	for i, c := range payload {
		if i > 0 && i%width == 0 {
			b.WriteByte('\n')
		}
		b.WriteByte(util.Printable(c, ' '))
	}
	return b.String()
}

// Run plays records in the alternate screen until the user quits.
func Run(title string, header osd.Header, records []osd.Record, speed float64) error {
	p := tea.NewProgram(New(title, header, records, speed), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
