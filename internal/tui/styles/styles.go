// Package styles holds the lipgloss palette shared by osdrec's terminal output.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	SurfaceColor   = lipgloss.Color("#1F2937") // Dark surface
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray
	InfoColor      = lipgloss.Color("#60A5FA") // Blue

	// Convenience styles for colors
	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)
	Text      = lipgloss.NewStyle().Foreground(TextColor)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	// Label and Value render "key: value" rows in inspect output.
	Label = lipgloss.NewStyle().
		Foreground(MutedColor).
		Width(14)

	Value = lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true)

	// Grid frames an OSD frame in the player.
	Grid = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Foreground(TextColor)

	ContentBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	StatusBar = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(SurfaceColor).
			Padding(0, 1)

	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor).
		MarginTop(1)

	TableHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(SecondaryColor)
)

// LevelColor returns the color for a log level name (case-insensitive).
func LevelColor(level string) lipgloss.Color {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return MutedColor
	case "INFO":
		return InfoColor
	case "WARN":
		return WarningColor
	case "ERROR":
		return ErrorColor
	default:
		return TextColor
	}
}

// PlaybackIcon returns the glyph shown for a player state.
func PlaybackIcon(state string) string {
	switch state {
	case "playing":
		return "▶"
	case "paused":
		return "⏸"
	case "ended":
		return "■"
	default:
		return "●"
	}
}

// PlaybackColor returns the color for a player state.
func PlaybackColor(state string) lipgloss.Color {
	switch state {
	case "playing":
		return SecondaryColor
	case "paused":
		return WarningColor
	case "ended":
		return MutedColor
	default:
		return TextColor
	}
}
