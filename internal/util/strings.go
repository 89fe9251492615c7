// Package util provides small text helpers shared by the terminal commands.
package util

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Printable returns c when it is a printable ASCII character and blank
// otherwise. OSD cell values outside that range are font glyph indices with no
// terminal equivalent.
func Printable(c, blank byte) byte {
	if c >= 0x20 && c < 0x7f {
		return c
	}
	return blank
}

// PrintableString maps every byte of b through Printable.
func PrintableString(b []byte, blank byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = Printable(c, blank)
	}
	return string(out)
}

// TruncateString truncates a string to maxLen runes, adding "..." if truncated.
// It does not account for ANSI escape codes; use TruncateANSI for styled text.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 3 {
		return "..."
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// TruncateANSI truncates a string to maxWidth visual columns, adding "..." if
// truncated, keeping escape sequences intact.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth, "...")
}
