package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - keeping it minimal and accessible.
var (
	colorHeading = lipgloss.Color("39")  // Blue
	colorSuccess = lipgloss.Color("34")  // Green
	colorWarning = lipgloss.Color("214") // Orange
	colorError   = lipgloss.Color("196") // Red
	colorMuted   = lipgloss.Color("240") // Dark gray
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorHeading)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)

const (
	symbolPass = "✓"
	symbolFail = "✗"
)

// padRight pads to a visible width; lipgloss.Width ignores ANSI escapes
// and counts wide runes correctly, which %-*s does not.
func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
