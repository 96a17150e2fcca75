package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// VK-inspired palette
	accentBlue   = lipgloss.Color("#4A76A8")
	lightBlue    = lipgloss.Color("#71AAEB")
	accentGreen  = lipgloss.Color("#4BB34B")
	accentYellow = lipgloss.Color("#FFC107")
	accentOrange = lipgloss.Color("#FF9800")
	errorRed     = lipgloss.Color("#E64646")
	darkBg       = lipgloss.Color("#19191A")
	dimWhite     = lipgloss.Color("#B0B0B0")

	logoStyle = lipgloss.NewStyle().
			Foreground(lightBlue).
			Bold(true).
			Padding(1, 0).
			Align(lipgloss.Center)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentBlue).
			Padding(0, 1)

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(lightBlue).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(accentYellow)

	successStyle = lipgloss.NewStyle().
			Foreground(accentGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorRed).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(accentOrange).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimWhite).
			Faint(true)

	logTimestampStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(1, 0, 0, 2)

	titleStyle = lipgloss.NewStyle().
			Background(accentBlue).
			Foreground(darkBg).
			Bold(true).
			Padding(0, 1)
)

// fileStyle picks the marker style for a recent file
func fileStyle(state FileState) (string, lipgloss.Style) {
	switch state {
	case FileDownloaded:
		return "✓", successStyle
	case FileExisting:
		return "=", dimStyle
	default:
		return "✗", errorStyle
	}
}
