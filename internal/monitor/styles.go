package monitor

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette, matching the cfg tool's other screens.
var (
	primaryColor = lipgloss.Color("#7D56F4")
	okColor      = lipgloss.Color("#43BF6D")
	warnColor    = lipgloss.Color("#FFA500")
	errColor     = lipgloss.Color("#FF0000")
	subtleColor  = lipgloss.Color("#626262")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Padding(1, 0)

	labelStyle = lipgloss.NewStyle().
			Foreground(subtleColor).
			Width(12)

	okStyle = lipgloss.NewStyle().
		Foreground(okColor).
		Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(warnColor)

	errStyle = lipgloss.NewStyle().
			Foreground(errColor)

	subtleStyle = lipgloss.NewStyle().
			Foreground(subtleColor)
)

// statusStyle picks a style matching the reported controller status.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case "ready":
		return okStyle
	case "connecting", "idle":
		return warnStyle
	case "down":
		return errStyle
	default:
		return warnStyle
	}
}
