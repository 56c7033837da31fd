package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))

	faintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#98C379"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5C07B"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	gaugeLowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E06C75"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)
