package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorText    lipgloss.Color = "#cdd6f4"
	colorMuted   lipgloss.Color = "#a6adc8"
	colorBorder  lipgloss.Color = "#585b70"
	colorAccent  lipgloss.Color = "#89b4fa"
	colorSuccess lipgloss.Color = "#a6e3a1"
	colorWarn    lipgloss.Color = "#f9e2af"
	colorError   lipgloss.Color = "#f38ba8"
	colorSurface lipgloss.Color = "#313244"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	totalStyle  = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
	focusedPaneStyle = paneStyle.
				BorderForeground(colorAccent)

	selectedRowStyle = lipgloss.NewStyle().
				Background(colorSurface).
				Foreground(colorText).
				Bold(true)

	statusOkStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Background(colorSurface)
	statusErrStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Background(colorSurface)

	pendingStyle   = lipgloss.NewStyle().Foreground(colorWarn)
	uploadingStyle = lipgloss.NewStyle().Foreground(colorAccent)
	completedStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	failedStyle    = lipgloss.NewStyle().Foreground(colorError)

	lockBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorAccent).
			Padding(1, 4)

	helpKeyStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	helpDescStyle = lipgloss.NewStyle().Foreground(colorMuted)
)
