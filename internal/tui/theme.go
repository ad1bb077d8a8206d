package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha, the subset the people screen uses.
const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorLavender lipgloss.Color = "#b4befe"
	colorText     lipgloss.Color = "#cdd6f4"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorSurface0 lipgloss.Color = "#313244"
	colorSurface1 lipgloss.Color = "#45475a"
	colorMantle   lipgloss.Color = "#181825"
)

const (
	colorAccent  = colorPink
	colorFocus   = colorLavender
	colorMuted   = colorOverlay1
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorFocus)
	cursorStyle    = lipgloss.NewStyle().Background(colorSurface1).Foreground(colorText)
	selectedStyle  = lipgloss.NewStyle().Foreground(colorPeach)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	statusBarStyle = lipgloss.NewStyle().Foreground(colorText).Background(colorSurface0)
	errorBarStyle  = lipgloss.NewStyle().Foreground(colorMantle).Background(colorError).Bold(true)

	personStatusStyles = map[string]lipgloss.Style{
		"Active":   lipgloss.NewStyle().Foreground(colorSuccess),
		"Inactive": lipgloss.NewStyle().Foreground(colorMuted),
		"Invited":  lipgloss.NewStyle().Foreground(colorWarning),
	}
)
