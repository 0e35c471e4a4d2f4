package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorRed    = lipgloss.Color("#FF5F5F")
	colorGreen  = lipgloss.Color("#5FD75F")
	colorYellow = lipgloss.Color("#FFD75F")
	colorCyan   = lipgloss.Color("#5FD7FF")
	colorGray   = lipgloss.Color("#808080")
	colorDim    = lipgloss.Color("#4E4E4E")
	colorWhite  = lipgloss.Color("#FFFFFF")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	dividerStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	playingStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	pausedStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	stoppedStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	barFilledStyle = lipgloss.NewStyle().
			Foreground(colorCyan)

	barEmptyStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	narrationOnStyle = lipgloss.NewStyle().
				Foreground(colorGreen)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	selectedStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	currentStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	readyStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	progressStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	errorTextStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	footerDescStyle = lipgloss.NewStyle().
			Foreground(colorGray)
)
