package tui

import "github.com/charmbracelet/lipgloss"

// Colors using AdaptiveColor for light/dark terminal support.
var (
	colorWhite = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	colorDim   = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorRed   = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	promptMarkStyle = lipgloss.NewStyle().Foreground(colorGreen)

	agentStyle = lipgloss.NewStyle().Foreground(colorWhite)

	stepStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			PaddingLeft(2)

	deployedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGreen).
			PaddingLeft(2)

	noticeOKStyle  = lipgloss.NewStyle().Foreground(colorGreen)
	noticeErrStyle = lipgloss.NewStyle().Foreground(colorRed)

	helpStyle = lipgloss.NewStyle().Foreground(colorDim)

	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)
