package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	ColorNeonPurple = lipgloss.Color("#bd93f9") // Dracula Purple
	ColorNeonPink   = lipgloss.Color("#ff79c6") // Dracula Pink
	ColorNeonCyan   = lipgloss.Color("#8be9fd") // Dracula Cyan
	ColorSuccess    = lipgloss.Color("#50fa7b") // Dracula Green
	ColorError      = lipgloss.Color("#ff5555") // Dracula Red
	ColorWarning    = lipgloss.Color("#ffb86c") // Dracula Orange
	ColorText       = lipgloss.Color("#f8f8f2") // Dracula Foreground
	ColorLightGray  = lipgloss.Color("#6272a4") // Dracula Comment
	ColorBorder     = lipgloss.Color("#44475a") // Dracula Selection

	// Styles
	AppStyle = lipgloss.NewStyle().
			Padding(DefaultPaddingX, 2).
			Foreground(ColorText)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true).
			Padding(DefaultPaddingY, DefaultPaddingX).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ColorNeonPurple).
			BorderBottom(true)

	// Target line in header
	StatsStyle = lipgloss.NewStyle().
			Foreground(ColorLightGray).
			Padding(DefaultPaddingY, DefaultPaddingX)

	PendingStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	BusyStyle = lipgloss.NewStyle().
			Foreground(ColorNeonCyan).
			Bold(true)

	FinalURLStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	OutcomeStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	LabelStyle = lipgloss.NewStyle().
			Width(10).
			Foreground(ColorLightGray)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorLightGray).
			Italic(true).
			Padding(DefaultPaddingY, DefaultPaddingX)
)

var (
	// Settings tabs
	TabStyle = lipgloss.NewStyle().
			Foreground(ColorLightGray).
			Padding(DefaultPaddingY, DefaultPaddingX)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(ColorNeonPink).
			Bold(true).
			Underline(true).
			Padding(DefaultPaddingY, DefaultPaddingX)
)
