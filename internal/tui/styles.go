package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	ColorPrimary   = lipgloss.Color("63")  // Indigo
	ColorAccent    = lipgloss.Color("170") // Fuchsia
	ColorSecondary = lipgloss.Color("241") // Gray
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorError     = lipgloss.Color("160") // Red
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorText      = lipgloss.Color("252") // White/Gray

	StyleBrand = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			Padding(0, 1)

	StyleHeadline = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	StyleTagline  = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	StyleSubtle   = lipgloss.NewStyle().Foreground(ColorSecondary)
	StyleText     = lipgloss.NewStyle().Foreground(ColorText)
	StyleSuccess  = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError    = lipgloss.NewStyle().Foreground(ColorError)
	StyleWarning  = lipgloss.NewStyle().Foreground(ColorWarning)

	StyleLabel        = lipgloss.NewStyle().Foreground(ColorText)
	StyleLabelFocused = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)

	StyleSectionTitle = lipgloss.NewStyle().
				Foreground(ColorPrimary).
				Bold(true).
				Underline(true)

	StyleBox = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorSecondary).
			Padding(0, 1)

	StyleErrorBox = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorError).
			Padding(0, 1)

	StyleHelp = lipgloss.NewStyle().Foreground(ColorSecondary).Italic(true)
)
