package tui

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	primaryColor   = lipgloss.Color("39")  // Blue
	secondaryColor = lipgloss.Color("245") // Gray
	accentColor    = lipgloss.Color("212") // Pink
	errorColor     = lipgloss.Color("196") // Red
	successColor   = lipgloss.Color("82")  // Green
	warningColor   = lipgloss.Color("214") // Orange
)

// Styles
var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	// Navigation arrows
	navEnabledStyle  = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	navDisabledStyle = lipgloss.NewStyle().Foreground(secondaryColor)

	loadingStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Italic(true)

	// Partner redirect panel
	storeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")). // Light yellow
			Bold(true)

	cashbackStyle = lipgloss.NewStyle().
			Foreground(successColor)

	couponStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Border(lipgloss.NormalBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Italic(true)
)
