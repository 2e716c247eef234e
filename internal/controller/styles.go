package controller

import "github.com/charmbracelet/lipgloss"

var (
	successColor = lipgloss.Color("#8BC34A")
	warningColor = lipgloss.Color("#FFC107")
	errorColor   = lipgloss.Color("#E53935")
	mutedColor   = lipgloss.Color("#7A8699")
)

// Status word styles. lipgloss drops the escape codes when stdout is not a terminal.
var (
	okStyle    = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	skipStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	warnStyle  = lipgloss.NewStyle().Foreground(warningColor).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	pathStyle  = lipgloss.NewStyle().Underline(true)
)
