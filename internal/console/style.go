package console

import "github.com/charmbracelet/lipgloss"

// Console styles. Names omit a "Style" suffix, matching how they read at call sites.
var (
	// Title is used for the header line.
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205"))

	// Operator is used for echoed operator input.
	Operator = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	// Notice is used for interim progress notices.
	Notice = lipgloss.NewStyle().
		Italic(true).
		Foreground(lipgloss.Color("214"))

	// Attachment is used for exported file notices.
	Attachment = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// Viewport frames the conversation.
	Viewport = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	// Help is used for keyboard shortcut hints.
	Help = lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
)
