package tui

import "github.com/charmbracelet/lipgloss"

var (
	PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	OutputStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	ErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	MutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	titleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2)

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			MarginRight(2).
			Foreground(lipgloss.Color("250")).
			Background(lipgloss.Color("236"))
	activeButtonStyle = buttonStyle.
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("63")).
				Bold(true)
)
