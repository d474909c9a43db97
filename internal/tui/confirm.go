// Package tui holds the terminal widgets of the quill editor: a confirm
// dialog built on bubbletea and the console implementations of the
// editor's prompt and notice ports.
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/debemdeboas/quill/internal/autosave"
)

// Result indicates the outcome of the dialog.
type Result int

const (
	ResultNone    Result = iota // Still waiting for the user
	ResultConfirm               // User picked the confirm button
	ResultCancel                // User picked cancel or dismissed the dialog
)

const (
	focusConfirm = iota
	focusCancel
)

// ConfirmModel is a two-button dialog. It quits the program once answered.
type ConfirmModel struct {
	prompt autosave.Prompt
	focus  int
	result Result
	width  int
}

func NewConfirm(p autosave.Prompt) ConfirmModel {
	if p.ConfirmLabel == "" {
		p.ConfirmLabel = "Confirm"
	}
	if p.CancelLabel == "" {
		p.CancelLabel = "Cancel"
	}
	return ConfirmModel{prompt: p}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Result() Result {
	return m.result
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.result != ResultNone {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEscape:
			return m.answer(ResultCancel)
		case tea.KeyEnter:
			if m.focus == focusConfirm {
				return m.answer(ResultConfirm)
			}
			return m.answer(ResultCancel)
		case tea.KeyLeft, tea.KeyRight, tea.KeyTab, tea.KeyShiftTab:
			m.focus = 1 - m.focus
			return m, nil
		case tea.KeyRunes:
			switch strings.ToLower(string(msg.Runes)) {
			case "y":
				return m.answer(ResultConfirm)
			case "n":
				return m.answer(ResultCancel)
			case "h", "l":
				m.focus = 1 - m.focus
			}
		}
	}
	return m, nil
}

func (m ConfirmModel) answer(r Result) (tea.Model, tea.Cmd) {
	m.result = r
	return m, tea.Quit
}

func (m ConfirmModel) View() string {
	if m.result != ResultNone {
		return ""
	}

	confirm, cancel := buttonStyle, buttonStyle
	if m.focus == focusConfirm {
		confirm = activeButtonStyle
	} else {
		cancel = activeButtonStyle
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top,
		confirm.Render(m.prompt.ConfirmLabel),
		cancel.Render(m.prompt.CancelLabel),
	)

	body := m.prompt.Message
	if m.width > 8 {
		body = lipgloss.NewStyle().Width(min(m.width-8, 72)).Render(body)
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.prompt.Title),
		body,
		"",
		buttons,
		MutedStyle.Render("y/n, ←/→ to move, enter to choose"),
	)) + "\n"
}
