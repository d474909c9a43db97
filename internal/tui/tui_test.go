package tui

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/quill/internal/autosave"
)

func press(m ConfirmModel, msg tea.KeyMsg) (ConfirmModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(ConfirmModel), cmd
}

func TestConfirmModelKeys(t *testing.T) {
	testCases := []struct {
		name     string
		keys     []tea.KeyMsg
		expected Result
	}{
		{"Enter confirms by default", []tea.KeyMsg{{Type: tea.KeyEnter}}, ResultConfirm},
		{"Tab then enter cancels", []tea.KeyMsg{{Type: tea.KeyTab}, {Type: tea.KeyEnter}}, ResultCancel},
		{"Right twice then enter confirms", []tea.KeyMsg{{Type: tea.KeyRight}, {Type: tea.KeyRight}, {Type: tea.KeyEnter}}, ResultConfirm},
		{"Escape cancels", []tea.KeyMsg{{Type: tea.KeyEscape}}, ResultCancel},
		{"Ctrl+C cancels", []tea.KeyMsg{{Type: tea.KeyCtrlC}}, ResultCancel},
		{"y confirms", []tea.KeyMsg{{Type: tea.KeyRunes, Runes: []rune("y")}}, ResultConfirm},
		{"N cancels", []tea.KeyMsg{{Type: tea.KeyRunes, Runes: []rune("N")}}, ResultCancel},
		{"Other keys wait", []tea.KeyMsg{{Type: tea.KeyRunes, Runes: []rune("x")}}, ResultNone},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewConfirm(autosave.Prompt{Title: "Leave?"})
			var cmd tea.Cmd
			for _, k := range tc.keys {
				m, cmd = press(m, k)
			}
			if m.Result() != tc.expected {
				t.Errorf("Result = %v, want %v", m.Result(), tc.expected)
			}
			if tc.expected != ResultNone && cmd == nil {
				t.Error("Expected a quit command once answered")
			}
		})
	}
}

func TestConfirmModelIgnoresInputAfterAnswer(t *testing.T) {
	m := NewConfirm(autosave.Prompt{})
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEscape})
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.Result() != ResultCancel || cmd != nil {
		t.Errorf("Expected the first answer to stick, got %v", m.Result())
	}
}

func TestConfirmModelView(t *testing.T) {
	m := NewConfirm(autosave.Prompt{Title: "Leave the editor?", Message: "Unsaved work", ConfirmLabel: "Save and leave"})
	view := m.View()

	for _, want := range []string{"Leave the editor?", "Unsaved work", "Save and leave", "Cancel"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.View() != "" {
		t.Error("Expected an empty view once answered")
	}
}

func TestConsoleConfirm(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected bool
		err      bool
	}{
		{"Yes", "y\n", true, false},
		{"Label", "restore\n", true, false},
		{"No", "no\n", false, false},
		{"Retries on garbage", "maybe\nn\n", false, false},
		{"EOF", "", false, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			c := NewConsole(bufio.NewReader(strings.NewReader(tc.input)), &out, zerolog.Nop())

			got, err := c.Confirm(context.Background(), autosave.Prompt{Title: "Recover?", ConfirmLabel: "Restore", CancelLabel: "Discard"})
			if (err != nil) != tc.err {
				t.Fatalf("Unexpected error state: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Confirm() = %v, want %v", got, tc.expected)
			}
			if !strings.Contains(out.String(), "Recover?") {
				t.Error("Expected the prompt title in the output")
			}
		})
	}
}

type countingDialog struct {
	calls int
}

func (d *countingDialog) Confirm(context.Context, autosave.Prompt) (bool, error) {
	d.calls++
	return true, nil
}

func TestTerminalConfirmer(t *testing.T) {
	t.Run("Dialog when nothing is buffered", func(t *testing.T) {
		in := bufio.NewReader(strings.NewReader("n\n"))
		dialog := &countingDialog{}
		c := TerminalConfirmer{Dialog: dialog, Console: NewConsole(in, &bytes.Buffer{}, zerolog.Nop())}

		got, err := c.Confirm(context.Background(), autosave.Prompt{Title: "Leave?"})
		if err != nil || !got || dialog.calls != 1 {
			t.Errorf("Expected the dialog to answer, got %v (%v), %d calls", got, err, dialog.calls)
		}
		if line, _ := in.ReadString('\n'); line != "n\n" {
			t.Errorf("Expected stdin untouched, next line %q", line)
		}
	})

	t.Run("Typed ahead lines answer first", func(t *testing.T) {
		in := bufio.NewReader(strings.NewReader("n\n:quit\n"))
		if _, err := in.Peek(1); err != nil {
			t.Fatal(err)
		}
		dialog := &countingDialog{}
		c := TerminalConfirmer{Dialog: dialog, Console: NewConsole(in, &bytes.Buffer{}, zerolog.Nop())}

		got, err := c.Confirm(context.Background(), autosave.Prompt{Title: "Leave?"})
		if err != nil || got {
			t.Errorf("Expected the buffered n to cancel, got %v (%v)", got, err)
		}
		if dialog.calls != 0 {
			t.Errorf("Expected no dialog, got %d calls", dialog.calls)
		}
		if line, _ := in.ReadString('\n'); line != ":quit\n" {
			t.Errorf("Expected the editor to read the next line, got %q", line)
		}
	})
}

func TestConsoleNotify(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("\nnext\n"))
	var out bytes.Buffer
	c := NewConsole(in, &out, zerolog.Nop())

	c.Notify(autosave.Notice{Level: autosave.NoticeError, Message: "Draft not found", Blocking: true})
	if !strings.Contains(out.String(), "Draft not found") || !strings.Contains(out.String(), "Press Enter") {
		t.Errorf("Unexpected output %q", out.String())
	}

	rest, _ := in.ReadString('\n')
	if rest != "next\n" {
		t.Errorf("Expected a blocking notice to consume one line, left %q", rest)
	}

	out.Reset()
	c.Notify(autosave.Notice{Message: "Saved"})
	if strings.Contains(out.String(), "Press Enter") {
		t.Error("Expected a non-blocking notice not to wait")
	}
}
