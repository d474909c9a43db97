package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/quill/internal/autosave"
)

// ProgramConfirmer shows a ConfirmModel full screen on a terminal.
type ProgramConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (c ProgramConfirmer) Confirm(ctx context.Context, p autosave.Prompt) (bool, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if c.In != nil {
		opts = append(opts, tea.WithInput(c.In))
	}
	if c.Out != nil {
		opts = append(opts, tea.WithOutput(c.Out))
	}

	final, err := tea.NewProgram(NewConfirm(p), opts...).Run()
	if err != nil {
		return false, fmt.Errorf("error running confirm dialog: %w", err)
	}
	m, ok := final.(ConfirmModel)
	if !ok {
		return false, fmt.Errorf("unexpected dialog model %T", final)
	}
	return m.Result() == ResultConfirm, nil
}

// TerminalConfirmer shows Dialog on the terminal. When the console has
// already buffered lines from stdin they answer the prompt instead, so the
// dialog never reads ahead of the editor's own reader.
type TerminalConfirmer struct {
	Dialog  autosave.Confirmer
	Console *Console
}

func (c TerminalConfirmer) Confirm(ctx context.Context, p autosave.Prompt) (bool, error) {
	if c.Dialog == nil || c.Console.buffered() {
		return c.Console.Confirm(ctx, p)
	}
	return c.Dialog.Confirm(ctx, p)
}

// Console reads answers line by line from a shared reader. It serves both
// as a Confirmer for non-terminal input and as the editor's Notifier.
type Console struct {
	in  *bufio.Reader
	out io.Writer
	log zerolog.Logger
	mu  sync.Mutex
}

func NewConsole(in *bufio.Reader, out io.Writer, log zerolog.Logger) *Console {
	return &Console{in: in, out: out, log: log}
}

// buffered reports whether input has been read ahead and not consumed yet.
func (c *Console) buffered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.in.Buffered() > 0
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) Confirm(ctx context.Context, p autosave.Prompt) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	confirm, cancel := p.ConfirmLabel, p.CancelLabel
	if confirm == "" {
		confirm = "yes"
	}
	if cancel == "" {
		cancel = "no"
	}

	fmt.Fprintln(c.out, PromptStyle.Render(p.Title))
	if p.Message != "" {
		fmt.Fprintln(c.out, p.Message)
	}

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		fmt.Fprint(c.out, PromptStyle.Render(fmt.Sprintf("[y] %s / [n] %s: ", confirm, cancel)))

		answer, err := c.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes", strings.ToLower(confirm):
			return true, nil
		case "n", "no", strings.ToLower(cancel):
			return false, nil
		}
	}
}

func (c *Console) Notify(n autosave.Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n.Level == autosave.NoticeError {
		c.log.Warn().Bool("blocking", n.Blocking).Msg(n.Message)
		fmt.Fprintln(c.out, ErrorStyle.Render("! "+n.Message))
	} else {
		c.log.Info().Msg(n.Message)
		fmt.Fprintln(c.out, OutputStyle.Render(n.Message))
	}

	if n.Blocking {
		fmt.Fprint(c.out, MutedStyle.Render("Press Enter to continue"))
		if _, err := c.readLine(); err != nil {
			fmt.Fprintln(c.out)
		}
	}
}
