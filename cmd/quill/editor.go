package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/quill/internal/autosave"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/tui"
)

const editorHelp = `Type to append lines to the draft. Commands:
  :title <text>   set the title
  :tags a, b      set the tags
  :undo           drop the last content line
  :clear          clear the content
  :show           print the draft
  :w              save the draft to the server
  :q              leave the editor
  :help           show this help`

// editor is a line oriented front end over an autosave session. It is the
// session's Navigator: leaving the editor ends its loop.
type editor struct {
	session *autosave.Session
	out     io.Writer
	log     zerolog.Logger

	nav   autosave.NavContext
	state autosave.State
	left  bool
	dest  autosave.Destination
}

func (e *editor) Navigate(dest autosave.Destination) {
	e.left = true
	e.dest = dest
}

func (e *editor) Replace(nav autosave.NavContext) {
	e.nav = nav
	fmt.Fprintln(e.out, tui.MutedStyle.Render("Editing draft "+string(nav.DraftID)))
}

// open loads the session and syncs the editor with whatever it ended up holding.
func (e *editor) open(ctx context.Context, nav autosave.NavContext) error {
	e.nav = nav
	if err := e.session.Open(ctx, nav); err != nil {
		return err
	}
	e.state = e.session.Coordinator().State()
	return nil
}

func (e *editor) change(fn func(s *autosave.State)) {
	fn(&e.state)
	e.session.Coordinator().RecordChange(e.state)
}

// handle applies one input line. It reports whether the editor should keep reading.
func (e *editor) handle(ctx context.Context, line string) bool {
	cmd, arg, isCmd := parseLine(line)
	if !isCmd {
		if strings.HasPrefix(line, `\:`) {
			line = line[1:]
		}
		e.change(func(s *autosave.State) {
			if s.Content == "" {
				s.Content = line
			} else {
				s.Content += "\n" + line
			}
		})
		return true
	}

	switch cmd {
	case "title":
		e.change(func(s *autosave.State) { s.Title = arg })
	case "tags":
		e.change(func(s *autosave.State) { s.Tags = model.ParseTags(arg) })
	case "undo":
		e.change(func(s *autosave.State) {
			if i := strings.LastIndex(s.Content, "\n"); i >= 0 {
				s.Content = s.Content[:i]
			} else {
				s.Content = ""
			}
		})
	case "clear":
		e.change(func(s *autosave.State) { s.Content = "" })
	case "show":
		e.show()
	case "w":
		e.save(ctx)
	case "q":
		return e.exit(ctx, autosave.DestDraftsList)
	case "help":
		fmt.Fprintln(e.out, editorHelp)
	default:
		fmt.Fprintln(e.out, tui.ErrorStyle.Render("Unknown command :"+cmd))
	}
	return true
}

func (e *editor) save(ctx context.Context) {
	err := e.session.Coordinator().SaveNow(ctx)
	switch {
	case errors.Is(err, autosave.ErrNothingToSave):
		fmt.Fprintln(e.out, tui.MutedStyle.Render("Nothing to save yet"))
	case err != nil:
		e.log.Debug().Err(err).Msg("Save failed")
		if errors.Is(err, autosave.ErrNotFound) {
			e.state.DraftID = e.session.Coordinator().DraftID()
			e.nav = autosave.NavContext{}
		}
		fmt.Fprintln(e.out, tui.ErrorStyle.Render(autosave.SaveFailureMessage(err)))
	default:
		id := e.session.Coordinator().DraftID()
		e.state.DraftID = id
		if e.nav.DraftID != id {
			e.Replace(autosave.NavContext{DraftID: id})
		}
		fmt.Fprintln(e.out, tui.OutputStyle.Render("Saved draft "+string(id)))
	}
}

func (e *editor) exit(ctx context.Context, dest autosave.Destination) bool {
	out, err := e.session.Guard().AttemptExit(ctx, dest)
	if err != nil {
		e.log.Debug().Err(err).Msg("Left the editor without a server save")
	}
	return out.Status != autosave.ExitNavigated
}

func (e *editor) show() {
	title := e.state.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintln(e.out, tui.PromptStyle.Render(title))
	if len(e.state.Tags) > 0 {
		fmt.Fprintln(e.out, tui.MutedStyle.Render("tags: "+e.state.Tags.String()))
	}
	fmt.Fprintln(e.out, e.state.Content)

	status := "saved"
	if e.session.Coordinator().HasUnsavedChanges() {
		status = "unsaved"
		if e.session.Coordinator().LocallySaved() {
			status += ", backed up locally"
		}
	}
	fmt.Fprintln(e.out, tui.MutedStyle.Render("["+status+"]"))
}

// parseLine splits ":cmd arg" lines. A leading "\:" escapes a literal colon.
func parseLine(line string) (cmd, arg string, ok bool) {
	if !strings.HasPrefix(line, ":") {
		return "", "", false
	}
	cmd, arg, _ = strings.Cut(strings.TrimPrefix(line, ":"), " ")
	return strings.TrimSpace(cmd), strings.TrimSpace(arg), true
}
