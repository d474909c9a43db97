package autosave

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

type ExitStatus int

const (
	ExitNavigated ExitStatus = iota
	ExitCancelled
	// ExitBusy is returned while an earlier exit attempt is still running.
	ExitBusy
)

func (s ExitStatus) String() string {
	switch s {
	case ExitNavigated:
		return "navigated"
	case ExitCancelled:
		return "cancelled"
	case ExitBusy:
		return "busy"
	}
	return "unknown"
}

type ExitOutcome struct {
	Status ExitStatus
	// Flushed is set when the confirmed exit saved the draft to the server.
	Flushed bool
}

var exitPrompt = Prompt{
	Title:        "Leave the editor?",
	Message:      "You have unsaved changes. They will be saved as a draft before leaving.",
	ConfirmLabel: "Save and leave",
	CancelLabel:  "Stay",
}

// SaveFailureMessage is the user facing text for a failed server save.
func SaveFailureMessage(err error) string {
	if errors.Is(err, ErrNotFound) {
		return "The server draft no longer exists. A local copy was kept and the next save creates a new draft."
	}
	return "Could not save the draft to the server. A local copy was kept."
}

// ExitGuard stands between the editor and navigation away from it.
type ExitGuard struct {
	coord   *Coordinator
	confirm Confirmer
	nav     Navigator
	notify  Notifier
	log     zerolog.Logger

	mu   sync.Mutex
	busy bool
}

func NewExitGuard(coord *Coordinator, confirm Confirmer, nav Navigator, notify Notifier, log zerolog.Logger) *ExitGuard {
	return &ExitGuard{
		coord:   coord,
		confirm: confirm,
		nav:     nav,
		notify:  notify,
		log:     log,
	}
}

// AttemptExit leaves for dest. Clean editors leave at once. Dirty editors
// ask first; on confirmation the draft is flushed and the editor leaves
// whether or not the flush worked. The returned error is the flush error,
// which has already been shown to the user.
func (g *ExitGuard) AttemptExit(ctx context.Context, dest Destination) (ExitOutcome, error) {
	g.mu.Lock()
	if g.busy {
		g.mu.Unlock()
		return ExitOutcome{Status: ExitBusy}, nil
	}
	g.busy = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.busy = false
		g.mu.Unlock()
	}()

	if !g.coord.HasUnsavedChanges() {
		g.leave(dest)
		return ExitOutcome{Status: ExitNavigated}, nil
	}

	ok, err := g.confirm.Confirm(ctx, exitPrompt)
	if err != nil {
		g.log.Warn().Err(err).Msg("Exit confirmation failed, staying in the editor")
		return ExitOutcome{Status: ExitCancelled}, nil
	}
	if !ok {
		return ExitOutcome{Status: ExitCancelled}, nil
	}

	// The flush outlives the editor, so it must not die with the caller's context
	flushErr := g.coord.FlushToServer(context.WithoutCancel(ctx))
	if flushErr != nil {
		g.notify.Notify(Notice{
			Level:   NoticeError,
			Message: SaveFailureMessage(flushErr),
		})
	}

	g.leave(dest)
	return ExitOutcome{Status: ExitNavigated, Flushed: flushErr == nil}, flushErr
}

func (g *ExitGuard) leave(dest Destination) {
	g.coord.Cancel()
	g.nav.Navigate(dest)
}
