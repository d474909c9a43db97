package autosave

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

var ErrNoPostSource = errors.New("no post source configured")

var recoveryPrompt = Prompt{
	Title:        "Recover unsaved draft?",
	ConfirmLabel: "Restore",
	CancelLabel:  "Discard",
}

// SessionDeps are the collaborators of one editor session.
type SessionDeps struct {
	Local     LocalStore
	Drafts    DraftService
	Posts     PostSource
	Navigator Navigator
	Notifier  Notifier
	Confirmer Confirmer
	Options   Options
}

// Session is one mount of the editor. It owns a coordinator, an exit guard
// and a recovery flow that fires at most once.
type Session struct {
	deps     SessionDeps
	log      zerolog.Logger
	coord    *Coordinator
	guard    *ExitGuard
	recovery *Recovery
}

func NewSession(deps SessionDeps) *Session {
	log := deps.Options.Logger.With().Str("component", "editor").Logger()
	opts := deps.Options
	opts.Logger = log

	coord := NewCoordinator(deps.Local, deps.Drafts, State{}, opts)
	return &Session{
		deps:     deps,
		log:      log,
		coord:    coord,
		guard:    NewExitGuard(coord, deps.Confirmer, deps.Navigator, deps.Notifier, log),
		recovery: NewRecovery(deps.Local, log),
	}
}

func (s *Session) Coordinator() *Coordinator { return s.coord }
func (s *Session) Guard() *ExitGuard         { return s.guard }
func (s *Session) Recovery() *Recovery       { return s.recovery }

// Open loads the editor for nav. A draft or post that cannot be loaded is
// reported with a blocking notice and the user is sent back to its list;
// recovery does not run in that case.
func (s *Session) Open(ctx context.Context, nav NavContext) error {
	switch {
	case nav.DraftID != "":
		d, err := s.deps.Drafts.GetDraft(ctx, nav.DraftID)
		if err != nil {
			s.log.Error().Err(err).Str("draft_id", string(nav.DraftID)).Msg("Could not load draft")
			s.fail("Draft not found or you do not have access to it.", DestDraftsList)
			return fmt.Errorf("error loading draft %s: %w", nav.DraftID, err)
		}
		s.coord.Reset(StateFromDraft(d))

	case nav.PostID != "":
		if s.deps.Posts == nil {
			s.fail("Posts cannot be edited here.", DestPostsList)
			return ErrNoPostSource
		}
		p, err := s.deps.Posts.GetPost(ctx, nav.PostID)
		if err != nil {
			s.log.Error().Err(err).Str("post_id", string(nav.PostID)).Msg("Could not load post")
			s.fail("Post not found or you do not have access to it.", DestPostsList)
			return fmt.Errorf("error loading post %s: %w", nav.PostID, err)
		}
		s.coord.Reset(StateFromPost(p))
	}

	if nav.HasTarget() {
		if s.deps.Local.HasUnsaved(nav.DraftID) {
			s.deps.Notifier.Notify(Notice{
				Level:   NoticeInfo,
				Message: "An unsaved local draft exists and will be replaced once you edit.",
			})
		}
		s.recovery.Begin(nav)
		return nil
	}

	return s.recover(ctx, nav)
}

func (s *Session) recover(ctx context.Context, nav NavContext) error {
	rec, ok := s.recovery.Begin(nav)
	if !ok {
		return nil
	}

	p := recoveryPrompt
	p.Message = fmt.Sprintf("A draft titled %q was saved locally at %s. Restore it?",
		displayTitle(rec.State), rec.SavedAt.Local().Format("2006-01-02 15:04"))

	restore, err := s.deps.Confirmer.Confirm(ctx, p)
	if err != nil {
		// Leave the record alone; the next session asks again
		s.log.Warn().Err(err).Msg("Recovery prompt failed")
		return nil
	}

	if !restore {
		if err := s.recovery.Discard(); err != nil {
			s.deps.Notifier.Notify(Notice{Level: NoticeError, Message: "Could not discard the local draft."})
		}
		return nil
	}

	state, err := s.recovery.Restore()
	if err != nil {
		return err
	}
	s.coord.restore(state)
	if state.DraftID != "" {
		s.deps.Navigator.Replace(NavContext{DraftID: state.DraftID})
	}
	s.log.Info().Str("draft_id", string(state.DraftID)).Msg("Local draft restored")
	return nil
}

func (s *Session) fail(msg string, dest Destination) {
	s.deps.Notifier.Notify(Notice{Level: NoticeError, Message: msg, Blocking: true})
	s.deps.Navigator.Navigate(dest)
}

// Close stops pending local writes when the editor goes away.
func (s *Session) Close() {
	s.coord.Cancel()
}

func displayTitle(s State) string {
	if s.Title == "" {
		return "Untitled"
	}
	return s.Title
}
