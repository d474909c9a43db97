package autosave

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/debemdeboas/quill/internal/model"
	"github.com/rs/zerolog"
)

type sessionFixture struct {
	local   LocalStore
	remote  *fakeDrafts
	posts   fakePosts
	confirm *scriptedConfirmer
	nav     *recordingNav
	notify  *recordingNotifier
}

func newSessionFixture(local LocalStore) *sessionFixture {
	return &sessionFixture{
		local:   local,
		remote:  newFakeDrafts(),
		posts:   fakePosts{},
		confirm: &scriptedConfirmer{},
		nav:     &recordingNav{},
		notify:  &recordingNotifier{},
	}
}

func (f *sessionFixture) session() *Session {
	return NewSession(SessionDeps{
		Local:     f.local,
		Drafts:    f.remote,
		Posts:     f.posts,
		Navigator: f.nav,
		Notifier:  f.notify,
		Confirmer: f.confirm,
		Options:   quietOptions(),
	})
}

func TestSessionOpenFresh(t *testing.T) {
	f := newSessionFixture(NewMemoryStore())
	s := f.session()
	defer s.Close()

	if err := s.Open(context.Background(), NavContext{}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if f.confirm.count() != 0 {
		t.Error("Expected no prompt without a local record")
	}
	if s.Recovery().State() != RecoverySkipped {
		t.Errorf("Expected skipped recovery, got %v", s.Recovery().State())
	}
	if s.Coordinator().HasUnsavedChanges() {
		t.Error("Expected a clean editor")
	}
}

func TestSessionOpenDraft(t *testing.T) {
	local := NewMemoryStore()
	local.Save(LocalRecord{State: State{Title: "Other work", DraftID: "d2"}})

	f := newSessionFixture(local)
	f.remote.drafts["d1"] = &model.Draft{ID: "d1", Title: "Loaded", Content: "c", Tags: model.Tags{"go"}}
	s := f.session()

	if err := s.Open(context.Background(), NavContext{DraftID: "d1"}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	base := s.Coordinator().Baseline()
	if base.Title != "Loaded" || base.DraftID != "d1" {
		t.Errorf("Unexpected baseline %+v", base)
	}
	if f.confirm.count() != 0 {
		t.Error("Expected no recovery prompt with an explicit target")
	}

	notices := f.notify.all()
	if len(notices) != 1 || notices[0].Blocking {
		t.Errorf("Expected one non-blocking overwrite notice, got %+v", notices)
	}
}

func TestSessionOpenMissingDraft(t *testing.T) {
	local := NewMemoryStore()
	local.Save(LocalRecord{State: State{Title: "Orphan"}})

	f := newSessionFixture(local)
	s := f.session()

	err := s.Open(context.Background(), NavContext{DraftID: "missing"})
	if err == nil {
		t.Fatal("Expected an error for a missing draft")
	}

	notices := f.notify.all()
	if len(notices) != 1 || !notices[0].Blocking || notices[0].Level != NoticeError {
		t.Errorf("Expected one blocking error notice, got %+v", notices)
	}
	if len(f.nav.navigated) != 1 || f.nav.navigated[0] != DestDraftsList {
		t.Errorf("Expected redirect to drafts list, got %v", f.nav.navigated)
	}
	if f.confirm.count() != 0 {
		t.Error("Expected recovery never to prompt")
	}
	if rec, _ := local.Get(); rec == nil {
		t.Error("Expected the local record to be left alone")
	}
}

func TestSessionOpenPost(t *testing.T) {
	f := newSessionFixture(NewMemoryStore())
	f.posts["p1"] = &model.Post{ID: "p1", Title: "Published", Markdown: []byte("body"), Tags: model.Tags{"a"}}
	s := f.session()

	if err := s.Open(context.Background(), NavContext{PostID: "p1"}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if s.Coordinator().Baseline().Content != "body" || s.Coordinator().DraftID() != "" {
		t.Errorf("Unexpected baseline %+v", s.Coordinator().Baseline())
	}

	s.Coordinator().RecordChange(State{Title: "Published", Content: "body edited", Tags: model.Tags{"a"}})
	if err := s.Coordinator().FlushToServer(context.Background()); err != nil {
		t.Fatal(err)
	}
	if creates, _ := f.remote.calls(); creates != 1 {
		t.Errorf("Expected the first flush of a post to create a draft, got %d", creates)
	}

	t.Run("Missing post", func(t *testing.T) {
		f := newSessionFixture(NewMemoryStore())
		s := f.session()
		if err := s.Open(context.Background(), NavContext{PostID: "nope"}); err == nil {
			t.Error("Expected an error")
		}
		if len(f.nav.navigated) != 1 || f.nav.navigated[0] != DestPostsList {
			t.Errorf("Expected redirect to posts list, got %v", f.nav.navigated)
		}
	})
}

func TestSessionRecovery(t *testing.T) {
	t.Run("Restore adopts the draft id", func(t *testing.T) {
		local := NewMemoryStore()
		local.Save(LocalRecord{State: State{Title: "Saved", Tags: model.Tags{"x"}, DraftID: "d7"}})

		f := newSessionFixture(local)
		f.confirm.answer = true
		s := f.session()

		if err := s.Open(context.Background(), NavContext{}); err != nil {
			t.Fatal(err)
		}
		if f.confirm.count() != 1 || f.confirm.prompts[0].ConfirmLabel != "Restore" {
			t.Errorf("Expected one restore prompt, got %+v", f.confirm.prompts)
		}
		st := s.Coordinator().State()
		if st.Title != "Saved" || st.DraftID != "d7" {
			t.Errorf("Unexpected restored state %+v", st)
		}
		if !s.Coordinator().HasUnsavedChanges() {
			t.Error("Expected restored work to count as unsaved")
		}
		if len(f.nav.replaced) != 1 || f.nav.replaced[0].DraftID != "d7" {
			t.Errorf("Expected location replaced with d7, got %v", f.nav.replaced)
		}
	})

	t.Run("Discard clears and never asks again", func(t *testing.T) {
		local := NewMemoryStore()
		local.Save(LocalRecord{State: State{Title: "Saved"}})

		f := newSessionFixture(local)
		s := f.session()
		if err := s.Open(context.Background(), NavContext{}); err != nil {
			t.Fatal(err)
		}
		if s.Recovery().State() != RecoveryDiscarded {
			t.Errorf("Expected discarded, got %v", s.Recovery().State())
		}
		if rec, _ := local.Get(); rec != nil {
			t.Errorf("Expected slot cleared, got %+v", rec)
		}

		next := newSessionFixture(local)
		if err := next.session().Open(context.Background(), NavContext{}); err != nil {
			t.Fatal(err)
		}
		if next.confirm.count() != 0 {
			t.Error("Expected no prompt after a discard")
		}
	})

	t.Run("Prompt failure keeps the record", func(t *testing.T) {
		local := NewMemoryStore()
		local.Save(LocalRecord{State: State{Title: "Saved"}})

		f := newSessionFixture(local)
		f.confirm.err = errors.New("no tty")
		s := f.session()
		if err := s.Open(context.Background(), NavContext{}); err != nil {
			t.Fatal(err)
		}
		if rec, _ := local.Get(); rec == nil {
			t.Error("Expected the record to survive a failed prompt")
		}
	})
}

// A first-time author types a title, the server is down when they leave,
// and the next session offers the work back.
func TestSessionDraftSurvivesServerOutage(t *testing.T) {
	local := NewFileStore(filepath.Join(t.TempDir(), "draft.json"))

	f := newSessionFixture(local)
	f.remote.err = errServerDown
	f.confirm.answer = true
	s := NewSession(SessionDeps{
		Local:     f.local,
		Drafts:    f.remote,
		Posts:     f.posts,
		Navigator: f.nav,
		Notifier:  f.notify,
		Confirmer: f.confirm,
		Options:   Options{Delay: time.Hour, Logger: zerolog.Nop()},
	})

	if err := s.Open(context.Background(), NavContext{}); err != nil {
		t.Fatal(err)
	}

	s.Coordinator().RecordChange(State{Title: "Draft A"})
	if rec, _ := local.Get(); rec != nil {
		t.Fatalf("Expected nothing written before the debounce, got %+v", rec)
	}
	s.Coordinator().FlushLocal()
	rec, err := local.Get()
	if err != nil || rec == nil || rec.Title != "Draft A" {
		t.Fatalf("Expected Draft A in the local slot, got %+v (%v)", rec, err)
	}

	out, err := s.Guard().AttemptExit(context.Background(), DestPostsList)
	if !errors.Is(err, errServerDown) {
		t.Errorf("Expected the flush error to be reported, got %v", err)
	}
	if out.Status != ExitNavigated || out.Flushed {
		t.Errorf("Unexpected outcome %+v", out)
	}
	if len(f.nav.navigated) != 1 || f.nav.navigated[0] != DestPostsList {
		t.Errorf("Expected navigation despite the failure, got %v", f.nav.navigated)
	}

	creates, updates := f.remote.calls()
	if creates != 1 || updates != 0 {
		t.Fatalf("Expected exactly one create, got %d creates %d updates", creates, updates)
	}
	in := f.remote.createInputs()[0]
	if in.Title != "Draft A" || in.Content != "" {
		t.Errorf("Unexpected create payload %+v", in)
	}
	if in.Tags == nil || len(in.Tags) != 0 {
		t.Errorf("Expected empty non-nil tags, got %#v", in.Tags)
	}
	s.Close()

	rec, _ = local.Get()
	if rec == nil || rec.Title != "Draft A" {
		t.Fatalf("Expected Draft A to survive, got %+v", rec)
	}

	next := newSessionFixture(local)
	next.confirm.answer = true
	ns := next.session()
	if err := ns.Open(context.Background(), NavContext{}); err != nil {
		t.Fatal(err)
	}
	if next.confirm.count() != 1 {
		t.Fatalf("Expected one recovery prompt, got %d", next.confirm.count())
	}
	if ns.Coordinator().State().Title != "Draft A" {
		t.Errorf("Expected Draft A restored, got %+v", ns.Coordinator().State())
	}
}

// Typing then deleting the same text leaves nothing for the next session.
func TestSessionRevertedEditIsNotRecovered(t *testing.T) {
	local := NewMemoryStore()
	f := newSessionFixture(local)
	s := f.session()
	if err := s.Open(context.Background(), NavContext{}); err != nil {
		t.Fatal(err)
	}

	s.Coordinator().RecordChange(State{Title: "typo"})
	s.Coordinator().RecordChange(State{})

	out, err := s.Guard().AttemptExit(context.Background(), DestPostsList)
	if err != nil || out.Status != ExitNavigated {
		t.Fatalf("Expected a clean exit, got %+v (%v)", out, err)
	}
	if f.confirm.count() != 0 {
		t.Errorf("Expected no exit prompt, got %d", f.confirm.count())
	}
	s.Close()

	next := newSessionFixture(local)
	next.confirm.answer = true
	if err := next.session().Open(context.Background(), NavContext{}); err != nil {
		t.Fatal(err)
	}
	if next.confirm.count() != 0 {
		t.Errorf("Expected no recovery prompt, got %+v", next.confirm.prompts)
	}
}

// A restored draft whose server copy was deleted is saved as a new draft.
func TestSessionRestoredDraftDeletedOnServer(t *testing.T) {
	local := NewMemoryStore()
	local.Save(LocalRecord{State: State{Title: "Restored", Content: "body", DraftID: "published-and-deleted"}})

	f := newSessionFixture(local)
	f.confirm.answer = true
	s := f.session()
	defer s.Close()
	if err := s.Open(context.Background(), NavContext{}); err != nil {
		t.Fatal(err)
	}

	out, err := s.Guard().AttemptExit(context.Background(), DestDraftsList)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if out.Status != ExitNavigated || out.Flushed {
		t.Errorf("Unexpected outcome %+v", out)
	}

	notes := f.notify.all()
	if len(notes) != 1 || notes[0].Message != SaveFailureMessage(err) {
		t.Fatalf("Expected one gone-draft notice, got %+v", notes)
	}
	if !strings.Contains(notes[0].Message, "no longer exists") {
		t.Errorf("Expected the notice to say the draft is gone, got %q", notes[0].Message)
	}

	rec, _ := local.Get()
	if rec == nil || rec.DraftID != "" || rec.Content != "body" {
		t.Fatalf("Expected a detached local copy, got %+v", rec)
	}

	if err := s.Coordinator().SaveNow(context.Background()); err != nil {
		t.Fatalf("Save after detaching failed: %v", err)
	}
	creates, updates := f.remote.calls()
	if creates != 1 || updates != 1 {
		t.Errorf("Expected one failed update then one create, got %d creates %d updates", creates, updates)
	}
}
