package autosave

import (
	"context"
	"errors"

	"github.com/debemdeboas/quill/internal/model"
)

// ErrNotFound is what a DraftService wraps when the draft does not exist
// (or is not visible to the author).
var ErrNotFound = errors.New("not found")

// DraftService is the server draft resource as seen by the editor.
type DraftService interface {
	CreateDraft(ctx context.Context, in model.DraftInput) (*model.Draft, error)
	UpdateDraft(ctx context.Context, id model.DraftID, patch model.DraftPatch) (*model.Draft, error)
	GetDraft(ctx context.Context, id model.DraftID) (*model.Draft, error)
}

type PostSource interface {
	GetPost(ctx context.Context, id model.PostID) (*model.Post, error)
}

// NavContext names what the editor was opened on. Both empty means a fresh session.
type NavContext struct {
	DraftID model.DraftID
	PostID  model.PostID
}

func (n NavContext) HasTarget() bool {
	return n.DraftID != "" || n.PostID != ""
}

type Destination string

const (
	DestDraftsList Destination = "drafts"
	DestPostsList  Destination = "posts"
	DestHome       Destination = "home"
)

type Navigator interface {
	Navigate(dest Destination)
	// Replace rewrites the current editor location without leaving it.
	Replace(nav NavContext)
}

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

type Notice struct {
	Level   NoticeLevel
	Message string
	// Blocking notices wait for the user to acknowledge them.
	Blocking bool
}

type Notifier interface {
	Notify(n Notice)
}

type Prompt struct {
	Title        string
	Message      string
	ConfirmLabel string
	CancelLabel  string
}

// Confirmer asks the user a yes/no question and waits for the answer.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}
