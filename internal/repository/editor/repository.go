// Package editor stores author drafts and serves them over the /api/drafts resource.
package editor

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/debemdeboas/quill/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrDraftNotFound = errors.New("draft not found")

var editorLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	editorLogger = l
}

type Repository interface {
	CreateDraft(ctx context.Context, owner model.UserID, in model.DraftInput) (*model.Draft, error)
	GetDraft(ctx context.Context, id model.DraftID) (*model.Draft, error)
	// ListDrafts returns the owner's drafts, most recently modified first.
	ListDrafts(ctx context.Context, owner model.UserID) ([]model.Draft, error)
	UpdateDraft(ctx context.Context, id model.DraftID, patch model.DraftPatch) (*model.Draft, error)
	DeleteDraft(ctx context.Context, id model.DraftID) error
}

func newDraft(owner model.UserID, in model.DraftInput) *model.Draft {
	now := time.Now().UTC()
	return &model.Draft{
		ID:           model.DraftID(uuid.New().String()),
		Title:        in.Title,
		Content:      in.Content,
		Tags:         in.Tags.Clone(),
		Owner:        owner,
		CreatedDate:  now,
		ModifiedDate: now,
	}
}

func sortNewestFirst(drafts []model.Draft) {
	slices.SortStableFunc(drafts, func(a, b model.Draft) int {
		return -a.ModifiedDate.Compare(b.ModifiedDate)
	})
}
