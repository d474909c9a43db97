package editor

import (
	"context"
	"fmt"
	"time"

	"github.com/debemdeboas/quill/internal/cache"
	"github.com/debemdeboas/quill/internal/model"
)

// MemoryRepository keeps drafts for the lifetime of the process.
type MemoryRepository struct {
	drafts *cache.Cache[model.DraftID, *model.Draft]
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		drafts: cache.NewCache[model.DraftID, *model.Draft](),
	}
}

func (m *MemoryRepository) CreateDraft(_ context.Context, owner model.UserID, in model.DraftInput) (*model.Draft, error) {
	draft := newDraft(owner, in)
	m.drafts.Set(draft.ID, draft)
	return draft.Copy(), nil
}

func (m *MemoryRepository) GetDraft(_ context.Context, id model.DraftID) (*model.Draft, error) {
	draft, ok := m.drafts.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	return draft.Copy(), nil
}

func (m *MemoryRepository) ListDrafts(_ context.Context, owner model.UserID) ([]model.Draft, error) {
	drafts := make([]model.Draft, 0)
	for _, d := range m.drafts.Values() {
		if d.Owner == owner {
			drafts = append(drafts, *d.Copy())
		}
	}
	sortNewestFirst(drafts)
	return drafts, nil
}

func (m *MemoryRepository) UpdateDraft(_ context.Context, id model.DraftID, patch model.DraftPatch) (*model.Draft, error) {
	updated, ok := m.drafts.Update(id, func(current *model.Draft, ok bool) (*model.Draft, bool) {
		if !ok {
			return nil, false
		}
		next := current.Copy()
		patch.Apply(next)
		next.ModifiedDate = time.Now().UTC()
		return next, true
	})
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	return updated.Copy(), nil
}

func (m *MemoryRepository) DeleteDraft(_ context.Context, id model.DraftID) error {
	if !m.drafts.Delete(id) {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	return nil
}
