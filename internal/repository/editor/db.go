package editor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/debemdeboas/quill/internal/db"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/util/compression"
)

const (
	selectDraft  = `SELECT id, title, content, tags, user_id, created_at, modified_at FROM drafts WHERE id = ?`
	selectDrafts = `SELECT id, title, content, tags, user_id, created_at, modified_at FROM drafts WHERE user_id = ? ORDER BY modified_at DESC`
	insertDraft  = `INSERT INTO drafts (id, title, content, tags, user_id, created_at, modified_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	updateDraft  = `UPDATE drafts SET title = ?, content = ?, tags = ?, modified_at = ? WHERE id = ?`
	deleteDraft  = `DELETE FROM drafts WHERE id = ?`
)

// DBRepository stores drafts in the drafts table with zstd-compressed content.
type DBRepository struct {
	db         db.DB
	compressor compression.Compressor
}

func NewDBRepository(database db.DB) *DBRepository {
	return &DBRepository{
		db:         database,
		compressor: compression.ZstdCompressor{},
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *DBRepository) scan(row rowScanner) (*model.Draft, error) {
	var d model.Draft
	var compressed []byte
	if err := row.Scan(&d.ID, &d.Title, &compressed, &d.Tags, &d.Owner, &d.CreatedDate, &d.ModifiedDate); err != nil {
		return nil, err
	}

	content, err := r.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("error decompressing draft %s: %w", d.ID, err)
	}
	d.Content = string(content)
	return &d, nil
}

func (r *DBRepository) CreateDraft(ctx context.Context, owner model.UserID, in model.DraftInput) (*model.Draft, error) {
	draft := newDraft(owner, in)

	compressed, err := r.compressor.Compress([]byte(draft.Content))
	if err != nil {
		return nil, fmt.Errorf("error compressing draft: %w", err)
	}

	_, err = r.db.ExecContext(ctx, insertDraft,
		draft.ID, draft.Title, compressed, draft.Tags, draft.Owner, draft.CreatedDate, draft.ModifiedDate,
	)
	if err != nil {
		return nil, fmt.Errorf("error saving draft: %w", err)
	}

	editorLogger.Debug().Str("draft_id", string(draft.ID)).Msg("Draft created")
	return draft, nil
}

func (r *DBRepository) GetDraft(ctx context.Context, id model.DraftID) (*model.Draft, error) {
	draft, err := r.scan(r.db.QueryRowContext(ctx, selectDraft, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading draft: %w", err)
	}
	return draft, nil
}

func (r *DBRepository) ListDrafts(ctx context.Context, owner model.UserID) ([]model.Draft, error) {
	rows, err := r.db.QueryContext(ctx, selectDrafts, owner)
	if err != nil {
		return nil, fmt.Errorf("error querying drafts: %w", err)
	}
	defer rows.Close()

	drafts := make([]model.Draft, 0)
	for rows.Next() {
		d, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning draft: %w", err)
		}
		drafts = append(drafts, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating drafts: %w", err)
	}

	// SQLite compares the stored text, so re-sort on the parsed times
	sortNewestFirst(drafts)
	return drafts, nil
}

func (r *DBRepository) UpdateDraft(ctx context.Context, id model.DraftID, patch model.DraftPatch) (*model.Draft, error) {
	draft, err := r.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(draft)
	draft.ModifiedDate = time.Now().UTC()

	compressed, err := r.compressor.Compress([]byte(draft.Content))
	if err != nil {
		return nil, fmt.Errorf("error compressing draft: %w", err)
	}

	res, err := r.db.ExecContext(ctx, updateDraft, draft.Title, compressed, draft.Tags, draft.ModifiedDate, draft.ID)
	if err != nil {
		return nil, fmt.Errorf("error updating draft: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}

	editorLogger.Debug().Str("draft_id", string(id)).Msg("Draft updated")
	return draft, nil
}

func (r *DBRepository) DeleteDraft(ctx context.Context, id model.DraftID) error {
	res, err := r.db.ExecContext(ctx, deleteDraft, id)
	if err != nil {
		return fmt.Errorf("error deleting draft: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	return nil
}
