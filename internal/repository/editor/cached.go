package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/debemdeboas/quill/internal/model"
	"github.com/redis/go-redis/v9"
)

const draftKeyPrefix = "quill:draft:"

// CachedRepository is a read-through Redis cache in front of another
// repository. Redis failures degrade to the backing repository.
type CachedRepository struct {
	next   Repository
	client *redis.Client
	ttl    time.Duration
}

func NewCachedRepository(next Repository, client *redis.Client, ttl time.Duration) *CachedRepository {
	return &CachedRepository{
		next:   next,
		client: client,
		ttl:    ttl,
	}
}

// NewRedisClient parses url and checks that the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

func (c *CachedRepository) key(id model.DraftID) string {
	return draftKeyPrefix + string(id)
}

func (c *CachedRepository) store(ctx context.Context, d *model.Draft) {
	data, err := json.Marshal(d)
	if err != nil {
		editorLogger.Warn().Err(err).Msg("Failed to encode draft for cache")
		return
	}
	if err := c.client.Set(ctx, c.key(d.ID), data, c.ttl).Err(); err != nil {
		editorLogger.Warn().Err(err).Str("draft_id", string(d.ID)).Msg("Failed to cache draft")
	}
}

func (c *CachedRepository) evict(ctx context.Context, id model.DraftID) {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		editorLogger.Warn().Err(err).Str("draft_id", string(id)).Msg("Failed to evict draft")
	}
}

func (c *CachedRepository) CreateDraft(ctx context.Context, owner model.UserID, in model.DraftInput) (*model.Draft, error) {
	d, err := c.next.CreateDraft(ctx, owner, in)
	if err != nil {
		return nil, err
	}
	c.store(ctx, d)
	return d, nil
}

func (c *CachedRepository) GetDraft(ctx context.Context, id model.DraftID) (*model.Draft, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	switch {
	case err == nil:
		var d model.Draft
		if err := json.Unmarshal(data, &d); err == nil {
			return &d, nil
		}
		editorLogger.Warn().Str("draft_id", string(id)).Msg("Dropping undecodable cached draft")
		c.evict(ctx, id)
	case !errors.Is(err, redis.Nil):
		editorLogger.Warn().Err(err).Msg("Draft cache unavailable")
	}

	d, err := c.next.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, d)
	return d, nil
}

func (c *CachedRepository) ListDrafts(ctx context.Context, owner model.UserID) ([]model.Draft, error) {
	return c.next.ListDrafts(ctx, owner)
}

func (c *CachedRepository) UpdateDraft(ctx context.Context, id model.DraftID, patch model.DraftPatch) (*model.Draft, error) {
	d, err := c.next.UpdateDraft(ctx, id, patch)
	if err != nil {
		if errors.Is(err, ErrDraftNotFound) {
			c.evict(ctx, id)
		}
		return nil, err
	}
	c.store(ctx, d)
	return d, nil
}

func (c *CachedRepository) DeleteDraft(ctx context.Context, id model.DraftID) error {
	c.evict(ctx, id)
	return c.next.DeleteDraft(ctx, id)
}
