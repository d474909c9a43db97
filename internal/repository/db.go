package repository

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/debemdeboas/quill/internal/cache"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/db"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/util"
	"github.com/debemdeboas/quill/internal/util/compression"
	"github.com/google/uuid"
)

type DBPostRepository struct { // implements PostRepository
	postsCache *cache.Cache[string, *model.Post]

	mu               sync.RWMutex
	postsCacheSorted []model.Post
	lastModifiedTime *time.Time // Track the latest modification time

	reloadNotifier func(model.PostID)
	reloadEvery    time.Duration

	db         db.DB
	compressor compression.Compressor
}

func NewDBPostRepository(db db.DB) *DBPostRepository {
	return &DBPostRepository{
		postsCache:  cache.NewCache[string, *model.Post](),
		reloadEvery: 10 * time.Second,

		db: db,

		compressor: compression.ZstdCompressor{},
	}
}

// SetReloadInterval changes how often ReloadPosts polls the database.
func (r *DBPostRepository) SetReloadInterval(d time.Duration) {
	if d > 0 {
		r.reloadEvery = d
	}
}

func (r *DBPostRepository) Init(ctx context.Context) error {
	if err := r.refresh(); err != nil {
		return fmt.Errorf("error initializing posts: %w", err)
	}

	go r.ReloadPosts(ctx)
	return nil
}

func (r *DBPostRepository) refresh() error {
	posts, postMap, err := r.GetPosts()
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.postsCacheSorted = posts
	r.mu.Unlock()
	r.postsCache.SetTo(postMap)
	return nil
}

func (r *DBPostRepository) GetLatestModifiedTime() (*time.Time, error) {
	var latestTimeStr sql.NullString
	row := r.db.Get().QueryRow(`SELECT MAX(modified_at) FROM posts`)
	err := row.Scan(&latestTimeStr)
	if err != nil {
		return nil, fmt.Errorf("error scanning latest modified time: %w", err)
	}

	if !latestTimeStr.Valid {
		return nil, nil // It was NULL, so no posts or no valid timestamps.
	}

	latestTime, err := util.ParseFuzzyTime(latestTimeStr.String)
	if err != nil {
		return nil, fmt.Errorf("error parsing latest modified time: %w", err)
	}
	return &latestTime, nil
}

func (r *DBPostRepository) GetPosts() ([]model.Post, map[string]*model.Post, error) {
	rows, err := r.db.Query(`SELECT id, title, content, md_content_hash, tags, created_at, modified_at, user_id FROM posts`)
	if err != nil {
		return nil, nil, fmt.Errorf("error querying posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	postMap := make(map[string]*model.Post)
	var latestModTime *time.Time

	for rows.Next() {
		var post model.Post
		var compressed []byte

		err := rows.Scan(&post.ID, &post.Title, &compressed, &post.MDContentHash, &post.Tags, &post.CreatedDate, &post.ModifiedDate, &post.Owner)
		if err != nil {
			return nil, nil, fmt.Errorf("error scanning post: %w", err)
		}

		// Track the latest modification time
		if latestModTime == nil || post.ModifiedDate.After(*latestModTime) {
			modified := post.ModifiedDate
			latestModTime = &modified
		}

		content, err := r.compressor.Decompress(compressed)
		if err != nil {
			return nil, nil, fmt.Errorf("error decompressing content: %w", err)
		}
		post.Markdown = content
		post.Path = string(post.ID)

		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating posts: %w", err)
	}

	// Sort the posts by modification date, newest first
	slices.SortStableFunc(posts, func(a, b model.Post) int {
		return -a.ModifiedDate.Compare(b.ModifiedDate)
	})

	for i := range posts {
		p := posts[i]
		postMap[string(p.ID)] = &p
	}

	r.mu.Lock()
	r.lastModifiedTime = latestModTime
	r.mu.Unlock()

	return posts, postMap, nil
}

func (r *DBPostRepository) GetPostList() []model.Post {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.postsCacheSorted
}

func (r *DBPostRepository) ReadPost(id string) (*model.Post, error) {
	post, ok := r.postsCache.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPostNotFound, id)
	}
	return post, nil
}

func (r *DBPostRepository) ReloadPosts(ctx context.Context) {
	ticker := time.NewTicker(r.reloadEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := r.reloadOnce(); err != nil {
			repoLogger.Error().Err(err).Msg(config.ErrReloadingPosts)
		}
	}
}

func (r *DBPostRepository) reloadOnce() error {
	// First, do a lightweight check to see if anything has changed
	latestTime, err := r.GetLatestModifiedTime()
	if err != nil {
		return err
	}

	r.mu.RLock()
	lastModified := r.lastModifiedTime
	cachedCount := len(r.postsCacheSorted)
	r.mu.RUnlock()

	// The count check catches deletions, which don't move MAX(modified_at) forward.
	if lastModified != nil && latestTime != nil && !latestTime.After(*lastModified) && cachedCount == r.countPosts() {
		repoLogger.Debug().Msg("No posts modified, skipping reload")
		return nil
	}

	repoLogger.Debug().Msg("Posts may have changed, performing full reload")

	old := r.GetPostList()
	posts, postMap, err := r.GetPosts()
	if err != nil {
		return err
	}

	cachedPosts := make(map[string]*model.Post, len(old))
	for i := range old {
		cachedPosts[string(old[i].ID)] = &old[i]
	}

	hasChanges := len(posts) != len(old)
	for _, newPost := range posts {
		cachedPost, exists := cachedPosts[string(newPost.ID)]
		if !exists {
			hasChanges = true
			repoLogger.Info().
				Str("post_id", string(newPost.ID)).
				Str("title", newPost.Title).
				Msg("New post detected")
			continue
		}

		// Compare content hashes to detect changes
		if newPost.MDContentHash != cachedPost.MDContentHash || newPost.Title != cachedPost.Title {
			hasChanges = true
			repoLogger.Info().
				Str("post_id", string(newPost.ID)).
				Str("title", newPost.Title).
				Msg("Post content changed, reloading")
			r.notify(newPost.ID)
		}
	}

	if hasChanges {
		repoLogger.Info().Msg("Posts have changed, updating cache")
		r.mu.Lock()
		r.postsCacheSorted = posts
		r.mu.Unlock()
		r.postsCache.SetTo(postMap)
	}
	return nil
}

func (r *DBPostRepository) countPosts() int {
	var n int
	if err := r.db.Get().QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return -1
	}
	return n
}

func (r *DBPostRepository) notify(id model.PostID) {
	if r.reloadNotifier != nil {
		go r.reloadNotifier(id)
	}
}

func (r *DBPostRepository) SetReloadNotifier(notifier func(model.PostID)) {
	r.reloadNotifier = notifier
}

func (r *DBPostRepository) NewPost() *model.Post {
	now := time.Now().UTC()

	return &model.Post{
		ID:   model.PostID(uuid.New().String()),
		Tags: model.Tags{},

		CreatedDate:  now,
		ModifiedDate: now,
	}
}

func (r *DBPostRepository) SetPostContent(post *model.Post) error {
	compressed, err := r.compressor.Compress(post.Markdown)
	if err != nil {
		return fmt.Errorf("error compressing content: %w", err)
	}

	// Calculate the content hash for the compressed content
	post.MDContentHash = util.ContentHash(compressed)
	post.ModifiedDate = time.Now().UTC()

	res, err := r.db.Exec(
		`UPDATE posts SET title = ?, content = ?, md_content_hash = ?, tags = ?, modified_at = ? WHERE id = ?`,
		post.Title, compressed, post.MDContentHash, post.Tags, post.ModifiedDate, post.ID,
	)
	if err != nil {
		return fmt.Errorf("error saving post: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrPostNotFound, post.ID)
	}

	repoLogger.Debug().Str("post_id", string(post.ID)).Msg("Post content set")

	return r.refresh()
}

func (r *DBPostRepository) SavePost(post *model.Post) error {
	compressed, err := r.compressor.Compress(post.Markdown)
	if err != nil {
		return fmt.Errorf("error compressing content: %w", err)
	}

	post.MDContentHash = util.ContentHash(compressed)
	if post.Tags == nil {
		post.Tags = model.Tags{}
	}

	_, err = r.db.Exec(
		`INSERT INTO posts (id, title, content, md_content_hash, tags, created_at, modified_at, user_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.Title, compressed, post.MDContentHash, post.Tags, post.CreatedDate, post.ModifiedDate, post.Owner,
	)
	if err != nil {
		return fmt.Errorf("error saving post: %w", err)
	}

	repoLogger.Debug().Str("post_id", string(post.ID)).Msg("Post saved")

	return r.refresh()
}

func (r *DBPostRepository) DeletePost(id model.PostID) error {
	res, err := r.db.Exec(`DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deleting post: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrPostNotFound, id)
	}

	return r.refresh()
}
