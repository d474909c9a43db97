package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/debemdeboas/quill/internal/cache"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/util"
)

// FSPostRepository serves a directory of markdown files. It is read only:
// publishing requires the database backend.
type FSPostRepository struct { // implements PostRepository
	postsPath string

	postsCache *cache.Cache[string, *model.Post]

	mu               sync.RWMutex
	postsCacheSorted []model.Post

	reloadNotifier func(model.PostID)
	reloadEvery    time.Duration
}

func NewFSPostRepository(postsPath string) *FSPostRepository {
	return &FSPostRepository{
		postsPath:   postsPath,
		postsCache:  cache.NewCache[string, *model.Post](),
		reloadEvery: time.Second,
	}
}

func (r *FSPostRepository) SetReloadNotifier(notifier func(model.PostID)) {
	r.reloadNotifier = notifier
}

func (r *FSPostRepository) notifyPostReload(postID model.PostID) {
	if r.reloadNotifier != nil {
		r.reloadNotifier(postID)
	}
}

func (r *FSPostRepository) Init(ctx context.Context) error {
	posts, postMap, err := r.GetPosts()
	if err != nil {
		return fmt.Errorf("error initializing posts: %w", err)
	}

	r.setPosts(posts, postMap)

	go r.ReloadPosts(ctx)
	return nil
}

func (r *FSPostRepository) setPosts(posts []model.Post, postMap map[string]*model.Post) {
	r.mu.Lock()
	r.postsCacheSorted = posts
	r.mu.Unlock()
	r.postsCache.SetTo(postMap)
}

func (r *FSPostRepository) GetPostList() []model.Post {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.postsCacheSorted
}

func (r *FSPostRepository) GetPosts() ([]model.Post, map[string]*model.Post, error) {
	entries, err := os.ReadDir(r.postsPath)
	if err != nil {
		return nil, nil, err
	}

	var posts []model.Post
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".md")

		mdContent, err := os.ReadFile(filepath.Join(r.postsPath, entry.Name()))
		if err != nil {
			return nil, nil, err
		}

		fileInfo, err := entry.Info()
		if err != nil {
			return nil, nil, err
		}

		id := model.PostID(util.ContentHashString(name))
		post := model.Post{
			ID:            id,
			Title:         util.TitleFromMarkdown(mdContent, name),
			Path:          string(id),
			Tags:          model.Tags(util.KeywordsFromMarkdown(mdContent)).Clone(),
			Markdown:      mdContent,
			MDContentHash: util.ContentHash(mdContent),
			CreatedDate:   fileInfo.ModTime().UTC(),
			ModifiedDate:  fileInfo.ModTime().UTC(),
		}
		if info, err := util.GetFrontMatter(mdContent); err == nil {
			post.Info = info
			if !info.Date.IsZero() {
				post.CreatedDate = info.Date.UTC()
			}
		}

		posts = append(posts, post)
	}

	slices.SortStableFunc(posts, func(a, b model.Post) int {
		return -a.ModifiedDate.Compare(b.ModifiedDate)
	})

	postsMap := make(map[string]*model.Post, len(posts))
	for i := range posts {
		p := posts[i]
		postsMap[string(p.ID)] = &p
	}

	return posts, postsMap, nil
}

func (r *FSPostRepository) ReadPost(id string) (*model.Post, error) {
	if post, ok := r.postsCache.Get(id); ok && post.Markdown != nil {
		return post, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPostNotFound, id)
}

func (r *FSPostRepository) ReloadPosts(ctx context.Context) {
	ticker := time.NewTicker(r.reloadEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		posts, postMap, err := r.GetPosts()
		if err != nil {
			repoLogger.Error().Err(err).Msg(config.ErrReloadingPosts)
			continue
		}

		for _, post := range r.GetPostList() {
			if newPost, ok := postMap[string(post.ID)]; ok && newPost.MDContentHash != post.MDContentHash {
				repoLogger.Info().
					Str("post_id", string(post.ID)).
					Str("title", post.Title).
					Msg("Reloading post")
				go r.notifyPostReload(post.ID)
			}
		}

		r.setPosts(posts, postMap)
	}
}

func (r *FSPostRepository) NewPost() *model.Post {
	return &model.Post{Tags: model.Tags{}}
}

func (r *FSPostRepository) SetPostContent(post *model.Post) error {
	return ErrReadOnly
}

func (r *FSPostRepository) SavePost(post *model.Post) error {
	return ErrReadOnly
}

func (r *FSPostRepository) DeletePost(id model.PostID) error {
	return ErrReadOnly
}
