// Package repository stores and serves published posts.
package repository

import (
	"context"
	"errors"

	"github.com/debemdeboas/quill/internal/model"
	"github.com/rs/zerolog"
)

var ErrPostNotFound = errors.New("post not found")

// ErrReadOnly is returned by backends that cannot persist posts.
var ErrReadOnly = errors.New("post repository is read only")

var repoLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

type PostRepository interface {
	// Init loads the posts and starts the reload loop. It stops when ctx is done.
	Init(ctx context.Context) error
	GetPosts() ([]model.Post, map[string]*model.Post, error)
	GetPostList() []model.Post
	ReadPost(id string) (*model.Post, error)
	ReloadPosts(ctx context.Context)

	NewPost() *model.Post
	SavePost(post *model.Post) error
	SetPostContent(post *model.Post) error
	DeletePost(id model.PostID) error

	// SetReloadNotifier sets a function that will be called when the posts are reloaded.
	SetReloadNotifier(notifier func(model.PostID))
}
