package editor

import (
	"context"
	"fmt"

	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/repository"
	"github.com/debemdeboas/quill/internal/util"
)

// Publisher turns drafts into posts and optionally archives the markdown.
type Publisher struct {
	posts   repository.PostRepository
	archive repository.Archive
}

// NewPublisher returns a publisher writing to posts. archive may be nil.
func NewPublisher(posts repository.PostRepository, archive repository.Archive) *Publisher {
	return &Publisher{
		posts:   posts,
		archive: archive,
	}
}

// Publish saves d as a new post. The title comes from the front matter when
// present, then the draft title, then a dated placeholder.
func (p *Publisher) Publish(ctx context.Context, d *model.Draft) (*model.Post, error) {
	post := p.posts.NewPost()
	post.Markdown = []byte(d.Content)
	post.Owner = d.Owner
	post.Tags = d.Tags.Clone()
	post.Path = string(post.ID)

	fallback := d.Title
	if fallback == "" {
		fallback = "Untitled - " + post.CreatedDate.Format("2006-01-02")
	}
	post.Title = util.TitleFromMarkdown(post.Markdown, fallback)

	if err := p.posts.SavePost(post); err != nil {
		return nil, fmt.Errorf("error publishing draft %s: %w", d.ID, err)
	}

	if p.archive != nil {
		if err := p.archive.ArchivePost(ctx, post); err != nil {
			editorLogger.Warn().Err(err).Str("post_id", string(post.ID)).Msg("Failed to archive published post")
		}
	}

	editorLogger.Info().Str("draft_id", string(d.ID)).Str("post_id", string(post.ID)).Msg("Draft published")
	return post, nil
}
