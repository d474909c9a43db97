// Package model defines core data structures and types for the blog application.
package model

import (
	"html/template"
	"strings"
	"time"

	"github.com/debemdeboas/quill/internal/util"
)

type PostID string

type UserID string

type Post struct {
	ID PostID `json:"id"`

	Title   string        `json:"title"`
	Content template.HTML `json:"html,omitempty"`
	Path    string        `json:"path,omitempty"`
	Tags    Tags          `json:"tags"`

	// Used for cache busting.
	// We cannot use the content hash because the content is already rendered.
	MDContentHash string `json:"content_hash"`

	Markdown     []byte    `json:"-"`
	CreatedDate  time.Time `json:"created_at"`
	ModifiedDate time.Time `json:"modified_at"`

	// Optional data from Mmark front matter.
	Info *util.ExtendedTitleData `json:"-"`

	// Optional data: owner of the post (for example, the user who created it).
	Owner UserID `json:"author_id"`
}

func (p *Post) GetTitle() string {
	if p.Info != nil && p.Info.TitleData != nil && p.Info.Title != "" {
		var s strings.Builder

		if p.Info.SeriesInfo.Name != "" && p.Info.SeriesInfo.Value != "" {
			s.WriteString("[")
			s.WriteString(p.Info.SeriesInfo.Name)
			s.WriteString("-")
			s.WriteString(p.Info.SeriesInfo.Value)
			s.WriteString("] ")
		}

		s.WriteString(p.Info.Title)

		return s.String()
	}
	return p.Title
}
