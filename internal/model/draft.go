package model

import "time"

type DraftID string

// Draft is an unpublished, author-owned piece of writing.
type Draft struct {
	ID DraftID `json:"id"`

	Title   string `json:"title"`
	Content string `json:"content"`
	Tags    Tags   `json:"tags"`

	Owner UserID `json:"author_id"`

	CreatedDate  time.Time `json:"created_at"`
	ModifiedDate time.Time `json:"updated_at"`
}

// Copy returns a deep copy of the draft, so callers holding a cached
// pointer cannot see later edits.
func (d *Draft) Copy() *Draft {
	if d == nil {
		return nil
	}
	c := *d
	c.Tags = d.Tags.Clone()
	return &c
}

// DraftInput is the body of a create request.
type DraftInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Tags    Tags   `json:"tags"`
}

// DraftPatch is a partial update. Nil fields are left untouched.
type DraftPatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Tags    *Tags   `json:"tags,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p DraftPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Tags == nil
}

// Apply writes the set fields of the patch onto d.
func (p DraftPatch) Apply(d *Draft) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Content != nil {
		d.Content = *p.Content
	}
	if p.Tags != nil {
		d.Tags = p.Tags.Clone()
	}
}
