// Package autosave keeps an editor's work safe: it shadows edits into a
// single local slot, offers to recover that slot on a fresh session, and
// flushes to the server draft resource before the editor is left.
package autosave

import (
	"strings"
	"time"

	"github.com/debemdeboas/quill/internal/model"
)

// State is the editable copy of a draft held by the editor.
type State struct {
	Title   string        `json:"title"`
	Content string        `json:"content"`
	Tags    model.Tags    `json:"tags"`
	DraftID model.DraftID `json:"draft_id,omitempty"`
}

func (s State) Clone() State {
	s.Tags = s.Tags.Clone()
	return s
}

// IsBlank reports whether there is nothing worth recovering. Tags alone do not count.
func (s State) IsBlank() bool {
	return strings.TrimSpace(s.Title) == "" && strings.TrimSpace(s.Content) == ""
}

func (s State) input() model.DraftInput {
	return model.DraftInput{
		Title:   s.Title,
		Content: s.Content,
		Tags:    s.Tags.Clone(),
	}
}

func (s State) patch() model.DraftPatch {
	title, content, tags := s.Title, s.Content, s.Tags.Clone()
	return model.DraftPatch{Title: &title, Content: &content, Tags: &tags}
}

func StateFromDraft(d *model.Draft) State {
	return State{
		Title:   d.Title,
		Content: d.Content,
		Tags:    d.Tags.Clone(),
		DraftID: d.ID,
	}
}

// StateFromPost seeds an editor from a published post. The first flush creates a new draft.
func StateFromPost(p *model.Post) State {
	return State{
		Title:   p.Title,
		Content: string(p.Markdown),
		Tags:    p.Tags.Clone(),
	}
}

// HasChanges reports whether live differs from baseline in title, content
// or tags. Tags compare as a multiset, so reordering is not a change.
// DraftID is not compared.
func HasChanges(live, baseline State) bool {
	return live.Title != baseline.Title ||
		live.Content != baseline.Content ||
		!live.Tags.SameSet(baseline.Tags)
}

// LocalRecord is the content of the local slot.
type LocalRecord struct {
	State
	SavedAt time.Time `json:"saved_at"`
}
