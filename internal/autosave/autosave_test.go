package autosave

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/debemdeboas/quill/internal/model"
	"github.com/rs/zerolog"
)

var errServerDown = errors.New("server down")

type fakeDrafts struct {
	mu      sync.Mutex
	drafts  map[model.DraftID]*model.Draft
	creates int
	updates int
	next    int
	err     error

	// inputs holds every CreateDraft payload in call order
	inputs []model.DraftInput

	// block, when set, holds every write until it is closed
	block   chan struct{}
	entered chan struct{}
}

func newFakeDrafts() *fakeDrafts {
	return &fakeDrafts{drafts: make(map[model.DraftID]*model.Draft)}
}

func (f *fakeDrafts) wait() {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeDrafts) CreateDraft(_ context.Context, in model.DraftInput) (*model.Draft, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	f.next++
	d := &model.Draft{
		ID:      model.DraftID(fmt.Sprintf("draft-%d", f.next)),
		Title:   in.Title,
		Content: in.Content,
		Tags:    in.Tags.Clone(),
	}
	f.drafts[d.ID] = d
	return d.Copy(), nil
}

func (f *fakeDrafts) UpdateDraft(_ context.Context, id model.DraftID, patch model.DraftPatch) (*model.Draft, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.drafts[id]
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	patch.Apply(d)
	return d.Copy(), nil
}

func (f *fakeDrafts) GetDraft(_ context.Context, id model.DraftID) (*model.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.drafts[id]
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	return d.Copy(), nil
}

func (f *fakeDrafts) calls() (creates, updates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates, f.updates
}

func (f *fakeDrafts) createInputs() []model.DraftInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.DraftInput(nil), f.inputs...)
}

type fakePosts map[model.PostID]*model.Post

func (f fakePosts) GetPost(_ context.Context, id model.PostID) (*model.Post, error) {
	p, ok := f[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return p, nil
}

type recordingNav struct {
	mu        sync.Mutex
	navigated []Destination
	replaced  []NavContext
}

func (n *recordingNav) Navigate(dest Destination) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.navigated = append(n.navigated, dest)
}

func (n *recordingNav) Replace(nav NavContext) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.replaced = append(n.replaced, nav)
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *recordingNotifier) Notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) all() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}

// scriptedConfirmer answers every prompt with answer, or err when set.
type scriptedConfirmer struct {
	mu      sync.Mutex
	answer  bool
	err     error
	prompts []Prompt

	// hold, when set, blocks Confirm until it is closed
	hold    chan struct{}
	entered chan struct{}
}

func (c *scriptedConfirmer) Confirm(_ context.Context, p Prompt) (bool, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, p)
	c.mu.Unlock()
	if c.entered != nil {
		c.entered <- struct{}{}
	}
	if c.hold != nil {
		<-c.hold
	}
	return c.answer, c.err
}

func (c *scriptedConfirmer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

type failingStore struct {
	MemoryStore
}

func (f *failingStore) Save(LocalRecord) error {
	return errors.New("disk full")
}

func (f *failingStore) HasUnsaved(excludeID model.DraftID) bool {
	return hasUnsaved(f, excludeID)
}

func quietOptions() Options {
	return Options{Logger: zerolog.Nop()}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
