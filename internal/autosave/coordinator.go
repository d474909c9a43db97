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

var (
	ErrFlushInProgress = errors.New("a save is already in progress")
	ErrNothingToSave   = errors.New("nothing to save")
)

type Options struct {
	// Delay is the debounce before a change is written to the local slot. Zero writes immediately.
	Delay  time.Duration
	Logger zerolog.Logger
	Now    func() time.Time
}

// Coordinator tracks the live editor state against its baseline, shadows
// dirty state into the local slot and pushes it to the server on request.
type Coordinator struct {
	local  LocalStore
	remote DraftService
	log    zerolog.Logger
	delay  time.Duration
	now    func() time.Time

	// ioMu serializes writes to the local slot. It is taken before mu.
	ioMu sync.Mutex

	mu           sync.Mutex
	live         State
	baseline     State
	timer        *time.Timer
	pending      bool
	locallySaved bool
	flushing     bool

	// ownsSlot is set while the local slot holds a record this coordinator wrote
	ownsSlot bool
}

func NewCoordinator(local LocalStore, remote DraftService, baseline State, opts Options) *Coordinator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Coordinator{
		local:    local,
		remote:   remote,
		log:      opts.Logger,
		delay:    opts.Delay,
		now:      now,
		live:     baseline.Clone(),
		baseline: baseline.Clone(),
	}
}

// RecordChange replaces the live state. The live DraftID is kept when state
// carries none, so editor callbacks need not track it.
func (c *Coordinator) RecordChange(state State) {
	c.mu.Lock()
	if state.DraftID == "" {
		state.DraftID = c.live.DraftID
	}
	c.live = state.Clone()

	if !HasChanges(c.live, c.baseline) {
		c.stopTimerLocked()
		c.pending = false
		c.mu.Unlock()
		c.dropLocal()
		return
	}

	c.pending = true
	if c.delay <= 0 {
		c.mu.Unlock()
		c.FlushLocal()
		return
	}

	if c.timer == nil {
		c.timer = time.AfterFunc(c.delay, c.FlushLocal)
	} else {
		c.timer.Reset(c.delay)
	}
	c.mu.Unlock()
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
}

// FlushLocal writes a pending change to the local slot now. Failures are
// logged and leave LocallySaved false.
func (c *Coordinator) FlushLocal() {
	c.ioMu.Lock()
	defer c.ioMu.Unlock()

	c.mu.Lock()
	if !c.pending {
		c.mu.Unlock()
		return
	}
	c.pending = false
	c.stopTimerLocked()
	rec := LocalRecord{State: c.live.Clone(), SavedAt: c.now()}
	c.mu.Unlock()

	err := c.local.Save(rec)

	c.mu.Lock()
	c.locallySaved = err == nil
	if err == nil {
		c.ownsSlot = true
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Warn().Err(err).Msg("Local draft backup failed")
		return
	}
	c.log.Debug().Str("title", rec.Title).Msg("Local draft saved")
}

// dropLocal clears a record this coordinator wrote once the live state is
// back at the baseline. A record left by another session is not touched.
func (c *Coordinator) dropLocal() {
	c.ioMu.Lock()
	defer c.ioMu.Unlock()

	c.mu.Lock()
	drop := c.ownsSlot && !c.pending && !HasChanges(c.live, c.baseline)
	c.mu.Unlock()
	if !drop {
		return
	}

	if err := c.local.Clear(); err != nil {
		c.log.Warn().Err(err).Msg("Failed to clear reverted local draft")
		return
	}

	c.mu.Lock()
	c.ownsSlot = false
	c.mu.Unlock()
	c.log.Debug().Msg("Local draft cleared, editor is back at its baseline")
}

// LocallySaved reports whether the last local write succeeded.
func (c *Coordinator) LocallySaved() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locallySaved
}

func (c *Coordinator) HasUnsavedChanges() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return HasChanges(c.live, c.baseline)
}

// FlushToServer updates the server draft when one is attached and creates
// it otherwise, adopting the new id. It makes exactly one remote call. On
// success the local slot is cleared and the baseline moves to the saved
// state; on failure the local slot keeps the work.
func (c *Coordinator) FlushToServer(ctx context.Context) error {
	c.mu.Lock()
	if c.flushing {
		c.mu.Unlock()
		return ErrFlushInProgress
	}
	c.flushing = true
	snapshot := c.live.Clone()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.flushing = false
		c.mu.Unlock()
	}()

	var saved *model.Draft
	var err error
	if snapshot.DraftID != "" {
		saved, err = c.remote.UpdateDraft(ctx, snapshot.DraftID, snapshot.patch())
	} else {
		saved, err = c.remote.CreateDraft(ctx, snapshot.input())
	}

	if err != nil {
		c.log.Warn().Err(err).Str("draft_id", string(snapshot.DraftID)).Msg("Server draft save failed, keeping local copy")
		c.mu.Lock()
		if snapshot.DraftID != "" && errors.Is(err, ErrNotFound) {
			c.detachLocked(snapshot.DraftID)
		}
		dirty := HasChanges(c.live, c.baseline)
		c.pending = dirty
		c.mu.Unlock()

		if dirty {
			c.FlushLocal()
		} else {
			c.dropLocal()
		}
		return fmt.Errorf("error saving draft: %w", err)
	}

	c.mu.Lock()
	snapshot.DraftID = saved.ID
	c.live.DraftID = saved.ID
	c.baseline = snapshot
	dirty := HasChanges(c.live, c.baseline)
	if !dirty {
		c.stopTimerLocked()
	}
	c.pending = dirty
	c.mu.Unlock()

	c.log.Info().Str("draft_id", string(saved.ID)).Msg("Draft saved to server")

	if dirty {
		// Edits arrived while the request was in flight
		c.FlushLocal()
		return nil
	}

	c.ioMu.Lock()
	defer c.ioMu.Unlock()
	if err := c.local.Clear(); err != nil {
		c.log.Warn().Err(err).Msg("Failed to clear local draft after server save")
		return nil
	}
	c.mu.Lock()
	c.ownsSlot = false
	c.mu.Unlock()
	return nil
}

// detachLocked forgets a server draft that no longer exists. The baseline
// goes with it, so any text left in the editor counts as unsaved and the
// next flush creates a new draft.
func (c *Coordinator) detachLocked(gone model.DraftID) {
	if c.live.DraftID == gone {
		c.live.DraftID = ""
	}
	c.baseline = State{}
	c.log.Warn().Str("draft_id", string(gone)).Msg("Server draft is gone, the next save creates a new one")
}

// SaveNow is the explicit save action. It refuses to create an empty draft.
func (c *Coordinator) SaveNow(ctx context.Context) error {
	c.mu.Lock()
	empty := c.live.DraftID == "" && c.live.IsBlank() && len(c.live.Tags) == 0
	c.mu.Unlock()
	if empty {
		return ErrNothingToSave
	}
	return c.FlushToServer(ctx)
}

// Cancel stops a pending debounced write. The pending change is dropped.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.pending = false
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live.Clone()
}

func (c *Coordinator) Baseline() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseline.Clone()
}

func (c *Coordinator) DraftID() model.DraftID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live.DraftID
}

// Reset makes baseline both the live state and the reference point.
func (c *Coordinator) Reset(baseline State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.pending = false
	c.ownsSlot = false
	c.live = baseline.Clone()
	c.baseline = baseline.Clone()
}

// restore puts a recovered record in place. The baseline stays where it is,
// so the recovered work counts as unsaved. The slot already holds it.
func (c *Coordinator) restore(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.live = state.Clone()
	c.pending = false
	c.ownsSlot = true
}
