package autosave

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

type RecoveryState int

const (
	RecoveryIdle RecoveryState = iota
	RecoveryPrompting
	RecoveryRecovered
	RecoveryDiscarded
	// RecoverySkipped means the session had an explicit target or nothing to recover.
	RecoverySkipped
)

func (s RecoveryState) String() string {
	switch s {
	case RecoveryIdle:
		return "idle"
	case RecoveryPrompting:
		return "prompting"
	case RecoveryRecovered:
		return "recovered"
	case RecoveryDiscarded:
		return "discarded"
	case RecoverySkipped:
		return "skipped"
	}
	return "unknown"
}

var ErrNotPrompting = errors.New("recovery is not waiting for a decision")

// Recovery offers an orphaned local record once per editor session.
type Recovery struct {
	local LocalStore
	log   zerolog.Logger

	mu     sync.Mutex
	state  RecoveryState
	record *LocalRecord
}

func NewRecovery(local LocalStore, log zerolog.Logger) *Recovery {
	return &Recovery{local: local, log: log}
}

func (r *Recovery) State() RecoveryState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Begin checks the local slot. It only acts from Idle, so a session prompts
// at most once. It returns the record when the user must decide.
func (r *Recovery) Begin(nav NavContext) (*LocalRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RecoveryIdle {
		return nil, false
	}

	if nav.HasTarget() {
		r.state = RecoverySkipped
		return nil, false
	}

	rec, err := r.local.Get()
	if err != nil {
		r.log.Warn().Err(err).Msg("Could not read local draft")
		r.state = RecoverySkipped
		return nil, false
	}
	if rec == nil || rec.IsBlank() {
		r.state = RecoverySkipped
		return nil, false
	}

	r.state = RecoveryPrompting
	r.record = rec
	return rec, true
}

// Restore accepts the offered record and returns the state to edit.
func (r *Recovery) Restore() (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RecoveryPrompting {
		return State{}, ErrNotPrompting
	}
	r.state = RecoveryRecovered
	return r.record.State.Clone(), nil
}

// Discard rejects the offered record and clears the local slot.
func (r *Recovery) Discard() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RecoveryPrompting {
		return ErrNotPrompting
	}
	r.state = RecoveryDiscarded
	r.record = nil

	if err := r.local.Clear(); err != nil {
		r.log.Warn().Err(err).Msg("Could not clear discarded local draft")
		return err
	}
	return nil
}
