package autosave

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/model"
)

// LocalStore is a single slot holding the most recent unsaved editor state.
type LocalStore interface {
	// Get returns nil and no error when the slot is empty.
	Get() (*LocalRecord, error)
	Save(rec LocalRecord) error
	Clear() error
	// HasUnsaved reports whether the slot holds a non-blank record for a
	// draft other than excludeID. An empty excludeID excludes nothing.
	HasUnsaved(excludeID model.DraftID) bool
}

func hasUnsaved(store LocalStore, excludeID model.DraftID) bool {
	rec, err := store.Get()
	if err != nil || rec == nil || rec.IsBlank() {
		return false
	}
	return excludeID == "" || rec.DraftID != excludeID
}

type MemoryStore struct {
	mu  sync.Mutex
	rec *LocalRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get() (*LocalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return nil, nil
	}
	rec := *m.rec
	rec.State = rec.State.Clone()
	return &rec, nil
}

func (m *MemoryStore) Save(rec LocalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.State = rec.State.Clone()
	m.rec = &rec
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
	return nil
}

func (m *MemoryStore) HasUnsaved(excludeID model.DraftID) bool {
	return hasUnsaved(m, excludeID)
}

const localSnapshotVersion = 1

type localSnapshot struct {
	Version int          `json:"version"`
	Draft   *LocalRecord `json:"draft"`
}

// FileStore keeps the slot in a JSON file, replaced atomically on every save.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultLocalPath returns the slot location under the user's config directory.
func DefaultLocalPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, config.LocalDraftDir, config.LocalDraftFile), nil
}

// NewLocalStore returns a FileStore at path, or at the default location when
// path is empty. Without a usable config directory it falls back to memory.
func NewLocalStore(path string) (LocalStore, error) {
	if path == "" {
		var err error
		if path, err = DefaultLocalPath(); err != nil {
			return NewMemoryStore(), fmt.Errorf("no config directory, local drafts will not survive a restart: %w", err)
		}
	}
	return NewFileStore(path), nil
}

func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Get() (*LocalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var snap localSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("corrupt local draft %s: %w", f.path, err)
	}
	if snap.Version != localSnapshotVersion {
		return nil, fmt.Errorf("unsupported local draft version %d", snap.Version)
	}
	return snap.Draft, nil
}

func (f *FileStore) Save(rec LocalRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now()
	}
	rec.SavedAt = rec.SavedAt.UTC()

	data, err := json.Marshal(localSnapshot{Version: localSnapshotVersion, Draft: &rec})
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, f.path)
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (f *FileStore) HasUnsaved(excludeID model.DraftID) bool {
	return hasUnsaved(f, excludeID)
}
