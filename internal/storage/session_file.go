package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"eduvista/internal/model"
)

// FileSessionStore keeps one client's session record as a JSON file.
type FileSessionStore struct {
	path string
	mu   sync.Mutex
}

// NewFileSessionStore stores the record for clientID under dir.
func NewFileSessionStore(dir, clientID string) *FileSessionStore {
	return &FileSessionStore{path: filepath.Join(dir, filepath.Base(clientID)+".json")}
}

// Load returns nil, nil when no record exists.
func (f *FileSessionStore) Load() (*model.PersistedSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session record: %w", err)
	}
	var rec model.PersistedSession
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("corrupt session record: %w", err)
	}
	if rec.Username == "" || rec.Token == "" || !rec.Role.Valid() {
		return nil, fmt.Errorf("incomplete session record")
	}
	return &rec, nil
}

// Save replaces the record atomically.
func (f *FileSessionStore) Save(rec model.PersistedSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode session record: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session record: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace session record: %w", err)
	}
	return nil
}

// Clear removes the record; a missing record is not an error.
func (f *FileSessionStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session record: %w", err)
	}
	return nil
}

// MemorySessionStore is a process-local record, used when no session dir is
// configured.
type MemorySessionStore struct {
	mu  sync.Mutex
	rec *model.PersistedSession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (m *MemorySessionStore) Load() (*model.PersistedSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return nil, nil
	}
	rec := *m.rec
	return &rec, nil
}

func (m *MemorySessionStore) Save(rec model.PersistedSession) error {
	m.mu.Lock()
	m.rec = &rec
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) Clear() error {
	m.mu.Lock()
	m.rec = nil
	m.mu.Unlock()
	return nil
}
