package history

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists a History to a single JSON file
type Store struct {
	path string
	mu   sync.RWMutex
}

// NewStore creates a store for the file at path. The file is created on
// the first Save.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the history file location
func (s *Store) Path() string {
	return s.path
}

// Load reads the history. A missing or empty file is an empty history.
func (s *Store) Load() (History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load()
}

// Save replaces the file contents with h
func (s *Store) Save(h History) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(h)
}

// Append adds entries to the end of the stored history
func (s *Store) Append(entries ...Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.load()
	if err != nil {
		return err
	}
	return s.save(append(h, entries...))
}

// Clear removes every entry
func (s *Store) Clear() error {
	return s.Save(History{})
}

func (s *Store) load() (History, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return History{}, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return Parse(data)
}

// save writes through a temp file and rename so readers never see a
// partial file.
func (s *Store) save(h History) error {
	data, err := h.Marshal()
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".chat_history-*.json")
	if err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}
