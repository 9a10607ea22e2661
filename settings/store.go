package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kjk/atomicfile"
)

// Store is a JSON-backed key/value file. Values are kept as raw JSON so the
// frontend can round-trip whatever it stored.
type Store struct {
	mu     sync.Mutex
	path   string
	values map[string]json.RawMessage
	dirty  bool
}

// OpenStore loads path, starting empty when the file does not exist yet.
func OpenStore(path string) (*Store, error) {
	s := &Store{
		path:   path,
		values: make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("failed to parse store %s: %w", path, err)
	}
	return s, nil
}

// Get decodes the value under key into v. It reports whether the key exists.
func (s *Store) Get(key string, v interface{}) (bool, error) {
	s.mu.Lock()
	raw, ok := s.values[key]
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return true, nil
}

// Set stores v under key. Call Save to persist.
func (s *Store) Set(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}

	s.mu.Lock()
	s.values[key] = raw
	s.dirty = true
	s.mu.Unlock()
	return nil
}

// Delete removes key and reports whether it was present.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; !ok {
		return false
	}
	delete(s.values, key)
	s.dirty = true
	return true
}

// Keys returns all keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save writes the store atomically if anything changed since the last save.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	f, err := atomicfile.New(s.path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer f.RemoveIfNotClosed()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to commit store: %w", err)
	}

	s.dirty = false
	return nil
}
