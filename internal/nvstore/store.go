package nvstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNamespaceNotFound is returned when the requested namespace has
	// never been written to.
	ErrNamespaceNotFound = errors.New("nvstore: namespace not found")

	// ErrKeyNotFound is returned when the namespace exists but the key
	// does not.
	ErrKeyNotFound = errors.New("nvstore: key not found")
)

// storeVersion is the on-disk format version.
const storeVersion = 1

// storeFile is the YAML representation of the store.
type storeFile struct {
	Version    int                          `yaml:"version"`
	Namespaces map[string]map[string]string `yaml:"namespaces"`
}

// Store is a namespaced string key-value store persisted to a single YAML
// file. Writes are atomic (temporary file plus rename), mirroring the
// durability expectations of the non-volatile storage it stands in for.
type Store struct {
	path string

	mu   sync.Mutex
	data *storeFile
}

// Open loads the store at path, creating an empty store if the file does
// not exist yet. The parent directory is created on the first write.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		data: &storeFile{
			Version:    storeVersion,
			Namespaces: make(map[string]map[string]string),
		},
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	var parsed storeFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	if parsed.Version != storeVersion {
		return nil, fmt.Errorf("unsupported store version: %d (expected %d)", parsed.Version, storeVersion)
	}
	if parsed.Namespaces == nil {
		parsed.Namespaces = make(map[string]map[string]string)
	}
	s.data = &parsed

	return s, nil
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

// GetString reads a value. Missing namespaces and missing keys are
// distinguished, both map to "no value available" for callers that only
// care about presence.
func (s *Store) GetString(namespace, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.data.Namespaces[namespace]
	if !ok {
		return "", ErrNamespaceNotFound
	}
	value, ok := ns[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// SetString writes a value and persists the store.
func (s *Store) SetString(namespace, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.data.Namespaces[namespace]
	if !ok {
		ns = make(map[string]string)
		s.data.Namespaces[namespace] = ns
	}

	previous, had := ns[key]
	ns[key] = value

	if err := s.save(); err != nil {
		// Roll back the in-memory change so the store keeps matching
		// what is on disk.
		if had {
			ns[key] = previous
		} else {
			delete(ns, key)
		}
		return err
	}
	return nil
}

// Delete removes a key and persists the store. Deleting a missing key is
// not an error.
func (s *Store) Delete(namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.data.Namespaces[namespace]
	if !ok {
		return nil
	}
	previous, had := ns[key]
	if !had {
		return nil
	}
	delete(ns, key)

	if err := s.save(); err != nil {
		ns[key] = previous
		return err
	}
	return nil
}

// save writes the store to disk atomically. Caller must hold s.mu.
func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	raw, err := yaml.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0600); err != nil {
		return fmt.Errorf("failed to write temporary store file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save store file: %w", err)
	}

	return nil
}
