package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/lei-flow/internal/common"
	"github.com/Veraticus/lei-flow/internal/model"
	"github.com/Veraticus/lei-flow/internal/service"
)

// JSONStore persists the cache as a flat, indented JSON object mapping
// LEI code to entity record.
type JSONStore struct {
	path string
}

// NewJSONStore creates a store backed by the given file path.
func NewJSONStore(path string) (*JSONStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: cache file path", common.ErrMissingConfig)
	}
	return &JSONStore{path: path}, nil
}

// Load reads the persisted mapping. A missing file is a no-op and yields
// an empty map; a malformed file is a CacheLoadError.
func (s *JSONStore) Load(_ context.Context) (map[string]model.EntityRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]model.EntityRecord{}, nil
		}
		return nil, &common.CacheLoadError{Source: s.path, Err: err}
	}

	entries := make(map[string]model.EntityRecord)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &common.CacheLoadError{Source: s.path, Err: err}
	}

	return entries, nil
}

// Save writes the mapping, replacing any previous file contents. The
// write goes through a temp file and rename so a failed save leaves the
// prior persisted state untouched.
func (s *JSONStore) Save(_ context.Context, entries map[string]model.EntityRecord) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return &common.CacheSaveError{Sink: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return &common.CacheSaveError{Sink: s.path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return &common.CacheSaveError{Sink: s.path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &common.CacheSaveError{Sink: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &common.CacheSaveError{Sink: s.path, Err: err}
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return &common.CacheSaveError{Sink: s.path, Err: err}
	}

	return nil
}

// Close implements service.CacheStore; a file store holds no resources.
func (s *JSONStore) Close() error {
	return nil
}

// Ensure JSONStore implements the CacheStore interface.
var _ service.CacheStore = (*JSONStore)(nil)
