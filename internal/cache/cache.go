// Package cache implements the in-memory LEI lookup cache and its
// persistence stores.
package cache

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Veraticus/lei-flow/internal/model"
	"github.com/Veraticus/lei-flow/internal/service"
)

// Cache maps LEI codes to previously resolved entity records. Entries are
// permanent once written; there is no TTL and no eviction. The domain of
// distinct LEI codes is small relative to batch sizes, so unbounded
// growth is accepted.
type Cache struct {
	entries map[string]model.EntityRecord
	logger  *slog.Logger
	mu      sync.RWMutex
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]model.EntityRecord),
		logger:  slog.Default().With("component", "cache"),
	}
}

// Get returns the cached record for an LEI, if present.
func (c *Cache) Get(lei string) (model.EntityRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.entries[lei]
	return rec, ok
}

// Put stores a resolved record for an LEI.
func (c *Cache) Put(lei string, record model.EntityRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[lei] = record
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot returns a copy of the cached mapping.
func (c *Cache) Snapshot() map[string]model.EntityRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]model.EntityRecord, len(c.entries))
	for lei, rec := range c.entries {
		out[lei] = rec
	}
	return out
}

// Load restores the cache from a persistence store. Loaded entries are
// merged over the current contents. A failing load leaves the in-memory
// cache unchanged.
func (c *Cache) Load(ctx context.Context, store service.CacheStore) error {
	entries, err := store.Load(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for lei, rec := range entries {
		c.entries[lei] = rec
	}

	c.logger.Debug("Cache loaded", "entries", len(entries))
	return nil
}

// Save persists the current cache contents to a store.
func (c *Cache) Save(ctx context.Context, store service.CacheStore) error {
	if err := store.Save(ctx, c.Snapshot()); err != nil {
		return err
	}

	c.logger.Debug("Cache saved", "entries", c.Len())
	return nil
}
