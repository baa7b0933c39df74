// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/lei-flow/internal/model"
)

// EntityResolver resolves the entity attributes for one LEI code. A
// resolver never errors for "entity unknown" (it returns an all-empty
// record); it errors only when the registry stayed unreachable for the
// whole retry budget.
type EntityResolver interface {
	Resolve(ctx context.Context, lei string) (model.EntityRecord, error)
}

// CacheStore is the persistence backend for the LEI cache.
type CacheStore interface {
	// Load returns the persisted LEI to record mapping. A missing
	// backing store is not an error; Load returns an empty map.
	Load(ctx context.Context) (map[string]model.EntityRecord, error)
	// Save replaces the persisted state with the given mapping.
	Save(ctx context.Context, entries map[string]model.EntityRecord) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// EnrichmentStats summarizes one enrichment run.
type EnrichmentStats struct {
	RowsProcessed int
	UniqueLEIs    int
	FailedLookups int
	WithLegalName int
	WithBIC       int
	WithCost      int
	TotalCost     float64
	Duration      time.Duration
}
