// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// ErrMissingColumn indicates the batch input lacks a required column.
	ErrMissingColumn = errors.New("missing required column")

	// ErrMaxRetries indicates that all retry attempts have been exhausted.
	ErrMaxRetries = errors.New("max retries exceeded")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// MissingColumn returns an ErrMissingColumn wrapped with the column name.
func MissingColumn(column string) error {
	return fmt.Errorf("%w: %q", ErrMissingColumn, column)
}

// RegistryUnavailableError indicates that a registry lookup for one LEI
// failed at the transport level on every attempt. The enrichment engine
// recovers from it per LEI; it never aborts a batch.
type RegistryUnavailableError struct {
	LastErr  error
	LEI      string
	Attempts int
}

func (e *RegistryUnavailableError) Error() string {
	return fmt.Sprintf("registry unavailable for LEI %s after %d attempts: %v", e.LEI, e.Attempts, e.LastErr)
}

func (e *RegistryUnavailableError) Unwrap() error {
	return e.LastErr
}

// CacheLoadError indicates persisted cache state could not be read or
// parsed. The in-memory cache is left unchanged when it occurs.
type CacheLoadError struct {
	Err    error
	Source string
}

func (e *CacheLoadError) Error() string {
	return fmt.Sprintf("failed to load cache from %s: %v", e.Source, e.Err)
}

func (e *CacheLoadError) Unwrap() error {
	return e.Err
}

// CacheSaveError indicates the cache could not be persisted. Prior
// persisted state is left untouched when it occurs.
type CacheSaveError struct {
	Err  error
	Sink string
}

func (e *CacheSaveError) Error() string {
	return fmt.Sprintf("failed to save cache to %s: %v", e.Sink, e.Err)
}

func (e *CacheSaveError) Unwrap() error {
	return e.Err
}
