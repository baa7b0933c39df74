package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingColumn(t *testing.T) {
	err := MissingColumn("lei")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), `"lei"`)
}

func TestRegistryUnavailableErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &RegistryUnavailableError{LEI: "LEI1", Attempts: 3, LastErr: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "LEI1")
	assert.Contains(t, err.Error(), "3 attempts")
}

func TestCacheErrorsUnwrap(t *testing.T) {
	cause := errors.New("disk full")

	loadErr := &CacheLoadError{Source: "cache.json", Err: cause}
	assert.ErrorIs(t, loadErr, cause)
	assert.Contains(t, loadErr.Error(), "cache.json")

	saveErr := &CacheSaveError{Sink: "cache.json", Err: cause}
	assert.ErrorIs(t, saveErr, cause)
	assert.Contains(t, saveErr.Error(), "cache.json")
}
