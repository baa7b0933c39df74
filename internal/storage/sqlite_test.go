package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/lei-flow/internal/model"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	entries := map[string]model.EntityRecord{
		"529900T8BM49AURSDO55": {LegalName: "Acme Holdings PLC", BIC: "ACMEGB2L", Country: "GB"},
		"724500PMK2A2M1SQQ228": {LegalName: "Tulip Capital BV", BIC: "TULPNL2A", Country: "NL"},
		"EMPTY0000000000000000": {},
	}
	require.NoError(t, store.Save(ctx, entries))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, entries, loaded)
}

func TestSQLiteStoreUpsert(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	require.NoError(t, store.Save(ctx, map[string]model.EntityRecord{
		"LEI1": {LegalName: "Before"},
	}))
	require.NoError(t, store.Save(ctx, map[string]model.EntityRecord{
		"LEI1": {LegalName: "After", BIC: "AFTRGB2L", Country: "GB"},
		"LEI2": {LegalName: "Second"},
	}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
	assert.Equal(t, "After", loaded["LEI1"].LegalName)
	assert.Equal(t, "AFTRGB2L", loaded["LEI1"].BIC)
}

func TestSQLiteStoreSaveKeepsUnrelatedEntries(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	require.NoError(t, store.Save(ctx, map[string]model.EntityRecord{
		"LEI1": {LegalName: "One"},
	}))
	require.NoError(t, store.Save(ctx, map[string]model.EntityRecord{
		"LEI2": {LegalName: "Two"},
	}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestSQLiteStoreClear(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	require.NoError(t, store.Save(ctx, map[string]model.EntityRecord{
		"LEI1": {LegalName: "One"},
	}))
	require.NoError(t, store.Clear(ctx))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestSQLiteStoreLoadEmptyDatabase(t *testing.T) {
	store := createTestStore(t)

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	_, err := NewSQLiteStore("")
	require.Error(t, err)
}
