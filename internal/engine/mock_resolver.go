package engine

import (
	"context"
	"sync"

	"github.com/Veraticus/lei-flow/internal/model"
)

// mockResolver is a test double for the registry client. It records how
// often each LEI was resolved and can fail specific LEIs.
type mockResolver struct {
	records map[string]model.EntityRecord
	fail    map[string]error
	calls   map[string]int
	mu      sync.Mutex
}

func newMockResolver() *mockResolver {
	return &mockResolver{
		records: make(map[string]model.EntityRecord),
		fail:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (m *mockResolver) Resolve(_ context.Context, lei string) (model.EntityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls[lei]++
	if err, ok := m.fail[lei]; ok {
		return model.EntityRecord{}, err
	}
	return m.records[lei], nil
}

func (m *mockResolver) callCount(lei string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[lei]
}
