package taxonomy

import (
	"context"
	"slices"
	"sync"

	"jobsync/internal/model"
	"jobsync/internal/projector"
)

// Memory is an in-memory occupation code lookup.
// This implementation is safe for concurrent use.
type Memory struct {
	entries map[string][]model.TaxonomyEntry
	mu      sync.RWMutex
}

// NewMemory creates an empty lookup.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]model.TaxonomyEntry)}
}

// Link associates entries with onet.
func (m *Memory) Link(onet string, entries ...model.TaxonomyEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[onet] = append(m.entries[onet], entries...)
}

func (m *Memory) CodesFor(_ context.Context, onet string) ([]model.TaxonomyEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.entries[onet]), nil
}

var _ projector.Taxonomy = (*Memory)(nil)
