package index

import (
	"context"
	"slices"
	"sync"
	"time"

	"jobsync/internal/jobsync"
	"jobsync/internal/model"
)

// MemoryIndex is an in-memory implementation of jobsync.SearchIndex.
// Documents are keyed by id, so re-adding a document replaces it.
// This implementation is safe for concurrent use.
type MemoryIndex struct {
	docs         map[string]model.SearchDocument
	commitWithin time.Duration
	mu           sync.RWMutex
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{docs: make(map[string]model.SearchDocument)}
}

func (m *MemoryIndex) Count(_ context.Context, buid int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, d := range m.docs {
		if d.BUID == buid {
			n++
		}
	}
	return n, nil
}

func (m *MemoryIndex) UIDs(_ context.Context, buid int64, start, rows int) ([]int64, error) {
	m.mu.RLock()
	var uids []int64
	for _, d := range m.docs {
		if d.BUID == buid {
			uids = append(uids, d.UID)
		}
	}
	m.mu.RUnlock()

	slices.Sort(uids)
	if start >= len(uids) {
		return nil, nil
	}
	end := min(start+rows, len(uids))
	return uids[start:end], nil
}

func (m *MemoryIndex) Add(_ context.Context, docs []model.SearchDocument, commitWithin time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range docs {
		m.docs[d.ID] = d
	}
	m.commitWithin = commitWithin
	return nil
}

func (m *MemoryIndex) DeleteUIDs(_ context.Context, uids []int64) error {
	doomed := make(map[int64]struct{}, len(uids))
	for _, uid := range uids {
		doomed[uid] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, d := range m.docs {
		if _, ok := doomed[d.UID]; ok {
			delete(m.docs, id)
		}
	}
	return nil
}

func (m *MemoryIndex) DeleteBusinessUnit(_ context.Context, buid int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, d := range m.docs {
		if d.BUID == buid {
			delete(m.docs, id)
		}
	}
	return nil
}

// Get returns the document indexed under uid.
func (m *MemoryIndex) Get(uid int64) (model.SearchDocument, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.docs {
		if d.UID == uid {
			return d, true
		}
	}
	return model.SearchDocument{}, false
}

// CommitWithin reports the interval passed to the most recent Add.
func (m *MemoryIndex) CommitWithin() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commitWithin
}

// Compile-time check that MemoryIndex implements jobsync.SearchIndex
var _ jobsync.SearchIndex = (*MemoryIndex)(nil)
