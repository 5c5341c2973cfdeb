package testutil

import (
	"context"
	"sync"
	"time"

	"jobsync/internal/feed"
	"jobsync/internal/index"
	"jobsync/internal/model"
)

// RecordingNotifier collects every rejected feed it is told about.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []*feed.ValidationError
}

func (n *RecordingNotifier) FeedInvalid(_ context.Context, verr *feed.ValidationError) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, verr)
}

// Events returns the notifications received so far.
func (n *RecordingNotifier) Events() []*feed.ValidationError {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*feed.ValidationError(nil), n.events...)
}

// IndexCall is one mutating request seen by a RecordingIndex.
type IndexCall struct {
	Op   string // "add" or "delete"
	Size int
}

// RecordingIndex is a MemoryIndex that logs the size of every add and
// delete request, and can be told to fail adds.
type RecordingIndex struct {
	*index.MemoryIndex
	mu      sync.Mutex
	calls   []IndexCall
	FailAdd error
}

func NewRecordingIndex() *RecordingIndex {
	return &RecordingIndex{MemoryIndex: index.NewMemoryIndex()}
}

func (r *RecordingIndex) Add(ctx context.Context, docs []model.SearchDocument, commitWithin time.Duration) error {
	r.record("add", len(docs))
	if r.FailAdd != nil {
		return r.FailAdd
	}
	return r.MemoryIndex.Add(ctx, docs, commitWithin)
}

func (r *RecordingIndex) DeleteUIDs(ctx context.Context, uids []int64) error {
	r.record("delete", len(uids))
	return r.MemoryIndex.DeleteUIDs(ctx, uids)
}

func (r *RecordingIndex) record(op string, size int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, IndexCall{Op: op, Size: size})
}

// Calls returns the mutating requests seen so far.
func (r *RecordingIndex) Calls() []IndexCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]IndexCall(nil), r.calls...)
}
