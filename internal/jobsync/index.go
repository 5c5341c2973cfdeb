package jobsync

import (
	"context"
	"time"

	"jobsync/internal/model"
)

// SearchIndex is the full-text search index of job documents.
type SearchIndex interface {
	// Count returns the number of documents indexed for the business unit.
	Count(ctx context.Context, buid int64) (int, error)

	// UIDs returns one page of document uids for the business unit,
	// ordered by uid, starting at offset start.
	UIDs(ctx context.Context, buid int64, start, rows int) ([]int64, error)

	// Add indexes docs, replacing any document with the same id. Changes
	// become visible within commitWithin.
	Add(ctx context.Context, docs []model.SearchDocument, commitWithin time.Duration) error

	// DeleteUIDs removes the documents with the given uids.
	DeleteUIDs(ctx context.Context, uids []int64) error

	// DeleteBusinessUnit removes every document owned by the business unit.
	DeleteBusinessUnit(ctx context.Context, buid int64) error
}
