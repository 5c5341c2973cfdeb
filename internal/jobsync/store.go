package jobsync

import (
	"context"
	"errors"

	"jobsync/internal/model"
)

// ErrBusinessUnitNotFound is returned when an operation names a business
// unit that has not been created.
var ErrBusinessUnitNotFound = errors.New("business unit not found")

// JobStore is the relational store of job listings and business units.
type JobStore interface {
	// UIDs returns the uid of every job stored for the business unit.
	UIDs(ctx context.Context, buid int64) ([]int64, error)

	// GetJob returns the listing with the given uid, or nil if none exists.
	GetJob(ctx context.Context, uid int64) (*model.JobListing, error)

	// SaveJobs saves listings one row at a time inside a single transaction.
	// An existing row with the same uid is updated in place. A row that
	// fails is rolled back on its own and reported in the result without
	// aborting the others; the transaction commits once at the end.
	SaveJobs(ctx context.Context, listings []model.JobListing) (*SaveResult, error)

	// DeleteJobs removes every listing whose uid is in uids and returns the
	// number of rows removed.
	DeleteJobs(ctx context.Context, uids []int64) (int64, error)

	// DeleteJobsForBusinessUnit removes every listing owned by the business unit.
	DeleteJobsForBusinessUnit(ctx context.Context, buid int64) (int64, error)

	// GetBusinessUnit returns the business unit, or nil if it does not exist.
	GetBusinessUnit(ctx context.Context, id int64) (*model.BusinessUnit, error)

	// CountJobs returns the number of listings owned by the business unit.
	CountJobs(ctx context.Context, buid int64) (int, error)

	// SaveBusinessUnit inserts or updates bu. The title slug and associated
	// job count are recomputed and written back into bu.
	SaveBusinessUnit(ctx context.Context, bu *model.BusinessUnit) error

	// Close releases the underlying connection.
	Close() error
}

// SaveResult accumulates the per-row outcomes of SaveJobs.
type SaveResult struct {
	Saved  []int64 // uids written
	Failed []RowError
}

// RowError describes one listing the store rejected.
type RowError struct {
	UID int64
	Err error
}

func (e RowError) Error() string { return e.Err.Error() }
