package app

import (
	"strconv"
	"strings"
)

// Run statuses recorded in the sync_runs table.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

// SyncRun tracks a CLI operation that may mutate either store.
// Runs are created in memory with ID=0. Only mutating commands persist
// them (giving them an auto-increment ID from the database).
type SyncRun struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string
}

// NewSyncRun creates a new in-memory sync run.
func NewSyncRun(operation, parameters string) *SyncRun {
	return &SyncRun{
		Operation:  operation,
		Parameters: parameters,
		Status:     StatusSuccess,
	}
}

// Persisted returns true if this run has been saved to the database.
func (r *SyncRun) Persisted() bool {
	return r.ID != 0
}

// Fail marks the run as failed. A nil err leaves it unchanged.
func (r *SyncRun) Fail(err error) {
	if err != nil {
		r.Status = StatusError
	}
}

// RunParameters renders a business unit and its flags as the parameters
// column, e.g. "buid=13 download=true".
func RunParameters(buid int64, flags map[string]bool, order ...string) string {
	parts := []string{"buid=" + strconv.FormatInt(buid, 10)}
	for _, name := range order {
		parts = append(parts, name+"="+strconv.FormatBool(flags[name]))
	}
	return strings.Join(parts, " ")
}
