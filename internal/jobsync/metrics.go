package jobsync

import "time"

// Metrics receives counters about sync runs.
type Metrics interface {
	// Synced records the outcome of one run against a store
	// ("database" or "index").
	Synced(store string, added, deleted, failed int)

	// InvalidFeed records a feed that failed validation.
	InvalidFeed()

	// Observe records how long an operation took.
	Observe(operation string, d time.Duration)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) Synced(string, int, int, int)  {}
func (NopMetrics) InvalidFeed()                  {}
func (NopMetrics) Observe(string, time.Duration) {}
