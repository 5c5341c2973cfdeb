package testutil

import (
	"sync"
	"time"
)

// StubClock returns a fixed time. Safe for concurrent use.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewStubClock creates a StubClock set to the given time.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock set to 2012-05-18 08:00:00 UTC.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2012, 5, 18, 8, 0, 0, 0, time.UTC))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FixedRand always draws the same offset, clamped into range.
type FixedRand struct{ V int64 }

func (r FixedRand) Int64N(n int64) int64 {
	return max(0, min(r.V, n-1))
}
