package jobsync

import "context"

// FeedSource locates the feed document of a business unit.
type FeedSource interface {
	// Fetch retrieves a fresh copy of the feed and returns its local path.
	Fetch(ctx context.Context, buid int64) (string, error)

	// Path returns where the feed of buid is kept locally.
	Path(buid int64) string
}
