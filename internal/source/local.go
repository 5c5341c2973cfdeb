package source

import (
	"context"
	"fmt"
	"os"

	"jobsync/internal/feedapi"
	"jobsync/internal/jobsync"
)

// LocalSource reads feeds that something else drops into a directory.
// Fetch only checks that the document is there.
type LocalSource struct {
	dir string
}

// NewLocalSource creates a source over dir.
func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{dir: dir}
}

func (s *LocalSource) Fetch(_ context.Context, buid int64) (string, error) {
	path := s.Path(buid)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("feed for business unit %d not found: %w", buid, err)
	}
	return path, nil
}

func (s *LocalSource) Path(buid int64) string {
	return feedapi.FeedPath(s.dir, buid)
}

var _ jobsync.FeedSource = (*LocalSource)(nil)
