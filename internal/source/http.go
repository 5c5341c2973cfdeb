package source

import (
	"context"

	"jobsync/internal/feedapi"
	"jobsync/internal/jobsync"
)

// HTTPSource downloads feeds from the feed-management service.
type HTTPSource struct {
	client *feedapi.Client
	dir    string
}

// NewHTTPSource creates a source that downloads into dir.
func NewHTTPSource(client *feedapi.Client, dir string) *HTTPSource {
	return &HTTPSource{client: client, dir: dir}
}

func (s *HTTPSource) Fetch(ctx context.Context, buid int64) (string, error) {
	return s.client.Download(ctx, buid, s.dir)
}

func (s *HTTPSource) Path(buid int64) string {
	return feedapi.FeedPath(s.dir, buid)
}

var _ jobsync.FeedSource = (*HTTPSource)(nil)
