package notify

import (
	"context"

	"jobsync/internal/feed"
	"jobsync/internal/jobsync"
)

// LogNotifier writes rejected feeds to the log at error level.
type LogNotifier struct {
	logger jobsync.Logger
}

func NewLogNotifier(logger jobsync.Logger) *LogNotifier {
	if logger == nil {
		logger = jobsync.NewNopLogger()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) FeedInvalid(_ context.Context, verr *feed.ValidationError) {
	n.logger.Error("feed rejected", "buid", verr.BusinessUnitID, "line", verr.Line, "error", verr.Message)
}

var _ feed.Observer = (*LogNotifier)(nil)
