// Package notify reports feeds that fail validation to interested parties.
// Every notifier is fire-and-forget: delivery problems are logged, never
// returned to the parser.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"jobsync/internal/feed"
)

// EventInvalidFeed is the type of the event published for a rejected feed.
const EventInvalidFeed = "feed.invalid"

// Event is the message body published for a rejected feed.
type Event struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	BusinessUnitID int64     `json:"business_unit_id"`
	Line           int       `json:"line"`
	Message        string    `json:"message"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewEvent builds the event describing verr.
func NewEvent(verr *feed.ValidationError, at time.Time) Event {
	return Event{
		ID:             uuid.NewString(),
		Type:           EventInvalidFeed,
		BusinessUnitID: verr.BusinessUnitID,
		Line:           verr.Line,
		Message:        verr.Message,
		OccurredAt:     at.UTC(),
	}
}

// Multi forwards every notification to each of its observers in order.
type Multi []feed.Observer

func (m Multi) FeedInvalid(ctx context.Context, verr *feed.ValidationError) {
	for _, o := range m {
		o.FeedInvalid(ctx, verr)
	}
}

var _ feed.Observer = Multi(nil)
