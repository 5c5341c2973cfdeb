package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"jobsync/internal/feed"
	"jobsync/internal/jobsync"
)

// DefaultSubject is where rejected-feed events are published by default.
const DefaultSubject = "jobsync.feeds.invalid"

// Publisher is the subset of *nats.Conn the notifier uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier publishes a JSON Event per rejected feed.
type NATSNotifier struct {
	pub     Publisher
	subject string
	logger  jobsync.Logger
	clock   jobsync.Clock
}

// NewNATSNotifier creates a notifier. An empty subject uses DefaultSubject.
func NewNATSNotifier(pub Publisher, subject string, logger jobsync.Logger, clock jobsync.Clock) *NATSNotifier {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = jobsync.NewNopLogger()
	}
	if clock == nil {
		clock = jobsync.RealClock{}
	}
	return &NATSNotifier{pub: pub, subject: subject, logger: logger, clock: clock}
}

// Connect dials the NATS server at url, reconnecting indefinitely.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("jobsync"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return nc, nil
}

func (n *NATSNotifier) FeedInvalid(_ context.Context, verr *feed.ValidationError) {
	event := NewEvent(verr, n.clock.Now())
	data, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("encoding feed event", "buid", verr.BusinessUnitID, "error", err)
		return
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		n.logger.Error("publishing feed event", "buid", verr.BusinessUnitID, "subject", n.subject, "error", err)
		return
	}
	n.logger.Debug("feed event published", "id", event.ID, "subject", n.subject)
}

var (
	_ feed.Observer = (*NATSNotifier)(nil)
	_ Publisher     = (*nats.Conn)(nil)
)
