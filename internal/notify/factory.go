package notify

import (
	"fmt"

	"jobsync/internal/config"
	"jobsync/internal/feed"
	"jobsync/internal/jobsync"
)

// NewFromConfig creates the notifier for cfg. Rejected feeds are always
// logged; the nats type also publishes them. The returned close function
// releases the connection.
func NewFromConfig(cfg config.NotifierConfig, logger jobsync.Logger) (feed.Observer, func(), error) {
	logged := NewLogNotifier(logger)

	switch cfg.Type {
	case "log", "":
		return logged, func() {}, nil
	case "nats":
		if cfg.NATSURL == "" {
			return nil, nil, fmt.Errorf("nats_url required for nats notifier")
		}
		nc, err := Connect(cfg.NATSURL)
		if err != nil {
			return nil, nil, err
		}
		return Multi{logged, NewNATSNotifier(nc, cfg.Subject, logger, nil)}, nc.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown notifier type: %s", cfg.Type)
	}
}
