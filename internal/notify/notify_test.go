package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"jobsync/internal/config"
	"jobsync/internal/feed"
	"jobsync/internal/testutil"
)

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{subject: subject, data: data})
	return nil
}

// errorCounter counts Error calls.
type errorCounter struct {
	testLogger
	errors int
}

func (l *errorCounter) Error(string, ...any) { l.errors++ }

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}

var rejected = &feed.ValidationError{BusinessUnitID: 13, Line: 42, Message: "element 'uid': does not match pattern"}

func TestNATSNotifier_Publishes(t *testing.T) {
	pub := &fakePublisher{}
	clock := testutil.FixedClock()
	n := NewNATSNotifier(pub, "", nil, clock)

	n.FeedInvalid(context.Background(), rejected)

	if len(pub.msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.msgs))
	}
	if pub.msgs[0].subject != DefaultSubject {
		t.Errorf("subject = %q, want %q", pub.msgs[0].subject, DefaultSubject)
	}

	var event Event
	if err := json.Unmarshal(pub.msgs[0].data, &event); err != nil {
		t.Fatalf("decoding event: %v", err)
	}
	if _, err := uuid.Parse(event.ID); err != nil {
		t.Errorf("event id %q is not a uuid: %v", event.ID, err)
	}
	if event.Type != EventInvalidFeed || event.BusinessUnitID != 13 || event.Line != 42 || event.Message != rejected.Message {
		t.Errorf("event = %+v", event)
	}
	if !event.OccurredAt.Equal(clock.Now()) {
		t.Errorf("OccurredAt = %v, want %v", event.OccurredAt, clock.Now())
	}
}

func TestNATSNotifier_PublishFailureIsLogged(t *testing.T) {
	logger := &errorCounter{}
	n := NewNATSNotifier(&fakePublisher{err: errors.New("connection closed")}, "feeds.bad", logger, nil)

	n.FeedInvalid(context.Background(), rejected)

	if logger.errors != 1 {
		t.Errorf("logged %d errors, want 1", logger.errors)
	}
}

func TestMulti(t *testing.T) {
	first, second := &testutil.RecordingNotifier{}, &testutil.RecordingNotifier{}
	Multi{first, second}.FeedInvalid(context.Background(), rejected)

	for i, r := range []*testutil.RecordingNotifier{first, second} {
		if got := r.Events(); len(got) != 1 || got[0] != rejected {
			t.Errorf("observer %d saw %v", i, got)
		}
	}
}

func TestLogNotifier(t *testing.T) {
	logger := &errorCounter{}
	NewLogNotifier(logger).FeedInvalid(context.Background(), rejected)
	if logger.errors != 1 {
		t.Errorf("logged %d errors, want 1", logger.errors)
	}

	// A nil logger must not panic.
	NewLogNotifier(nil).FeedInvalid(context.Background(), rejected)
}

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.NotifierConfig
		wantErr bool
	}{
		{name: "default is log", cfg: config.NotifierConfig{}},
		{name: "log", cfg: config.NotifierConfig{Type: "log"}},
		{name: "nats without url", cfg: config.NotifierConfig{Type: "nats"}, wantErr: true},
		{name: "unknown", cfg: config.NotifierConfig{Type: "carrier-pigeon"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, closeFn, err := NewFromConfig(tt.cfg, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer closeFn()
			if _, ok := obs.(*LogNotifier); !ok {
				t.Errorf("NewFromConfig() = %T, want *LogNotifier", obs)
			}
		})
	}
}
