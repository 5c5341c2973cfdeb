// Package scheduler wires up the cron job that periodically re-syncs the
// configured business units.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"jobsync/internal/jobsync"
)

// Reprocessor re-syncs both stores of one business unit.
type Reprocessor interface {
	Reprocess(ctx context.Context, buid int64) (*jobsync.ReprocessResult, error)
}

// Scheduler wraps robfig/cron and manages the sync loop. A tick that fires
// while the previous cycle is still running is skipped.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	units  []int64
	sync   Reprocessor
	logger jobsync.Logger
}

// New creates a Scheduler that runs every business unit in units on spec,
// a cron expression or descriptor such as "@every 1h".
func New(spec string, units []int64, sync Reprocessor, logger jobsync.Logger) *Scheduler {
	if logger == nil {
		logger = jobsync.NewNopLogger()
	}
	cl := cronLogger{l: logger}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		spec:   spec,
		units:  append([]int64(nil), units...),
		sync:   sync,
		logger: logger,
	}
}

// Start registers the job and starts the scheduler. The first cycle runs on
// the first tick, not immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.units) == 0 {
		return fmt.Errorf("no business units scheduled")
	}
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("scheduling %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.spec, "business_units", len(s.units))
	return nil
}

// Stop stops the scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunOnce re-syncs every scheduled business unit in order. A failing unit
// does not stop the cycle; the joined errors are returned.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.logger.Info("sync cycle started", "business_units", len(s.units))

	var errs []error
	for _, buid := range s.units {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := s.sync.Reprocess(ctx, buid)
		if err != nil {
			s.logger.Error("sync failed", "buid", buid, "error", err)
			errs = append(errs, fmt.Errorf("business unit %d: %w", buid, err))
			continue
		}
		if res.Refresh != nil && res.Refresh.Invalid != nil {
			s.logger.Warn("feed rejected", "buid", buid, "line", res.Refresh.Invalid.Line)
			continue
		}
		s.logger.Info("business unit synced", "buid", buid, "indexed", res.Added, "unindexed", res.Deleted)
	}

	s.logger.Info("sync cycle complete", "failed", len(errs))
	return errors.Join(errs...)
}

// cronLogger adapts jobsync.Logger to cron.Logger.
type cronLogger struct {
	l jobsync.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

var _ cron.Logger = cronLogger{}
