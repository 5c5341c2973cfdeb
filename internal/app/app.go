package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"jobsync/internal/config"
	"jobsync/internal/database"
	"jobsync/internal/feed"
	"jobsync/internal/feedapi"
	"jobsync/internal/index"
	"jobsync/internal/jobsync"
	"jobsync/internal/metrics"
	"jobsync/internal/model"
	"jobsync/internal/notify"
	"jobsync/internal/projector"
	"jobsync/internal/scheduler"
	"jobsync/internal/source"
	"jobsync/internal/taxonomy"
)

// JobSyncApp is the application layer between the CLI and jobsync.Service.
// It constructs all dependencies from config, records mutating commands as
// sync runs, and releases every backend on Close.
type JobSyncApp struct {
	cfg     *config.Config
	store   *database.SQLStore
	feeds   *feedapi.Client
	metrics *metrics.Recorder
	service *jobsync.Service
	logger  jobsync.Logger
	run     *SyncRun
	closers []func() error
	logFile *os.File
	closed  bool
}

// NewJobSyncApp creates a fully wired JobSyncApp from the given config.
// operation identifies the CLI command being run (e.g. "RefreshJobs") and
// parameters its arguments. The caller must call Close when done.
func NewJobSyncApp(ctx context.Context, cfg *config.Config, operation, parameters string) (*JobSyncApp, error) {
	runID := uuid.NewString()
	slogger, logFile, err := newLogger(cfg.LogDir, runID, ParseLevel(cfg.LogLevel), os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	a := &JobSyncApp{
		cfg:     cfg,
		logger:  logger,
		run:     NewSyncRun(operation, parameters),
		logFile: logFile,
	}
	if err := a.wire(ctx); err != nil {
		a.release()
		return nil, err
	}
	logger.Debug("app ready", "operation", operation, "database", a.store.Path())
	return a, nil
}

func (a *JobSyncApp) wire(ctx context.Context) error {
	cfg := a.cfg

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, err := database.NewStoreFromConfig(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	if err := store.CheckMigrations(); err != nil {
		return fmt.Errorf("database schema out of date: %w", err)
	}

	idx, err := index.NewIndexFromConfig(cfg.Index)
	if err != nil {
		return fmt.Errorf("creating search index: %w", err)
	}

	tax, closeTax, err := taxonomy.NewFromConfig(ctx, cfg.Taxonomy, store, a.logger)
	if err != nil {
		return fmt.Errorf("creating taxonomy: %w", err)
	}
	a.closers = append(a.closers, closeTax)

	src, err := source.NewSourceFromConfig(ctx, cfg.Feed, cfg.DataDir, a.logger)
	if err != nil {
		return fmt.Errorf("creating feed source: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("creating feed directory: %w", err)
	}

	observer, closeNotifier, err := notify.NewFromConfig(cfg.Notifier, a.logger)
	if err != nil {
		return fmt.Errorf("creating notifier: %w", err)
	}
	a.closers = append(a.closers, func() error { closeNotifier(); return nil })

	parser, err := feed.NewParser(feed.Dialect(cfg.Dialect), feed.Options{
		NodeTag:  cfg.NodeTag,
		Location: loc,
		Observer: observer,
	})
	if err != nil {
		return fmt.Errorf("creating feed parser: %w", err)
	}

	a.metrics = metrics.NewRecorder(true)
	a.feeds = feedapi.NewClient(cfg.Feed.BaseURL, cfg.Feed.APIKey, &http.Client{Timeout: 5 * time.Minute}, a.logger)
	a.service = jobsync.NewService(jobsync.Deps{
		Store:     store,
		Index:     idx,
		Source:    src,
		Parser:    parser,
		Projector: projector.New(tax, nil),
		Logger:    a.logger,
		Clock:     jobsync.RealClock{},
		Metrics:   a.metrics,
	}, jobsync.Settings{
		PageSize:     cfg.Index.PageSize,
		ChunkSize:    cfg.Index.ChunkSize,
		CommitWithin: cfg.Index.CommitWithin(),
	})
	return nil
}

// MigrateDatabase applies every pending migration to the configured database.
func MigrateDatabase(ctx context.Context, cfg config.DatabaseConfig) error {
	store, err := database.NewStoreFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

// persistRun saves the sync run to the database, giving it an auto-increment ID.
// This should only be called for mutating commands.
func (a *JobSyncApp) persistRun(ctx context.Context) error {
	if a.run.Persisted() {
		return nil
	}
	r, err := a.store.CreateSyncRun(ctx, a.run.Operation, a.run.Parameters)
	if err != nil {
		return fmt.Errorf("persisting sync run: %w", err)
	}
	a.run.ID = r.ID
	return nil
}

// CreateBusinessUnit registers a business unit, returning the stored one if
// it already exists.
func (a *JobSyncApp) CreateBusinessUnit(ctx context.Context, buid int64, title string) (*model.BusinessUnit, error) {
	if err := a.persistRun(ctx); err != nil {
		return nil, err
	}
	bu, err := a.service.CreateBusinessUnit(ctx, buid, title)
	a.run.Fail(err)
	return bu, err
}

// RefreshJobs syncs the relational store of buid with its feed.
func (a *JobSyncApp) RefreshJobs(ctx context.Context, buid int64, opts jobsync.RefreshOptions) (*jobsync.RefreshResult, error) {
	if err := a.persistRun(ctx); err != nil {
		return nil, err
	}
	res, err := a.service.RefreshJobs(ctx, buid, opts)
	a.run.Fail(err)
	return res, err
}

// UpdateIndex syncs the search index of buid with its feed.
func (a *JobSyncApp) UpdateIndex(ctx context.Context, buid int64, opts jobsync.IndexOptions) (added, deleted int, err error) {
	if err := a.persistRun(ctx); err != nil {
		return 0, 0, err
	}
	added, deleted, err = a.service.UpdateIndex(ctx, buid, opts)
	a.run.Fail(err)
	return added, deleted, err
}

// Reprocess re-syncs both stores of buid from a fresh download.
func (a *JobSyncApp) Reprocess(ctx context.Context, buid int64) (*jobsync.ReprocessResult, error) {
	if err := a.persistRun(ctx); err != nil {
		return nil, err
	}
	res, err := a.service.Reprocess(ctx, buid)
	a.run.Fail(err)
	return res, err
}

// Clear removes every job of buid from both stores.
func (a *JobSyncApp) Clear(ctx context.Context, buid int64) error {
	if err := a.persistRun(ctx); err != nil {
		return err
	}
	err := a.service.Clear(ctx, buid)
	a.run.Fail(err)
	return err
}

// FeedTask asks the feed-management service to run task for buid.
func (a *JobSyncApp) FeedTask(ctx context.Context, buid int64, task feedapi.Task) (feedapi.Result, error) {
	switch task {
	case feedapi.TaskCreate:
		return a.feeds.ForceCreate(ctx, buid)
	case feedapi.TaskSchedule:
		return a.feeds.Schedule(ctx, buid)
	case feedapi.TaskUnschedule:
		return a.feeds.Unschedule(ctx, buid)
	default:
		return feedapi.Result{}, fmt.Errorf("unknown feed task %q", task)
	}
}

// GetHistory returns the most recent sync runs.
func (a *JobSyncApp) GetHistory(ctx context.Context, limit int) ([]*model.SyncRun, error) {
	return a.store.ListSyncRuns(ctx, limit)
}

// Serve runs the scheduler over the configured business units and the
// metrics server until ctx is cancelled.
func (a *JobSyncApp) Serve(ctx context.Context) error {
	sched := scheduler.New(a.cfg.Scheduler.Spec, a.cfg.Scheduler.BusinessUnits, a.service, a.logger)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	srv := NewServer(a.cfg.Metrics.Addr, a.metrics.Handler(), a.logger)
	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("stopping metrics server: %w", err)
	}
	return <-errc
}

// Close finalizes the sync run and closes all resources.
// For persisted runs the status is written back before the database closes.
func (a *JobSyncApp) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	var firstErr error
	if a.run.Persisted() {
		if err := a.store.FinishSyncRun(context.Background(), a.run.ID, a.run.Status); err != nil {
			firstErr = fmt.Errorf("finishing sync run: %w", err)
		}
	}
	if err := a.release(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// release closes the backends in reverse order of creation.
func (a *JobSyncApp) release() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
	return errors.Join(errs...)
}
