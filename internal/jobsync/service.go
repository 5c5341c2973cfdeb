package jobsync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"jobsync/internal/feed"
	"jobsync/internal/model"
	"jobsync/internal/projector"
)

// Settings holds the operational limits of a sync run.
type Settings struct {
	PageSize     int           // uids fetched per index page
	ChunkSize    int           // documents or uids per index request
	CommitWithin time.Duration // deferred commit interval for index adds
}

// DefaultSettings returns the limits the search backend is tuned for.
func DefaultSettings() Settings {
	return Settings{
		PageSize:     1024,
		ChunkSize:    4096,
		CommitWithin: 30 * time.Second,
	}
}

// Deps are the collaborators of a Service. Logger, Clock and Metrics may be
// left nil.
type Deps struct {
	Store     JobStore
	Index     SearchIndex
	Source    FeedSource
	Parser    feed.Parser
	Projector *projector.Projector
	Logger    Logger
	Clock     Clock
	Metrics   Metrics
}

// Service reconciles the relational store and the search index of a business
// unit with its job feed. Each run covers one business unit and one store.
type Service struct {
	store     JobStore
	index     SearchIndex
	source    FeedSource
	parser    feed.Parser
	projector *projector.Projector
	logger    Logger
	clock     Clock
	metrics   Metrics
	settings  Settings
}

// NewService creates a Service. Zero-valued settings fall back to
// DefaultSettings.
func NewService(deps Deps, settings Settings) *Service {
	defaults := DefaultSettings()
	if settings.PageSize <= 0 {
		settings.PageSize = defaults.PageSize
	}
	if settings.ChunkSize <= 0 {
		settings.ChunkSize = defaults.ChunkSize
	}
	if settings.CommitWithin <= 0 {
		settings.CommitWithin = defaults.CommitWithin
	}

	s := &Service{
		store:     deps.Store,
		index:     deps.Index,
		source:    deps.Source,
		parser:    deps.Parser,
		projector: deps.Projector,
		logger:    deps.Logger,
		clock:     deps.Clock,
		metrics:   deps.Metrics,
		settings:  settings,
	}
	if s.logger == nil {
		s.logger = NewNopLogger()
	}
	if s.clock == nil {
		s.clock = RealClock{}
	}
	if s.metrics == nil {
		s.metrics = NopMetrics{}
	}
	if s.projector == nil {
		s.projector = projector.New(nil, nil)
	}
	return s
}

// CreateBusinessUnit registers a business unit. If it already exists this
// is a no-op and the stored unit is returned.
func (s *Service) CreateBusinessUnit(ctx context.Context, buid int64, title string) (*model.BusinessUnit, error) {
	existing, err := s.store.GetBusinessUnit(ctx, buid)
	if err != nil {
		return nil, fmt.Errorf("checking for existing business unit: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	bu := &model.BusinessUnit{ID: buid, Title: title}
	if err := s.store.SaveBusinessUnit(ctx, bu); err != nil {
		return nil, fmt.Errorf("creating business unit: %w", err)
	}
	s.logger.Info("business unit created", "buid", buid, "title", title)
	return bu, nil
}

// Clear removes every trace of the business unit's jobs from both stores.
// The two deletes are independent; a failure in one does not skip the other.
func (s *Service) Clear(ctx context.Context, buid int64) error {
	return errors.Join(s.ClearIndex(ctx, buid), s.ClearJobs(ctx, buid))
}

func (s *Service) businessUnit(ctx context.Context, buid int64) (*model.BusinessUnit, error) {
	bu, err := s.store.GetBusinessUnit(ctx, buid)
	if err != nil {
		return nil, fmt.Errorf("loading business unit: %w", err)
	}
	if bu == nil {
		return nil, fmt.Errorf("%w: %d", ErrBusinessUnitNotFound, buid)
	}
	return bu, nil
}

// loadFeed fetches (when download is set) and parses the feed of buid.
// It returns the parsed feed and the local path it was read from.
func (s *Service) loadFeed(ctx context.Context, buid int64, download bool) (*feed.Feed, string, error) {
	path := s.source.Path(buid)
	if download {
		fetched, err := s.source.Fetch(ctx, buid)
		if err != nil {
			return nil, "", fmt.Errorf("downloading feed: %w", err)
		}
		path = fetched
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening feed: %w", err)
	}
	defer f.Close()

	parsed, err := s.parser.Parse(ctx, f)
	if err != nil {
		return nil, "", fmt.Errorf("parsing feed %s: %w", path, err)
	}

	if parsed.Invalid != nil {
		s.metrics.InvalidFeed()
		s.logger.Warn("feed failed validation", "buid", buid, "line", parsed.Invalid.Line, "error", parsed.Invalid.Message)
	} else {
		s.logger.Debug("feed parsed", "buid", buid, "job_source_id", parsed.BusinessUnitID, "company", parsed.Company, "jobs", len(parsed.Jobs))
	}
	if parsed.BusinessUnitID != 0 && parsed.BusinessUnitID != buid {
		s.logger.Warn("feed owner differs from business unit", "buid", buid, "job_source_id", parsed.BusinessUnitID)
	}
	return parsed, path, nil
}

// discardFeed removes a consumed feed document.
func (s *Service) discardFeed(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("removing feed file", "path", path, "error", err)
	}
}

// ownedBy assigns job to the business unit being synced, whatever owner id
// the feed carried.
func ownedBy(job model.JobRecord, buid int64) model.JobRecord {
	job.BusinessUnitID = buid
	return job
}

// ReprocessResult summarizes a Reprocess run.
type ReprocessResult struct {
	Refresh *RefreshResult
	Added   int
	Deleted int
}

// Reprocess re-syncs both stores of buid from a freshly downloaded feed,
// rewriting every stored row and re-adding every indexed document. The index
// pass still runs when the relational pass fails part way.
func (s *Service) Reprocess(ctx context.Context, buid int64) (*ReprocessResult, error) {
	refreshed, refreshErr := s.RefreshJobs(ctx, buid, RefreshOptions{Download: true, UpdateAll: true})
	if errors.Is(refreshErr, ErrBusinessUnitNotFound) {
		return nil, refreshErr
	}

	res := &ReprocessResult{Refresh: refreshed}
	var indexErr error
	res.Added, res.Deleted, indexErr = s.UpdateIndex(ctx, buid, IndexOptions{Download: true, Force: true})
	if refreshErr != nil {
		refreshErr = fmt.Errorf("refreshing jobs: %w", refreshErr)
	}
	if indexErr != nil {
		indexErr = fmt.Errorf("updating index: %w", indexErr)
	}
	return res, errors.Join(refreshErr, indexErr)
}
