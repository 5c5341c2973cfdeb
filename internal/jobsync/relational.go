package jobsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobsync/internal/feed"
	"jobsync/internal/model"
	"jobsync/internal/projector"
)

// RefreshOptions controls a relational sync run.
type RefreshOptions struct {
	// Download fetches a fresh feed before parsing.
	Download bool

	// UpdateAll rewrites every feed record. When false only records that
	// are not stored yet are written, and existing rows are never touched.
	UpdateAll bool
}

// RefreshResult summarizes a relational sync run.
type RefreshResult struct {
	Saved   []int64
	Failed  []RowError
	Deleted int64

	// Invalid is set when the feed failed validation; nothing else ran.
	Invalid *feed.ValidationError
}

// RefreshJobs reconciles the relational store with the business unit's feed.
// The business unit's bookkeeping is updated even if applying the changes
// fails part way.
func (s *Service) RefreshJobs(ctx context.Context, buid int64, opts RefreshOptions) (*RefreshResult, error) {
	started := s.clock.Now()
	defer func() { s.metrics.Observe("refresh_jobs", s.clock.Now().Sub(started)) }()

	bu, err := s.businessUnit(ctx, buid)
	if err != nil {
		return nil, err
	}

	parsed, path, err := s.loadFeed(ctx, buid, opts.Download)
	if err != nil {
		return nil, err
	}

	result := &RefreshResult{}
	if parsed.Invalid != nil {
		result.Invalid = parsed.Invalid
		if err := s.recordCrawl(ctx, bu, parsed.CrawledAt, false); err != nil {
			return result, err
		}
		return result, nil
	}

	s.discardFeed(path)

	current, err := s.store.UIDs(ctx, buid)
	if err != nil {
		return nil, fmt.Errorf("listing stored jobs: %w", err)
	}
	plan := PlanRelational(current, parsed.Jobs, opts.UpdateAll)

	var errs []error
	if len(plan.ToSave) > 0 {
		listings := make([]model.JobListing, 0, len(plan.ToSave))
		for _, job := range plan.ToSave {
			listings = append(listings, projector.Listing(ownedBy(job, buid)))
		}

		saved, err := s.store.SaveJobs(ctx, listings)
		if err != nil {
			errs = append(errs, fmt.Errorf("saving jobs: %w", err))
		} else {
			result.Saved = saved.Saved
			result.Failed = saved.Failed
			for _, f := range saved.Failed {
				s.logger.Warn("job not saved", "buid", buid, "uid", f.UID, "error", f.Err)
			}
		}
	}

	if len(plan.ToDelete) > 0 {
		n, err := s.store.DeleteJobs(ctx, plan.ToDelete)
		if err != nil {
			errs = append(errs, fmt.Errorf("deleting jobs: %w", err))
		}
		result.Deleted = n
	}

	changed := len(plan.ToSave) > 0 || len(plan.ToDelete) > 0
	if err := s.recordCrawl(ctx, bu, parsed.CrawledAt, changed); err != nil {
		errs = append(errs, err)
	}

	s.metrics.Synced("database", len(result.Saved), int(result.Deleted), len(result.Failed))
	s.logger.Info("database synced", "buid", buid, "saved", len(result.Saved), "failed", len(result.Failed), "deleted", result.Deleted, "update_all", opts.UpdateAll)
	return result, errors.Join(errs...)
}

// ClearJobs deletes every stored job of the business unit, then saves the
// business unit so its job count is recomputed.
func (s *Service) ClearJobs(ctx context.Context, buid int64) error {
	n, err := s.store.DeleteJobsForBusinessUnit(ctx, buid)
	if err != nil {
		return fmt.Errorf("deleting jobs for business unit: %w", err)
	}

	bu, err := s.businessUnit(ctx, buid)
	if err != nil {
		return err
	}
	if err := s.store.SaveBusinessUnit(ctx, bu); err != nil {
		return fmt.Errorf("saving business unit: %w", err)
	}

	s.logger.Info("database cleared", "buid", buid, "deleted", n)
	return nil
}

// recordCrawl stamps the crawl time and, when changed is set, the update
// time on bu and saves it.
func (s *Service) recordCrawl(ctx context.Context, bu *model.BusinessUnit, crawledAt *time.Time, changed bool) error {
	if crawledAt != nil {
		bu.DateCrawled = crawledAt
	}
	if changed {
		now := s.clock.Now().UTC()
		bu.DateUpdated = &now
	}
	if err := s.store.SaveBusinessUnit(ctx, bu); err != nil {
		return fmt.Errorf("updating business unit bookkeeping: %w", err)
	}
	return nil
}
