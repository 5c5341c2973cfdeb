package jobsync

import (
	"context"
	"fmt"

	"jobsync/internal/chunk"
	"jobsync/internal/model"
)

// IndexOptions controls a search sync run.
type IndexOptions struct {
	// Download fetches a fresh feed before parsing.
	Download bool

	// Force re-adds every feed document. When false only documents that
	// are not indexed yet are added.
	Force bool

	// SetTitle overwrites the business unit title with the feed's company
	// name even when a title is already set.
	SetTitle bool
}

// UpdateIndex reconciles the search index with the business unit's feed and
// returns the number of documents added and deleted. A feed that fails
// validation leaves the index untouched and yields (0, 0).
func (s *Service) UpdateIndex(ctx context.Context, buid int64, opts IndexOptions) (added, deleted int, err error) {
	started := s.clock.Now()
	defer func() { s.metrics.Observe("update_index", s.clock.Now().Sub(started)) }()

	bu, err := s.businessUnit(ctx, buid)
	if err != nil {
		return 0, 0, err
	}

	parsed, path, err := s.loadFeed(ctx, buid, opts.Download)
	if err != nil {
		return 0, 0, err
	}
	if parsed.Invalid != nil {
		return 0, 0, nil
	}

	if bu.Title == "" || opts.SetTitle {
		bu.Title = parsed.Company
		if err := s.store.SaveBusinessUnit(ctx, bu); err != nil {
			return 0, 0, fmt.Errorf("setting business unit title: %w", err)
		}
		s.logger.Info("business unit title set", "buid", buid, "title", bu.Title)
	}

	docs := make([]model.SearchDocument, 0, len(parsed.Jobs))
	for _, job := range parsed.Jobs {
		if job.UID == 0 {
			s.logger.Warn("skipping job without uid", "buid", buid, "title", job.Title)
			continue
		}
		doc, err := s.projector.Document(ctx, ownedBy(job, buid), parsed.Company)
		if err != nil {
			return 0, 0, fmt.Errorf("projecting job %d: %w", job.UID, err)
		}
		docs = append(docs, doc)
	}

	current, err := s.indexedUIDs(ctx, buid)
	if err != nil {
		return 0, 0, err
	}
	plan := PlanIndex(current, docs, opts.Force)

	if err := s.applyIndexPlan(ctx, plan); err != nil {
		return 0, 0, err
	}
	s.discardFeed(path)

	s.metrics.Synced("index", len(plan.ToAdd), len(plan.ToDelete), 0)
	s.logger.Info("index synced", "buid", buid, "added", len(plan.ToAdd), "deleted", len(plan.ToDelete), "force", opts.Force)
	return len(plan.ToAdd), len(plan.ToDelete), nil
}

// indexedUIDs pages through the index: one count, then uid-only windows
// small enough not to time out on large catalogs.
func (s *Service) indexedUIDs(ctx context.Context, buid int64) ([]int64, error) {
	count, err := s.index.Count(ctx, buid)
	if err != nil {
		return nil, fmt.Errorf("counting indexed documents: %w", err)
	}

	uids := make([]int64, 0, count)
	for r := range chunk.Ranges(count, s.settings.PageSize) {
		page, err := s.index.UIDs(ctx, buid, r.Start, r.Len())
		if err != nil {
			return nil, fmt.Errorf("fetching indexed uids %s: %w", r, err)
		}
		uids = append(uids, page...)
	}
	return uids, nil
}

// applyIndexPlan issues adds and deletes in positionally paired chunks.
func (s *Service) applyIndexPlan(ctx context.Context, plan IndexPlan) error {
	adds := chunk.Collect(plan.ToAdd, s.settings.ChunkSize)
	deletes := chunk.Collect(plan.ToDelete, s.settings.ChunkSize)

	for docs, uids := range chunk.Zip(adds, deletes) {
		if len(docs) > 0 {
			if err := s.index.Add(ctx, docs, s.settings.CommitWithin); err != nil {
				return fmt.Errorf("adding documents: %w", err)
			}
		}
		if len(uids) > 0 {
			if err := s.index.DeleteUIDs(ctx, uids); err != nil {
				return fmt.Errorf("deleting documents: %w", err)
			}
		}
	}
	return nil
}

// ClearIndex deletes every indexed document of the business unit.
func (s *Service) ClearIndex(ctx context.Context, buid int64) error {
	if err := s.index.DeleteBusinessUnit(ctx, buid); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	s.logger.Info("index cleared", "buid", buid)
	return nil
}
