package database

import (
	"context"
	"reflect"
	"testing"
	"time"

	"jobsync/internal/model"
)

// newTestStore creates a migrated in-memory store.
func newTestStore(t *testing.T) *SQLStore {
	t.Helper()

	s, err := NewSQLiteStore(MemoryPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return s
}

func seedBusinessUnit(t *testing.T, s *SQLStore, id int64) {
	t.Helper()
	if err := s.SaveBusinessUnit(context.Background(), &model.BusinessUnit{ID: id, Title: "Acme Widgets"}); err != nil {
		t.Fatalf("SaveBusinessUnit() error = %v", err)
	}
}

func listing(uid, buid int64, title string) model.JobListing {
	created := time.Date(2012, 5, 10, 9, 15, 0, 0, time.UTC)
	updated := time.Date(2012, 5, 16, 16, 30, 10, 0, time.UTC)
	return model.JobListing{
		JobRecord: model.JobRecord{
			UID:            uid,
			BusinessUnitID: buid,
			Title:          title,
			City:           "Indianapolis",
			StateShort:     "IN",
			Link:           "http://example.com/jobs",
			OnetCode:       "151021",
			DateNew:        &created,
			DateUpdated:    &updated,
		},
		TitleSlug: "software-engineer",
		CitySlug:  "indianapolis",
		Location:  "Indianapolis, IN",
	}
}

func TestSQLStore_BusinessUnit(t *testing.T) {
	ctx := context.Background()

	t.Run("returns nil when not found", func(t *testing.T) {
		s := newTestStore(t)

		bu, err := s.GetBusinessUnit(ctx, 404)
		if err != nil {
			t.Fatalf("GetBusinessUnit() error = %v", err)
		}
		if bu != nil {
			t.Errorf("GetBusinessUnit() = %+v, want nil", bu)
		}
	})

	t.Run("save recomputes slug and job count", func(t *testing.T) {
		s := newTestStore(t)
		seedBusinessUnit(t, s, 13)

		if _, err := s.SaveJobs(ctx, []model.JobListing{listing(1, 13, "Cook"), listing(2, 13, "Chef")}); err != nil {
			t.Fatalf("SaveJobs() error = %v", err)
		}

		crawled := time.Date(2012, 5, 17, 12, 1, 5, 0, time.UTC)
		bu := &model.BusinessUnit{ID: 13, Title: "Acme & Sons", DateCrawled: &crawled, AssociatedJobs: 99}
		if err := s.SaveBusinessUnit(ctx, bu); err != nil {
			t.Fatalf("SaveBusinessUnit() error = %v", err)
		}
		if bu.AssociatedJobs != 2 {
			t.Errorf("AssociatedJobs = %d, want 2", bu.AssociatedJobs)
		}

		got, err := s.GetBusinessUnit(ctx, 13)
		if err != nil || got == nil {
			t.Fatalf("GetBusinessUnit() = %v, %v", got, err)
		}
		if got.TitleSlug != "acme-sons" {
			t.Errorf("TitleSlug = %q, want acme-sons", got.TitleSlug)
		}
		if got.AssociatedJobs != 2 {
			t.Errorf("stored AssociatedJobs = %d, want 2", got.AssociatedJobs)
		}
		if got.DateCrawled == nil || !got.DateCrawled.Equal(crawled) {
			t.Errorf("DateCrawled = %v, want %v", got.DateCrawled, crawled)
		}
		if got.DateUpdated != nil {
			t.Errorf("DateUpdated = %v, want nil", got.DateUpdated)
		}
	})
}

func TestSQLStore_SaveJobs(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts then updates in place", func(t *testing.T) {
		s := newTestStore(t)
		seedBusinessUnit(t, s, 13)

		if _, err := s.SaveJobs(ctx, []model.JobListing{listing(1001, 13, "Cook")}); err != nil {
			t.Fatalf("SaveJobs() error = %v", err)
		}
		first, err := s.GetJob(ctx, 1001)
		if err != nil || first == nil {
			t.Fatalf("GetJob() = %v, %v", first, err)
		}

		res, err := s.SaveJobs(ctx, []model.JobListing{listing(1001, 13, "Head Cook")})
		if err != nil {
			t.Fatalf("SaveJobs() error = %v", err)
		}
		if !reflect.DeepEqual(res.Saved, []int64{1001}) {
			t.Errorf("Saved = %v, want [1001]", res.Saved)
		}

		second, err := s.GetJob(ctx, 1001)
		if err != nil || second == nil {
			t.Fatalf("GetJob() = %v, %v", second, err)
		}
		if second.ID != first.ID {
			t.Errorf("ID changed from %d to %d, want update in place", first.ID, second.ID)
		}
		if second.Title != "Head Cook" {
			t.Errorf("Title = %q, want Head Cook", second.Title)
		}
		if second.Location != "Indianapolis, IN" || second.OnetCode != "151021" {
			t.Errorf("derived fields = %q/%q", second.Location, second.OnetCode)
		}
		if second.DateUpdated == nil || second.DateUpdated.Hour() != 16 {
			t.Errorf("DateUpdated = %v", second.DateUpdated)
		}
	})

	t.Run("failed row does not abort the batch", func(t *testing.T) {
		s := newTestStore(t)
		seedBusinessUnit(t, s, 13)

		orphan := listing(2, 999, "Orphan") // no such business unit
		undated := listing(3, 13, "Undated")
		undated.DateNew = nil

		res, err := s.SaveJobs(ctx, []model.JobListing{listing(1, 13, "Cook"), orphan, undated, listing(4, 13, "Chef")})
		if err != nil {
			t.Fatalf("SaveJobs() error = %v", err)
		}
		if !reflect.DeepEqual(res.Saved, []int64{1, 4}) {
			t.Errorf("Saved = %v, want [1 4]", res.Saved)
		}
		if len(res.Failed) != 2 || res.Failed[0].UID != 2 || res.Failed[1].UID != 3 {
			t.Errorf("Failed = %v, want uids 2 and 3", res.Failed)
		}

		uids, err := s.UIDs(ctx, 13)
		if err != nil {
			t.Fatalf("UIDs() error = %v", err)
		}
		if !reflect.DeepEqual(uids, []int64{1, 4}) {
			t.Errorf("UIDs() = %v, want [1 4]", uids)
		}
	})
}

func TestSQLStore_DeleteJobs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedBusinessUnit(t, s, 13)
	seedBusinessUnit(t, s, 14)

	var batch []model.JobListing
	for uid := int64(1); uid <= deleteBatch+20; uid++ {
		batch = append(batch, listing(uid, 13, "Cook"))
	}
	batch = append(batch, listing(9001, 14, "Chef"))
	if _, err := s.SaveJobs(ctx, batch); err != nil {
		t.Fatalf("SaveJobs() error = %v", err)
	}

	var doomed []int64
	for uid := int64(1); uid <= deleteBatch+10; uid++ {
		doomed = append(doomed, uid)
	}
	doomed = append(doomed, 777777) // not stored

	n, err := s.DeleteJobs(ctx, doomed)
	if err != nil {
		t.Fatalf("DeleteJobs() error = %v", err)
	}
	if n != deleteBatch+10 {
		t.Errorf("DeleteJobs() = %d, want %d", n, deleteBatch+10)
	}
	if count, _ := s.CountJobs(ctx, 13); count != 10 {
		t.Errorf("CountJobs(13) = %d, want 10", count)
	}

	n, err = s.DeleteJobsForBusinessUnit(ctx, 13)
	if err != nil {
		t.Fatalf("DeleteJobsForBusinessUnit() error = %v", err)
	}
	if n != 10 {
		t.Errorf("DeleteJobsForBusinessUnit() = %d, want 10", n)
	}
	if count, _ := s.CountJobs(ctx, 14); count != 1 {
		t.Errorf("CountJobs(14) = %d, want 1", count)
	}

	if n, err := s.DeleteJobs(ctx, nil); n != 0 || err != nil {
		t.Errorf("DeleteJobs(nil) = %d, %v", n, err)
	}
}

func TestSQLStore_CodesFor(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	entries := []struct {
		entry model.TaxonomyEntry
		onets []string
	}{
		{model.TaxonomyEntry{ID: 9, Code: "IT", Title: "Information Systems Technician", Branch: "navy"}, []string{"151021"}},
		{model.TaxonomyEntry{ID: 4, Code: "25B", Title: "Information Technology Specialist", Branch: "army"}, []string{"151021", "151041"}},
	}
	for _, e := range entries {
		if err := s.SaveTaxonomyEntry(ctx, e.entry, e.onets...); err != nil {
			t.Fatalf("SaveTaxonomyEntry() error = %v", err)
		}
	}
	// Saving twice must not duplicate links.
	if err := s.SaveTaxonomyEntry(ctx, entries[1].entry, "151021"); err != nil {
		t.Fatalf("SaveTaxonomyEntry() again error = %v", err)
	}

	got, err := s.CodesFor(ctx, "151021")
	if err != nil {
		t.Fatalf("CodesFor() error = %v", err)
	}
	want := []model.TaxonomyEntry{entries[1].entry, entries[0].entry}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CodesFor() = %+v, want %+v", got, want)
	}

	none, err := s.CodesFor(ctx, "999999")
	if err != nil || len(none) != 0 {
		t.Errorf("CodesFor(unknown) = %v, %v", none, err)
	}
}

func TestSQLStore_SyncRuns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.CreateSyncRun(ctx, "refresh", "buid=13")
	if err != nil {
		t.Fatalf("CreateSyncRun() error = %v", err)
	}
	second, err := s.CreateSyncRun(ctx, "index", "buid=13")
	if err != nil {
		t.Fatalf("CreateSyncRun() error = %v", err)
	}
	if err := s.FinishSyncRun(ctx, first.ID, "success"); err != nil {
		t.Fatalf("FinishSyncRun() error = %v", err)
	}

	runs, err := s.ListSyncRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListSyncRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListSyncRuns() returned %d runs, want 2", len(runs))
	}
	if runs[0].ID != second.ID || runs[0].FinishedAt != nil || runs[0].Status != "running" {
		t.Errorf("newest run = %+v", runs[0])
	}
	if runs[1].Status != "success" || runs[1].FinishedAt == nil {
		t.Errorf("finished run = %+v", runs[1])
	}
}

func TestPlaceholders(t *testing.T) {
	if got := placeholders(1, 3); got != "$1, $2, $3" {
		t.Errorf("placeholders(1, 3) = %q", got)
	}
	if got := placeholders(4, 1); got != "$4" {
		t.Errorf("placeholders(4, 1) = %q", got)
	}
}
