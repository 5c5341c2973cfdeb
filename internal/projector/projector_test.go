package projector

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"jobsync/internal/model"
)

type stubTaxonomy struct {
	entries map[string][]model.TaxonomyEntry
	err     error
	calls   int
}

func (s *stubTaxonomy) CodesFor(_ context.Context, onet string) ([]model.TaxonomyEntry, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.entries[onet], nil
}

// edgeRand returns either the lowest or the highest value in range.
type edgeRand struct{ high bool }

func (r edgeRand) Int64N(n int64) int64 {
	if r.high {
		return n - 1
	}
	return 0
}

func sampleJob() model.JobRecord {
	updated := time.Date(2012, 5, 16, 16, 30, 10, 500_000_000, time.UTC)
	created := time.Date(2012, 5, 10, 9, 15, 0, 0, time.UTC)
	return model.JobRecord{
		UID:            1001,
		BusinessUnitID: 13,
		Title:          "Software Engineer",
		Description:    "Build things.",
		City:           "Indianapolis",
		State:          "Indiana",
		StateShort:     "IN",
		Country:        "United States",
		CountryShort:   "USA",
		Zipcode:        "46204",
		ReqID:          "REQ-1",
		HitKey:         "ABC1001",
		Link:           "http://example.com/jobs/1001",
		OnetCode:       "151021",
		DateNew:        &created,
		DateUpdated:    &updated,
	}
}

func TestLocation(t *testing.T) {
	tests := []struct {
		name string
		job  model.JobRecord
		want string
	}{
		{
			name: "city and state",
			job:  model.JobRecord{City: "Indianapolis", StateShort: "IN", CountryShort: "USA"},
			want: "Indianapolis, IN",
		},
		{
			name: "city and country",
			job:  model.JobRecord{City: "Toronto", CountryShort: "CAN"},
			want: "Toronto, CAN",
		},
		{
			name: "state and country",
			job:  model.JobRecord{State: "Texas", CountryShort: "USA"},
			want: "Texas, USA",
		},
		{
			name: "country only is virtual",
			job:  model.JobRecord{Country: "Germany", CountryShort: "DEU"},
			want: "Virtual, DEU",
		},
		{
			name: "nothing is global",
			job:  model.JobRecord{},
			want: "Global",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Location(tt.job); got != tt.want {
				t.Errorf("Location() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Software Engineer", "software-engineer"},
		{"AT&T Park", "att-park"},
		{"Zürich", "zurich"},
		{"São Paulo", "sao-paulo"},
		{"Москва", ""},
		{"北京", ""},
		{"  C++ / .NET Developer  ", "c-net-developer"},
		{"under_score -- dash", "under_score-dash"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestListing(t *testing.T) {
	l := Listing(sampleJob())
	if l.TitleSlug != "software-engineer" {
		t.Errorf("TitleSlug = %q", l.TitleSlug)
	}
	if l.CitySlug != "indianapolis" || l.StateSlug != "indiana" || l.CountrySlug != "united-states" {
		t.Errorf("slugs = %q/%q/%q", l.CitySlug, l.StateSlug, l.CountrySlug)
	}
	if l.Location != "Indianapolis, IN" {
		t.Errorf("Location = %q", l.Location)
	}
	if l.UID != 1001 {
		t.Errorf("UID = %d, want 1001", l.UID)
	}
}

func TestSlabs(t *testing.T) {
	job := sampleJob()

	if got := CountrySlab(job); got != "usa/jobs::United States" {
		t.Errorf("CountrySlab() = %q", got)
	}
	if got := StateSlab(job); got == nil || *got != "indiana/usa/jobs::Indiana" {
		t.Errorf("StateSlab() = %v", got)
	}
	if got := CitySlab(job, "Indianapolis, IN"); got == nil || *got != "indianapolis/indiana/usa/jobs::Indianapolis, IN" {
		t.Errorf("CitySlab() = %v", got)
	}
	if got := TitleSlab(job.Title); got == nil || *got != "software-engineer/jobs-in::Software Engineer" {
		t.Errorf("TitleSlab() = %v", got)
	}
	if got := CompanySlab("Acme Widgets"); got != "acme-widgets/careers::Acme Widgets" {
		t.Errorf("CompanySlab() = %q", got)
	}
	if got := FullLoc(job, "Indianapolis, IN"); got != "city::Indianapolis@@state::Indiana@@location::Indianapolis, IN@@country::United States" {
		t.Errorf("FullLoc() = %q", got)
	}

	t.Run("null slabs", func(t *testing.T) {
		if got := StateSlab(model.JobRecord{State: "***"}); got != nil {
			t.Errorf("StateSlab() = %q, want nil for unsluggable state", *got)
		}
		if got := StateSlab(model.JobRecord{State: "北京", CountryShort: "CN"}); got != nil {
			t.Errorf("StateSlab() = %q, want nil for non-ASCII state", *got)
		}
		if got := CitySlab(model.JobRecord{City: "Москва", CountryShort: "RU"}, "Москва, RU"); got != nil {
			t.Errorf("CitySlab() = %q, want nil for non-ASCII city", *got)
		}
		if got := CitySlab(model.JobRecord{}, "Global"); got != nil {
			t.Errorf("CitySlab() = %q, want nil for empty city", *got)
		}
		if got := TitleSlab("None"); got != nil {
			t.Errorf("TitleSlab(None) = %q, want nil", *got)
		}
		if got := TitleSlab(""); got != nil {
			t.Errorf("TitleSlab(\"\") = %q, want nil", *got)
		}
	})
}

func TestJobMocs(t *testing.T) {
	tax := &stubTaxonomy{entries: map[string][]model.TaxonomyEntry{
		"151021": {
			{ID: 4, Code: "25B", Title: "Information Technology Specialist", Branch: "army"},
			{ID: 9, Code: "IT", Title: "Information Systems Technician", Branch: "navy"},
		},
	}}
	p := New(tax, edgeRand{})

	t.Run("linked entries", func(t *testing.T) {
		got, err := p.JobMocs(context.Background(), "151021")
		if err != nil {
			t.Fatalf("JobMocs() error = %v", err)
		}
		if !reflect.DeepEqual(got.Codes, []string{"25B", "IT"}) {
			t.Errorf("Codes = %v", got.Codes)
		}
		if !reflect.DeepEqual(got.IDs, []int64{4, 9}) {
			t.Errorf("IDs = %v", got.IDs)
		}
		want := "information-technology-specialist/25B/army/vet-jobs::25B - Information Technology Specialist"
		if len(got.Slabs) != 2 || got.Slabs[0] != want {
			t.Errorf("Slabs[0] = %v, want %q", got.Slabs, want)
		}
	})

	t.Run("no classification", func(t *testing.T) {
		before := tax.calls
		got, err := p.JobMocs(context.Background(), "")
		if err != nil {
			t.Fatalf("JobMocs() error = %v", err)
		}
		if got.Codes != nil || got.Slabs != nil || got.IDs != nil {
			t.Errorf("JobMocs(\"\") = %+v, want all nil", got)
		}
		if tax.calls != before {
			t.Error("taxonomy consulted for a record without classification")
		}
	})

	t.Run("lookup failure", func(t *testing.T) {
		failing := New(&stubTaxonomy{err: errors.New("boom")}, edgeRand{})
		if _, err := failing.JobMocs(context.Background(), "151021"); err == nil {
			t.Error("JobMocs() expected error")
		}
	})
}

func TestSaltDate(t *testing.T) {
	updated := time.Date(2012, 5, 16, 16, 30, 10, 500_000_000, time.UTC)

	low := New(nil, edgeRand{high: false}).SaltDate(&updated)
	if want := time.Date(2012, 5, 16, 0, 0, 0, 0, time.UTC); !low.Equal(want) {
		t.Errorf("SaltDate() lowest = %v, want %v", low, want)
	}

	high := New(nil, edgeRand{high: true}).SaltDate(&updated)
	if want := time.Date(2012, 5, 16, 23, 59, 57, 0, time.UTC); !high.Equal(want) {
		t.Errorf("SaltDate() highest = %v, want %v", high, want)
	}

	if got := New(nil, nil).SaltDate(nil); got != nil {
		t.Errorf("SaltDate(nil) = %v, want nil", got)
	}

	t.Run("stays on the same day", func(t *testing.T) {
		p := New(nil, GlobalRand{})
		for range 200 {
			got := p.SaltDate(&updated)
			if got.YearDay() != updated.YearDay() {
				t.Fatalf("SaltDate() = %v, left the day of %v", got, updated)
			}
			if got.Nanosecond() != 0 {
				t.Fatalf("SaltDate() = %v, want whole seconds", got)
			}
		}
	})
}

func TestDocument(t *testing.T) {
	tax := &stubTaxonomy{entries: map[string][]model.TaxonomyEntry{
		"151021": {{ID: 4, Code: "25B", Title: "IT Specialist", Branch: "army"}},
	}}
	p := New(tax, edgeRand{})
	job := sampleJob()

	doc, err := p.Document(context.Background(), job, "Acme Widgets")
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}

	if doc.ID != "seo.joblisting.1001" {
		t.Errorf("ID = %q", doc.ID)
	}
	if doc.DjangoCT != "seo.joblisting" || doc.DjangoID != 0 {
		t.Errorf("django fields = %q/%d", doc.DjangoCT, doc.DjangoID)
	}
	if doc.BUID != 13 || doc.Company != "Acme Widgets" || doc.CompanyExact != "Acme Widgets" {
		t.Errorf("owner fields = %d/%q/%q", doc.BUID, doc.Company, doc.CompanyExact)
	}
	if doc.Location != "Indianapolis, IN" || doc.TitleAC != job.Title || doc.CityExact != job.City {
		t.Errorf("derived fields = %q/%q/%q", doc.Location, doc.TitleAC, doc.CityExact)
	}
	if len(doc.Moc) != 1 || doc.Moc[0] != "25B" || doc.MocID[0] != 4 {
		t.Errorf("moc = %v/%v", doc.Moc, doc.MocID)
	}
	wantText := "Build things. Software Engineer United States USA Indiana IN Indianapolis"
	if doc.Text != wantText {
		t.Errorf("Text = %q, want %q", doc.Text, wantText)
	}
	if doc.SaltedDate == nil || doc.SaltedDate.Day() != 16 {
		t.Errorf("SaltedDate = %v", doc.SaltedDate)
	}

	t.Run("missing fields render as None", func(t *testing.T) {
		doc, err := p.Document(context.Background(), model.JobRecord{UID: 5, Title: "Cook"}, "Acme")
		if err != nil {
			t.Fatalf("Document() error = %v", err)
		}
		if want := "None Cook None None None None None"; doc.Text != want {
			t.Errorf("Text = %q, want %q", doc.Text, want)
		}
		if doc.Moc != nil || doc.MocSlab != nil || doc.MocID != nil {
			t.Error("moc fields set for record without classification")
		}
	})
}

func TestRecordFromDocument_RoundTrip(t *testing.T) {
	p := New(nil, edgeRand{})
	job := sampleJob()

	doc, err := p.Document(context.Background(), job, "Acme Widgets")
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	got := RecordFromDocument(doc)

	if !reflect.DeepEqual(got, job) {
		t.Errorf("RecordFromDocument() = %+v\nwant %+v", got, job)
	}
}
