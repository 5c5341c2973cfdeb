// Package projector derives the relational and search-index shapes of a
// canonical job record, including slugs, display location, facet slabs,
// taxonomy linkage and the salted sort date.
package projector

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"github.com/gosimple/slug"
	"golang.org/x/text/unicode/norm"

	"jobsync/internal/feed"
	"jobsync/internal/model"
)

// DocumentType is the index type prefix of every search document id.
const DocumentType = "seo.joblisting"

// Taxonomy resolves a cleaned classification code to its linked entries.
type Taxonomy interface {
	CodesFor(ctx context.Context, onet string) ([]model.TaxonomyEntry, error)
}

// RandSource supplies the randomness behind salted dates.
type RandSource interface {
	// Int64N returns a uniform value in [0, n). n must be positive.
	Int64N(n int64) int64
}

// GlobalRand draws from the math/rand/v2 top-level generator.
type GlobalRand struct{}

func (GlobalRand) Int64N(n int64) int64 { return rand.Int64N(n) }

// Projector builds search documents. Relational listings need no
// collaborators and are built by the package-level Listing.
type Projector struct {
	taxonomy Taxonomy
	rand     RandSource
}

// New creates a Projector. taxonomy may be nil, in which case no record is
// linked to taxonomy entries.
func New(taxonomy Taxonomy, rng RandSource) *Projector {
	if rng == nil {
		rng = GlobalRand{}
	}
	return &Projector{taxonomy: taxonomy, rand: rng}
}

// Slug returns the URL slug of s. Accents are folded to their ASCII base
// letter and everything else outside [A-Za-z0-9_ -] is dropped before
// slugging, so a name written only in a non-Latin script has an empty slug
// and "AT&T Park" becomes "att-park".
func Slug(s string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(s) {
		if r > unicode.MaxASCII {
			continue
		}
		if r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return slug.Make(b.String())
}

// Location composes the human-readable location of a job.
func Location(job model.JobRecord) string {
	switch {
	case job.City != "" && job.StateShort != "":
		return job.City + ", " + job.StateShort
	case job.City != "" && job.CountryShort != "":
		return job.City + ", " + job.CountryShort
	case job.State != "" && job.CountryShort != "":
		return job.State + ", " + job.CountryShort
	case job.Country != "":
		return "Virtual, " + job.CountryShort
	default:
		return "Global"
	}
}

// Listing returns the relational row for job with every derived column
// computed.
func Listing(job model.JobRecord) model.JobListing {
	return model.JobListing{
		JobRecord:   job,
		TitleSlug:   Slug(job.Title),
		CitySlug:    Slug(job.City),
		StateSlug:   Slug(job.State),
		CountrySlug: Slug(job.Country),
		Location:    Location(job),
	}
}

// MocData holds parallel taxonomy lists for one record. All three are nil
// when the record has no classification.
type MocData struct {
	Codes []string
	Slabs []string
	IDs   []int64
}

// JobMocs looks up the taxonomy entries linked to onet.
func (p *Projector) JobMocs(ctx context.Context, onet string) (MocData, error) {
	if onet == "" || p.taxonomy == nil {
		return MocData{}, nil
	}

	entries, err := p.taxonomy.CodesFor(ctx, onet)
	if err != nil {
		return MocData{}, fmt.Errorf("looking up taxonomy for %s: %w", onet, err)
	}

	data := MocData{
		Codes: make([]string, 0, len(entries)),
		Slabs: make([]string, 0, len(entries)),
		IDs:   make([]int64, 0, len(entries)),
	}
	for _, e := range entries {
		data.Codes = append(data.Codes, e.Code)
		data.Slabs = append(data.Slabs, MocSlab(e))
		data.IDs = append(data.IDs, e.ID)
	}
	return data, nil
}

// SaltDate returns a uniformly random time on the same local day as t,
// truncated to whole seconds. It is drawn fresh on every call.
func (p *Projector) SaltDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	lastnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	tonight := lastnight.Add(23*time.Hour + 59*time.Minute + 59*time.Second)

	start := max(int64(t.Sub(lastnight)/time.Second), 0)
	end := max(int64(tonight.Sub(*t)/time.Second), 0)

	var offset int64
	if n := start + end; n > 0 {
		offset = p.rand.Int64N(n) - start
	}
	salted := t.Truncate(time.Second).Add(time.Duration(offset) * time.Second)
	return &salted
}

// Document projects job onto the search-index shape. company is the
// document-level company name of the feed the job came from.
func (p *Projector) Document(ctx context.Context, job model.JobRecord, company string) (model.SearchDocument, error) {
	mocs, err := p.JobMocs(ctx, job.OnetCode)
	if err != nil {
		return model.SearchDocument{}, err
	}

	location := Location(job)
	onet := feed.CleanOnet(job.OnetCode)
	titleSlab := TitleSlab(job.Title)
	citySlab := CitySlab(job, location)
	stateSlab := StateSlab(job)
	countrySlab := CountrySlab(job)
	companySlab := CompanySlab(company)
	fullLoc := FullLoc(job, location)

	doc := model.SearchDocument{
		ID:       fmt.Sprintf("%s.%d", DocumentType, job.UID),
		DjangoCT: DocumentType,
		DjangoID: 0,
		UID:      job.UID,
		BUID:     job.BusinessUnitID,

		Title:          job.Title,
		TitleAC:        job.Title,
		TitleExact:     job.Title,
		TitleSlug:      Slug(job.Title),
		TitleSlab:      titleSlab,
		TitleSlabExact: titleSlab,

		Description: job.Description,
		ReqID:       job.ReqID,
		Link:        job.Link,
		HitKey:      job.HitKey,
		Zipcode:     job.Zipcode,

		City:             job.City,
		CityAC:           job.City,
		CityExact:        job.City,
		CitySlug:         Slug(job.City),
		CitySlab:         citySlab,
		CitySlabExact:    citySlab,
		State:            job.State,
		StateShort:       job.StateShort,
		StateAC:          job.State,
		StateExact:       job.State,
		StateSlug:        Slug(job.State),
		StateSlab:        stateSlab,
		StateSlabExact:   stateSlab,
		Country:          job.Country,
		CountryShort:     job.CountryShort,
		CountryAC:        job.Country,
		CountryExact:     job.Country,
		CountrySlug:      Slug(job.Country),
		CountrySlab:      countrySlab,
		CountrySlabExact: countrySlab,
		Location:         location,
		LocationExact:    location,
		FullLoc:          fullLoc,
		FullLocExact:     fullLoc,

		Company:          company,
		CompanyAC:        company,
		CompanyExact:     company,
		CompanySlab:      companySlab,
		CompanySlabExact: companySlab,

		Onet:         onet,
		OnetExact:    onet,
		Moc:          mocs.Codes,
		MocExact:     mocs.Codes,
		MocSlab:      mocs.Slabs,
		MocSlabExact: mocs.Slabs,
		MocID:        mocs.IDs,

		DateNew:          job.DateNew,
		DateNewExact:     job.DateNew,
		DateUpdated:      job.DateUpdated,
		DateUpdatedExact: job.DateUpdated,
		SaltedDate:       p.SaltDate(job.DateUpdated),
	}
	doc.Text = searchText(doc)
	return doc, nil
}

// RecordFromDocument maps a search document back onto the canonical fields
// it was projected from.
func RecordFromDocument(doc model.SearchDocument) model.JobRecord {
	return model.JobRecord{
		UID:            doc.UID,
		BusinessUnitID: doc.BUID,
		Title:          doc.Title,
		Description:    doc.Description,
		City:           doc.City,
		State:          doc.State,
		StateShort:     doc.StateShort,
		Country:        doc.Country,
		CountryShort:   doc.CountryShort,
		Zipcode:        doc.Zipcode,
		ReqID:          doc.ReqID,
		HitKey:         doc.HitKey,
		Link:           doc.Link,
		OnetCode:       doc.Onet,
		DateNew:        doc.DateNew,
		DateUpdated:    doc.DateUpdated,
	}
}

func searchText(doc model.SearchDocument) string {
	fields := []string{doc.Description, doc.Title, doc.Country, doc.CountryShort, doc.State, doc.StateShort, doc.City}
	for i, f := range fields {
		if f == "" {
			fields[i] = "None"
		}
	}
	return strings.Join(fields, " ")
}
