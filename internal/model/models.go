package model

import "time"

// BusinessUnit represents a single employer job-feed source.
// The ID is assigned externally, never generated here.
type BusinessUnit struct {
	ID             int64
	Title          string
	TitleSlug      string     // Derived from Title on every save
	DateCrawled    *time.Time // Crawl timestamp of the last processed feed
	DateUpdated    *time.Time // Wall-clock time of the last change-bearing sync
	AssociatedJobs int        // Recomputed from the job table on every save
	VeteranCommit  bool
}

// JobRecord is the store-agnostic representation of one job posting.
// UID is zero when the feed node carried no uid.
type JobRecord struct {
	UID            int64
	BusinessUnitID int64
	Title          string
	Description    string
	City           string
	State          string
	StateShort     string
	Country        string
	CountryShort   string
	Zipcode        string
	ReqID          string // Reference id in the employer's own system of record
	HitKey         string
	Link           string
	OnetCode       string // Cleaned occupation classification, "" when absent
	DateNew        *time.Time
	DateUpdated    *time.Time
}

// JobListing is the relational row shape of a JobRecord.
type JobListing struct {
	ID int64 // Storage identity, 0 until first saved
	JobRecord
	TitleSlug   string
	CitySlug    string
	StateSlug   string
	CountrySlug string
	Location    string
}

// TaxonomyEntry is one military occupation code linked to a classification.
type TaxonomyEntry struct {
	ID     int64
	Code   string
	Title  string
	Branch string
}

// SearchDocument is the search-index projection of a JobRecord.
// Field names follow the index schema.
type SearchDocument struct {
	ID       string `json:"id"`
	DjangoCT string `json:"django_ct"`
	DjangoID int    `json:"django_id"`
	UID      int64  `json:"uid"`
	BUID     int64  `json:"buid"`
	Text     string `json:"text"`

	Title          string  `json:"title"`
	TitleAC        string  `json:"title_ac"`
	TitleExact     string  `json:"title_exact"`
	TitleSlug      string  `json:"title_slug"`
	TitleSlab      *string `json:"title_slab"`
	TitleSlabExact *string `json:"title_slab_exact"`

	Description string `json:"description"`
	ReqID       string `json:"reqid"`
	Link        string `json:"link"`
	HitKey      string `json:"hitkey"`
	Zipcode     string `json:"zipcode"`

	City             string  `json:"city"`
	CityAC           string  `json:"city_ac"`
	CityExact        string  `json:"city_exact"`
	CitySlug         string  `json:"city_slug"`
	CitySlab         *string `json:"city_slab"`
	CitySlabExact    *string `json:"city_slab_exact"`
	State            string  `json:"state"`
	StateShort       string  `json:"state_short"`
	StateAC          string  `json:"state_ac"`
	StateExact       string  `json:"state_exact"`
	StateSlug        string  `json:"state_slug"`
	StateSlab        *string `json:"state_slab"`
	StateSlabExact   *string `json:"state_slab_exact"`
	Country          string  `json:"country"`
	CountryShort     string  `json:"country_short"`
	CountryAC        string  `json:"country_ac"`
	CountryExact     string  `json:"country_exact"`
	CountrySlug      string  `json:"country_slug"`
	CountrySlab      string  `json:"country_slab"`
	CountrySlabExact string  `json:"country_slab_exact"`
	Location         string  `json:"location"`
	LocationExact    string  `json:"location_exact"`
	FullLoc          string  `json:"full_loc"`
	FullLocExact     string  `json:"full_loc_exact"`

	Company          string `json:"company"`
	CompanyAC        string `json:"company_ac"`
	CompanyExact     string `json:"company_exact"`
	CompanySlab      string `json:"company_slab"`
	CompanySlabExact string `json:"company_slab_exact"`

	Onet         string   `json:"onet"`
	OnetExact    string   `json:"onet_exact"`
	Moc          []string `json:"moc"`
	MocExact     []string `json:"moc_exact"`
	MocSlab      []string `json:"moc_slab"`
	MocSlabExact []string `json:"moc_slab_exact"`
	MocID        []int64  `json:"mocid"`

	DateNew          *time.Time `json:"date_new"`
	DateNewExact     *time.Time `json:"date_new_exact"`
	DateUpdated      *time.Time `json:"date_updated"`
	DateUpdatedExact *time.Time `json:"date_updated_exact"`
	SaltedDate       *time.Time `json:"salted_date"`
}

// SyncRun records one mutating CLI operation.
type SyncRun struct {
	ID         int64
	Operation  string // e.g. "RefreshJobs", "UpdateIndex"
	Parameters string
	Status     string // "running", "success" or "error"
	StartedAt  time.Time
	FinishedAt *time.Time
}
