// Package feed translates job feed XML documents into canonical job records.
//
// Two dialects are supported. The current dialect ("v2") is validated
// against an embedded schema before any record is produced; the legacy
// dialect ("v1") is translated without validation.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"jobsync/internal/model"
)

// Dialect names a feed format version.
type Dialect string

const (
	DialectLegacy  Dialect = "v1"
	DialectCurrent Dialect = "v2"
)

// DefaultNodeTag is the name of the element whose children are job nodes.
const DefaultNodeTag = "jobs"

var (
	// ErrMissingField is returned when a required document-level field is absent.
	ErrMissingField = errors.New("missing required feed field")

	// ErrUnknownDialect is returned by NewParser for an unrecognized dialect.
	ErrUnknownDialect = errors.New("unknown feed dialect")
)

// Feed is the result of parsing one feed document.
type Feed struct {
	Dialect        Dialect
	BusinessUnitID int64 // Feed owner id; 0 if the document does not declare one
	Company        string
	CrawledAt      *time.Time
	Jobs           []model.JobRecord

	// Invalid is set when the document failed schema validation.
	// Jobs is empty in that case.
	Invalid *ValidationError
}

// ValidationError describes why a document failed schema validation.
type ValidationError struct {
	BusinessUnitID int64
	Line           int
	Message        string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("feed for business unit %d failed validation at line %d: %s", e.BusinessUnitID, e.Line, e.Message)
}

// Observer is notified synchronously when a document fails validation.
type Observer interface {
	FeedInvalid(ctx context.Context, verr *ValidationError)
}

// Parser turns a feed document into a Feed.
type Parser interface {
	// Parse reads and translates the whole document. A validation failure is
	// reported through Feed.Invalid, not the error; the error covers
	// unreadable documents, malformed dates and missing required fields.
	Parse(ctx context.Context, r io.Reader) (*Feed, error)
}

// Options configures a Parser.
type Options struct {
	// NodeTag names the job container element. Defaults to DefaultNodeTag.
	NodeTag string

	// Location is used to interpret feed timestamps. Defaults to time.Local.
	Location *time.Location

	// Observer, if set, is told about validation failures.
	Observer Observer
}

func (o Options) withDefaults() Options {
	if o.NodeTag == "" {
		o.NodeTag = DefaultNodeTag
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	return o
}

// NewParser returns the Parser for the given dialect.
// An empty dialect selects DialectCurrent.
func NewParser(dialect Dialect, opts Options) (Parser, error) {
	opts = opts.withDefaults()
	switch dialect {
	case DialectCurrent, "":
		schema, err := loadSchema()
		if err != nil {
			return nil, err
		}
		return &currentParser{opts: opts, schema: schema}, nil
	case DialectLegacy:
		return &legacyParser{opts: opts}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}
}

// UIDs returns the non-zero uids of the feed's records.
func (f *Feed) UIDs() []int64 {
	uids := make([]int64, 0, len(f.Jobs))
	for _, j := range f.Jobs {
		if j.UID != 0 {
			uids = append(uids, j.UID)
		}
	}
	return uids
}
