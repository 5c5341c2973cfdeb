package feed

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"jobsync/internal/model"
)

// currentParser reads the v2 feed format.
type currentParser struct {
	opts   Options
	schema *feedSchema
}

func (p *currentParser) Parse(ctx context.Context, r io.Reader) (*Feed, error) {
	root, err := decodeTree(r)
	if err != nil {
		return nil, fmt.Errorf("decoding feed document: %w", err)
	}

	f := &Feed{Dialect: DialectCurrent}
	if jsid := root.findText("job_source_id"); jsid != "" {
		// A malformed id is left at 0 and reported by validation.
		if id, err := strconv.ParseInt(jsid, 10, 64); err == nil {
			f.BusinessUnitID = id
		}
	}

	if verr := p.schema.validate(root, p.opts.NodeTag, f.BusinessUnitID); verr != nil {
		f.Company = root.findText("job_source_name")
		// An unparsable crawl date on a rejected feed is recorded as absent.
		f.CrawledAt, _ = ParseDate(root.findText("date_modified"), p.opts.Location)
		f.Invalid = verr
		if p.opts.Observer != nil {
			p.opts.Observer.FeedInvalid(ctx, verr)
		}
		return f, nil
	}

	f.Company = root.findText("job_source_name")
	if f.Company == "" {
		return nil, fmt.Errorf("%w: job_source_name", ErrMissingField)
	}
	f.CrawledAt, err = ParseDate(root.findText("date_modified"), p.opts.Location)
	if err != nil {
		return nil, fmt.Errorf("parsing crawl date: %w", err)
	}
	if f.CrawledAt == nil {
		return nil, fmt.Errorf("%w: date_modified", ErrMissingField)
	}

	container := root.child(p.opts.NodeTag)
	f.Jobs = make([]model.JobRecord, 0, len(container.children))
	for _, node := range container.children {
		job, err := p.parseJob(node, f.BusinessUnitID)
		if err != nil {
			return nil, fmt.Errorf("parsing job at line %d: %w", node.line, err)
		}
		f.Jobs = append(f.Jobs, job)
	}
	return f, nil
}

// parseJob maps one job node through the v2 field table. The owning
// business unit is the document-level feed owner id, not a node field.
func (p *currentParser) parseJob(node *element, buid int64) (model.JobRecord, error) {
	text := func(tag string) string {
		v, _ := node.childText(tag)
		return v
	}

	job := model.JobRecord{
		BusinessUnitID: buid,
		City:           text("city"),
		Country:        text("country"),
		CountryShort:   text("country_short"),
		State:          text("state"),
		StateShort:     text("state_short"),
		Title:          text("title"),
		ReqID:          text("reqid"),
		Link:           text("link"),
		Description:    text("description"),
		HitKey:         text("hitkey"),
		Zipcode:        text("zip"),
		OnetCode:       CleanOnet(text("onet_code")),
	}

	if uid := strings.TrimSpace(text("uid")); uid != "" {
		id, err := strconv.ParseInt(uid, 10, 64)
		if err != nil {
			return job, fmt.Errorf("parsing uid %q: %w", uid, err)
		}
		job.UID = id
	}

	var err error
	if job.DateNew, err = ParseDate(text("date_created"), p.opts.Location); err != nil {
		return job, err
	}
	if job.DateUpdated, err = ParseDate(text("date_modified"), p.opts.Location); err != nil {
		return job, err
	}
	return job, nil
}
