package feed

import (
	"context"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"jobsync/internal/model"
)

// legacyParser reads the v1 feed format. Location fields are nested under a
// location node, classification codes under onets/onet, and the owning
// business unit is carried on every job node.
type legacyParser struct {
	opts Options
}

func (p *legacyParser) Parse(_ context.Context, r io.Reader) (*Feed, error) {
	root, err := decodeTree(r)
	if err != nil {
		return nil, fmt.Errorf("decoding feed document: %w", err)
	}

	f := &Feed{Dialect: DialectLegacy}
	f.Company = root.findText("business_unit_name")
	if f.Company == "" {
		return nil, fmt.Errorf("%w: business_unit_name", ErrMissingField)
	}
	f.CrawledAt, err = ParseDate(root.findText("date_modified"), p.opts.Location)
	if err != nil {
		return nil, fmt.Errorf("parsing crawl date: %w", err)
	}
	if f.CrawledAt == nil {
		return nil, fmt.Errorf("%w: date_modified", ErrMissingField)
	}

	container := root.child(p.opts.NodeTag)
	if container == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, p.opts.NodeTag)
	}

	f.Jobs = make([]model.JobRecord, 0, len(container.children))
	for _, node := range container.children {
		job, err := p.parseJob(node)
		if err != nil {
			return nil, fmt.Errorf("parsing job at line %d: %w", node.line, err)
		}
		f.Jobs = append(f.Jobs, job)
	}
	return f, nil
}

func (p *legacyParser) parseJob(node *element) (model.JobRecord, error) {
	var job model.JobRecord
	for _, attr := range node.children {
		switch attr.name {
		case "u_id":
			uid, err := parseID(attr.text)
			if err != nil {
				return job, fmt.Errorf("parsing u_id: %w", err)
			}
			job.UID = uid
		case "buid":
			buid, err := parseID(attr.text)
			if err != nil {
				return job, fmt.Errorf("parsing buid: %w", err)
			}
			job.BusinessUnitID = buid
		case "onets":
			if onet := attr.child("onet"); onet != nil {
				code, _ := onet.childText("onet_code")
				job.OnetCode = CleanOnet(code)
			}
		case "location":
			job.CountryShort, _ = attr.childText("country_short")
			job.Country, _ = attr.childText("country")
			job.StateShort, _ = attr.childText("state_short")
			job.State, _ = attr.childText("state")
			job.City, _ = attr.childText("city")
		case "description":
			job.Description = unescape(attr.text)
		case "city":
			job.City = unescape(attr.text)
		case "state":
			job.State = unescape(attr.text)
		case "title":
			job.Title = unescape(attr.text)
		case "country":
			job.Country = unescape(attr.text)
		case "date_new":
			d, err := ParseDate(attr.text, p.opts.Location)
			if err != nil {
				return job, err
			}
			job.DateNew = d
		case "date_updated":
			d, err := ParseDate(attr.text, p.opts.Location)
			if err != nil {
				return job, err
			}
			job.DateUpdated = d
		case "reqid":
			job.ReqID = attr.text
		case "link":
			job.Link = attr.text
		case "hitkey":
			job.HitKey = attr.text
		case "zipcode":
			job.Zipcode = attr.text
		case "state_short":
			job.StateShort = attr.text
		case "country_short":
			job.CountryShort = attr.text
		}
	}
	return job, nil
}

func unescape(s string) string {
	return html.UnescapeString(strings.TrimSpace(s))
}

func parseID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
