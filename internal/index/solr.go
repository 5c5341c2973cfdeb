package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"jobsync/internal/jobsync"
	"jobsync/internal/model"
)

// DefaultTimeout bounds a single request to the search server.
const DefaultTimeout = 60 * time.Second

// SolrIndex talks to a Solr core over its JSON HTTP API.
type SolrIndex struct {
	baseURL string
	client  *http.Client
}

// NewSolrIndex creates a client for the core at baseURL, for example
// "http://localhost:8983/solr/seo". A zero timeout uses DefaultTimeout.
func NewSolrIndex(baseURL string, timeout time.Duration) (*SolrIndex, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid solr url %q", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SolrIndex{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type selectResponse struct {
	Response struct {
		NumFound int `json:"numFound"`
		Docs     []struct {
			UID int64 `json:"uid"`
		} `json:"docs"`
	} `json:"response"`
}

type errorResponse struct {
	Error struct {
		Msg string `json:"msg"`
	} `json:"error"`
}

func (s *SolrIndex) Count(ctx context.Context, buid int64) (int, error) {
	q := url.Values{
		"q":    {"*:*"},
		"fq":   {"buid:" + strconv.FormatInt(buid, 10)},
		"rows": {"0"},
	}
	var resp selectResponse
	if err := s.query(ctx, q, &resp); err != nil {
		return 0, err
	}
	return resp.Response.NumFound, nil
}

func (s *SolrIndex) UIDs(ctx context.Context, buid int64, start, rows int) ([]int64, error) {
	q := url.Values{
		"q":     {"*:*"},
		"fq":    {"buid:" + strconv.FormatInt(buid, 10)},
		"fl":    {"uid"},
		"sort":  {"uid asc"},
		"start": {strconv.Itoa(start)},
		"rows":  {strconv.Itoa(rows)},
	}
	var resp selectResponse
	if err := s.query(ctx, q, &resp); err != nil {
		return nil, err
	}

	uids := make([]int64, 0, len(resp.Response.Docs))
	for _, d := range resp.Response.Docs {
		uids = append(uids, d.UID)
	}
	return uids, nil
}

func (s *SolrIndex) Add(ctx context.Context, docs []model.SearchDocument, commitWithin time.Duration) error {
	params := url.Values{"commitWithin": {strconv.FormatInt(commitWithin.Milliseconds(), 10)}}
	if err := s.update(ctx, params, inUTC(docs)); err != nil {
		return fmt.Errorf("adding %d documents: %w", len(docs), err)
	}
	return nil
}

// inUTC copies docs with every date moved to UTC. Solr date fields only
// accept "Z" instants.
func inUTC(docs []model.SearchDocument) []model.SearchDocument {
	out := make([]model.SearchDocument, len(docs))
	for i, d := range docs {
		for _, t := range []**time.Time{&d.DateNew, &d.DateNewExact, &d.DateUpdated, &d.DateUpdatedExact, &d.SaltedDate} {
			if *t != nil {
				u := (*t).UTC()
				*t = &u
			}
		}
		out[i] = d
	}
	return out
}

func (s *SolrIndex) DeleteUIDs(ctx context.Context, uids []int64) error {
	if len(uids) == 0 {
		return nil
	}
	terms := make([]string, len(uids))
	for i, uid := range uids {
		terms[i] = strconv.FormatInt(uid, 10)
	}
	return s.deleteByQuery(ctx, "uid:("+strings.Join(terms, " OR ")+")")
}

func (s *SolrIndex) DeleteBusinessUnit(ctx context.Context, buid int64) error {
	return s.deleteByQuery(ctx, "buid:"+strconv.FormatInt(buid, 10))
}

func (s *SolrIndex) deleteByQuery(ctx context.Context, query string) error {
	body := map[string]any{"delete": map[string]string{"query": query}}
	if err := s.update(ctx, url.Values{"commit": {"true"}}, body); err != nil {
		return fmt.Errorf("deleting %s: %w", query, err)
	}
	return nil
}

func (s *SolrIndex) query(ctx context.Context, params url.Values, out any) error {
	params.Set("wt", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/select?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building select request: %w", err)
	}
	return s.do(req, out)
}

func (s *SolrIndex) update(ctx context.Context, params url.Values, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding update: %w", err)
	}

	params.Set("wt", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/update?"+params.Encode(), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, nil)
}

func (s *SolrIndex) do(req *http.Request, out any) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		var e errorResponse
		if json.Unmarshal(body, &e) == nil && e.Error.Msg != "" {
			return fmt.Errorf("solr returned %s: %s", resp.Status, e.Error.Msg)
		}
		return fmt.Errorf("solr returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Compile-time check that SolrIndex implements jobsync.SearchIndex
var _ jobsync.SearchIndex = (*SolrIndex)(nil)
