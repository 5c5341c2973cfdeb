// Package feedapi talks to the remote feed-management service: it downloads
// feed documents and asks the service to create, schedule or unschedule the
// feed of a business unit.
package feedapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"jobsync/internal/jobsync"
)

// DefaultBaseURL is the production feed-management endpoint.
const DefaultBaseURL = "http://seoxml.directemployers.com/v2/"

// FilePrefix starts the name of every downloaded feed document.
const FilePrefix = "dseo_feed_"

// Task names a feed-management action. The zero Task fetches the feed.
type Task string

const (
	TaskCreate     Task = "create"
	TaskSchedule   Task = "schedule"
	TaskUnschedule Task = "unschedule"
)

// Result is the outcome of a feed-management action.
type Result struct {
	Success bool
	Message string
}

// Client calls the feed-management service.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  jobsync.Logger
}

// NewClient creates a Client. An empty baseURL uses DefaultBaseURL and a
// nil httpClient uses http.DefaultClient.
func NewClient(baseURL, apiKey string, httpClient *http.Client, logger jobsync.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = jobsync.NewNopLogger()
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, http: httpClient, logger: logger}
}

// FeedPath returns where the feed of buid is kept inside dir.
func FeedPath(dir string, buid int64) string {
	return filepath.Join(dir, FilePrefix+strconv.FormatInt(buid, 10)+".xml")
}

// FeedURL returns the service URL for buid. Unknown tasks are ignored and
// yield the plain feed URL.
func (c *Client) FeedURL(buid int64, task Task) string {
	u := c.baseURL + "?key=" + url.QueryEscape(c.apiKey) + "&buid=" + strconv.FormatInt(buid, 10)
	switch task {
	case TaskCreate, TaskSchedule, TaskUnschedule:
		u += "&task=" + string(task)
	}
	return u
}

// Download fetches the feed of buid into dir and returns the file path.
// The document is written to a temporary file first so a failed transfer
// never leaves a partial feed behind.
func (c *Client) Download(ctx context.Context, buid int64, dir string) (string, error) {
	c.logger.Info("downloading feed", "buid", buid)

	resp, err := c.get(ctx, c.FeedURL(buid, ""))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("feed service returned %s", resp.Status)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating feed directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, FilePrefix+"*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing feed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing feed: %w", err)
	}

	path := FeedPath(dir, buid)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("moving feed into place: %w", err)
	}

	c.logger.Info("download complete", "buid", buid, "path", path)
	return path, nil
}

// ForceCreate asks the service to create or recreate the feed of buid.
func (c *Client) ForceCreate(ctx context.Context, buid int64) (Result, error) {
	res, err := c.call(ctx, buid, TaskCreate)
	if err == nil && res.Success {
		res.Message = "Business unit was created/recreated and will automatically update shortly."
	}
	return res, err
}

// Schedule asks the service to refresh the feed of buid periodically.
func (c *Client) Schedule(ctx context.Context, buid int64) (Result, error) {
	return c.call(ctx, buid, TaskSchedule)
}

// Unschedule stops periodic refreshes of the feed of buid.
func (c *Client) Unschedule(ctx context.Context, buid int64) (Result, error) {
	return c.call(ctx, buid, TaskUnschedule)
}

// call runs task and interprets the XML answer whatever the status code.
// A response without a confirmation element is a failed Result, not an error.
func (c *Client) call(ctx context.Context, buid int64, task Task) (Result, error) {
	resp, err := c.get(ctx, c.FeedURL(buid, task))
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	res := interpret(resp.Body)
	if res.Success {
		c.logger.Info("feed task confirmed", "buid", buid, "task", task)
	} else {
		c.logger.Error("feed task failed", "buid", buid, "task", task, "error", res.Message)
	}
	return res, nil
}

func interpret(r io.Reader) Result {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return Result{Message: "Error: malformed response"}
	}

	if confirmation := xmlquery.FindOne(doc, "/*/confirmation"); confirmation != nil {
		return Result{Success: true, Message: strings.TrimSpace(confirmation.InnerText())}
	}
	if description := xmlquery.FindOne(doc, "//error/description"); description != nil {
		return Result{Message: "Error: " + strings.TrimSpace(description.InnerText())}
	}
	return Result{Message: "Error: malformed response"}
}

func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting feed service: %w", err)
	}
	return resp, nil
}
