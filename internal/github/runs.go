package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// RunsPerPage is the page size requested from the list endpoint.
const RunsPerPage = 10

// RunsQuery selects the workflow runs of one repository. Empty filters
// are omitted from the request.
type RunsQuery struct {
	Owner    string
	Repo     string
	Workflow string
	Actor    string
	Branch   string
	Event    string
}

// RunsPage is a successful (200) list response.
type RunsPage struct {
	TotalCount int
	Runs       []WorkflowRun // newest first, as returned by the API
	ETag       string
}

// RunsURL is the list-workflow-runs URL for q.
func (c *Client) RunsURL(q RunsQuery) string {
	path := "/repos/" + url.PathEscape(q.Owner) + "/" + url.PathEscape(q.Repo) + "/actions"
	if q.Workflow != "" {
		path += "/workflows/" + url.PathEscape(q.Workflow)
	}
	path += "/runs"

	params := url.Values{}
	params.Set("per_page", strconv.Itoa(RunsPerPage))
	if q.Actor != "" {
		params.Set("actor", q.Actor)
	}
	if q.Branch != "" {
		params.Set("branch", q.Branch)
	}
	if q.Event != "" {
		params.Set("event", q.Event)
	}
	return c.apiURL + path + "?" + params.Encode()
}

// ListWorkflowRuns fetches the latest runs for q. With a non-empty etag
// the request is conditional and an unchanged listing yields
// ErrNotModified. A 401 yields an error matching ErrUnauthorized.
func (c *Client) ListWorkflowRuns(ctx context.Context, q RunsQuery, token, etag string) (*RunsPage, error) {
	u := c.RunsURL(q)
	header := apiHeader(token)
	if etag != "" {
		header.Set("If-None-Match", etag)
	}

	resp, err := c.do(ctx, http.MethodGet, u, header, nil)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.status == http.StatusNotModified:
		return nil, ErrNotModified
	case resp.status < 200 || resp.status >= 300:
		return nil, newAPIError(http.MethodGet, u, resp.status, resp.body)
	}

	c.recordRateLimit(resp.header)

	var wire workflowRunsResponse
	if err := json.Unmarshal(resp.body, &wire); err != nil {
		return nil, fmt.Errorf("github: decode workflow runs from %s: %w (body: %s)", u, err, snippet(resp.body))
	}

	c.logger.Debug("workflow runs",
		"url", u,
		"total_count", wire.TotalCount,
		"returned", len(wire.WorkflowRuns))

	return &RunsPage{
		TotalCount: wire.TotalCount,
		Runs:       wire.WorkflowRuns,
		ETag:       resp.header.Get("ETag"),
	}, nil
}

// RerunFailedJobsURL is the endpoint that re-runs the failed jobs of a run.
func (c *Client) RerunFailedJobsURL(owner, repo string, runID int64) string {
	return fmt.Sprintf("%s/repos/%s/%s/actions/runs/%d/rerun-failed-jobs",
		c.apiURL, url.PathEscape(owner), url.PathEscape(repo), runID)
}

// RerunFailedJobs asks GitHub to re-run the failed jobs of runID.
func (c *Client) RerunFailedJobs(ctx context.Context, owner, repo string, runID int64, token string) error {
	u := c.RerunFailedJobsURL(owner, repo, runID)
	resp, err := c.do(ctx, http.MethodPost, u, apiHeader(token), nil)
	if err != nil {
		return err
	}
	if resp.status < 200 || resp.status >= 300 {
		return newAPIError(http.MethodPost, u, resp.status, resp.body)
	}
	c.recordRateLimit(resp.header)
	return nil
}
