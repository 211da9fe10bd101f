// Package github talks to the GitHub REST API: listing Actions workflow
// runs with conditional requests, re-running failed jobs, and the OAuth
// device flow. Transient failures are retried with Fibonacci backoff.
package github

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/marcin-skalski/actions-status/internal/logging"
)

const (
	apiVersion     = "2022-11-28"
	acceptJSON     = "application/vnd.github+json"
	defaultAPIURL  = "https://api.github.com"
	defaultWebURL  = "https://github.com"
	userAgent      = "actions-status"
	maxResponse    = 16 << 20
	defaultTimeout = 30 * time.Second
)

// DefaultMaxAttempts bounds retries of transient failures per request.
const DefaultMaxAttempts = 5

type Config struct {
	// APIURL defaults to https://api.github.com.
	APIURL string
	// WebURL hosts the device-flow endpoints and browser links. Defaults
	// to https://github.com.
	WebURL string

	HTTPClient *http.Client
	Logger     *slog.Logger

	// MaxAttempts defaults to DefaultMaxAttempts.
	MaxAttempts int
	// RetryUnit is the first Fibonacci backoff step. Defaults to 100ms.
	RetryUnit time.Duration
	// RetryMax caps a single backoff wait. Defaults to 3s.
	RetryMax time.Duration
}

type Client struct {
	apiURL      string
	webURL      string
	httpClient  *http.Client
	logger      *slog.Logger
	maxAttempts int
	retryUnit   time.Duration
	retryMax    time.Duration

	mu             sync.Mutex
	rateLimit      RateLimit
	rateLimitKnown bool
}

func NewClient(cfg Config) *Client {
	c := &Client{
		apiURL:      strings.TrimRight(cfg.APIURL, "/"),
		webURL:      strings.TrimRight(cfg.WebURL, "/"),
		httpClient:  cfg.HTTPClient,
		logger:      cfg.Logger,
		maxAttempts: cfg.MaxAttempts,
		retryUnit:   cfg.RetryUnit,
		retryMax:    cfg.RetryMax,
	}
	if c.apiURL == "" {
		c.apiURL = defaultAPIURL
	}
	if c.webURL == "" {
		c.webURL = defaultWebURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.retryUnit <= 0 {
		c.retryUnit = 100 * time.Millisecond
	}
	if c.retryMax <= 0 {
		c.retryMax = 3 * time.Second
	}
	return c
}

// WebURL is the browser-facing base URL, e.g. https://github.com.
func (c *Client) WebURL() string { return c.webURL }

type response struct {
	status int
	header http.Header
	body   []byte
}

// do sends one logical request, retrying transport failures and
// 429/5xx responses. Any other status is returned to the caller to
// interpret. After the last attempt a transient status surfaces as
// *APIError.
func (c *Client) do(ctx context.Context, method, url string, header http.Header, body []byte) (*response, error) {
	var resp *response
	attempt := 0

	operation := func() error {
		attempt++
		r, err := c.roundTrip(ctx, method, url, header, body)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		if isTransientStatus(r.status) {
			return newAPIError(method, url, r.status, r.body)
		}
		resp = r
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("github request failed, retrying",
			"method", method,
			"url", url,
			"attempt", attempt,
			"wait", wait,
			"err", err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newFibonacciBackOff(c.retryUnit, c.retryMax), uint64(c.maxAttempts-1)),
		ctx,
	)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, method, url string, header http.Header, body []byte) (*response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("github: create request: %w", err)
	}
	for k, vs := range header {
		req.Header[k] = vs
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Log(ctx, logging.LevelTrace, "github request", "method", method, "url", url)
	started := time.Now()

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: %s %s: %w", method, url, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponse))
	if err != nil {
		return nil, fmt.Errorf("github: %s %s: read body: %w", method, url, err)
	}

	c.logger.Log(ctx, logging.LevelTrace, "github response",
		"method", method,
		"url", url,
		"status", httpResp.StatusCode,
		"elapsed", time.Since(started))

	return &response{status: httpResp.StatusCode, header: httpResp.Header, body: data}, nil
}

// apiHeader returns the standard REST headers, with Authorization only
// when a token is held.
func apiHeader(token string) http.Header {
	h := http.Header{}
	h.Set("Accept", acceptJSON)
	h.Set("X-GitHub-Api-Version", apiVersion)
	if token != "" {
		h.Set("Authorization", "Token "+token)
	}
	return h
}
