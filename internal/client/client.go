package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/namesweep/namesweep/internal/model"
)

// Backoff bounds for the retry loop. Rate-limit waits grow fastest and
// are allowed the highest ceiling because 429 means the service is
// actively pushing back.
const (
	rateLimitBackoffBase = time.Second
	rateLimitBackoffCap  = 90 * time.Second
	networkBackoffBase   = 2 * time.Second
	networkBackoffCap    = 45 * time.Second
	serverBackoffStep    = 5 * time.Second
	serverBackoffCap     = 45 * time.Second

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 4 * 1024 * 1024
)

// RateReporter receives per-occurrence success and failure signals from
// the fetcher. The crawl's adaptive rate controller implements it.
type RateReporter interface {
	ReportSuccess()
	ReportFailure()
}

// Client fetches autocomplete suggestions for prefixes. It is safe for
// concurrent use by multiple workers.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiVersion  int
	maxResults  int
	maxRetries  int
	userAgent   string
	jitter      time.Duration
	rate        RateReporter
	logger      *slog.Logger
	cache       *lru.Cache[string, []string]
	sleep       func(ctx context.Context, d time.Duration) error
	requests    atomic.Int64
	retriesSeen atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithAPIVersion selects the endpoint path /v{N}/autocomplete.
func WithAPIVersion(v int) Option {
	return func(c *Client) { c.apiVersion = v }
}

// WithMaxResults sets the max_results value sent with every query.
func WithMaxResults(n int) Option {
	return func(c *Client) { c.maxResults = n }
}

// WithMaxRetries bounds retries after the first attempt of a lookup.
// Zero disables retries.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithRequestJitter sets the upper bound of the uniform random sleep
// before each request. Zero disables the jitter.
func WithRequestJitter(d time.Duration) Option {
	return func(c *Client) { c.jitter = d }
}

// WithRateReporter wires the fetcher to an adaptive rate controller.
func WithRateReporter(r RateReporter) Option {
	return func(c *Client) { c.rate = r }
}

// WithLogger sets the logger used for retry and classification warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithCacheSize enables an LRU cache of recent query results. A racing
// duplicate fetch of the same prefix is then answered locally instead
// of costing a second request. Zero disables the cache.
func WithCacheSize(n int) Option {
	return func(c *Client) {
		if n <= 0 {
			c.cache = nil
			return
		}
		// lru.New only fails for non-positive sizes.
		c.cache, _ = lru.New[string, []string](n)
	}
}

// New creates a Client for the lookup service at baseURL. The
// http.Client is injected so transports can be swapped in tests.
func New(httpClient *http.Client, baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q has no host", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    u.String(),
		apiVersion: 3,
		maxResults: 100,
		maxRetries: 8,
		userAgent:  "namesweep/1.0",
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// MaxResults returns the per-query result cap this client sends.
func (c *Client) MaxResults() int { return c.maxResults }

// Requests returns the total number of HTTP requests issued, including
// retries.
func (c *Client) Requests() int64 { return c.requests.Load() }

// Retries returns the total number of retry attempts across all lookups.
func (c *Client) Retries() int64 { return c.retriesSeen.Load() }

// RestoreRequests seeds the request counter when resuming from a
// checkpoint.
func (c *Client) RestoreRequests(n int64) { c.requests.Store(n) }

// Fetch issues one autocomplete lookup for prefix. Rate-limit, server,
// and transport failures are retried here with backoff; each occurrence
// is reported to the rate controller before the retry sleep. When the
// retry budget runs out, Fetch returns ErrRetriesExhausted and the
// caller treats the prefix as yielding no names.
//
// A 2xx response without a well-formed results list resolves to an
// empty result without retrying, as does any non-200 status outside
// the retryable classes.
func (c *Client) Fetch(ctx context.Context, prefix string) (*model.QueryResult, error) {
	start := time.Now()

	if c.cache != nil {
		if names, ok := c.cache.Get(prefix); ok {
			return &model.QueryResult{
				Prefix:     prefix,
				Names:      names,
				Truncated:  len(names) == c.maxResults,
				StatusCode: http.StatusOK,
				Cached:     true,
				Duration:   time.Since(start),
			}, nil
		}
	}

	var lastKind error
	for attempt := 0; ; attempt++ {
		if c.jitter > 0 {
			if err := c.sleep(ctx, time.Duration(rand.Int63n(int64(c.jitter)))); err != nil {
				return nil, err
			}
		}

		names, status, err := c.doRequest(ctx, prefix)
		switch {
		case err == nil:
			// Well-formed 200.
			c.report(true)
			if c.cache != nil {
				c.cache.Add(prefix, names)
			}
			return &model.QueryResult{
				Prefix:     prefix,
				Names:      names,
				Truncated:  len(names) == c.maxResults,
				StatusCode: status,
				Attempts:   attempt + 1,
				Duration:   time.Since(start),
			}, nil

		case ctx.Err() != nil:
			return nil, ctx.Err()

		case errors.Is(err, ErrMalformedResponse):
			c.logger.Warn("malformed autocomplete response, treating as empty",
				"prefix", prefix,
				"status", status,
			)
			return &model.QueryResult{
				Prefix:     prefix,
				StatusCode: status,
				Attempts:   attempt + 1,
				Duration:   time.Since(start),
			}, nil

		case errors.Is(err, ErrRateLimited), errors.Is(err, ErrServer), errors.Is(err, ErrNetwork):
			lastKind = err
			c.report(false)
			if attempt >= c.maxRetries {
				c.logger.Error("retry budget exhausted, abandoning prefix",
					"prefix", prefix,
					"attempts", attempt+1,
					"error", err,
				)
				return nil, fmt.Errorf("fetch %q: %w: %w", prefix, ErrRetriesExhausted, lastKind)
			}
			wait := backoffFor(err, attempt)
			c.retriesSeen.Add(1)
			c.logger.Warn("retrying lookup",
				"prefix", prefix,
				"attempt", attempt+1,
				"wait", wait,
				"error", err,
			)
			if serr := c.sleep(ctx, wait); serr != nil {
				return nil, serr
			}

		default:
			// Non-200 outside the retryable classes (e.g. 404):
			// failure with no retry defined, treated as empty.
			c.logger.Warn("unexpected status, treating as empty",
				"prefix", prefix,
				"status", status,
				"error", err,
			)
			return &model.QueryResult{
				Prefix:     prefix,
				StatusCode: status,
				Attempts:   attempt + 1,
				Duration:   time.Since(start),
			}, nil
		}
	}
}

// autocompleteResponse is the wire schema of a lookup response. Any
// other shape is treated as empty results.
type autocompleteResponse struct {
	Results []string `json:"results"`
	Count   *int     `json:"count"`
}

// doRequest performs a single HTTP round trip and classifies the
// outcome. A nil error means a well-formed 200.
func (c *Client) doRequest(ctx context.Context, prefix string) ([]string, int, error) {
	q := url.Values{}
	q.Set("query", prefix)
	q.Set("max_results", fmt.Sprintf("%d", c.maxResults))
	reqURL := fmt.Sprintf("%s/v%d/autocomplete?%s", c.baseURL, c.apiVersion, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.requests.Add(1)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read body: %w", ErrNetwork, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, resp.StatusCode, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, resp.StatusCode, fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode)
	}

	var decoded autocompleteResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if decoded.Results == nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: no results field", ErrMalformedResponse)
	}
	return decoded.Results, resp.StatusCode, nil
}

func (c *Client) report(success bool) {
	if c.rate == nil {
		return
	}
	if success {
		c.rate.ReportSuccess()
	} else {
		c.rate.ReportFailure()
	}
}

// backoffFor computes the retry sleep for one failure. Rate limits and
// transport errors back off exponentially; server errors grow linearly
// with the attempt count. All waits carry up to 30% random jitter so
// concurrent workers do not retry in lockstep.
func backoffFor(kind error, attempt int) time.Duration {
	var wait time.Duration
	switch {
	case errors.Is(kind, ErrRateLimited):
		wait = min(rateLimitBackoffCap, rateLimitBackoffBase<<uint(attempt))
	case errors.Is(kind, ErrNetwork):
		wait = min(networkBackoffCap, networkBackoffBase<<uint(attempt))
	default:
		wait = min(serverBackoffCap, serverBackoffStep*time.Duration(attempt+1))
	}
	return wait + time.Duration(rand.Float64()*0.3*float64(wait))
}

// sleepContext sleeps for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
