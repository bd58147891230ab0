// Package fetch is the paced, retrying HTTP substrate for live upstreams.
// Requests are paced by an explicit rate limiter handle owned by the client,
// retried with exponential backoff on retryable failures, and never surface
// errors to adapters: a dead upstream yields an empty value and the batch
// continues with what is available.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ErrUserAgentRequired rejects clients without attribution. Upstream policy
// (the SEC in particular) refuses unattributed requests.
var ErrUserAgentRequired = errors.New("fetch: user agent is required")

var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Options configures a Client.
type Options struct {
	UserAgent    string
	RequestDelay time.Duration
	MaxRetries   int
	BackoffBase  time.Duration
	Timeout      time.Duration

	// OnRetry is invoked once per retry attempt. Optional.
	OnRetry func(ctx context.Context)
}

// Client performs paced, retrying fetches.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	retries   int
	backoff   time.Duration
	onRetry   func(ctx context.Context)
	logger    *slog.Logger

	// sleep is swapped in tests.
	sleep func(time.Duration)
}

// NewClient builds a Client. A non-empty UserAgent is mandatory.
func NewClient(opts Options) (*Client, error) {
	if opts.UserAgent == "" {
		return nil, ErrUserAgentRequired
	}
	if opts.RequestDelay <= 0 {
		opts.RequestDelay = 500 * time.Millisecond
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: opts.Timeout},
		limiter:   rate.NewLimiter(rate.Every(opts.RequestDelay), 1),
		userAgent: opts.UserAgent,
		retries:   opts.MaxRetries,
		backoff:   opts.BackoffBase,
		onRetry:   opts.OnRetry,
		logger:    slog.Default().With("component", "fetch"),
		sleep:     time.Sleep,
	}, nil
}

// JSON fetches url and decodes the body as a JSON object. Retryable
// failures (429/5xx, transport errors, undecodable bodies) are retried with
// exponential backoff; once retries are exhausted, or on a non-retryable
// status, an empty map is returned.
func (c *Client) JSON(ctx context.Context, url string) map[string]any {
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.waitBackoff(ctx, attempt-1)
		}
		body, status, err := c.do(ctx, url, "application/json")
		if err != nil {
			c.logger.Warn("json fetch failed", "url", url, "attempt", attempt, "error", err)
			continue
		}
		if status != http.StatusOK {
			if retryableStatus[status] {
				c.logger.Warn("json fetch retryable status", "url", url, "attempt", attempt, "status", status)
				continue
			}
			c.logger.Warn("json fetch non-retryable status", "url", url, "status", status)
			return map[string]any{}
		}
		var out map[string]any
		if err := json.Unmarshal(body, &out); err != nil {
			c.logger.Warn("json fetch decode failed", "url", url, "attempt", attempt, "error", err)
			continue
		}
		return out
	}
	c.logger.Warn("json fetch exhausted retries", "url", url)
	return map[string]any{}
}

// Text fetches url as plain text. Same retry policy as JSON; failures yield
// an empty string.
func (c *Client) Text(ctx context.Context, url string) string {
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.waitBackoff(ctx, attempt-1)
		}
		body, status, err := c.do(ctx, url, "text/html,application/xhtml+xml,application/xml,text/plain")
		if err != nil {
			c.logger.Warn("text fetch failed", "url", url, "attempt", attempt, "error", err)
			continue
		}
		if status != http.StatusOK {
			if retryableStatus[status] {
				c.logger.Warn("text fetch retryable status", "url", url, "attempt", attempt, "status", status)
				continue
			}
			c.logger.Warn("text fetch non-retryable status", "url", url, "status", status)
			return ""
		}
		return string(body)
	}
	c.logger.Warn("text fetch exhausted retries", "url", url)
	return ""
}

// CachedJSON consults the run cache before fetching; a successful fetch is
// stored under key for the rest of the run.
func (c *Client) CachedJSON(ctx context.Context, cache RunCache, key, url string) map[string]any {
	if cache != nil {
		if cached, ok := cache.Get(ctx, key); ok {
			return cached
		}
	}
	out := c.JSON(ctx, url)
	if cache != nil && len(out) > 0 {
		cache.Set(ctx, key, out)
	}
	return out
}

func (c *Client) do(ctx context.Context, url, accept string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("pacing wait: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

func (c *Client) waitBackoff(ctx context.Context, attempt int) {
	if c.onRetry != nil {
		c.onRetry(ctx)
	}
	c.sleep(c.backoff << attempt)
}
