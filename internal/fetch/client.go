// Package fetch provides the retrying HTTP client and the upstream data
// adapters that feed the engine. The adapters are the fallback boundary:
// nothing above them ever sees an upstream failure.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/yourorg/marketpulse/internal/config"
)

// ErrUpstreamUnavailable is returned once the retry budget for an upstream
// call is exhausted. The adapters catch it and switch to fallback synthesis;
// it must never escape the fetch package boundary.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Client wraps retryablehttp with the engine's retry policy: exponential
// backoff base*2^attempt, retries on 5xx/429 and transport errors, immediate
// return on other 4xx. A shared rate limiter keeps the engine inside the
// provider's request budget.
type Client struct {
	http    *retryablehttp.Client
	limiter *rate.Limiter
}

// NewClient creates a retrying client from the configured policy.
func NewClient(policy config.RetryPolicy, timeout time.Duration, rps float64, burst int) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = policy.MaxAttempts - 1
	rc.RetryWaitMin = policy.BaseDelay
	rc.RetryWaitMax = policy.BaseDelay << uint(policy.MaxAttempts)
	rc.Backoff = exponentialBackoff(policy.BaseDelay)
	rc.HTTPClient.Timeout = timeout
	rc.Logger = nil

	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}

	return &Client{http: rc, limiter: limiter}
}

// exponentialBackoff waits base * 2^attempt between tries. retryablehttp
// numbers the wait before the first retry as attempt 0.
func exponentialBackoff(base time.Duration) retryablehttp.Backoff {
	return func(min, max time.Duration, attempt int, resp *http.Response) time.Duration {
		d := base << uint(attempt)
		if d > max {
			return max
		}
		return d
	}
}

// Do performs the request, retrying per policy. A non-2xx response that is
// not retryable (4xx other than 429) is returned as-is for the caller to
// interpret. Exhausting retries yields ErrUpstreamUnavailable.
func (c *Client) Do(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
	}

	var payload interface{}
	if body != nil {
		payload = bytes.NewReader(body)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Retry budget exhausted, or the context was cancelled mid-backoff.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return resp, nil
}

// Get issues a GET with the configured retry policy.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil, headers)
}

// Post issues a POST with a JSON body and the configured retry policy.
func (c *Client) Post(ctx context.Context, url string, body []byte, headers map[string]string) (*http.Response, error) {
	if headers == nil {
		headers = map[string]string{}
	}
	if _, ok := headers["Content-Type"]; !ok {
		headers["Content-Type"] = "application/json"
	}
	return c.Do(ctx, http.MethodPost, url, body, headers)
}
