package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Client is the shared HTTP layer for all sources. A per-client rate
// limiter keeps request spacing polite regardless of how many keywords
// hit the same platform in one cycle.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

// NewClient builds a rate-limited client. requestsPerSecond bounds the
// sustained request rate against one platform.
func NewClient(timeout time.Duration, userAgent string, requestsPerSecond float64) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		userAgent:  userAgent,
	}
}

// Get fetches url after waiting for a rate-limiter slot. Non-2xx statuses
// are returned as errors wrapping ErrSourceUnavailable so callers can
// retry uniformly.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: unexpected status %d for %s", ErrSourceUnavailable, resp.StatusCode, url)
	}
	return resp, nil
}
