// Package httpclient provides the shared outbound HTTP client: spaced
// requests and bounded retries, so prefetch traffic never floods the
// provider or competes with the playing track's own requests.
package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmarchetti/cadenza/internal/constants"
)

// Client wraps an http.Client with a minimum spacing between requests and
// automatic retries on transient failures.
type Client struct {
	httpClient *http.Client

	minInterval time.Duration
	mu          sync.Mutex
	lastRequest time.Time
}

// New creates a spaced, retrying HTTP client. A nil httpClient gets a
// sensible default transport.
func New(httpClient *http.Client, minInterval time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: constants.DefaultHTTPTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     30 * time.Second,
			},
		}
	}
	return &Client{
		httpClient:  httpClient,
		minInterval: minInterval,
	}
}

// Do executes req, waiting out the request spacing first and retrying with
// linear backoff on network errors and throttling responses.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < constants.DefaultRetryCount; attempt++ {
		if err := c.waitTurn(ctx); err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err == nil && resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("provider throttled request (status %d)", resp.StatusCode)
		}

		backoff := time.Duration(attempt+1) * constants.DefaultRetryBase
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

// waitTurn blocks until the next request slot is free.
func (c *Client) waitTurn(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	next := c.lastRequest.Add(c.minInterval)
	var wait time.Duration
	if now.Before(next) {
		wait = next.Sub(now)
		c.lastRequest = next
	} else {
		c.lastRequest = now
	}
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
