package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits to prevent resource exhaustion under long-lived polling
const (
	defaultMaxIdleConns        = 10
	defaultMaxIdleConnsPerHost = 2
	defaultMaxConnsPerHost     = 4
	defaultIdleConnTimeout     = 60 * time.Second
)

// Response holds the result of a GET request made by [Client].
//
// Response captures the body (limited to 1MB), status code, latency, and
// any transport error. Errors are carried in the Err field rather than
// returned separately, which keeps the polling fetchers' handling to a
// single branch.
type Response struct {
	// Body contains the HTTP response body, limited to 1MB.
	Body []byte

	// StatusCode is the HTTP status code (e.g., 200, 404, 500).
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Err contains any error that occurred during the request.
	// nil indicates the request completed (though the status code may
	// still indicate an application-level failure).
	Err error
}

// Client is an HTTP client wrapper optimized for periodic JSON API polling.
//
// Client applies per-request timeouts via context rather than a global
// client timeout, limits response bodies to 1MB, and reuses connections
// across polls of the same host.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a polling [Client] that sends the given User-Agent
// header with every request.
//
// The underlying transport keeps a small idle-connection pool sized for a
// handful of long-lived polling targets, with a 60 second idle timeout.
func NewClient(userAgent string) *Client {
	return &Client{
		userAgent: userAgent,
		httpClient: &http.Client{
			// no default timeout - timeouts are per-request via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
}

// Get performs an HTTP GET and returns a structured [Response].
//
// The timeout is applied via context cancellation on top of ctx. Response
// bodies are limited to 1MB. Get always returns a Response; inspect the
// Err field for transport failures.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) Response {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Err:     fmt.Errorf("failed to create request: %w", err),
		}
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Err:     fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Err:        fmt.Errorf("failed to read response body: %w", err),
		}
	}

	return Response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// GetJSON performs a GET and decodes a 2xx JSON response body into v.
//
// Non-2xx status codes and decode failures are returned as errors, so a
// fetcher built on GetJSON has exactly one failure path to classify.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, timeout time.Duration, v any) error {
	resp := c.Get(ctx, url, headers, timeout)
	if resp.Err != nil {
		return resp.Err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	if len(resp.Body) == 0 {
		return fmt.Errorf("empty response from %s", url)
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times. After Close, the client remains usable but
// new connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
