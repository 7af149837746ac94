// Package provider holds HTTP clients for the third-party market, social and sentiment APIs.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"alpha-move/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxRetries  = 0
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0

	maxErrorBody = 512
)

// StatusError is returned for any non-2xx upstream response.
type StatusError struct {
	Provider   string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Provider, e.Endpoint, e.StatusCode, e.Body)
}

// Transient reports whether a later attempt may succeed (429 and 5xx).
func (e *StatusError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsTransient reports whether err is a transient upstream failure.
// Network errors and timeouts count as transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	var de *DecodeError
	return !errors.As(err, &de)
}

// DecodeError is returned when an upstream body does not match the expected shape.
type DecodeError struct {
	Provider string
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s %s: decode response: %v", e.Provider, e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Client performs GET requests returning JSON, with optional retries on transient failures.
type Client struct {
	name        string
	baseURL     string
	client      *http.Client
	headers     http.Header
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts for transient failures.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// NewClient creates a JSON client for the named provider rooted at baseURL.
func NewClient(name, baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		name:        name,
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: DefaultTimeout},
		headers:     make(http.Header),
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	c.headers.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON fetches baseURL+path?query and decodes the body into out.
// endpoint labels metrics and errors.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	start := time.Now()
	err := c.do(ctx, endpoint, target, out)
	observability.RecordProviderCall(c.name, endpoint, time.Since(start), errorKind(err))
	return err
}

func (c *Client) do(ctx context.Context, endpoint, target string, out interface{}) error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		for k, vs := range c.headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%s %s: http request: %w", c.name, endpoint, err)
			if ctx.Err() != nil {
				return lastErr
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%s %s: read response: %w", c.name, endpoint, err)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			se := &StatusError{
				Provider:   c.name,
				Endpoint:   endpoint,
				StatusCode: resp.StatusCode,
				Body:       truncate(string(body), maxErrorBody),
			}
			if !se.Transient() {
				return se
			}
			lastErr = se
			continue
		}

		if out != nil {
			if err := json.Unmarshal(body, out); err != nil {
				return &DecodeError{Provider: c.name, Endpoint: endpoint, Err: err}
			}
		}
		return nil
	}

	return lastErr
}

func errorKind(err error) string {
	if err == nil {
		return ""
	}
	var se *StatusError
	if errors.As(err, &se) {
		if se.Transient() {
			return "transient_status"
		}
		return "status"
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return "decode"
	}
	return "network"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
