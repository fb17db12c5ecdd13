package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"KhiphopPipeline/internal/ports"
)

const errorBodyLimit = 512

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Body       string
	retryAfter string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Is lets callers match a 401 with ports.ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == ports.ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Client wraps http.Client with a user agent, an optional token-bucket
// limiter and bounded retries on 429/5xx.
type Client struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

// Option configures Client behavior.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying client, e.g. httptest's.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRateLimit caps outbound requests per second; zero disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithRetries sets the retry budget and the base backoff for 429/5xx.
// A negative budget is treated as zero; the first attempt always runs.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = max(n, 0)
		c.backoff = backoff
	}
}

// New creates a Client with a 20s timeout and two retries.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		maxRetries: 2,
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON sends a GET request and unmarshals the JSON response into dest.
func (c *Client) GetJSON(ctx context.Context, rawURL string, header http.Header, dest any) error {
	body, err := c.send(ctx, http.MethodGet, rawURL, header, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// PostJSON marshals payload, posts it and decodes the response into dest (may be nil).
func (c *Client) PostJSON(ctx context.Context, rawURL string, header http.Header, payload, dest any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	h := cloneHeader(header)
	h.Set("Content-Type", "application/json")

	body, err := c.send(ctx, http.MethodPost, rawURL, h, raw)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// PostForm posts url-encoded form values and decodes the JSON response into dest (may be nil).
func (c *Client) PostForm(ctx context.Context, rawURL string, header http.Header, form url.Values, dest any) error {
	h := cloneHeader(header)
	h.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.send(ctx, http.MethodPost, rawURL, h, []byte(form.Encode()))
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// PostRaw posts an opaque body with the given content type and decodes the JSON answer.
func (c *Client) PostRaw(ctx context.Context, rawURL string, header http.Header, contentType string, payload []byte, dest any) error {
	h := cloneHeader(header)
	h.Set("Content-Type", contentType)

	body, err := c.send(ctx, http.MethodPost, rawURL, h, payload)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Do executes a single prepared request without retries. The caller closes the body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.wait(req.Context()); err != nil {
		return nil, err
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpClient.Do(req)
}

func (c *Client) send(ctx context.Context, method, rawURL string, header http.Header, payload []byte) ([]byte, error) {
	var lastErr *APIError
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(c.backoffDelay(attempt, lastErr))
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		for k, vals := range header {
			for _, v := range vals {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.Do(req)
		if err != nil {
			return nil, fmt.Errorf("do request: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		apiErr := &APIError{StatusCode: resp.StatusCode, Body: truncate(strings.TrimSpace(string(body)))}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			apiErr.retryAfter = resp.Header.Get("Retry-After")
			lastErr = apiErr
			continue
		}
		return nil, apiErr
	}
	if lastErr == nil {
		return nil, fmt.Errorf("%s %s: no attempt made", method, rawURL)
	}
	return nil, lastErr
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

// backoffDelay honours Retry-After seconds, otherwise doubles the base delay.
func (c *Client) backoffDelay(attempt int, lastErr *APIError) time.Duration {
	if lastErr != nil && lastErr.retryAfter != "" {
		if secs, err := strconv.Atoi(lastErr.retryAfter); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return c.backoff * time.Duration(1<<(attempt-1))
}

func cloneHeader(h http.Header) http.Header {
	if h == nil {
		return http.Header{}
	}
	return h.Clone()
}

// truncate cuts s to errorBodyLimit bytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= errorBodyLimit {
		return s
	}
	cut := errorBodyLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
