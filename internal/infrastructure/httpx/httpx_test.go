package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"KhiphopPipeline/internal/ports"
)

func TestGetJSONRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"value":42}`))
	}))
	defer server.Close()

	client := New(WithHTTPClient(server.Client()), WithUserAgent("test-agent"), WithRetries(2, time.Millisecond))

	var out struct {
		Value int `json:"value"`
	}
	if err := client.GetJSON(context.Background(), server.URL, nil, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Value != 42 {
		t.Fatalf("unexpected value %d", out.Value)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestGetJSONReturnsAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}))
	defer server.Close()

	client := New(WithHTTPClient(server.Client()), WithRetries(0, 0))

	var out map[string]any
	err := client.GetJSON(context.Background(), server.URL, nil, &out)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Body != "missing" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestPostFormSendsEncodedBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "client_credentials" {
			t.Errorf("unexpected grant_type %q", r.Form.Get("grant_type"))
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := New(WithHTTPClient(server.Client()))
	form := url.Values{"grant_type": {"client_credentials"}}

	var out struct {
		OK bool `json:"ok"`
	}
	if err := client.PostForm(context.Background(), server.URL, nil, form, &out); err != nil {
		t.Fatalf("PostForm: %v", err)
	}
	if !out.OK {
		t.Fatalf("expected ok response")
	}
}

func TestBackoffDelayHonoursRetryAfter(t *testing.T) {
	t.Parallel()

	c := New(WithRetries(3, 10*time.Millisecond))
	if d := c.backoffDelay(1, &APIError{retryAfter: "2"}); d != 2*time.Second {
		t.Fatalf("expected retry-after delay, got %v", d)
	}
	if d := c.backoffDelay(3, nil); d != 40*time.Millisecond {
		t.Fatalf("expected exponential delay, got %v", d)
	}
}

func TestNegativeRetriesStillSendOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(WithHTTPClient(server.Client()), WithRetries(-1, 0))

	var out map[string]any
	err := client.GetJSON(context.Background(), server.URL, nil, &out)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr == nil {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status %d", apiErr.StatusCode)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	t.Parallel()

	body := "x" + strings.Repeat("가", errorBodyLimit)
	got := truncate(body)
	if len(got) > errorBodyLimit {
		t.Fatalf("truncated body is %d bytes", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated body is not valid utf-8")
	}
	if !strings.HasPrefix(body, got) || len(got) < errorBodyLimit-utf8.UTFMax {
		t.Fatalf("unexpected cut at %d bytes", len(got))
	}
	if short := truncate("missing"); short != "missing" {
		t.Fatalf("short body changed: %q", short)
	}
}

func TestAPIErrorMatchesUnauthorized(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New(WithHTTPClient(server.Client()), WithRetries(0, 0))

	var out map[string]any
	err := client.GetJSON(context.Background(), server.URL, nil, &out)
	if !errors.Is(err, ports.ErrUnauthorized) {
		t.Fatalf("expected unauthorized match, got %v", err)
	}
	if errors.Is(&APIError{StatusCode: http.StatusForbidden}, ports.ErrUnauthorized) {
		t.Fatalf("403 must not match unauthorized")
	}
}
