package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"KhiphopPipeline/internal/infrastructure/httpx"
)

func TestNotifySendsMessage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottoken/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("chat_id") != "42" || r.PostForm.Get("text") != "staged: 3" {
			t.Errorf("unexpected form %v", r.PostForm)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n := NewNotifier("token", "42",
		WithAPIBase(server.URL+"/"),
		WithClient(httpx.New(httpx.WithHTTPClient(server.Client()), httpx.WithRetries(0, 0))),
	)
	if err := n.Notify(context.Background(), "staged: 3"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
}

func TestNotifyReportsAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer server.Close()

	n := NewNotifier("token", "42",
		WithAPIBase(server.URL),
		WithClient(httpx.New(httpx.WithHTTPClient(server.Client()), httpx.WithRetries(0, 0))),
	)
	if err := n.Notify(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
}

func TestNotifyMisconfigured(t *testing.T) {
	t.Parallel()

	if err := NewNotifier("", "").Notify(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
}
