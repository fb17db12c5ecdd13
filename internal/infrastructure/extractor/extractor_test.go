package extractor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"KhiphopPipeline/internal/infrastructure/httpx"
)

func TestMainTextPrefersArticle(t *testing.T) {
	t.Parallel()

	html := `
	<html><body>
	  <nav>Home | Music</nav>
	  <main><p>fallback main</p></main>
	  <article>
	    <h1>Epik High tour</h1>
	    <script>var x = 1;</script>
	    <p>The trio   announced
	       twelve dates.</p>
	  </article>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	got := mainText(doc)
	if got != "Epik High tour The trio announced twelve dates." {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractFromServer(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<div class="entry-content"><p>가나다라마바사 news body</p></div>`))
	}))
	defer server.Close()

	ex := NewHTML(httpx.New(httpx.WithHTTPClient(server.Client())), 7)

	got, err := ex.Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "가나다라마바사" {
		t.Fatalf("expected rune-truncated text, got %q", got)
	}
}

func TestExtractRejectsNonHTML(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte{0xff, 0xd8})
	}))
	defer server.Close()

	ex := NewHTML(httpx.New(httpx.WithHTTPClient(server.Client())), 0)

	if _, err := ex.Extract(context.Background(), server.URL); !errors.Is(err, ErrNotHTML) {
		t.Fatalf("expected ErrNotHTML, got %v", err)
	}
}

func TestPlaceholder(t *testing.T) {
	t.Parallel()

	if _, err := (Placeholder{}).Extract(context.Background(), "https://example.org"); !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}
