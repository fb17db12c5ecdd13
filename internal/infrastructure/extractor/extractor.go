package extractor

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"KhiphopPipeline/internal/infrastructure/httpx"
	"KhiphopPipeline/internal/ports"
)

var (
	// ErrNoContent means the page was fetched but no main content was found.
	ErrNoContent = ports.ErrNoContent
	// ErrNotHTML means the link did not serve an HTML document.
	ErrNotHTML = fmt.Errorf("link is not an html page: %w", ports.ErrNoContent)
)

// contentSelectors are tried in order; the first non-empty match wins.
var contentSelectors = []string{
	"article",
	".post-content",
	".entry-content",
	"[role=\"main\"]",
	"main",
}

// HTML fetches a page and pulls the main text out of common article containers.
type HTML struct {
	client   *httpx.Client
	maxChars int
}

var _ ports.ContentExtractor = (*HTML)(nil)

// NewHTML builds an extractor; maxChars <= 0 keeps the full text.
func NewHTML(client *httpx.Client, maxChars int) *HTML {
	if client == nil {
		client = httpx.New(httpx.WithTimeout(15 * time.Second))
	}
	return &HTML{client: client, maxChars: maxChars}
}

// Extract returns the collapsed text of the first matching container.
func (h *HTML) Extract(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return "", ErrNotHTML
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}

	text := mainText(doc)
	if text == "" {
		return "", ErrNoContent
	}
	return truncateRunes(text, h.maxChars), nil
}

func mainText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, aside, footer").Remove()

	for _, sel := range contentSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if text := collapse(node.Text()); text != "" {
			return text
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// Placeholder never extracts anything; enrichment falls back to a link notice.
type Placeholder struct{}

var _ ports.ContentExtractor = Placeholder{}

// Extract always reports ErrNoContent.
func (Placeholder) Extract(context.Context, string) (string, error) {
	return "", ErrNoContent
}
