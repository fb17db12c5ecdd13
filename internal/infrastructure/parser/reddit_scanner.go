package parser

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"KhiphopPipeline/internal/classify"
	"KhiphopPipeline/internal/domain"
	"KhiphopPipeline/internal/infrastructure/httpx"
	"KhiphopPipeline/internal/scanner"
)

const (
	redditBaseURL = "https://www.reddit.com"
)

var placeholderThumbnails = map[string]struct{}{
	"":        {},
	"self":    {},
	"default": {},
	"nsfw":    {},
	"spoiler": {},
	"image":   {},
}

type redditListing struct {
	Data struct {
		Children []struct {
			Kind string     `json:"kind"`
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Name          string  `json:"name"`
	Title         string  `json:"title"`
	Thumbnail     string  `json:"thumbnail"`
	LinkFlairText string  `json:"link_flair_text"`
	Permalink     string  `json:"permalink"`
	URL           string  `json:"url"`
	Domain        string  `json:"domain"`
	Selftext      string  `json:"selftext"`
	CreatedUTC    float64 `json:"created_utc"`
	Stickied      bool    `json:"stickied"`
}

// RedditScanner reads a subreddit listing and classifies its posts.
type RedditScanner struct {
	client *httpx.Client
	logger *slog.Logger
}

// NewRedditScanner wires an HTTP client; a default one is built when nil.
func NewRedditScanner(client *httpx.Client, log *slog.Logger) *RedditScanner {
	if client == nil {
		client = httpx.New(httpx.WithTimeout(20*time.Second), httpx.WithUserAgent("KhiphopPipelineBot/1.0"))
	}
	return &RedditScanner{client: client, logger: log}
}

// Name identifies the strategy inside the registry.
func (r *RedditScanner) Name() string {
	return "reddit"
}

// Scan fetches one listing page and maps every eligible post.
func (r *RedditScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.CanonicalItem, error) {
	listingURL, err := buildListingURL(req.URL, req.Limit, req.Window)
	if err != nil {
		return nil, err
	}

	var listing redditListing
	if err := r.client.GetJSON(ctx, listingURL, nil, &listing); err != nil {
		return nil, fmt.Errorf("fetch listing %s: %w", req.FeedName, err)
	}

	allowed := make(map[string]struct{}, len(req.AllowedFlairs))
	for _, f := range req.AllowedFlairs {
		allowed[f] = struct{}{}
	}

	items := make([]domain.CanonicalItem, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Stickied {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[post.LinkFlairText]; !ok {
				continue
			}
		}
		if post.Name == "" {
			r.debug("skip post without id", "title", post.Title)
			continue
		}
		items = append(items, mapPost(post))
	}

	r.debug("listing parsed", "feed", req.FeedName, "children", len(listing.Data.Children), "kept", len(items))
	return items, nil
}

func mapPost(post redditPost) domain.CanonicalItem {
	title := norm.NFC.String(html.UnescapeString(post.Title))

	thumb := post.Thumbnail
	if _, ok := placeholderThumbnails[thumb]; ok {
		thumb = ""
	}

	item := domain.CanonicalItem{
		ID:           post.Name,
		Title:        title,
		Tag:          post.LinkFlairText,
		Category:     classify.DetermineCategory(post.LinkFlairText, title),
		SourceLink:   redditBaseURL + post.Permalink,
		OriginLink:   post.URL,
		OriginDomain: post.Domain,
		RawText:      strings.TrimSpace(html.UnescapeString(post.Selftext)),
		ThumbnailURL: thumb,
		PostedAt:     time.Unix(int64(post.CreatedUTC), 0).UTC(),
	}
	item.Artist, item.WorkTitle = classify.ExtractArtistAndTitle(title, item.Category)
	return item
}

func buildListingURL(base string, limit int, window string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid feed url %s: %w", base, err)
	}

	query := parsed.Query()
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if window != "" {
		query.Set("t", window)
	}
	query.Set("raw_json", "1")
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (r *RedditScanner) debug(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
