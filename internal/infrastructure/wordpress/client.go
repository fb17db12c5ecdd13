package wordpress

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"KhiphopPipeline/internal/config"
	"KhiphopPipeline/internal/domain"
	"KhiphopPipeline/internal/infrastructure/httpx"
	"KhiphopPipeline/internal/ports"
)

// maxCoverBytes bounds the cover image download.
const maxCoverBytes = 10 << 20

// Client creates posts through the WordPress REST API using an application password.
type Client struct {
	endpoint    string
	username    string
	password    string
	sourceLabel string
	http        *httpx.Client
	logger      *slog.Logger
}

var _ ports.Publisher = (*Client)(nil)

// NewClient builds a REST client from configuration.
func NewClient(cfg config.WordPressConfig, transport *httpx.Client, logger *slog.Logger) *Client {
	if transport == nil {
		transport = httpx.New(httpx.WithTimeout(30 * time.Second))
	}
	label := cfg.SourceLabel
	if label == "" {
		label = "Reddit"
	}
	return &Client{
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		username:    cfg.Username,
		password:    cfg.Password,
		sourceLabel: label,
		http:        transport,
		logger:      logger,
	}
}

type postPayload struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Status        string `json:"status"`
	FeaturedMedia int    `json:"featured_media,omitempty"`
}

type postResponse struct {
	ID     int    `json:"id"`
	Link   string `json:"link"`
	Status string `json:"status"`
}

type mediaResponse struct {
	ID int `json:"id"`
}

// CreatePost uploads the cover art when present and creates the post.
// A failed cover upload does not block the post.
func (c *Client) CreatePost(ctx context.Context, record domain.StagedRecord, status domain.PostStatus) (domain.PublishedPost, error) {
	if c.endpoint == "" || c.username == "" || c.password == "" {
		return domain.PublishedPost{}, fmt.Errorf("wordpress client misconfigured")
	}
	item := record.Item

	content, err := RenderContent(item, c.sourceLabel)
	if err != nil {
		return domain.PublishedPost{}, err
	}

	payload := postPayload{
		Title:   item.Title,
		Content: content,
		Status:  string(status),
	}
	if item.CoverArtURL != "" {
		mediaID, err := c.uploadCover(ctx, item)
		if err != nil {
			c.warn("cover upload failed", "id", item.ID, "url", item.CoverArtURL, "error", err)
		} else {
			payload.FeaturedMedia = mediaID
		}
	}

	var resp postResponse
	if err := c.http.PostJSON(ctx, c.endpoint+"/wp/v2/posts", c.authHeader(), payload, &resp); err != nil {
		return domain.PublishedPost{}, fmt.Errorf("create post: %w", err)
	}
	if resp.ID == 0 {
		return domain.PublishedPost{}, fmt.Errorf("create post: response carried no id")
	}

	published := status
	if resp.Status != "" {
		published = domain.PostStatus(resp.Status)
	}
	return domain.PublishedPost{
		ItemID: item.ID,
		PostID: resp.ID,
		Link:   resp.Link,
		Status: published,
	}, nil
}

func (c *Client) uploadCover(ctx context.Context, item domain.CanonicalItem) (int, error) {
	image, contentType, err := c.download(ctx, item.CoverArtURL)
	if err != nil {
		return 0, err
	}

	title := item.WorkTitle
	if title == "" {
		title = item.Title
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", coverFileName(item.CoverArtURL, title, contentType))
	if err != nil {
		return 0, fmt.Errorf("multipart file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return 0, fmt.Errorf("multipart write: %w", err)
	}
	_ = form.WriteField("title", title+" Album Cover")
	_ = form.WriteField("alt_text", title+" - Cover Art")
	if err := form.Close(); err != nil {
		return 0, fmt.Errorf("multipart close: %w", err)
	}

	var media mediaResponse
	if err := c.http.PostRaw(ctx, c.endpoint+"/wp/v2/media", c.authHeader(), form.FormDataContentType(), body.Bytes(), &media); err != nil {
		return 0, fmt.Errorf("upload media: %w", err)
	}
	if media.ID == 0 {
		return 0, fmt.Errorf("upload media: response carried no id")
	}
	return media.ID, nil
}

func (c *Client) download(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download cover: %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read cover: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) authHeader() http.Header {
	req := &http.Request{Header: http.Header{}}
	req.SetBasicAuth(c.username, c.password)
	return req.Header
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// coverFileName keeps the URL's last path segment, adding an extension from
// the content type when the segment has none.
func coverFileName(rawURL, title, contentType string) string {
	name := ""
	if u, err := url.Parse(rawURL); err == nil {
		name = path.Base(u.Path)
	}
	if name == "" || name == "." || name == "/" {
		name = whitespaceRun.ReplaceAllString(strings.TrimSpace(title), "-") + "-cover"
	}
	if strings.Contains(name, ".") {
		return name
	}

	ext := "jpg"
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if _, sub, ok := strings.Cut(mediaType, "/"); ok && sub != "" {
			ext = sub
		}
	}
	return name + "." + ext
}
