package wordpress

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KhiphopPipeline/internal/config"
	"KhiphopPipeline/internal/domain"
	"KhiphopPipeline/internal/infrastructure/httpx"
)

type wpServer struct {
	*httptest.Server
	mediaUploads int
	mediaTitle   string
	post         postPayload
}

func newWPServer(t *testing.T, failMedia bool) *wpServer {
	t.Helper()
	s := &wpServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/covers/cover", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	})
	mux.HandleFunc("/wp-json/wp/v2/media", func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ := r.BasicAuth()
		if user != "editor" || pass != "app pass" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		s.mediaUploads++
		if failMedia {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		if string(data) != "png-bytes" || header.Filename != "cover.png" {
			t.Errorf("unexpected upload %q %q", header.Filename, data)
		}
		s.mediaTitle = r.FormValue("title")
		_, _ = w.Write([]byte(`{"id":77}`))
	})
	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&s.post); err != nil {
			t.Errorf("decode post: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":12,"link":"https://blog.example/?p=12","status":"` + s.post.Status + `"}`))
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func newTestClient(s *wpServer) *Client {
	return NewClient(config.WordPressConfig{
		Endpoint:    s.URL + "/wp-json/",
		Username:    "editor",
		Password:    "app pass",
		SourceLabel: "r/khiphop on Reddit",
	}, httpx.New(httpx.WithHTTPClient(s.Client()), httpx.WithRetries(0, 0)), nil)
}

func stagedTrack(coverURL string) domain.StagedRecord {
	return domain.StagedRecord{
		Item: domain.CanonicalItem{
			ID:          "abc",
			Title:       "Jay Park - All I Wanna Do",
			Category:    domain.CategoryTrack,
			SourceLink:  "https://www.reddit.com/r/khiphop/comments/abc/",
			OriginLink:  "https://youtu.be/xyz",
			Artist:      "Jay Park",
			WorkTitle:   "All I Wanna Do",
			ReleaseDate: "2016-05-01",
			Producers:   []string{"Cha Cha Malone"},
			CoverArtURL: coverURL,
			CatalogLink: "https://open.spotify.com/track/1",
			Synopsis:    "A summer single.",
		},
		StagedAt: time.Now(),
	}
}

func TestCreatePostWithCover(t *testing.T) {
	server := newWPServer(t, false)
	client := newTestClient(server)

	post, err := client.CreatePost(context.Background(), stagedTrack(server.URL+"/covers/cover"), domain.PostDraft)
	require.NoError(t, err)

	assert.Equal(t, 12, post.PostID)
	assert.Equal(t, "abc", post.ItemID)
	assert.Equal(t, domain.PostDraft, post.Status)
	assert.Equal(t, 1, server.mediaUploads)
	assert.Equal(t, "All I Wanna Do Album Cover", server.mediaTitle)
	assert.Equal(t, 77, server.post.FeaturedMedia)
	assert.Equal(t, "draft", server.post.Status)
	assert.Equal(t, "Jay Park - All I Wanna Do", server.post.Title)
	assert.Contains(t, server.post.Content, "<strong>Producer(s):</strong> Cha Cha Malone")
}

func TestCreatePostSurvivesCoverFailure(t *testing.T) {
	server := newWPServer(t, true)
	client := newTestClient(server)

	post, err := client.CreatePost(context.Background(), stagedTrack(server.URL+"/covers/cover"), domain.PostPublish)
	require.NoError(t, err)

	assert.Equal(t, 12, post.PostID)
	assert.Equal(t, domain.PostPublish, post.Status)
	assert.Zero(t, server.post.FeaturedMedia)
}

func TestCreatePostMisconfigured(t *testing.T) {
	client := NewClient(config.WordPressConfig{}, nil, nil)
	_, err := client.CreatePost(context.Background(), stagedTrack(""), domain.PostDraft)
	require.Error(t, err)
}

func TestRenderContentMusic(t *testing.T) {
	record := stagedTrack("")
	record.Item.Synopsis = "Line one\nLine <two>"

	html, err := RenderContent(record.Item, "r/khiphop on Reddit")
	require.NoError(t, err)

	assert.Contains(t, html, "<p><strong>Artist:</strong> Jay Park</p>")
	assert.Contains(t, html, "<p><strong>Release Date:</strong> 2016-05-01</p>")
	assert.Contains(t, html, "Line one<br>Line &lt;two&gt;")
	assert.Contains(t, html, `href="https://open.spotify.com/track/1"`)
	assert.Contains(t, html, "r/khiphop on Reddit</a> | <a href=\"https://youtu.be/xyz\"")
}

func TestRenderContentNewsHidesMusicFields(t *testing.T) {
	item := domain.CanonicalItem{
		Category:   domain.CategoryNews,
		Artist:     "Someone",
		WorkTitle:  "Something",
		Synopsis:   "Festival lineup announced.",
		SourceLink: "https://www.reddit.com/r/khiphop/comments/n1/",
		OriginLink: "https://i.redd.it/pic.jpg",
	}

	html, err := RenderContent(item, "r/khiphop on Reddit")
	require.NoError(t, err)

	assert.NotContains(t, html, "Artist:")
	assert.NotContains(t, html, "Original Source")
	assert.Contains(t, html, "Festival lineup announced.")
	assert.False(t, strings.Contains(html, "Stream/Listen"))
}

func TestCoverFileName(t *testing.T) {
	assert.Equal(t, "ab67616d.jpeg", coverFileName("https://i.scdn.co/image/ab67616d.jpeg", "x", ""))
	assert.Equal(t, "ab67616d.png", coverFileName("https://i.scdn.co/image/ab67616d", "x", "image/png"))
	assert.Equal(t, "Good-Day-cover.jpg", coverFileName("https://host/", "Good Day", ""))
}
