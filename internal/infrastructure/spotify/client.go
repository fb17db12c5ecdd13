package spotify

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"KhiphopPipeline/internal/config"
	"KhiphopPipeline/internal/domain"
	"KhiphopPipeline/internal/infrastructure/httpx"
	"KhiphopPipeline/internal/ports"
)

// Client talks to the Spotify Web API with client-credentials auth.
type Client struct {
	tokenURL     string
	apiURL       string
	clientID     string
	clientSecret string
	market       string
	searchLimit  int
	http         *httpx.Client
	now          func() time.Time
}

var (
	_ ports.Catalog        = (*Client)(nil)
	_ ports.TokenExchanger = (*Client)(nil)
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type image struct {
	URL string `json:"url"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

type artist struct {
	Name string `json:"name"`
}

type album struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	AlbumType    string       `json:"album_type"`
	ReleaseDate  string       `json:"release_date"`
	Images       []image      `json:"images"`
	Artists      []artist     `json:"artists"`
	ExternalURLs externalURLs `json:"external_urls"`
	Label        string       `json:"label"`
	Copyrights   []struct {
		Text string `json:"text"`
		Type string `json:"type"`
	} `json:"copyrights"`
}

type track struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Album        album        `json:"album"`
	Artists      []artist     `json:"artists"`
	ExternalURLs externalURLs `json:"external_urls"`
}

type searchResponse struct {
	Tracks *struct {
		Items []track `json:"items"`
	} `json:"tracks"`
	Albums *struct {
		Items []album `json:"items"`
	} `json:"albums"`
}

// NewClient builds a client from configuration; a nil transport gets a rate-limited default.
func NewClient(cfg config.SpotifyConfig, transport *httpx.Client) *Client {
	if transport == nil {
		transport = httpx.New(httpx.WithTimeout(15*time.Second), httpx.WithRateLimit(cfg.RequestsPerSecond))
	}
	limit := cfg.SearchLimit
	if limit <= 0 {
		limit = 5
	}
	return &Client{
		tokenURL:     cfg.TokenURL,
		apiURL:       cfg.APIURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		market:       cfg.Market,
		searchLimit:  limit,
		http:         transport,
		now:          time.Now,
	}
}

// ExchangeToken performs the client-credentials grant.
func (c *Client) ExchangeToken(ctx context.Context) (domain.AccessToken, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return domain.AccessToken{}, fmt.Errorf("spotify client misconfigured")
	}

	creds := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	header := http.Header{}
	header.Set("Authorization", "Basic "+creds)

	var resp tokenResponse
	form := url.Values{"grant_type": {"client_credentials"}}
	if err := c.http.PostForm(ctx, c.tokenURL, header, form, &resp); err != nil {
		return domain.AccessToken{}, fmt.Errorf("spotify token: %w", err)
	}
	if resp.AccessToken == "" {
		return domain.AccessToken{}, fmt.Errorf("spotify token: empty access_token")
	}

	return domain.AccessToken{
		Value:     resp.AccessToken,
		ExpiresAt: c.now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}, nil
}

// Search returns catalog hits in the order Spotify ranks them.
func (c *Client) Search(ctx context.Context, token, query string, kind domain.SearchKind) ([]domain.CatalogMatch, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("type", string(kind))
	q.Set("limit", strconv.Itoa(c.searchLimit))
	if c.market != "" {
		q.Set("market", c.market)
	}

	var resp searchResponse
	if err := c.http.GetJSON(ctx, c.apiURL+"/search?"+q.Encode(), bearer(token), &resp); err != nil {
		return nil, fmt.Errorf("spotify search %s %q: %w", kind, query, err)
	}

	var matches []domain.CatalogMatch
	switch kind {
	case domain.SearchTrack:
		if resp.Tracks == nil {
			return nil, nil
		}
		for _, t := range resp.Tracks.Items {
			matches = append(matches, domain.CatalogMatch{
				ID:          t.ID,
				Kind:        domain.SearchTrack,
				Name:        t.Name,
				Artists:     artistNames(t.Artists),
				ReleaseID:   t.Album.ID,
				ReleaseType: t.Album.AlbumType,
				ReleaseDate: t.Album.ReleaseDate,
				CoverURL:    firstImage(t.Album.Images),
				Link:        t.ExternalURLs.Spotify,
			})
		}
	case domain.SearchAlbum:
		if resp.Albums == nil {
			return nil, nil
		}
		for _, a := range resp.Albums.Items {
			matches = append(matches, domain.CatalogMatch{
				ID:          a.ID,
				Kind:        domain.SearchAlbum,
				Name:        a.Name,
				Artists:     artistNames(a.Artists),
				ReleaseID:   a.ID,
				ReleaseType: a.AlbumType,
				ReleaseDate: a.ReleaseDate,
				CoverURL:    firstImage(a.Images),
				Link:        a.ExternalURLs.Spotify,
			})
		}
	default:
		return nil, fmt.Errorf("spotify search: unsupported kind %q", kind)
	}
	return matches, nil
}

// Release fetches album details, including label and copyright notices.
func (c *Client) Release(ctx context.Context, token, id string) (domain.ReleaseDetails, error) {
	endpoint := c.apiURL + "/albums/" + url.PathEscape(id)
	if c.market != "" {
		endpoint += "?market=" + url.QueryEscape(c.market)
	}

	var a album
	if err := c.http.GetJSON(ctx, endpoint, bearer(token), &a); err != nil {
		return domain.ReleaseDetails{}, fmt.Errorf("spotify album %s: %w", id, err)
	}

	details := domain.ReleaseDetails{
		ID:          a.ID,
		Name:        a.Name,
		ReleaseDate: a.ReleaseDate,
		Label:       a.Label,
		CoverURL:    firstImage(a.Images),
	}
	for _, cp := range a.Copyrights {
		details.Copyrights = append(details.Copyrights, cp.Text)
	}
	return details, nil
}

func bearer(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}

func artistNames(artists []artist) []string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return names
}

func firstImage(images []image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
