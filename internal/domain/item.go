package domain

import (
	"time"
	"unicode/utf8"
)

// Category classifies a feed post and selects its enrichment branch.
type Category string

const (
	CategoryTrack      Category = "track"
	CategoryAlbum      Category = "album"
	CategoryEP         Category = "ep"
	CategoryMusicVideo Category = "mv"
	CategoryNews       Category = "news"
	CategoryRumor      Category = "rumor"
	CategoryOther      Category = "other"
)

// IsMusic reports whether the category is resolved against the music catalog.
func (c Category) IsMusic() bool {
	switch c {
	case CategoryTrack, CategoryAlbum, CategoryEP, CategoryMusicVideo:
		return true
	default:
		return false
	}
}

// IsArticle reports whether the category carries news-like prose.
func (c Category) IsArticle() bool {
	return c == CategoryNews || c == CategoryRumor
}

// CanonicalItem is one feed post normalized into pipeline shape.
// Feed-derived fields are set once by the feed source; the remaining
// fields are filled by enrichment.
type CanonicalItem struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Tag          string    `json:"tag,omitempty"`
	Category     Category  `json:"category"`
	SourceLink   string    `json:"sourceLink"`
	OriginLink   string    `json:"originLink"`
	OriginDomain string    `json:"originDomain"`
	RawText      string    `json:"rawText,omitempty"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	PostedAt     time.Time `json:"postedAt"`

	Artist      string   `json:"artist,omitempty"`
	WorkTitle   string   `json:"workTitle,omitempty"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
	Producers   []string `json:"producers,omitempty"`
	CoverArtURL string   `json:"coverArtUrl,omitempty"`
	CatalogLink string   `json:"catalogLink,omitempty"`
	Synopsis    string   `json:"synopsis,omitempty"`
}

// HasWork reports whether both artist and work title are known.
func (i CanonicalItem) HasWork() bool {
	return i.Artist != "" && i.WorkTitle != ""
}

// SynopsisLen counts characters, not bytes, so Hangul text is measured fairly.
func (i CanonicalItem) SynopsisLen() int {
	return utf8.RuneCountInString(i.Synopsis)
}

// StagedRecord is an enriched item awaiting a publish decision.
type StagedRecord struct {
	Item     CanonicalItem `json:"item"`
	StagedAt time.Time     `json:"stagedAt"`
}

// RunSummary reports the counters of one pipeline run.
type RunSummary struct {
	RunID    string
	Fetched  int
	NewCount int
	Staged   int
	Skipped  int
}

// AccessToken is a bearer token with its absolute expiry.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// SearchKind selects the catalog result type.
type SearchKind string

const (
	SearchTrack SearchKind = "track"
	SearchAlbum SearchKind = "album"
)

// CatalogMatch is a single catalog search hit.
type CatalogMatch struct {
	ID          string
	Kind        SearchKind
	Name        string
	Artists     []string
	ReleaseID   string
	ReleaseType string
	ReleaseDate string
	CoverURL    string
	Link        string
}

// ReleaseDetails holds the full release metadata used for producer credits.
type ReleaseDetails struct {
	ID          string
	Name        string
	ReleaseDate string
	Label       string
	Copyrights  []string
	CoverURL    string
}

// PostStatus is the CMS visibility of a created post.
type PostStatus string

const (
	PostDraft   PostStatus = "draft"
	PostPublish PostStatus = "publish"
)

// PublishedPost describes a post created in the CMS.
type PublishedPost struct {
	ItemID string
	PostID int
	Link   string
	Status PostStatus
}
