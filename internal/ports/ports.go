package ports

import (
	"context"
	"errors"
	"time"

	"KhiphopPipeline/internal/domain"
)

// FeedSource pulls a bounded batch of classified items from upstream feeds.
// Failures are logged by the implementation and yield an empty batch.
type FeedSource interface {
	Fetch(ctx context.Context, limit int) []domain.CanonicalItem
}

// DedupStore remembers item ids that already went through the pipeline.
type DedupStore interface {
	LoadProcessedIDs(ctx context.Context) (map[string]struct{}, error)
	MarkProcessed(ctx context.Context, id string) error
}

// StagingStore holds enriched records until someone decides to publish them.
type StagingStore interface {
	List(ctx context.Context) ([]domain.StagedRecord, error)
	Append(ctx context.Context, record domain.StagedRecord) error
	RemoveByIDs(ctx context.Context, ids []string) error
}

// Enricher adds metadata to an item. Implementations never fail the caller.
type Enricher interface {
	Enrich(ctx context.Context, item domain.CanonicalItem) domain.CanonicalItem
}

// TokenExchanger trades client credentials for a catalog access token.
type TokenExchanger interface {
	ExchangeToken(ctx context.Context) (domain.AccessToken, error)
}

// Catalog looks up music releases.
type Catalog interface {
	Search(ctx context.Context, token, query string, kind domain.SearchKind) ([]domain.CatalogMatch, error)
	Release(ctx context.Context, token, id string) (domain.ReleaseDetails, error)
}

// ChatClient sends a prompt to an LLM completion API and returns its text.
type ChatClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrUnauthorized matches errors from an external API that rejected the
// supplied credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNoContent is returned by a ContentExtractor that reached the page but
// could not find article text in it.
var ErrNoContent = errors.New("no article content found")

// ContentExtractor resolves the main text of an external article.
type ContentExtractor interface {
	Extract(ctx context.Context, pageURL string) (string, error)
}

// Publisher creates CMS posts from staged records.
type Publisher interface {
	CreatePost(ctx context.Context, record domain.StagedRecord, status domain.PostStatus) (domain.PublishedPost, error)
}

// Notifier streams run reports to Telegram or other channels.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// ItemRecorder dumps processed items for offline inspection.
type ItemRecorder interface {
	Record(item domain.CanonicalItem) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
