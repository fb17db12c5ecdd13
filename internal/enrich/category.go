package enrich

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"KhiphopPipeline/internal/domain"
	"KhiphopPipeline/internal/ports"
)

const noTextPlaceholder = "No text content provided in Reddit post or linked article."

// CategoryEnricher dispatches an item to the enrichment branch its category calls for.
type CategoryEnricher struct {
	catalog     ports.Catalog
	tokens      *TokenCache
	extractor   ports.ContentExtractor
	selfDomains []string
	logger      *slog.Logger
}

var _ ports.Enricher = (*CategoryEnricher)(nil)

// CategoryDeps wires the collaborators of CategoryEnricher. Catalog and
// Tokens may be nil, which disables music lookups.
type CategoryDeps struct {
	Catalog     ports.Catalog
	Tokens      *TokenCache
	Extractor   ports.ContentExtractor
	SelfDomains []string
	Logger      *slog.Logger
}

// NewCategoryEnricher constructs the enricher.
func NewCategoryEnricher(deps CategoryDeps) *CategoryEnricher {
	return &CategoryEnricher{
		catalog:     deps.Catalog,
		tokens:      deps.Tokens,
		extractor:   deps.Extractor,
		selfDomains: deps.SelfDomains,
		logger:      deps.Logger,
	}
}

// Enrich returns a copy of item with category-specific metadata filled in.
func (e *CategoryEnricher) Enrich(ctx context.Context, item domain.CanonicalItem) domain.CanonicalItem {
	switch item.Category {
	case domain.CategoryTrack, domain.CategoryAlbum, domain.CategoryEP, domain.CategoryMusicVideo:
		return e.lookupRelease(ctx, item)
	case domain.CategoryNews, domain.CategoryRumor:
		return e.resolveArticle(ctx, item)
	case domain.CategoryOther:
		return item
	default:
		e.warn("unknown category, passing through", "id", item.ID, "category", item.Category)
		return item
	}
}

func (e *CategoryEnricher) lookupRelease(ctx context.Context, item domain.CanonicalItem) domain.CanonicalItem {
	if !item.HasWork() || e.catalog == nil {
		return item
	}

	token, err := e.tokens.Token(ctx)
	if err != nil {
		e.warn("catalog lookup skipped", "id", item.ID, "error", err)
		return item
	}

	kind, query := searchFor(item)
	matches, err := e.catalog.Search(ctx, token, query, kind)
	if err != nil {
		e.dropRejectedToken(err)
		e.warn("catalog search failed", "id", item.ID, "query", query, "error", err)
		return item
	}
	if len(matches) == 0 {
		e.debug("catalog search empty", "id", item.ID, "query", query)
		return item
	}

	out := cloneItem(item)
	match := matches[0]
	out.ReleaseDate = match.ReleaseDate
	out.CoverArtURL = match.CoverURL
	out.CatalogLink = match.Link
	out.Category = refineCategory(out.Category, match)

	if match.ReleaseID == "" {
		return out
	}
	details, err := e.catalog.Release(ctx, token, match.ReleaseID)
	if err != nil {
		e.dropRejectedToken(err)
		e.warn("catalog release lookup failed", "id", item.ID, "release", match.ReleaseID, "error", err)
		return out
	}
	out.Producers = ExtractProducers(details)
	if out.CoverArtURL == "" {
		out.CoverArtURL = details.CoverURL
	}
	if out.ReleaseDate == "" {
		out.ReleaseDate = details.ReleaseDate
	}
	return out
}

// searchFor picks the result type and biases album searches with a type hint.
func searchFor(item domain.CanonicalItem) (domain.SearchKind, string) {
	query := item.Artist + " " + item.WorkTitle
	switch item.Category {
	case domain.CategoryAlbum:
		return domain.SearchAlbum, query + " album"
	case domain.CategoryEP:
		return domain.SearchAlbum, query + " ep"
	default:
		return domain.SearchTrack, query
	}
}

// refineCategory turns a Track into an Album when the matched track lives on
// an album-typed release. Every other category is kept as classified.
func refineCategory(current domain.Category, match domain.CatalogMatch) domain.Category {
	if current == domain.CategoryTrack && match.Kind == domain.SearchTrack && strings.EqualFold(match.ReleaseType, "album") {
		return domain.CategoryAlbum
	}
	return current
}

func (e *CategoryEnricher) resolveArticle(ctx context.Context, item domain.CanonicalItem) domain.CanonicalItem {
	out := cloneItem(item)

	if strings.TrimSpace(item.RawText) != "" {
		out.Synopsis = item.RawText
		return out
	}

	if item.OriginLink == "" || e.isSelfLink(item) {
		out.Synopsis = noTextPlaceholder
		return out
	}

	if e.extractor == nil {
		out.Synopsis = manualSummaryPlaceholder(item.OriginLink)
		return out
	}

	text, err := e.extractor.Extract(ctx, item.OriginLink)
	switch {
	case err == nil && strings.TrimSpace(text) != "":
		out.Synopsis = text
	case err == nil:
		out.Synopsis = manualSummaryPlaceholder(item.OriginLink)
	default:
		e.warn("article extraction failed", "id", item.ID, "url", item.OriginLink, "error", err)
		out.Synopsis = fetchFailedPlaceholder(item.OriginLink, err)
	}
	return out
}

func (e *CategoryEnricher) isSelfLink(item domain.CanonicalItem) bool {
	domainName := strings.ToLower(item.OriginDomain)
	if strings.HasPrefix(domainName, "self.") {
		return true
	}
	host := domainName
	if u, err := url.Parse(item.OriginLink); err == nil && u.Host != "" {
		host = strings.ToLower(u.Hostname())
	}
	for _, d := range e.selfDomains {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) || domainName == d || strings.HasSuffix(domainName, "."+d) {
			return true
		}
	}
	return false
}

func manualSummaryPlaceholder(link string) string {
	return "(Content from external link: " + link + " - needs manual summary or improved extractor)"
}

func fetchFailedPlaceholder(link string, err error) string {
	if isNoContent(err) {
		return manualSummaryPlaceholder(link)
	}
	return "Error fetching content from link. Visit: " + link
}

// dropRejectedToken forgets a token the catalog refused before its expiry.
func (e *CategoryEnricher) dropRejectedToken(err error) {
	if errors.Is(err, ports.ErrUnauthorized) {
		e.tokens.Invalidate()
	}
}

func isNoContent(err error) bool {
	return errors.Is(err, ports.ErrNoContent)
}

func cloneItem(item domain.CanonicalItem) domain.CanonicalItem {
	out := item
	if item.Producers != nil {
		out.Producers = append([]string(nil), item.Producers...)
	}
	return out
}

func (e *CategoryEnricher) warn(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}

func (e *CategoryEnricher) debug(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
