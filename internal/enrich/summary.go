package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"KhiphopPipeline/internal/domain"
	"KhiphopPipeline/internal/ports"
)

// MinArticleMaterial is the smallest synopsis, in characters, worth summarizing.
const MinArticleMaterial = 50

// SummaryEnricher replaces the synopsis with an LLM-written blurb.
type SummaryEnricher struct {
	chat   ports.ChatClient
	logger *slog.Logger
}

var _ ports.Enricher = (*SummaryEnricher)(nil)

// NewSummaryEnricher returns an enricher; a nil chat client turns it into a no-op.
func NewSummaryEnricher(chat ports.ChatClient, logger *slog.Logger) *SummaryEnricher {
	return &SummaryEnricher{chat: chat, logger: logger}
}

// Enrich asks the chat client for a synopsis when the item carries enough material.
func (s *SummaryEnricher) Enrich(ctx context.Context, item domain.CanonicalItem) domain.CanonicalItem {
	if s == nil || s.chat == nil {
		return item
	}

	prompt, ok := summaryPrompt(item)
	if !ok {
		if s.logger != nil {
			s.logger.Debug("summary skipped", "id", item.ID, "category", item.Category)
		}
		return item
	}

	text, err := s.chat.Complete(ctx, prompt)
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = fmt.Errorf("empty completion")
	}
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("summary generation failed", "id", item.ID, "error", err)
		}
		return item
	}

	out := cloneItem(item)
	out.Synopsis = text
	return out
}

func summaryPrompt(item domain.CanonicalItem) (string, bool) {
	switch {
	case item.Category.IsArticle():
		if item.SynopsisLen() < MinArticleMaterial {
			return "", false
		}
		return fmt.Sprintf(
			"Generate a concise, SEO-friendly news summary (around 100-150 words) for a blog post about the following Korean hip-hop news. Highlight key information. News content: %q",
			item.Synopsis,
		), true
	case item.Category.IsMusic():
		if !item.HasWork() {
			return "", false
		}
		var b strings.Builder
		fmt.Fprintf(&b,
			"Generate a short, engaging, and SEO-friendly synopsis (around 100-150 words) for a blog post about the Korean hip-hop %s release titled %q by %q. Mention the artist and title.",
			releaseNoun(item.Category), item.WorkTitle, item.Artist,
		)
		if item.ReleaseDate != "" {
			fmt.Fprintf(&b, " Release date: %s.", item.ReleaseDate)
		}
		details := item.Synopsis
		if details == "" {
			details = "None"
		}
		fmt.Fprintf(&b, " Available description/details: %q", details)
		return b.String(), true
	default:
		return "", false
	}
}

func releaseNoun(c domain.Category) string {
	switch c {
	case domain.CategoryMusicVideo:
		return "music video"
	case domain.CategoryEP:
		return "EP"
	default:
		return string(c)
	}
}
