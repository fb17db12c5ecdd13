package parser

import (
	"context"
	"log/slog"

	"KhiphopPipeline/internal/config"
	"KhiphopPipeline/internal/domain"
	"KhiphopPipeline/internal/ports"
	"KhiphopPipeline/internal/scanner"
)

// StrategySource implements FeedSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	feeds    []config.FeedConfig
	logger   *slog.Logger
}

var _ ports.FeedSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined feeds.
func NewStrategySource(reg *scanner.Registry, feeds []config.FeedConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		feeds:    feeds,
		logger:   log,
	}
}

// Fetch iterates over configured feeds and executes their scanners. A feed
// that fails is logged and skipped; the batch never exceeds limit.
func (s *StrategySource) Fetch(ctx context.Context, limit int) []domain.CanonicalItem {
	if s.registry == nil {
		s.warn("scanner registry is not configured")
		return nil
	}

	s.debug("fetch feeds", "feeds", len(s.feeds), "limit", limit)

	var aggregated []domain.CanonicalItem
	for _, feed := range s.feeds {
		remaining := limit - len(aggregated)
		if limit > 0 && remaining <= 0 {
			break
		}

		strategy, err := s.registry.Resolve(feed.Scanner)
		if err != nil {
			s.warn("feed skipped", "feed", feed.Name, "error", err)
			continue
		}

		req := scanner.Request{
			FeedName:      feed.Name,
			URL:           feed.URL,
			Limit:         feedLimit(feed.Limit, remaining, limit),
			Window:        feed.Window,
			AllowedFlairs: feed.AllowedFlairs,
			Options:       feed.Options,
		}

		results, err := strategy.Scan(ctx, req)
		if err != nil {
			s.warn("feed fetch failed", "feed", feed.Name, "error", err)
			continue
		}

		if limit > 0 && len(results) > remaining {
			results = results[:remaining]
		}
		s.debug("feed produced items", "feed", feed.Name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	s.debug("strategy source done", "total_items", len(aggregated))
	return aggregated
}

func feedLimit(configured, remaining, requested int) int {
	if requested <= 0 {
		return configured
	}
	if configured > 0 && configured < remaining {
		return configured
	}
	return remaining
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
