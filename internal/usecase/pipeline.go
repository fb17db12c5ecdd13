package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"KhiphopPipeline/internal/domain"
	"KhiphopPipeline/internal/logging"
	"KhiphopPipeline/internal/ports"
)

// DefaultFetchLimit caps how many feed items one run looks at.
const DefaultFetchLimit = 100

// minArticleSynopsis is the shortest news synopsis worth staging.
const minArticleSynopsis = 20

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source    ports.FeedSource
	Dedup     ports.DedupStore
	Staging   ports.StagingStore
	Enrichers []ports.Enricher
	Recorder  ports.ItemRecorder
	Notifier  ports.Notifier
	Logger    *slog.Logger
	Limit     int
	Now       func() time.Time
}

// Pipeline fetches feed items, filters already processed ones, enriches
// the rest and stages those worth publishing.
// Runs must be serialized by the caller.
type Pipeline struct {
	source    ports.FeedSource
	dedup     ports.DedupStore
	staging   ports.StagingStore
	enrichers []ports.Enricher
	recorder  ports.ItemRecorder
	notifier  ports.Notifier
	logger    *slog.Logger
	limit     int
	now       func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	limit := deps.Limit
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pipeline{
		source:    deps.Source,
		dedup:     deps.Dedup,
		staging:   deps.Staging,
		enrichers: deps.Enrichers,
		recorder:  deps.Recorder,
		notifier:  deps.Notifier,
		logger:    logger,
		limit:     limit,
		now:       now,
	}
}

// RunOnce executes one full fetch-filter-enrich-stage pass. Per-item
// failures degrade that item only; the returned error is set when the
// processed ids cannot be read or ctx is cancelled mid-run.
func (p *Pipeline) RunOnce(ctx context.Context) (domain.RunSummary, error) {
	summary := domain.RunSummary{RunID: uuid.NewString()}
	log := p.logger.With("run_id", summary.RunID)
	started := p.now()

	if p.source == nil {
		return summary, nil
	}

	processed := map[string]struct{}{}
	if p.dedup != nil {
		ids, err := p.dedup.LoadProcessedIDs(ctx)
		if err != nil {
			// Without the processed set every fetched id would look new.
			log.Error("load processed ids failed, run aborted", "error", err)
			return summary, fmt.Errorf("load processed ids: %w", err)
		}
		if ids != nil {
			processed = ids
		}
	}

	items := p.source.Fetch(ctx, p.limit)
	summary.Fetched = len(items)

	fresh := filterNew(items, processed)
	summary.NewCount = len(fresh)
	log.Info("feed fetched", "fetched", summary.Fetched, "new", summary.NewCount)

	for _, item := range fresh {
		if err := ctx.Err(); err != nil {
			log.Warn("run cancelled", "error", err)
			return summary, err
		}
		if p.process(ctx, log, item) {
			summary.Staged++
		} else {
			summary.Skipped++
		}
	}

	log.Info("run finished",
		"fetched", summary.Fetched,
		"new", summary.NewCount,
		"staged", summary.Staged,
		"skipped", summary.Skipped,
		"duration", p.now().Sub(started).String(),
	)

	p.notify(ctx, log, summary)
	return summary, nil
}

// process enriches, gates and stages one item. It reports whether the item
// ended up in the staging store.
func (p *Pipeline) process(ctx context.Context, log *slog.Logger, item domain.CanonicalItem) bool {
	for _, enricher := range p.enrichers {
		if enricher == nil {
			continue
		}
		item = enricher.Enrich(ctx, item)
	}

	if p.recorder != nil {
		if err := p.recorder.Record(item); err != nil {
			log.Warn("record item failed", "id", item.ID, "error", err)
		}
	}

	staged := false
	if reason := ineligibleReason(item); reason != "" {
		log.Info("item not staged", "id", item.ID, "category", item.Category, "reason", reason)
	} else {
		if p.staging != nil {
			record := domain.StagedRecord{Item: item, StagedAt: p.now().UTC()}
			if err := p.staging.Append(ctx, record); err != nil {
				// Leave it unmarked so the next run retries the item.
				log.Error("stage item failed", "id", item.ID, "error", err)
				return false
			}
		}
		staged = true
		log.Info("item staged", "id", item.ID, "category", item.Category, "title", item.Title)
	}

	if p.dedup != nil {
		if err := p.dedup.MarkProcessed(ctx, item.ID); err != nil {
			log.Error("mark processed failed", "id", item.ID, "error", err)
		}
	}
	return staged
}

func (p *Pipeline) notify(ctx context.Context, log *slog.Logger, summary domain.RunSummary) {
	if p.notifier == nil || summary.Staged == 0 {
		return
	}
	if err := p.notifier.Notify(ctx, FormatRunSummary(summary)); err != nil {
		log.Warn("run notification failed", "error", err)
	}
}

// FormatRunSummary renders the counters of a run as a short message.
func FormatRunSummary(summary domain.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "khiphop run %s\n", summary.RunID)
	fmt.Fprintf(&b, "fetched: %d\nnew: %d\nstaged: %d\nskipped: %d",
		summary.Fetched, summary.NewCount, summary.Staged, summary.Skipped)
	return b.String()
}

// filterNew drops processed ids and repeats within the batch, keeping order.
func filterNew(items []domain.CanonicalItem, processed map[string]struct{}) []domain.CanonicalItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]domain.CanonicalItem, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		if _, ok := processed[item.ID]; ok {
			continue
		}
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Eligible reports whether an enriched item carries enough material to stage.
func Eligible(item domain.CanonicalItem) bool {
	return ineligibleReason(item) == ""
}

func ineligibleReason(item domain.CanonicalItem) string {
	switch {
	case item.Category.IsMusic():
		if !item.HasWork() {
			return "missing artist or work title"
		}
	case item.Category.IsArticle():
		if item.SynopsisLen() <= minArticleSynopsis {
			return "synopsis too short"
		}
	case item.Category == domain.CategoryOther:
		if strings.TrimSpace(item.Title) == "" || item.OriginLink == "" {
			return "missing title or link"
		}
	default:
		return "unknown category"
	}
	return ""
}
