package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"KhiphopPipeline/internal/domain"
	"KhiphopPipeline/internal/logging"
	"KhiphopPipeline/internal/ports"
)

// ErrNotStaged is reported for requested ids that are not in the staging store.
var ErrNotStaged = errors.New("item is not staged")

// PublishReport lists the outcome of one publish batch.
type PublishReport struct {
	Published []domain.PublishedPost
	Failed    map[string]error
}

// PublishFlow moves staged records into the CMS and drops the published ones
// from staging.
type PublishFlow struct {
	staging   ports.StagingStore
	publisher ports.Publisher
	logger    *slog.Logger
}

// NewPublishFlow wires the staging store with a CMS publisher.
func NewPublishFlow(staging ports.StagingStore, publisher ports.Publisher, logger *slog.Logger) *PublishFlow {
	if logger == nil {
		logger = logging.Discard()
	}
	return &PublishFlow{staging: staging, publisher: publisher, logger: logger}
}

// Publish creates a post for every requested id, or for every staged record
// when ids is empty. Only records that were posted successfully are removed
// from staging, so failures can be retried.
func (f *PublishFlow) Publish(ctx context.Context, ids []string, status domain.PostStatus) (PublishReport, error) {
	report := PublishReport{Failed: map[string]error{}}
	if f.staging == nil || f.publisher == nil {
		return report, fmt.Errorf("publish flow is not configured")
	}

	records, err := f.staging.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list staged: %w", err)
	}

	selected := selectRecords(records, ids, report.Failed)

	var done []string
	for _, record := range selected {
		if err := ctx.Err(); err != nil {
			break
		}
		post, err := f.publisher.CreatePost(ctx, record, status)
		if err != nil {
			f.logger.Warn("publish failed", "id", record.Item.ID, "error", err)
			report.Failed[record.Item.ID] = err
			continue
		}
		f.logger.Info("published", "id", record.Item.ID, "post_id", post.PostID, "status", post.Status, "link", post.Link)
		report.Published = append(report.Published, post)
		done = append(done, record.Item.ID)
	}

	if len(done) > 0 {
		// Created posts must leave staging even when the batch was cancelled.
		if err := f.staging.RemoveByIDs(context.WithoutCancel(ctx), done); err != nil {
			return report, fmt.Errorf("remove published from staging: %w", err)
		}
	}
	return report, ctx.Err()
}

func selectRecords(records []domain.StagedRecord, ids []string, missing map[string]error) []domain.StagedRecord {
	if len(ids) == 0 {
		return records
	}
	byID := make(map[string]domain.StagedRecord, len(records))
	for _, record := range records {
		byID[record.Item.ID] = record
	}
	out := make([]domain.StagedRecord, 0, len(ids))
	for _, id := range ids {
		record, ok := byID[id]
		if !ok {
			missing[id] = ErrNotStaged
			continue
		}
		out = append(out, record)
		delete(byID, id)
	}
	return out
}
