package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"KhiphopPipeline/internal/domain"
)

type stubSource struct {
	items []domain.CanonicalItem
	calls int
}

func (s *stubSource) Fetch(context.Context, int) []domain.CanonicalItem {
	s.calls++
	return s.items
}

type memDedup struct {
	ids     map[string]struct{}
	loadErr error
}

func newMemDedup() *memDedup { return &memDedup{ids: map[string]struct{}{}} }

func (m *memDedup) LoadProcessedIDs(context.Context) (map[string]struct{}, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make(map[string]struct{}, len(m.ids))
	for id := range m.ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (m *memDedup) MarkProcessed(_ context.Context, id string) error {
	m.ids[id] = struct{}{}
	return nil
}

type memStaging struct {
	records   []domain.StagedRecord
	appendErr error
	removeErr error
}

func (m *memStaging) List(context.Context) ([]domain.StagedRecord, error) {
	return append([]domain.StagedRecord(nil), m.records...), nil
}

func (m *memStaging) Append(_ context.Context, record domain.StagedRecord) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	for _, r := range m.records {
		if r.Item.ID == record.Item.ID {
			return nil
		}
	}
	m.records = append(m.records, record)
	return nil
}

func (m *memStaging) RemoveByIDs(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.removeErr != nil {
		return m.removeErr
	}
	drop := map[string]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.records[:0]
	for _, r := range m.records {
		if !drop[r.Item.ID] {
			kept = append(kept, r)
		}
	}
	m.records = kept
	return nil
}

func (m *memStaging) ids() []string {
	out := make([]string, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.Item.ID)
	}
	return out
}

type enrichFunc func(domain.CanonicalItem) domain.CanonicalItem

func (f enrichFunc) Enrich(_ context.Context, item domain.CanonicalItem) domain.CanonicalItem {
	return f(item)
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, message string) error {
	n.messages = append(n.messages, message)
	return nil
}

type stubPublisher struct {
	fail   map[string]bool
	calls  []string
	onPost func()
}

func (p *stubPublisher) CreatePost(_ context.Context, record domain.StagedRecord, status domain.PostStatus) (domain.PublishedPost, error) {
	p.calls = append(p.calls, record.Item.ID)
	if p.onPost != nil {
		p.onPost()
	}
	if p.fail[record.Item.ID] {
		return domain.PublishedPost{}, errors.New("cms rejected post")
	}
	return domain.PublishedPost{
		ItemID: record.Item.ID,
		PostID: len(p.calls),
		Link:   "https://blog.example/?p=" + strings.ToLower(record.Item.ID),
		Status: status,
	}, nil
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
}

func musicItem(id string) domain.CanonicalItem {
	return domain.CanonicalItem{ID: id, Title: "A - B", Category: domain.CategoryTrack, Artist: "A", WorkTitle: "B"}
}
