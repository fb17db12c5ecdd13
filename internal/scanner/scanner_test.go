package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KhiphopPipeline/internal/domain"
)

type staticScanner struct {
	name  string
	items []domain.CanonicalItem
}

func (s staticScanner) Name() string { return s.name }

func (s staticScanner) Scan(context.Context, Request) ([]domain.CanonicalItem, error) {
	return s.items, nil
}

func TestRegistryResolve(t *testing.T) {
	var r Registry
	r.Register(staticScanner{name: "reddit", items: []domain.CanonicalItem{{ID: "old"}}})
	r.Register(staticScanner{name: "reddit", items: []domain.CanonicalItem{{ID: "new"}}})

	s, err := r.Resolve("reddit")
	require.NoError(t, err)
	items, err := s.Scan(context.Background(), Request{FeedName: "khiphop"})
	require.NoError(t, err)
	assert.Equal(t, "new", items[0].ID)

	_, err = NewRegistry().Resolve("rss")
	assert.ErrorContains(t, err, "rss")
}
