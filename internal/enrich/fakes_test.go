package enrich

import (
	"context"
	"errors"
	"time"

	"KhiphopPipeline/internal/domain"
)

type fakeExchanger struct {
	calls int
	ttl   time.Duration
	now   func() time.Time
	err   error
}

func (f *fakeExchanger) ExchangeToken(context.Context) (domain.AccessToken, error) {
	f.calls++
	if f.err != nil {
		return domain.AccessToken{}, f.err
	}
	return domain.AccessToken{Value: "tok", ExpiresAt: f.now().Add(f.ttl)}, nil
}

type fakeCatalog struct {
	matches   []domain.CatalogMatch
	release   domain.ReleaseDetails
	searchErr error
	queries   []string
	kinds     []domain.SearchKind
	releases  int
}

func (f *fakeCatalog) Search(_ context.Context, _ string, query string, kind domain.SearchKind) ([]domain.CatalogMatch, error) {
	f.queries = append(f.queries, query)
	f.kinds = append(f.kinds, kind)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.matches, nil
}

func (f *fakeCatalog) Release(context.Context, string, string) (domain.ReleaseDetails, error) {
	f.releases++
	return f.release, nil
}

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(context.Context, string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeChat struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeChat) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

var errBoom = errors.New("boom")
