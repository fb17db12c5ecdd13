// Package scanner maps feed kinds to the strategies that read them.
//
// A strategy turns one configured feed into classified items. The Reddit
// strategy reads a subreddit listing, keeps posts whose flair is allowed
// and derives the category, artist and work title from flair and title.
package scanner

import (
	"context"
	"fmt"

	"KhiphopPipeline/internal/domain"
)

// Request carries all parameters required to execute a scan.
type Request struct {
	FeedName      string
	URL           string
	Limit         int
	Window        string
	AllowedFlairs []string
	Options       map[string]string
}

// Scanner captures a single feed strategy implementation (Reddit, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.CanonicalItem, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
