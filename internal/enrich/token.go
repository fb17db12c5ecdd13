package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"KhiphopPipeline/internal/domain"
	"KhiphopPipeline/internal/ports"
)

// DefaultRefreshMargin is how long before expiry a cached token is replaced.
const DefaultRefreshMargin = 5 * time.Minute

// ErrNoToken is returned when no catalog token can be obtained.
var ErrNoToken = errors.New("catalog token unavailable")

// TokenCache reuses a catalog access token until it is within the refresh
// margin of its expiry. It is not safe for concurrent use; runs are
// serialized by the caller.
type TokenCache struct {
	exchanger ports.TokenExchanger
	margin    time.Duration
	now       func() time.Time
	current   domain.AccessToken
}

// NewTokenCache wraps an exchanger with DefaultRefreshMargin.
func NewTokenCache(exchanger ports.TokenExchanger) *TokenCache {
	return &TokenCache{
		exchanger: exchanger,
		margin:    DefaultRefreshMargin,
		now:       time.Now,
	}
}

// Token returns the cached token, refreshing it first when stale.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	if c == nil || c.exchanger == nil {
		return "", ErrNoToken
	}
	if c.fresh() {
		return c.current.Value, nil
	}

	tok, err := c.exchanger.ExchangeToken(ctx)
	if err != nil {
		c.current = domain.AccessToken{}
		return "", fmt.Errorf("%w: %v", ErrNoToken, err)
	}
	if tok.Value == "" {
		c.current = domain.AccessToken{}
		return "", ErrNoToken
	}
	c.current = tok
	return tok.Value, nil
}

// Invalidate drops the cached token so the next call exchanges a new one.
func (c *TokenCache) Invalidate() {
	if c != nil {
		c.current = domain.AccessToken{}
	}
}

func (c *TokenCache) fresh() bool {
	if c.current.Value == "" {
		return false
	}
	return c.now().Before(c.current.ExpiresAt.Add(-c.margin))
}
