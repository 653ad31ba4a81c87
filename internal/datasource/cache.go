package datasource

import (
	"context"
	"strings"
	"time"

	"github.com/seenimoa/newspulse/internal/infra"
	"github.com/seenimoa/newspulse/pkg/models"
)

// Cached memoizes successful fetches per company for a TTL.
// Failures and empty results are not cached.
type Cached struct {
	next  Fetcher
	cache *infra.Cache[[]models.ArticleRecord]
}

// NewCached wraps next with a TTL cache.
func NewCached(next Fetcher, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: infra.NewCache[[]models.ArticleRecord](ttl)}
}

// Name returns the wrapped source name.
func (c *Cached) Name() string { return c.next.Name() }

// Fetch returns a cached copy when available.
func (c *Cached) Fetch(ctx context.Context, company string) ([]models.ArticleRecord, error) {
	key := "news:" + strings.ToLower(NormalizeCompany(company))
	if recs, ok := c.cache.Get(key); ok {
		return append([]models.ArticleRecord(nil), recs...), nil
	}

	recs, err := c.next.Fetch(ctx, company)
	if err != nil {
		return nil, err
	}
	if len(recs) > 0 {
		c.cache.Set(key, append([]models.ArticleRecord(nil), recs...))
	}
	return recs, nil
}
