package datasource

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/newspulse/pkg/models"
)

// Merge queries several sources concurrently and concatenates their results
// in source order, deduplicated and capped at limit. A failing source is
// skipped; Merge fails when every source fails or when any source runs out
// of time.
type Merge struct {
	sources []Fetcher
	limit   int
}

// NewMerge creates a merged source. limit <= 0 uses DefaultLimit.
func NewMerge(limit int, sources ...Fetcher) *Merge {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Merge{sources: sources, limit: limit}
}

// Name returns the source name.
func (m *Merge) Name() string { return "Merged News" }

// Sources returns the wrapped sources in priority order.
func (m *Merge) Sources() []Fetcher { return m.sources }

// Fetch queries all sources and merges the results.
func (m *Merge) Fetch(ctx context.Context, company string) ([]models.ArticleRecord, error) {
	if len(m.sources) == 0 {
		return nil, fmt.Errorf("%w: no news sources configured", ErrTransport)
	}

	results := make([][]models.ArticleRecord, len(m.sources))
	var mu sync.Mutex
	var errs []error

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range m.sources {
		i, src := i, src
		g.Go(func() error {
			recs, err := src.Fetch(gctx, company)
			if err != nil {
				if errors.Is(err, ErrEmptyCompany) || IsContext(err) {
					return err
				}
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
				mu.Unlock()
				return nil // non-fatal
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(errs) == len(m.sources) {
		return nil, fmt.Errorf("%w: all sources failed: %w", ErrTransport, errors.Join(errs...))
	}

	var all []models.ArticleRecord
	for _, recs := range results {
		all = append(all, recs...)
	}
	return Dedupe(all, m.limit), nil
}
