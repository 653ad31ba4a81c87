package datasource

import (
	"context"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/newspulse/pkg/models"
)

// FullText replaces short snippets with the readable body text of the linked
// article. Pages that fail to download or parse keep their original snippet.
type FullText struct {
	next     Fetcher
	opts     Options
	minWords int
	maxWords int
	workers  int
}

// NewFullText wraps next. Snippets under minWords words are expanded to at
// most maxWords words of article text.
func NewFullText(next Fetcher, opts Options, minWords, maxWords int) *FullText {
	if minWords <= 0 {
		minWords = 25
	}
	if maxWords <= 0 {
		maxWords = 400
	}
	return &FullText{next: next, opts: opts.withDefaults(), minWords: minWords, maxWords: maxWords, workers: 4}
}

// Name returns the wrapped source name.
func (f *FullText) Name() string { return f.next.Name() }

// Fetch fetches from the wrapped source and enriches the results in place.
func (f *FullText) Fetch(ctx context.Context, company string) ([]models.ArticleRecord, error) {
	records, err := f.next.Fetch(ctx, company)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for i := range records {
		if records[i].URL == "" || len(strings.Fields(records[i].Summary)) >= f.minWords {
			continue
		}
		i := i
		g.Go(func() error {
			text, err := f.extract(gctx, records[i].URL)
			if err != nil {
				if IsContext(err) {
					return err
				}
				return gctx.Err() // page failures are ignored
			}
			if text != "" {
				records[i].Summary = truncateWords(text, f.maxWords)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func (f *FullText) extract(ctx context.Context, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	body, err := f.opts.doGet(ctx, pageURL, nil)
	if err != nil {
		return "", err
	}
	defer body.Close()

	article, err := readability.FromReader(body, u)
	if err != nil {
		return "", err
	}
	return collapse(article.TextContent), nil
}

func truncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ")
}
