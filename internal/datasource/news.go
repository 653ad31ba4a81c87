package datasource

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/newspulse/pkg/models"
)

// DefaultRSSURL is the Google News search feed.
const DefaultRSSURL = "https://news.google.com/rss/search"

// RSS fetches company headlines from a news search RSS feed.
type RSS struct {
	baseURL string
	opts    Options
	parser  *gofeed.Parser
}

// NewRSS creates an RSS search source. An empty baseURL uses DefaultRSSURL.
func NewRSS(baseURL string, opts Options) *RSS {
	if baseURL == "" {
		baseURL = DefaultRSSURL
	}
	return &RSS{
		baseURL: baseURL,
		opts:    opts.withDefaults(),
		parser:  gofeed.NewParser(),
	}
}

// Name returns the source name.
func (r *RSS) Name() string { return "Google News RSS" }

// FeedURL returns the search feed URL for company.
func (r *RSS) FeedURL(company string) string {
	q := url.Values{}
	q.Set("q", NormalizeCompany(company))
	q.Set("hl", "en-US")
	q.Set("gl", "US")
	q.Set("ceid", "US:en")
	return r.baseURL + "?" + q.Encode()
}

// Fetch parses the feed and returns up to the limit of unique items, newest first.
func (r *RSS) Fetch(ctx context.Context, company string) ([]models.ArticleRecord, error) {
	company = NormalizeCompany(company)
	if company == "" {
		return nil, ErrEmptyCompany
	}

	body, err := r.opts.doGet(ctx, r.FeedURL(company), map[string]string{
		"Accept": "application/rss+xml, application/xml;q=0.9, */*;q=0.8",
	})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := r.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse RSS %s: %v", ErrTransport, r.Name(), err)
	}

	type dated struct {
		rec models.ArticleRecord
		at  time.Time
	}
	items := make([]dated, 0, len(feed.Items))
	for _, item := range feed.Items {
		title, publisher := splitPublisher(collapse(item.Title))
		rec := models.ArticleRecord{
			Title:   title,
			Summary: cleanHTML(item.Description),
			URL:     item.Link,
			Source:  publisher,
		}
		if rec.Source == "" {
			rec.Source = r.Name()
		}
		// Google News descriptions often just repeat the headline.
		if strings.HasPrefix(rec.Summary, title) {
			rec.Summary = strings.TrimSpace(strings.TrimPrefix(rec.Summary, title))
			rec.Summary = strings.TrimSpace(strings.TrimPrefix(rec.Summary, publisher))
		}
		d := dated{rec: rec}
		if item.PublishedParsed != nil {
			d.at = *item.PublishedParsed
		}
		items = append(items, d)
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].at.After(items[j].at) })

	records := make([]models.ArticleRecord, len(items))
	for i, it := range items {
		records[i] = it.rec
	}
	return Dedupe(records, r.opts.Limit), nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return collapse(doc.Text())
}

// splitPublisher splits "Headline - Publisher" into its parts.
func splitPublisher(title string) (string, string) {
	i := strings.LastIndex(title, " - ")
	if i <= 0 || i+3 >= len(title) {
		return title, ""
	}
	return strings.TrimSpace(title[:i]), strings.TrimSpace(title[i+3:])
}
