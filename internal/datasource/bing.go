package datasource

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/newspulse/pkg/models"
)

// DefaultBingURL is the Bing News search page.
const DefaultBingURL = "https://www.bing.com/news/search"

// bingCardSelector matches the result cards of the Bing News layout and its
// older "newsitem" variant.
const bingCardSelector = "div[class*='news-card'], div[class*='newsitem']"

// Bing scrapes headline cards from the Bing News search results page.
type Bing struct {
	baseURL string
	opts    Options
}

// NewBing creates a Bing News scraper. An empty baseURL uses DefaultBingURL.
func NewBing(baseURL string, opts Options) *Bing {
	if baseURL == "" {
		baseURL = DefaultBingURL
	}
	return &Bing{baseURL: baseURL, opts: opts.withDefaults()}
}

// Name returns the source name.
func (b *Bing) Name() string { return "Bing News" }

// SearchURL returns the results page URL for company. Spaces become '+'.
func (b *Bing) SearchURL(company string) string {
	return b.baseURL + "?q=" + url.QueryEscape(NormalizeCompany(company))
}

// Fetch downloads the search page and extracts up to the limit of unique cards.
func (b *Bing) Fetch(ctx context.Context, company string) ([]models.ArticleRecord, error) {
	company = NormalizeCompany(company)
	if company == "" {
		return nil, ErrEmptyCompany
	}

	body, err := b.opts.doGet(ctx, b.SearchURL(company), nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse bing page: %v", ErrTransport, err)
	}
	return b.parse(doc), nil
}

// parse extracts cards that carry a title, a snippet and a link.
func (b *Bing) parse(doc *goquery.Document) []models.ArticleRecord {
	base, _ := url.Parse(b.baseURL)

	var records []models.ArticleRecord
	doc.Find(bingCardSelector).Each(func(_ int, card *goquery.Selection) {
		link := card.Find("a.title").First()
		title := collapse(link.Text())
		snippet := collapse(card.Find("div.snippet").First().Text())
		href := strings.TrimSpace(link.AttrOr("href", ""))
		// cards missing any of the three are ads or clusters, not articles
		if title == "" || snippet == "" || href == "" {
			return
		}
		rec := models.ArticleRecord{
			Title:   title,
			Summary: snippet,
			URL:     resolveURL(base, href),
			Source:  b.Name(),
		}
		if src, ok := card.Attr("data-author"); ok {
			rec.Source = strings.TrimSpace(src)
		}
		records = append(records, rec)
	})

	return Dedupe(records, b.opts.Limit)
}

// resolveURL makes href absolute against base when possible.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// collapse trims and collapses internal whitespace.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
