// Package datasource fetches company news headlines. It defines a common Fetcher
// interface and implements concrete sources for the Bing News search page and
// the Google News RSS search feed, plus decorators for caching, full-text
// enrichment and multi-source merging.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/seenimoa/newspulse/internal/infra"
	"github.com/seenimoa/newspulse/pkg/models"
)

// DefaultLimit is the maximum number of articles a fetch returns.
const DefaultLimit = 10

// Fetcher returns deduplicated headline records for a company.
// Implementations return at most their configured limit of records.
type Fetcher interface {
	// Name returns the human-readable name of this source.
	Name() string

	// Fetch returns 0..limit records. Network and HTTP failures wrap ErrTransport.
	Fetch(ctx context.Context, company string) ([]models.ArticleRecord, error)
}

// --- Sentinel errors ---

// ErrTransport is wrapped by every network, HTTP or parse failure of a source.
var ErrTransport = errors.New("news transport error")

// ErrEmptyCompany is returned when the company name is blank.
var ErrEmptyCompany = errors.New("company name is empty")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// --- Shared HTTP client helpers ---

// DefaultUserAgent is sent with every scrape. News search pages serve an
// empty shell to non-browser agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// HTTPClient is the default client used by all sources.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// Options configures the HTTP behaviour shared by sources.
type Options struct {
	Limit     int
	UserAgent string
	Client    *http.Client
	Limiter   *rate.Limiter
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Client == nil {
		o.Client = HTTPClient
	}
	return o
}

// doGet performs a rate-limited GET request and returns the response body.
// The caller is responsible for closing the returned ReadCloser. Limiter and
// context errors are returned unwrapped; network failures wrap ErrTransport.
func (o Options) doGet(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	if err := infra.Wait(ctx, o.Limiter); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", o.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrTransport, url, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: %w", ErrTransport, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		})
	}

	return resp.Body, nil
}

// Dedupe drops records whose (title, summary) pair was already seen, keeps
// first-seen order, skips records without a title and stops at limit.
// limit <= 0 means no cap.
func Dedupe(records []models.ArticleRecord, limit int) []models.ArticleRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]models.ArticleRecord, 0, len(records))
	for _, r := range records {
		r.Title = strings.TrimSpace(r.Title)
		r.Summary = strings.TrimSpace(r.Summary)
		if r.Title == "" {
			continue
		}
		k := r.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// NormalizeCompany trims and collapses whitespace in a company name.
func NormalizeCompany(company string) string {
	return strings.Join(strings.Fields(company), " ")
}

// IsTransport reports whether err came from a source failure rather than
// the caller's context.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsContext reports whether err stems from a cancelled or expired context,
// including a rate limiter that cannot admit a request before the deadline.
// Such errors fail the fetch instead of degrading it.
func IsContext(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
