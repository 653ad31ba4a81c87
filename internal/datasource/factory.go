package datasource

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/infra"
)

// New builds the configured source stack:
// sources (merged in order) -> optional full text -> optional cache.
func New(cfg config.FetchConfig) (Fetcher, error) {
	opts := Options{
		Limit:     cfg.Limit,
		UserAgent: cfg.UserAgent,
		Limiter:   infra.NewLimiter(cfg.RequestsPerMinute, 5),
	}
	if t := cfg.FetchTimeout(); t > 0 {
		opts.Client = &http.Client{Timeout: t}
	}

	var sources []Fetcher
	for _, name := range cfg.Sources {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "bing":
			sources = append(sources, NewBing(cfg.BingURL, opts))
		case "rss", "google":
			sources = append(sources, NewRSS(cfg.RSSURL, opts))
		default:
			return nil, fmt.Errorf("unknown news source %q", name)
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no news sources configured")
	}

	var f Fetcher = sources[0]
	if len(sources) > 1 {
		f = NewMerge(cfg.Limit, sources...)
	}
	if cfg.FullText {
		f = NewFullText(f, opts, 0, 0)
	}
	if cfg.CacheTTL > 0 {
		f = NewCached(f, time.Duration(cfg.CacheTTL)*time.Second)
	}
	return f, nil
}
