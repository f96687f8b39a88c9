package retrieval

import (
	"context"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// DefaultFeeds are polled when web search is exhausted.
var DefaultFeeds = []string{
	"https://www.rappler.com/feed/",
	"https://www.philstar.com/rss/headlines",
	"https://newsinfo.inquirer.net/feed",
}

// DefaultFeedKeywords select relevant feed entries (case-insensitive, title
// or summary).
var DefaultFeedKeywords = []string{"flood", "dpwh", "infrastructure"}

// FeedSource fetches and parses one syndication feed.
type FeedSource interface {
	Fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error)
}

// HTTPFeedSource reads RSS, Atom and JSON feeds over HTTP.
type HTTPFeedSource struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFeedSource creates a feed source with a per-request timeout.
func NewHTTPFeedSource(timeout time.Duration, userAgent string) *HTTPFeedSource {
	return &HTTPFeedSource{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch implements FeedSource. gofeed parsers keep per-parse state, so one is
// built per call.
func (s *HTTPFeedSource) Fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	p := gofeed.NewParser()
	p.Client = s.client
	if s.userAgent != "" {
		p.UserAgent = s.userAgent
	}
	return p.ParseURLWithContext(feedURL, ctx)
}
