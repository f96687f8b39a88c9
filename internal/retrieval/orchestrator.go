package retrieval

import (
	"context"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"floodguard/internal/logging"
	"floodguard/internal/metrics"
)

const (
	// DefaultMaxResults caps articles when neither the request nor the
	// config says otherwise.
	DefaultMaxResults = 5

	feedScore     = 0.5
	unknownSource = "Unknown"
)

// Config tunes an Orchestrator.
type Config struct {
	Backoff      Backoff
	MaxResults   int
	Feeds        []string
	FeedKeywords []string
}

// DefaultConfig mirrors the production news settings.
func DefaultConfig() Config {
	return Config{
		Backoff:      DefaultBackoff(),
		MaxResults:   DefaultMaxResults,
		Feeds:        DefaultFeeds,
		FeedKeywords: DefaultFeedKeywords,
	}
}

// Orchestrator runs the fallback chain: web search with retries, then feeds.
type Orchestrator struct {
	web     WebSearcher
	feeds   FeedSource
	cfg     Config
	sleep   Sleeper
	now     func() time.Time
	metrics *metrics.Metrics
	strip   *bluemonday.Policy
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithSleeper replaces the backoff sleeper.
func WithSleeper(s Sleeper) Option {
	return func(o *Orchestrator) { o.sleep = s }
}

// WithClock replaces the clock used for fallback publish dates.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithMetrics records attempts and fallbacks.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an orchestrator. Either source may be nil, in which case that
// stage of the chain yields nothing.
func New(web WebSearcher, feeds FeedSource, cfg Config, opts ...Option) *Orchestrator {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.FeedKeywords == nil {
		cfg.FeedKeywords = DefaultFeedKeywords
	}
	o := &Orchestrator{
		web:   web,
		feeds: feeds,
		cfg:   cfg,
		sleep: SleepContext,
		now:   time.Now,
		strip: bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Search returns ranked articles for req. It never fails; the worst case is
// an empty slice.
func (o *Orchestrator) Search(ctx context.Context, req Request) (articles []Article) {
	defer func() {
		if r := recover(); r != nil {
			logging.RetrievalError("news search panicked: %v", r)
			articles = []Article{}
		}
	}()

	limit := req.MaxResults
	if limit <= 0 {
		limit = o.cfg.MaxResults
	}
	query := BuildQuery(req)
	logging.Retrieval("searching news: %q (max %d)", query, limit)

	if found := o.searchWeb(ctx, query, limit); len(found) > 0 {
		return found
	}

	logging.Retrieval("all web search attempts failed, falling back to feeds")
	o.metrics.FeedFallback()
	return o.searchFeeds(ctx, limit)
}

func (o *Orchestrator) searchWeb(ctx context.Context, query string, limit int) []Article {
	if o.web == nil {
		return nil
	}
	attempts := o.cfg.Backoff.Attempts()
	for attempt := 0; attempt < attempts; attempt++ {
		found, err := o.web.Search(ctx, query, limit, attempt)
		if err == nil && len(found) > 0 {
			o.metrics.SearchAttempt(metrics.OutcomeOK)
			logging.Retrieval("found %d articles from web search (attempt %d)", len(found), attempt+1)
			return found
		}
		if err == nil {
			err = ErrNoResults
		}
		o.metrics.SearchAttempt(metrics.OutcomeFailed)
		logging.RetrievalWarn("web search attempt %d/%d failed: %v", attempt+1, attempts, err)

		if attempt < attempts-1 {
			if err := o.sleep(ctx, o.cfg.Backoff.Delay(attempt)); err != nil {
				logging.RetrievalWarn("backoff interrupted: %v", err)
				return nil
			}
		}
	}
	return nil
}

func (o *Orchestrator) searchFeeds(ctx context.Context, limit int) []Article {
	articles := []Article{}
	if o.feeds == nil {
		return articles
	}
	for _, feedURL := range o.cfg.Feeds {
		if ctx.Err() != nil {
			break
		}
		feed, err := o.feeds.Fetch(ctx, feedURL)
		if err != nil {
			logging.RetrievalWarn("error parsing feed %s: %v", feedURL, err)
			continue
		}
		articles = append(articles, o.feedArticles(feed, limit-len(articles), limit)...)
		if len(articles) >= limit {
			break
		}
	}
	logging.Retrieval("feed fallback produced %d articles", len(articles))
	return articles
}

// feedArticles scans the first scan entries of feed and keeps up to want
// matching ones.
func (o *Orchestrator) feedArticles(feed *gofeed.Feed, want, scan int) []Article {
	source := strings.TrimSpace(feed.Title)
	if source == "" {
		source = unknownSource
	}

	var out []Article
	for i, item := range feed.Items {
		if i >= scan || len(out) >= want {
			break
		}
		if item == nil || !o.relevant(item.Title, item.Description) {
			continue
		}
		published := item.Published
		if published == "" {
			published = o.now().Format(time.RFC3339)
		}
		out = append(out, Article{
			Title:          item.Title,
			Snippet:        truncateRunes(stripMarkup(o.strip, item.Description), snippetLimit),
			URL:            item.Link,
			Source:         source,
			PublishedDate:  published,
			RelevanceScore: feedScore,
		})
	}
	return out
}

func (o *Orchestrator) relevant(title, summary string) bool {
	title = strings.ToLower(title)
	summary = strings.ToLower(summary)
	for _, kw := range o.cfg.FeedKeywords {
		kw = strings.ToLower(kw)
		if strings.Contains(title, kw) || strings.Contains(summary, kw) {
			return true
		}
	}
	return false
}
