package retrieval

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"floodguard/internal/logging"
)

// Errors returned by a single web search attempt.
var (
	ErrSearchStatus = errors.New("search returned non-200 status")
	ErrNoResults    = errors.New("search returned no usable results")
)

const (
	snippetLimit      = 200
	maxBodyBytes      = 1 << 20
	missingSnippet    = "Read more about this flood control project."
	emptySnippet      = "Click to read more about this flood control project."
	rankPenalty       = 0.15
	defaultSearchURL  = "https://html.duckduckgo.com/html/"
	defaultAttemptTTL = 30 * time.Second
)

// DefaultAllowedDomains are URL substrings accepted as news sources.
var DefaultAllowedDomains = []string{
	"rappler", "inquirer", "philstar", "gma", "abs-cbn",
	"manila", "philippine", "dpwh", "gov.ph", "news", "dw.com", "asia",
}

// WebSearcher performs one search attempt. attempt is 0-based and selects
// the client identity.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults, attempt int) ([]Article, error)
}

// DuckDuckGoConfig configures the HTML search client.
type DuckDuckGoConfig struct {
	SearchURL          string
	UserAgents         []string
	AllowedDomains     []string
	AttemptTimeout     time.Duration
	InsecureSkipVerify bool
	RatePerSecond      float64
}

// DuckDuckGo scrapes the DuckDuckGo HTML frontend.
type DuckDuckGo struct {
	cfg     DuckDuckGoConfig
	client  *http.Client
	limiter *rate.Limiter
	strip   *bluemonday.Policy
	now     func() time.Time
}

// NewDuckDuckGo creates a search client. The limiter, when configured, is
// shared by every attempt made through this client.
func NewDuckDuckGo(cfg DuckDuckGoConfig) *DuckDuckGo {
	if cfg.SearchURL == "" {
		cfg.SearchURL = defaultSearchURL
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = defaultAttemptTTL
	}
	if len(cfg.AllowedDomains) == 0 {
		cfg.AllowedDomains = DefaultAllowedDomains
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = []string{"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Deliberate: certificate verification follows news.insecure_skip_verify
	// (skipped by default). Applies to this client only; results are untrusted text.
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify} //nolint:gosec

	d := &DuckDuckGo{
		cfg:    cfg,
		client: &http.Client{Transport: transport},
		strip:  bluemonday.StrictPolicy(),
		now:    time.Now,
	}
	if cfg.RatePerSecond > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return d
}

// UserAgent returns the identity used for attempt.
func (d *DuckDuckGo) UserAgent(attempt int) string {
	if attempt < 0 {
		attempt = 0
	}
	return d.cfg.UserAgents[attempt%len(d.cfg.UserAgents)]
}

// Search implements WebSearcher.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults, attempt int) ([]Article, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.AttemptTimeout)
	defer cancel()

	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.SearchURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", d.UserAgent(attempt))
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	logging.RetrievalDebug("web search attempt %d: query=%q", attempt+1, query)
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrSearchStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	articles, err := d.Parse(body, maxResults)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, ErrNoResults
	}
	return articles, nil
}

type resultLink struct {
	href  string
	title string
}

// Parse extracts articles from a results page. The i-th result link is
// paired with the i-th snippet; only the first maxResults links are
// considered and those outside the allow-list are dropped without
// renumbering, so scores keep their original rank.
func (d *DuckDuckGo) Parse(body []byte, maxResults int) ([]Article, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var links []resultLink
	var snippets []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a"):
				links = append(links, resultLink{href: attr(n, "href"), title: textContent(n)})
				return
			case hasClass(n, "result__snippet"):
				snippets = append(snippets, d.snippetText(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	published := d.now().Format(time.RFC3339)
	var articles []Article
	for i, link := range links {
		if i >= maxResults {
			break
		}
		target := resolveRedirect(link.href)
		if target == "" || link.title == "" || !d.allowed(target) {
			continue
		}

		snippet := missingSnippet
		if i < len(snippets) {
			snippet = snippets[i]
		}
		if snippet == "" {
			snippet = emptySnippet
		}

		articles = append(articles, Article{
			Title:          link.title,
			Snippet:        truncateRunes(snippet, snippetLimit),
			URL:            target,
			Source:         SourceName(target),
			PublishedDate:  published,
			RelevanceScore: rankScore(i),
		})
	}
	logging.RetrievalDebug("parsed %d links, %d snippets, kept %d articles", len(links), len(snippets), len(articles))
	return articles, nil
}

// rankScore is the relevance of the i-th result, floored at zero.
func rankScore(i int) float64 {
	return max(0, 1.0-rankPenalty*float64(i))
}

func (d *DuckDuckGo) allowed(target string) bool {
	lower := strings.ToLower(target)
	for _, domain := range d.cfg.AllowedDomains {
		if strings.Contains(lower, strings.ToLower(domain)) {
			return true
		}
	}
	return false
}

// snippetText renders the node's children and strips all markup.
func (d *DuckDuckGo) snippetText(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return stripMarkup(d.strip, buf.String())
}

// stripMarkup removes tags, decodes entities and collapses whitespace.
func stripMarkup(p *bluemonday.Policy, s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(p.Sanitize(s))), " ")
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Hostname(), "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

// SourceName derives a display name from the first host label, e.g.
// "https://www.rappler.com/x" -> "Rappler".
func SourceName(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Hostname() == "" {
		return "Web"
	}
	label, _, _ := strings.Cut(strings.TrimPrefix(u.Hostname(), "www."), ".")
	return cases.Title(language.English).String(label)
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
