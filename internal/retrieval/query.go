// Package retrieval finds news coverage for flood-control projects. Web
// search is tried first with rotating client identities and backoff; when
// every attempt fails the syndication feeds are polled instead.
package retrieval

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// QueryPrefix anchors every outbound search to the domain.
	QueryPrefix = "Philippines flood control"

	// DefaultNewsQuery is the query used when the caller has nothing more
	// specific. It is not cleaned or repeated after the prefix.
	DefaultNewsQuery = "flood control DPWH Philippines"

	maxQueryTerms = 6
	minTermLength = 4
)

var (
	wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

	stopWords = map[string]bool{
		"construction": true, "of": true, "the": true, "a": true, "an": true,
		"in": true, "at": true, "to": true, "for": true, "and": true, "or": true,
	}
)

// Article is one piece of news coverage.
type Article struct {
	Title          string  `json:"title"`
	Snippet        string  `json:"snippet"`
	URL            string  `json:"url"`
	Source         string  `json:"source"`
	PublishedDate  string  `json:"published_date"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Request describes what to look for. Only Query is free text; the rest are
// appended verbatim.
type Request struct {
	Query      string `json:"query"`
	ProjectID  string `json:"project_id,omitempty"`
	Contractor string `json:"contractor,omitempty"`
	Location   string `json:"location,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// CleanQuery lowercases text and keeps the first six words longer than three
// characters that are not stop words.
func CleanQuery(text string) string {
	var kept []string
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if utf8.RuneCountInString(w) < minTermLength || stopWords[w] {
			continue
		}
		kept = append(kept, w)
		if len(kept) == maxQueryTerms {
			break
		}
	}
	return strings.Join(kept, " ")
}

// BuildQuery composes the outbound search string for req.
func BuildQuery(req Request) string {
	terms := []string{QueryPrefix}
	if req.Query != "" && req.Query != DefaultNewsQuery {
		if cleaned := CleanQuery(req.Query); cleaned != "" {
			terms = append(terms, cleaned)
		}
	}
	if c := strings.TrimSpace(req.Contractor); c != "" && c != "N/A" {
		terms = append(terms, c)
	}
	if l := strings.TrimSpace(req.Location); l != "" {
		terms = append(terms, l)
	}
	return strings.Join(terms, " ")
}
