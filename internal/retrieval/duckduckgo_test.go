package retrieval

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `<!DOCTYPE html>
<html><body>
<div class="result results_links results_links_deep web-result">
  <h2 class="result__title">
    <a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.rappler.com%2Fnation%2Fflood-control&amp;rut=abc">Flood control <b>scandal</b></a>
  </h2>
  <a class="result__snippet" href="#">DPWH <b>flood</b> control &amp; more</a>
</div>
<div class="result results_links results_links_deep web-result">
  <a rel="nofollow" class="result__a" href="https://example.com/blog">Unrelated blog</a>
  <a class="result__snippet" href="#">Nothing to see</a>
</div>
<div class="result results_links results_links_deep web-result">
  <a rel="nofollow" class="result__a" href="https://newsinfo.inquirer.net/123/dike">Dike collapses</a>
</div>
</body></html>`

var fixedNow = time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

func newTestDuckDuckGo(url string) *DuckDuckGo {
	d := NewDuckDuckGo(DuckDuckGoConfig{
		SearchURL:  url,
		UserAgents: []string{"ua-0", "ua-1", "ua-2"},
	})
	d.now = func() time.Time { return fixedNow }
	return d
}

func TestParseResults(t *testing.T) {
	d := newTestDuckDuckGo("")

	articles, err := d.Parse([]byte(resultsPage), 5)
	require.NoError(t, err)
	require.Len(t, articles, 2)

	first := articles[0]
	assert.Equal(t, "Flood control scandal", first.Title)
	assert.Equal(t, "https://www.rappler.com/nation/flood-control", first.URL)
	assert.Equal(t, "DPWH flood control & more", first.Snippet)
	assert.Equal(t, "Rappler", first.Source)
	assert.Equal(t, fixedNow.Format(time.RFC3339), first.PublishedDate)
	assert.InDelta(t, 1.0, first.RelevanceScore, 1e-9)

	second := articles[1]
	assert.Equal(t, "Newsinfo", second.Source)
	assert.Equal(t, missingSnippet, second.Snippet)
	assert.InDelta(t, 0.7, second.RelevanceScore, 1e-9)
}

func TestParseResultsCapsCandidates(t *testing.T) {
	articles, err := newTestDuckDuckGo("").Parse([]byte(resultsPage), 2)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Contains(t, articles[0].URL, "rappler")
}

func TestParseResultsScoresStayInRange(t *testing.T) {
	var page strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&page, `<a class="result__a" href="https://www.rappler.com/nation/%d">T%d</a><a class="result__snippet">s%d</a>`, i, i, i)
	}

	articles, err := newTestDuckDuckGo("").Parse([]byte(page.String()), 10)
	require.NoError(t, err)
	require.Len(t, articles, 10)
	for i, a := range articles {
		assert.GreaterOrEqual(t, a.RelevanceScore, 0.0, a.Title)
		assert.LessOrEqual(t, a.RelevanceScore, 1.0, a.Title)
		if i > 0 {
			assert.LessOrEqual(t, a.RelevanceScore, articles[i-1].RelevanceScore, a.Title)
		}
	}
	assert.InDelta(t, 0.1, articles[6].RelevanceScore, 1e-9)
	assert.Zero(t, articles[7].RelevanceScore)
	assert.Zero(t, articles[9].RelevanceScore)
}

func TestParseResultsTruncatesSnippet(t *testing.T) {
	long := make([]byte, 0, 300)
	for i := 0; i < 300; i++ {
		long = append(long, 'x')
	}
	page := `<a class="result__a" href="https://news.example.ph/a">T</a><a class="result__snippet">` + string(long) + `</a>`

	articles, err := newTestDuckDuckGo("").Parse([]byte(page), 5)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Len(t, articles[0].Snippet, snippetLimit)
}

func TestSearchPostsFormWithRotatedIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "Philippines flood control", r.PostForm.Get("q"))
		assert.Equal(t, "ua-1", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	articles, err := newTestDuckDuckGo(srv.URL).Search(context.Background(), "Philippines flood control", 5, 1)
	require.NoError(t, err)
	assert.Len(t, articles, 2)
}

func TestSearchErrors(t *testing.T) {
	t.Run("non-200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		_, err := newTestDuckDuckGo(srv.URL).Search(context.Background(), "q", 5, 0)
		assert.ErrorIs(t, err, ErrSearchStatus)
	})

	t.Run("no results", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html><body>no results</body></html>"))
		}))
		defer srv.Close()

		_, err := newTestDuckDuckGo(srv.URL).Search(context.Background(), "q", 5, 0)
		assert.ErrorIs(t, err, ErrNoResults)
	})
}

func TestUserAgentRotation(t *testing.T) {
	d := newTestDuckDuckGo("")
	assert.Equal(t, "ua-0", d.UserAgent(0))
	assert.Equal(t, "ua-2", d.UserAgent(2))
	assert.Equal(t, "ua-0", d.UserAgent(3))
}

func TestSourceName(t *testing.T) {
	assert.Equal(t, "Philstar", SourceName("https://www.philstar.com/headlines"))
	assert.Equal(t, "Abs-Cbn", SourceName("https://abs-cbn.com/news/x"))
	assert.Equal(t, "Web", SourceName("not a url"))
}

func TestResolveRedirect(t *testing.T) {
	assert.Equal(t, "https://a.ph/x", resolveRedirect("//duckduckgo.com/l/?uddg=https%3A%2F%2Fa.ph%2Fx&rut=1"))
	assert.Equal(t, "https://a.ph/y", resolveRedirect("//a.ph/y"))
	assert.Equal(t, "https://a.ph/z", resolveRedirect("https://a.ph/z"))
}
