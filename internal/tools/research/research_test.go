package research

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floodguard/internal/retrieval"
	"floodguard/internal/store"
	"floodguard/internal/tools"
)

type fakeNews struct {
	got      retrieval.Request
	articles []retrieval.Article
}

func (f *fakeNews) Search(ctx context.Context, req retrieval.Request) []retrieval.Article {
	f.got = req
	return f.articles
}

type fakeIndex struct {
	collection string
	filters    map[string]any
	n          int
	hits       []store.Hit
	err        error
}

func (f *fakeIndex) Query(ctx context.Context, collection, text string, filters map[string]any, n int) ([]store.Hit, error) {
	f.collection, f.filters, f.n = collection, filters, n
	return f.hits, f.err
}

func TestRegisterAll(t *testing.T) {
	reg := tools.NewRegistry()
	require.NoError(t, RegisterAll(reg, &fakeNews{}, nil))
	assert.Equal(t, []string{"news_fetch"}, reg.Names())

	reg = tools.NewRegistry()
	require.NoError(t, RegisterAll(reg, &fakeNews{}, &fakeIndex{}))
	assert.Equal(t, []string{"news_fetch", "semantic_search"}, reg.Names())
}

func TestNewsFetch(t *testing.T) {
	news := &fakeNews{articles: []retrieval.Article{{Title: "Dike collapse", URL: "https://rappler.com/a", RelevanceScore: 1}}}
	reg := tools.NewRegistry()
	require.NoError(t, RegisterAll(reg, news, nil))

	res, err := reg.Execute(context.Background(), "news_fetch", map[string]any{
		"query":      "dike",
		"contractor": "GED CONSTRUCTION",
	})
	require.NoError(t, err)

	out := res.Result.(NewsOutput)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "Dike collapse", out.Articles[0].Title)
	assert.Equal(t, retrieval.Request{Query: "dike", Contractor: "GED CONSTRUCTION", MaxResults: DefaultNewsResults}, news.got)
}

func TestNewsFetch_EmptyIsNotNil(t *testing.T) {
	reg := tools.NewRegistry()
	require.NoError(t, RegisterAll(reg, &fakeNews{}, nil))

	res, err := reg.Execute(context.Background(), "news_fetch", map[string]any{"query": "x"})
	require.NoError(t, err)
	out := res.Result.(NewsOutput)
	assert.Zero(t, out.Count)
	assert.NotNil(t, out.Articles)

	_, err = reg.Execute(context.Background(), "news_fetch", map[string]any{"query": "x", "max_results": float64(0)})
	assert.ErrorIs(t, err, tools.ErrInvalidArgValue)
}

func TestSemanticSearch(t *testing.T) {
	idx := &fakeIndex{hits: []store.Hit{{ID: "P1_A", Score: 0.9}}}
	reg := tools.NewRegistry()
	require.NoError(t, RegisterAll(reg, &fakeNews{}, idx))

	res, err := reg.Execute(context.Background(), "semantic_search", map[string]any{
		"query":   "river wall",
		"filters": map[string]any{"province": "PALAWAN"},
		"n":       float64(3),
	})
	require.NoError(t, err)
	out := res.Result.(SemanticOutput)
	assert.Equal(t, store.CollectionProjects, out.Collection)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, store.CollectionProjects, idx.collection)
	assert.Equal(t, 3, idx.n)
	assert.Equal(t, map[string]any{"province": "PALAWAN"}, idx.filters)

	_, err = reg.Execute(context.Background(), "semantic_search", map[string]any{"query": "x", "collection": "videos"})
	assert.ErrorIs(t, err, tools.ErrInvalidArgValue)

	idx.err = errors.New("index closed")
	_, err = reg.Execute(context.Background(), "semantic_search", map[string]any{"query": "x"})
	assert.EqualError(t, err, "index closed")
}
