package research

import (
	"context"
	"fmt"

	"floodguard/internal/store"
	"floodguard/internal/tools"
)

// DefaultSemanticResults is how many hits semantic_search returns.
const DefaultSemanticResults = 10

// Index is the query side of the vector index.
type Index interface {
	Query(ctx context.Context, collection, text string, filters map[string]any, n int) ([]store.Hit, error)
}

// SemanticOutput is the result of semantic_search.
type SemanticOutput struct {
	Collection string      `json:"collection"`
	Count      int         `json:"count"`
	Hits       []store.Hit `json:"hits"`
}

// SemanticSearchTool returns a tool for free-text search over indexed
// projects or news.
func SemanticSearchTool(index Index) *tools.Tool {
	return &tools.Tool{
		Name:        "semantic_search",
		Description: "Free-text similarity search over indexed project descriptions or previously fetched news",
		Category:    tools.CategoryResearch,
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			collection := tools.StringArg(args, "collection")
			if collection == "" {
				collection = store.CollectionProjects
			}
			if collection != store.CollectionProjects && collection != store.CollectionNews {
				return nil, fmt.Errorf("%w: unknown collection %q", tools.ErrInvalidArgValue, collection)
			}
			n, err := tools.IntArg(args, "n", DefaultSemanticResults)
			if err != nil {
				return nil, err
			}
			filters, _ := args["filters"].(map[string]any)

			hits, err := index.Query(ctx, collection, tools.StringArg(args, "query"), filters, n)
			if err != nil {
				return nil, err
			}
			if hits == nil {
				hits = []store.Hit{}
			}
			return SemanticOutput{Collection: collection, Count: len(hits), Hits: hits}, nil
		},
		Schema: tools.ToolSchema{
			Required: []string{"query"},
			Properties: map[string]tools.Property{
				"query":      {Type: "string", Description: "Free-text query"},
				"collection": {Type: "string", Description: "projects or news", Enum: []any{"projects", "news"}, Default: "projects"},
				"n":          {Type: "integer", Description: "Maximum hits", Default: DefaultSemanticResults},
				"filters":    {Type: "object", Description: "Exact-match metadata filters (e.g. {\"province\": \"PALAWAN\"})"},
			},
		},
	}
}
