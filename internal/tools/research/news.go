package research

import (
	"context"
	"fmt"

	"floodguard/internal/retrieval"
	"floodguard/internal/tools"
)

// DefaultNewsResults is how many articles news_fetch returns.
const DefaultNewsResults = 5

// NewsSearcher finds articles. It never fails; no news is an empty slice.
type NewsSearcher interface {
	Search(ctx context.Context, req retrieval.Request) []retrieval.Article
}

// NewsOutput is the result of news_fetch.
type NewsOutput struct {
	Count    int                 `json:"count"`
	Articles []retrieval.Article `json:"articles"`
}

// NewsFetchTool returns a tool for related news articles.
func NewsFetchTool(news NewsSearcher) *tools.Tool {
	return &tools.Tool{
		Name:        "news_fetch",
		Description: "Fetch news articles related to projects, contractors, or locations",
		Category:    tools.CategoryResearch,
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			n, err := tools.IntArg(args, "max_results", DefaultNewsResults)
			if err != nil {
				return nil, err
			}
			if n <= 0 {
				return nil, fmt.Errorf("%w: max_results must be positive", tools.ErrInvalidArgValue)
			}
			articles := news.Search(ctx, retrieval.Request{
				Query:      tools.StringArg(args, "query"),
				ProjectID:  tools.StringArg(args, "project_id"),
				Contractor: tools.StringArg(args, "contractor"),
				Location:   tools.StringArg(args, "location"),
				MaxResults: n,
			})
			if articles == nil {
				articles = []retrieval.Article{}
			}
			return NewsOutput{Count: len(articles), Articles: articles}, nil
		},
		Schema: tools.ToolSchema{
			Required: []string{"query"},
			Properties: map[string]tools.Property{
				"query":       {Type: "string", Description: "Search query for news"},
				"project_id":  {Type: "string", Description: "Related project ID"},
				"contractor":  {Type: "string", Description: "Related contractor name"},
				"location":    {Type: "string", Description: "Related province or municipality"},
				"max_results": {Type: "integer", Description: "Maximum articles to return", Default: DefaultNewsResults},
			},
		},
	}
}
