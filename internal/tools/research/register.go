package research

import (
	"floodguard/internal/tools"
)

// RegisterAll registers the research tools. semantic_search is only
// registered when an index is supplied.
func RegisterAll(registry *tools.Registry, news NewsSearcher, index Index) error {
	allTools := []*tools.Tool{
		NewsFetchTool(news),
	}
	if index != nil {
		allTools = append(allTools, SemanticSearchTool(index))
	}

	for _, tool := range allTools {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}

	return nil
}
