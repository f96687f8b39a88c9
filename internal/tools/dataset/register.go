package dataset

import (
	"floodguard/internal/projects"
	"floodguard/internal/tools"
)

// RegisterAll registers all dataset tools with the given registry.
func RegisterAll(registry *tools.Registry, engine *projects.Engine) error {
	allTools := []*tools.Tool{
		ProjectSearchTool(engine),
		ProjectStatsTool(engine),
		ContractorAnalysisTool(engine),
		GeospatialSearchTool(engine),
	}

	for _, tool := range allTools {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}

	return nil
}
