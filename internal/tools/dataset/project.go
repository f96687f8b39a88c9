package dataset

import (
	"context"
	"fmt"
	"maps"

	"floodguard/internal/logging"
	"floodguard/internal/projects"
	"floodguard/internal/tools"
)

const (
	// DefaultSearchLimit caps project_search and geospatial_search results.
	DefaultSearchLimit = 50
	// TopContractors is how many contractors project_stats reports.
	TopContractors = 5
)

// SearchOutput is the result of project_search.
type SearchOutput struct {
	Count    int               `json:"count"`
	Projects []projects.Record `json:"projects"`
	Stats    projects.Stats    `json:"stats"`
}

// ProjectSearchTool returns a tool for filtered project search.
func ProjectSearchTool(engine *projects.Engine) *tools.Tool {
	props := filterProperties()
	props["limit"] = tools.Property{Type: "integer", Description: "Maximum projects to return", Default: DefaultSearchLimit}
	props["sort_field"] = tools.Property{Type: "string", Description: "Field to sort by", Default: projects.DefaultSortField}
	props["sort_order"] = tools.Property{Type: "string", Description: "asc or desc", Enum: []any{"asc", "desc"}, Default: "desc"}

	return &tools.Tool{
		Name:        "project_search",
		Description: "Search flood control projects by contractor, location, year, type of work or budget range",
		Category:    tools.CategoryDataset,
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			return executeProjectSearch(engine, args)
		},
		Schema: tools.ToolSchema{
			Required:   []string{},
			Properties: props,
		},
	}
}

func executeProjectSearch(engine *projects.Engine, args map[string]any) (any, error) {
	filters, err := filtersFromArgs(args)
	if err != nil {
		return nil, err
	}
	limit, err := tools.IntArg(args, "limit", DefaultSearchLimit)
	if err != nil {
		return nil, err
	}

	res, err := engine.Search(projects.Query{
		Filters:   &filters,
		SortField: tools.StringArg(args, "sort_field"),
		SortOrder: tools.StringArg(args, "sort_order"),
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	logging.ToolsDebug("project_search: %d projects", len(res.Records))
	return SearchOutput{Count: len(res.Records), Projects: res.Records, Stats: res.Stats}, nil
}

// StatsOutput is the result of project_stats.
type StatsOutput struct {
	TotalProjects  int            `json:"total_projects"`
	TotalBudget    float64        `json:"total_budget"`
	AverageBudget  float64        `json:"average_budget"`
	TopContractors []string       `json:"top_contractors"`
	TypesOfWork    map[string]int `json:"types_of_work"`
}

// ProjectStatsTool returns a tool for aggregate statistics.
func ProjectStatsTool(engine *projects.Engine) *tools.Tool {
	return &tools.Tool{
		Name:        "project_stats",
		Description: "Aggregate statistics (count, total and average budget, top contractors, types of work) for projects matching optional filters",
		Category:    tools.CategoryDataset,
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			filters, err := filtersFromArgs(args)
			if err != nil {
				return nil, err
			}
			res, err := engine.Search(projects.Query{Filters: &filters, Limit: max(engine.Len(), 1)})
			if err != nil {
				return nil, err
			}
			top := res.Stats.Contractors
			if len(top) > TopContractors {
				top = top[:TopContractors]
			}
			return StatsOutput{
				TotalProjects:  res.Stats.ProjectCount,
				TotalBudget:    res.Stats.TotalBudget,
				AverageBudget:  res.Stats.AvgAward,
				TopContractors: top,
				TypesOfWork:    res.Stats.WorkTypes,
			}, nil
		},
		Schema: tools.ToolSchema{
			Required:   []string{},
			Properties: filterProperties(),
		},
	}
}

// ContractorOutput is the result of contractor_analysis.
type ContractorOutput struct {
	Contractor     string           `json:"contractor"`
	TotalProjects  int              `json:"total_projects"`
	TotalAwards    float64          `json:"total_awards"`
	AverageAward   float64          `json:"average_award"`
	ProjectTypes   map[string]int   `json:"project_types"`
	TopLocations   []projects.Count `json:"top_locations"`
	ProjectsByYear map[int]int      `json:"projects_by_year"`
}

// ContractorAnalysisTool returns a tool summarizing one contractor.
func ContractorAnalysisTool(engine *projects.Engine) *tools.Tool {
	return &tools.Tool{
		Name:        "contractor_analysis",
		Description: "Analyze a contractor's portfolio: total awards, project types, locations and yearly activity",
		Category:    tools.CategoryDataset,
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			name := tools.StringArg(args, "contractor")
			if name == "" {
				return nil, fmt.Errorf("%w: contractor", tools.ErrMissingRequiredArg)
			}
			profile, ok := engine.ContractorProfile(name)
			if !ok {
				return nil, fmt.Errorf("%w: no projects found for contractor %q", tools.ErrInvalidArgValue, name)
			}
			return ContractorOutput{
				Contractor:     profile.Contractor,
				TotalProjects:  profile.Stats.ProjectCount,
				TotalAwards:    profile.Stats.TotalBudget,
				AverageAward:   profile.Stats.AvgAward,
				ProjectTypes:   maps.Clone(profile.Stats.WorkTypes),
				TopLocations:   profile.TopLocations,
				ProjectsByYear: profile.ProjectsByYear,
			}, nil
		},
		Schema: tools.ToolSchema{
			Required: []string{"contractor"},
			Properties: map[string]tools.Property{
				"contractor": {Type: "string", Description: "Contractor name (substring, case-insensitive)"},
			},
		},
	}
}

// Location is a point echoed back by geospatial_search.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeoOutput is the result of geospatial_search.
type GeoOutput struct {
	Count          int               `json:"count"`
	SearchLocation Location          `json:"search_location"`
	RadiusKM       float64           `json:"radius_km"`
	Projects       []projects.Record `json:"projects"`
}

// GeospatialSearchTool returns a tool for radius search around a point.
func GeospatialSearchTool(engine *projects.Engine) *tools.Tool {
	return &tools.Tool{
		Name:        "geospatial_search",
		Description: "Find projects within a radius (km) of a latitude/longitude",
		Category:    tools.CategoryDataset,
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			return executeGeospatialSearch(engine, args)
		},
		Schema: tools.ToolSchema{
			Required: []string{"lat", "lon"},
			Properties: map[string]tools.Property{
				"lat":       {Type: "number", Description: "Latitude of the center"},
				"lon":       {Type: "number", Description: "Longitude of the center"},
				"radius_km": {Type: "number", Description: "Search radius in kilometers", Default: projects.DefaultRadiusKM},
				"limit":     {Type: "integer", Description: "Maximum projects to return", Default: DefaultSearchLimit},
			},
		},
	}
}

func executeGeospatialSearch(engine *projects.Engine, args map[string]any) (any, error) {
	lat, _, err := tools.FloatArg(args, "lat")
	if err != nil {
		return nil, err
	}
	lon, _, err := tools.FloatArg(args, "lon")
	if err != nil {
		return nil, err
	}
	radius, ok, err := tools.FloatArg(args, "radius_km")
	if err != nil {
		return nil, err
	}
	if !ok || radius == 0 {
		radius = projects.DefaultRadiusKM
	}
	limit, err := tools.IntArg(args, "limit", DefaultSearchLimit)
	if err != nil {
		return nil, err
	}

	res, err := engine.Search(projects.Query{Spatial: projects.Radius(lat, lon, radius), Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tools.ErrInvalidArgValue, err)
	}
	return GeoOutput{
		Count:          len(res.Records),
		SearchLocation: Location{Lat: lat, Lon: lon},
		RadiusKM:       radius,
		Projects:       res.Records,
	}, nil
}
