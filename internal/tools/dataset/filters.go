package dataset

import (
	"fmt"

	"floodguard/internal/projects"
	"floodguard/internal/tools"
)

// filterProperties is the argument schema shared by the filtered tools.
func filterProperties() map[string]tools.Property {
	return map[string]tools.Property{
		"contractor":   {Type: "string", Description: "Contractor name (substring, case-insensitive)"},
		"region":       {Type: "string", Description: "Region name or code"},
		"province":     {Type: "string", Description: "Province name (e.g. PALAWAN)"},
		"municipality": {Type: "string", Description: "Municipality or city name"},
		"type_of_work": {Type: "string", Description: "Type of work (e.g. Construction of Flood Mitigation Structure)"},
		"project_id":   {Type: "string", Description: "Exact project id"},
		"infra_year":   {Type: "array", Description: "Infrastructure years", Items: &tools.PropertyItems{Type: "integer"}},
		"min_cost":     {Type: "number", Description: "Minimum contract cost in PHP"},
		"max_cost":     {Type: "number", Description: "Maximum contract cost in PHP"},
	}
}

// filtersFromArgs builds a filter from tool arguments. Absent arguments
// impose no restriction.
func filtersFromArgs(args map[string]any) (projects.Filters, error) {
	f := projects.Filters{
		Contractor:   tools.StringArg(args, "contractor"),
		Region:       tools.StringArg(args, "region"),
		Province:     tools.StringArg(args, "province"),
		Municipality: tools.StringArg(args, "municipality"),
		TypeOfWork:   tools.StringArg(args, "type_of_work"),
		ProjectID:    tools.StringArg(args, "project_id"),
	}

	years, err := tools.IntListArg(args, "infra_year")
	if err != nil {
		return f, err
	}
	f.InfraYear = years

	if v, ok, err := tools.FloatArg(args, "min_cost"); err != nil {
		return f, err
	} else if ok {
		f.MinContractCost = &v
	}
	if v, ok, err := tools.FloatArg(args, "max_cost"); err != nil {
		return f, err
	} else if ok {
		f.MaxContractCost = &v
	}

	if f.MinContractCost != nil && f.MaxContractCost != nil && *f.MinContractCost > *f.MaxContractCost {
		return f, fmt.Errorf("%w: min_cost exceeds max_cost", tools.ErrInvalidArgValue)
	}
	return f, nil
}
