package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"floodguard/cmd/floodguard/ui"
	"floodguard/internal/perception"
	"floodguard/internal/projects"
)

// searchCmd queries the dataset directly
var searchCmd = &cobra.Command{
	Use:   "search [question]",
	Short: "Search flood control projects",
	Long: `Searches the project dataset. A free-text question is read for a place,
contractor, year, work type and budget the same way the chat does; explicit
flags override what the question implies.

Examples:
  floodguard search "flood control in Bulacan 2023"
  floodguard search --contractor "ABC Builders" --sort infra_year --asc
  floodguard search --near 14.5995,120.9842 --radius 3`,
	RunE: runSearch,
}

// searchOptions are the search flags.
type searchOptions struct {
	contractor   string
	region       string
	province     string
	municipality string
	typeOfWork   string
	projectID    string
	years        []int
	minCost      float64
	maxCost      float64
	near         string
	radiusKM     float64
	sortField    string
	ascending    bool
	limit        int
	jsonOut      bool
}

var searchOpts searchOptions

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchOpts.contractor, "contractor", "", "Contractor name (substring)")
	f.StringVar(&searchOpts.region, "region", "", "Region (substring)")
	f.StringVar(&searchOpts.province, "province", "", "Province (substring)")
	f.StringVar(&searchOpts.municipality, "municipality", "", "Municipality (substring)")
	f.StringVar(&searchOpts.typeOfWork, "type", "", "Type of work (substring)")
	f.StringVar(&searchOpts.projectID, "project-id", "", "Project component id (exact)")
	f.IntSliceVar(&searchOpts.years, "year", nil, "Infrastructure year (repeatable)")
	f.Float64Var(&searchOpts.minCost, "min-cost", 0, "Minimum contract cost in pesos")
	f.Float64Var(&searchOpts.maxCost, "max-cost", 0, "Maximum contract cost in pesos")
	f.StringVar(&searchOpts.near, "near", "", "Radius search center as lat,lon")
	f.Float64Var(&searchOpts.radiusKM, "radius", projects.DefaultRadiusKM, "Radius in kilometers for --near")
	f.StringVar(&searchOpts.sortField, "sort", "contract_cost", "Sort field")
	f.BoolVar(&searchOpts.ascending, "asc", false, "Sort ascending")
	f.IntVar(&searchOpts.limit, "limit", 20, "Maximum projects to show")
	f.BoolVar(&searchOpts.jsonOut, "json", false, "Print JSON instead of a table")
}

func runSearch(cmd *cobra.Command, args []string) error {
	records, err := projects.LoadCSV(cfg.Data.ProjectsCSV)
	if err != nil {
		return fmt.Errorf("failed to load projects: %w", err)
	}
	engine := projects.NewEngine(records)

	q, err := buildQuery(strings.Join(args, " "), searchOpts, perception.NewClassifier())
	if err != nil {
		return err
	}
	res, err := engine.Search(q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if searchOpts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	renderProjects(out, res, ui.DefaultStyles())
	return nil
}

// buildQuery merges filters implied by text with explicit options.
func buildQuery(text string, o searchOptions, c *perception.Classifier) (projects.Query, error) {
	var f projects.Filters
	if strings.TrimSpace(text) != "" {
		f = c.ExtractFilters(text)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&f.Contractor, o.contractor)
	set(&f.Region, o.region)
	set(&f.Province, o.province)
	set(&f.Municipality, o.municipality)
	set(&f.TypeOfWork, o.typeOfWork)
	set(&f.ProjectID, o.projectID)
	if len(o.years) > 0 {
		f.InfraYear = o.years
	}
	if o.minCost > 0 {
		v := o.minCost
		f.MinContractCost = &v
	}
	if o.maxCost > 0 {
		v := o.maxCost
		f.MaxContractCost = &v
	}
	if f.MinContractCost != nil && f.MaxContractCost != nil && *f.MinContractCost > *f.MaxContractCost {
		return projects.Query{}, fmt.Errorf("--min-cost %s exceeds --max-cost %s", peso(*f.MinContractCost), peso(*f.MaxContractCost))
	}

	q := projects.Query{
		SortField: o.sortField,
		SortOrder: "desc",
		Limit:     o.limit,
	}
	if o.ascending {
		q.SortOrder = "asc"
	}
	if !f.Empty() {
		q.Filters = &f
	}
	if o.near != "" {
		lat, lon, err := parseLatLon(o.near)
		if err != nil {
			return projects.Query{}, err
		}
		q.Spatial = projects.Radius(lat, lon, o.radiusKM)
	}
	return q, nil
}

func parseLatLon(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid --near %q: want lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q: %w", parts[0], err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q: %w", parts[1], err)
	}
	return lat, lon, nil
}

// peso formats an amount as whole pesos with thousands separators.
func peso(v float64) string {
	return "₱" + humanize.Comma(int64(math.Round(v)))
}

func renderProjects(w io.Writer, res *projects.Result, styles ui.Styles) {
	if len(res.Records) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("No projects matched."))
		return
	}

	tbl := ui.NewTable("Flood control projects", "ID", "Description", "Contractor", "Location", "Year", "Cost")
	tbl.MaxCell = 48
	for _, r := range res.Records {
		year := ""
		if r.InfraYear > 0 {
			year = strconv.Itoa(r.InfraYear)
		}
		tbl.AddRow(r.ProjectComponentID, r.Description, r.Contractor, location(r), year, peso(r.ContractCost))
	}
	fmt.Fprint(w, tbl.View(styles))

	s := res.Stats
	fmt.Fprintf(w, "\n%s %s projects, total %s, average %s, %s contractors\n",
		styles.Bold.Render("Summary:"),
		humanize.Comma(int64(s.ProjectCount)),
		peso(s.TotalBudget),
		peso(s.AvgAward),
		humanize.Comma(int64(len(s.Contractors))))
}

func location(r projects.Record) string {
	var parts []string
	for _, p := range []string{r.Municipality, r.Province} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
