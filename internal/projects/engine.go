package projects

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"floodguard/internal/logging"
)

const (
	// DefaultLimit caps a search that does not ask for a limit.
	DefaultLimit = 100
	// DefaultSortField orders search results when none is requested.
	DefaultSortField = "contract_cost"
	// BoundsPadding is added around result bounds, in degrees.
	BoundsPadding = 0.1
	// TopContractors is how many contractors Stats reports.
	TopContractors = 10
	// TopLocations is how many locations a contractor profile reports.
	TopLocations = 5
)

// DefaultBounds frames the Philippines when there is nothing to show.
var DefaultBounds = BBox{{121.0, 12.0}, {122.0, 13.0}}

// Engine answers queries over an immutable record set. All methods are safe
// for concurrent use because nothing writes after NewEngine returns.
type Engine struct {
	records []Record
	xy      [][2]float64
	byID    map[string]int
}

// NewEngine takes ownership of a copy of records.
func NewEngine(records []Record) *Engine {
	e := &Engine{
		records: slices.Clone(records),
		xy:      make([][2]float64, len(records)),
		byID:    make(map[string]int, len(records)),
	}
	for i, r := range e.records {
		x, y := mercator(r.Latitude, r.Longitude)
		e.xy[i] = [2]float64{x, y}
		if _, dup := e.byID[r.ProjectComponentID]; !dup && r.ProjectComponentID != "" {
			e.byID[r.ProjectComponentID] = i
		}
	}
	logging.Query("engine ready with %d records", len(e.records))
	return e
}

// Len returns the number of loaded records.
func (e *Engine) Len() int {
	return len(e.records)
}

// Records returns a copy of every record in load order.
func (e *Engine) Records() []Record {
	return slices.Clone(e.records)
}

// Get looks a record up by ProjectComponentID.
func (e *Engine) Get(projectComponentID string) (Record, bool) {
	i, ok := e.byID[projectComponentID]
	if !ok {
		return Record{}, false
	}
	return e.records[i], true
}

// Search filters, optionally replaces the filtered set with a spatial
// selection over the full dataset, sorts and truncates.
func (e *Engine) Search(q Query) (*Result, error) {
	timer := logging.StartTimer(logging.CategoryQuery, "search")
	defer timer.Stop()

	var rows []Record
	if q.Spatial != nil {
		if err := q.Spatial.Validate(); err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		// A spatial query is evaluated against the whole dataset and replaces
		// any filter result.
		rows = e.spatial(*q.Spatial)
	} else {
		rows = e.filter(q.Filters)
	}

	field := q.SortField
	if field == "" {
		field = DefaultSortField
	}
	sortRecords(rows, field, !strings.EqualFold(q.SortOrder, "asc"))

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	logging.QueryDebug("search matched %d rows (sort=%s order=%s limit=%d)", len(rows), field, q.SortOrder, limit)
	return &Result{Records: rows, Stats: e.Stats(rows)}, nil
}

func (e *Engine) filter(f *Filters) []Record {
	if f == nil || f.Empty() {
		return slices.Clone(e.records)
	}
	out := make([]Record, 0, len(e.records)/4)
	for _, r := range e.records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func (e *Engine) spatial(s Spatial) []Record {
	var out []Record
	switch s.Type {
	case SpatialRadius:
		km := s.RadiusKM
		if km == 0 {
			km = DefaultRadiusKM
		}
		limit := km * 1000
		cx, cy := mercator(s.Lat, s.Lon)
		for i, r := range e.records {
			dx, dy := e.xy[i][0]-cx, e.xy[i][1]-cy
			if dx*dx+dy*dy <= limit*limit {
				out = append(out, r)
			}
		}
	case SpatialBBox:
		for _, r := range e.records {
			if s.BBox.Contains(r.Latitude, r.Longitude) {
				out = append(out, r)
			}
		}
	}
	return out
}

// Nearest returns the n records closest to the point, nearest first.
func (e *Engine) Nearest(lat, lon float64, n int) []Record {
	if n <= 0 || len(e.records) == 0 {
		return nil
	}
	cx, cy := mercator(lat, lon)
	idx := make([]int, len(e.records))
	dist := make([]float64, len(e.records))
	for i := range e.records {
		idx[i] = i
		dx, dy := e.xy[i][0]-cx, e.xy[i][1]-cy
		dist[i] = dx*dx + dy*dy
	}
	slices.SortStableFunc(idx, func(a, b int) int { return cmp.Compare(dist[a], dist[b]) })

	if n > len(idx) {
		n = len(idx)
	}
	out := make([]Record, n)
	for i := range out {
		out[i] = e.records[idx[i]]
	}
	return out
}

// Stats aggregates rows. Empty input yields zeroes and empty collections.
func (e *Engine) Stats(rows []Record) Stats {
	stats := Stats{
		Contractors: []string{},
		WorkTypes:   map[string]int{},
	}
	if len(rows) == 0 {
		return stats
	}

	contractors := make([]string, 0, len(rows))
	for _, r := range rows {
		stats.TotalBudget += r.ContractCost
		if r.Contractor != "" {
			contractors = append(contractors, r.Contractor)
		}
		if r.TypeOfWork != "" {
			stats.WorkTypes[r.TypeOfWork]++
		}
	}
	stats.ProjectCount = len(rows)
	stats.AvgAward = stats.TotalBudget / float64(len(rows))

	for _, c := range topCounts(contractors, TopContractors) {
		stats.Contractors = append(stats.Contractors, c.Name)
	}
	return stats
}

// Bounds returns the padded extent of rows, or DefaultBounds for none.
func (e *Engine) Bounds(rows []Record) BBox {
	if len(rows) == 0 {
		return DefaultBounds
	}
	minLon, minLat := rows[0].Longitude, rows[0].Latitude
	maxLon, maxLat := minLon, minLat
	for _, r := range rows[1:] {
		minLon = min(minLon, r.Longitude)
		maxLon = max(maxLon, r.Longitude)
		minLat = min(minLat, r.Latitude)
		maxLat = max(maxLat, r.Latitude)
	}
	return BBox{
		{minLon - BoundsPadding, minLat - BoundsPadding},
		{maxLon + BoundsPadding, maxLat + BoundsPadding},
	}
}

// ContractorProfile summarizes every project whose contractor contains name.
func (e *Engine) ContractorProfile(name string) (*Profile, bool) {
	rows := e.filter(&Filters{Contractor: name})
	if len(rows) == 0 {
		return nil, false
	}

	locations := make([]string, 0, len(rows))
	byYear := make(map[int]int)
	for _, r := range rows {
		locations = append(locations, r.Municipality+", "+r.Province)
		if r.InfraYear != 0 {
			byYear[r.InfraYear]++
		}
	}

	return &Profile{
		Contractor:     strings.ToUpper(strings.TrimSpace(name)),
		Stats:          e.Stats(rows),
		TopLocations:   topCounts(locations, TopLocations),
		ProjectsByYear: byYear,
	}, true
}

// topCounts ranks keys by frequency; ties keep first-appearance order.
func topCounts(keys []string, n int) []Count {
	counts := make(map[string]int)
	var order []string
	for _, k := range keys {
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	slices.SortStableFunc(order, func(a, b string) int { return cmp.Compare(counts[b], counts[a]) })
	if len(order) > n {
		order = order[:n]
	}
	out := make([]Count, len(order))
	for i, k := range order {
		out[i] = Count{Name: k, Count: counts[k]}
	}
	return out
}
