// Package projects holds the immutable flood-control project dataset and
// answers filtered, spatial and aggregate queries over it.
package projects

import (
	"errors"
	"strings"
	"time"
)

// Errors returned by the query engine.
var (
	ErrInvalidSpatial = errors.New("invalid spatial query")
	ErrEmptyDataset   = errors.New("dataset has no usable rows")
)

// Record is one infrastructure project. Records are never mutated after load.
type Record struct {
	ObjectID                  int        `json:"object_id"`
	ProjectID                 string     `json:"project_id"`
	ProjectComponentID        string     `json:"project_component_id"`
	ContractID                string     `json:"contract_id,omitempty"`
	Region                    string     `json:"region"`
	Province                  string     `json:"province"`
	Municipality              string     `json:"municipality"`
	LegislativeDistrict       string     `json:"legislative_district,omitempty"`
	Latitude                  float64    `json:"latitude"`
	Longitude                 float64    `json:"longitude"`
	ABC                       float64    `json:"abc"`
	ContractCost              float64    `json:"contract_cost"`
	Contractor                string     `json:"contractor"`
	DistrictEngineeringOffice string     `json:"district_engineering_office,omitempty"`
	ImplementingOffice        string     `json:"implementing_office,omitempty"`
	Description               string     `json:"project_description"`
	TypeOfWork                string     `json:"type_of_work"`
	FundingYear               int        `json:"funding_year,omitempty"`
	InfraYear                 int        `json:"infra_year,omitempty"`
	CompletionYear            int        `json:"completion_year,omitempty"`
	StartDate                 *time.Time `json:"start_date,omitempty"`
	CompletionDateActual      *time.Time `json:"completion_date_actual,omitempty"`
}

// Filters is a conjunction of optional predicates. Zero-valued fields impose
// no restriction.
type Filters struct {
	InfraYear       []int    `json:"infra_year,omitempty"`
	Contractor      string   `json:"contractor,omitempty"`
	MinContractCost *float64 `json:"min_contract_cost,omitempty"`
	MaxContractCost *float64 `json:"max_contract_cost,omitempty"`
	Region          string   `json:"region,omitempty"`
	Province        string   `json:"province,omitempty"`
	Municipality    string   `json:"municipality,omitempty"`
	TypeOfWork      string   `json:"type_of_work,omitempty"`
	ProjectID       string   `json:"project_id,omitempty"`
}

// Empty reports whether no predicate is set.
func (f Filters) Empty() bool {
	return len(f.InfraYear) == 0 && f.Contractor == "" &&
		f.MinContractCost == nil && f.MaxContractCost == nil &&
		f.Region == "" && f.Province == "" && f.Municipality == "" &&
		f.TypeOfWork == "" && f.ProjectID == ""
}

// Match reports whether r satisfies every present predicate.
func (f Filters) Match(r Record) bool {
	if len(f.InfraYear) > 0 && !containsInt(f.InfraYear, r.InfraYear) {
		return false
	}
	if f.Contractor != "" && !containsFold(r.Contractor, f.Contractor) {
		return false
	}
	if f.MinContractCost != nil && r.ContractCost < *f.MinContractCost {
		return false
	}
	if f.MaxContractCost != nil && r.ContractCost > *f.MaxContractCost {
		return false
	}
	if f.Region != "" && !containsFold(r.Region, f.Region) {
		return false
	}
	if f.Province != "" && !containsFold(r.Province, f.Province) {
		return false
	}
	if f.Municipality != "" && !containsFold(r.Municipality, f.Municipality) {
		return false
	}
	if f.TypeOfWork != "" && !containsFold(r.TypeOfWork, f.TypeOfWork) {
		return false
	}
	if f.ProjectID != "" && r.ProjectID != f.ProjectID {
		return false
	}
	return true
}

func containsInt(set []int, v int) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToUpper(s), strings.ToUpper(substr))
}

// SpatialKind discriminates SpatialQuery variants.
type SpatialKind string

const (
	SpatialRadius SpatialKind = "radius"
	SpatialBBox   SpatialKind = "bbox"
)

// DefaultRadiusKM is used when a radius query omits its radius.
const DefaultRadiusKM = 5.0

// BBox is [[minLon, minLat], [maxLon, maxLat]].
type BBox [2][2]float64

// MinLon returns the western edge.
func (b BBox) MinLon() float64 { return b[0][0] }

// MinLat returns the southern edge.
func (b BBox) MinLat() float64 { return b[0][1] }

// MaxLon returns the eastern edge.
func (b BBox) MaxLon() float64 { return b[1][0] }

// MaxLat returns the northern edge.
func (b BBox) MaxLat() float64 { return b[1][1] }

// Contains reports whether the point lies in the closed rectangle.
func (b BBox) Contains(lat, lon float64) bool {
	return lon >= b.MinLon() && lon <= b.MaxLon() && lat >= b.MinLat() && lat <= b.MaxLat()
}

// Spatial is either a radius query around a point or a bounding box.
type Spatial struct {
	Type     SpatialKind `json:"type"`
	Lat      float64     `json:"lat,omitempty"`
	Lon      float64     `json:"lon,omitempty"`
	RadiusKM float64     `json:"radius_km,omitempty"`
	BBox     *BBox       `json:"bbox,omitempty"`
}

// Radius builds a radius query.
func Radius(lat, lon, radiusKM float64) *Spatial {
	return &Spatial{Type: SpatialRadius, Lat: lat, Lon: lon, RadiusKM: radiusKM}
}

// Within builds a bounding-box query.
func Within(b BBox) *Spatial {
	return &Spatial{Type: SpatialBBox, BBox: &b}
}

// Validate checks the variant carries what it needs.
func (s Spatial) Validate() error {
	switch s.Type {
	case SpatialRadius:
		if s.Lat < -90 || s.Lat > 90 || s.Lon < -180 || s.Lon > 180 {
			return ErrInvalidSpatial
		}
		if s.RadiusKM < 0 {
			return ErrInvalidSpatial
		}
	case SpatialBBox:
		if s.BBox == nil || s.BBox.MinLon() > s.BBox.MaxLon() || s.BBox.MinLat() > s.BBox.MaxLat() {
			return ErrInvalidSpatial
		}
	default:
		return ErrInvalidSpatial
	}
	return nil
}

// Query is one engine search request.
type Query struct {
	Filters   *Filters
	Spatial   *Spatial
	SortField string // default contract_cost
	SortOrder string // asc or desc (default)
	Limit     int    // default 100
}

// Stats aggregates a set of records.
type Stats struct {
	TotalBudget  float64        `json:"total_budget"`
	ProjectCount int            `json:"project_count"`
	AvgAward     float64        `json:"avg_award"`
	Contractors  []string       `json:"contractors"`
	WorkTypes    map[string]int `json:"work_types"`
}

// Result is the ordered outcome of a search with its stats.
type Result struct {
	Records []Record `json:"projects"`
	Stats   Stats    `json:"stats"`
}

// Count is a labelled frequency.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Profile summarizes one contractor's portfolio.
type Profile struct {
	Contractor     string      `json:"contractor"`
	Stats          Stats       `json:"stats"`
	TopLocations   []Count     `json:"top_locations"`
	ProjectsByYear map[int]int `json:"projects_by_year"`
}
