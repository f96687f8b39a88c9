package projects

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

type compareFunc func(a, b *Record) int

func byString(get func(*Record) string) compareFunc {
	return func(a, b *Record) int { return strings.Compare(get(a), get(b)) }
}

func byFloat(get func(*Record) float64) compareFunc {
	return func(a, b *Record) int { return cmp.Compare(get(a), get(b)) }
}

func byInt(get func(*Record) int) compareFunc {
	return func(a, b *Record) int { return cmp.Compare(get(a), get(b)) }
}

func byTime(get func(*Record) *time.Time) compareFunc {
	return func(a, b *Record) int {
		ta, tb := get(a), get(b)
		switch {
		case ta == nil && tb == nil:
			return 0
		case ta == nil:
			return -1
		case tb == nil:
			return 1
		}
		return ta.Compare(*tb)
	}
}

// sortFields accepts both API (snake_case) and dataset column names.
var sortFields = map[string]compareFunc{
	"contract_cost":          byFloat(func(r *Record) float64 { return r.ContractCost }),
	"contractcost":           byFloat(func(r *Record) float64 { return r.ContractCost }),
	"abc":                    byFloat(func(r *Record) float64 { return r.ABC }),
	"latitude":               byFloat(func(r *Record) float64 { return r.Latitude }),
	"longitude":              byFloat(func(r *Record) float64 { return r.Longitude }),
	"object_id":              byInt(func(r *Record) int { return r.ObjectID }),
	"objectid":               byInt(func(r *Record) int { return r.ObjectID }),
	"infra_year":             byInt(func(r *Record) int { return r.InfraYear }),
	"infrayear":              byInt(func(r *Record) int { return r.InfraYear }),
	"funding_year":           byInt(func(r *Record) int { return r.FundingYear }),
	"fundingyear":            byInt(func(r *Record) int { return r.FundingYear }),
	"completion_year":        byInt(func(r *Record) int { return r.CompletionYear }),
	"completionyear":         byInt(func(r *Record) int { return r.CompletionYear }),
	"contractor":             byString(func(r *Record) string { return r.Contractor }),
	"region":                 byString(func(r *Record) string { return r.Region }),
	"province":               byString(func(r *Record) string { return r.Province }),
	"municipality":           byString(func(r *Record) string { return r.Municipality }),
	"type_of_work":           byString(func(r *Record) string { return r.TypeOfWork }),
	"typeofwork":             byString(func(r *Record) string { return r.TypeOfWork }),
	"project_id":             byString(func(r *Record) string { return r.ProjectID }),
	"projectid":              byString(func(r *Record) string { return r.ProjectID }),
	"project_component_id":   byString(func(r *Record) string { return r.ProjectComponentID }),
	"projectcomponentid":     byString(func(r *Record) string { return r.ProjectComponentID }),
	"start_date":             byTime(func(r *Record) *time.Time { return r.StartDate }),
	"startdate":              byTime(func(r *Record) *time.Time { return r.StartDate }),
	"completion_date_actual": byTime(func(r *Record) *time.Time { return r.CompletionDateActual }),
	"completiondateactual":   byTime(func(r *Record) *time.Time { return r.CompletionDateActual }),
}

// sortRecords stable-sorts rows in place. Unknown fields leave rows untouched.
func sortRecords(rows []Record, field string, desc bool) {
	compare, ok := sortFields[strings.ToLower(field)]
	if !ok {
		return
	}
	slices.SortStableFunc(rows, func(a, b Record) int {
		c := compare(&a, &b)
		if desc {
			return -c
		}
		return c
	})
}

// SortFields lists accepted sort keys.
func SortFields() []string {
	keys := make([]string, 0, len(sortFields))
	for k := range sortFields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
