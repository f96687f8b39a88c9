package projects

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"floodguard/internal/logging"
)

// LoadCSV reads and cleans the project dataset at path.
func LoadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open projects csv: %w", err)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadCSV parses a header-driven projects CSV. Rows without usable
// coordinates are dropped.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDataset
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, required := range []string{"Latitude", "Longitude"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	var (
		out     []Record
		dropped int
		line    = 1
	)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		get := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		lat, latOK := parseNumber(get("Latitude"))
		lon, lonOK := parseNumber(get("Longitude"))
		if !latOK || !lonOK {
			dropped++
			continue
		}

		abc, _ := parseNumber(get("ABC"))
		cost, _ := parseNumber(get("ContractCost"))

		out = append(out, Record{
			ObjectID:                  parseInt(get("ObjectId")),
			ProjectID:                 get("ProjectID"),
			ProjectComponentID:        get("ProjectComponentID"),
			ContractID:                get("ContractID"),
			Region:                    get("Region"),
			Province:                  get("Province"),
			Municipality:              get("Municipality"),
			LegislativeDistrict:       get("LegislativeDistrict"),
			Latitude:                  lat,
			Longitude:                 lon,
			ABC:                       abc,
			ContractCost:              cost,
			Contractor:                strings.ToUpper(get("Contractor")),
			DistrictEngineeringOffice: get("DistrictEngineeringOffice"),
			ImplementingOffice:        get("ImplementingOffice"),
			Description:               get("ProjectDescription"),
			TypeOfWork:                get("TypeofWork"),
			FundingYear:               parseInt(get("FundingYear")),
			InfraYear:                 parseInt(get("InfraYear")),
			CompletionYear:            parseInt(get("CompletionYear")),
			StartDate:                 parseDate(get("StartDate")),
			CompletionDateActual:      parseDate(get("CompletionDateActual")),
		})
	}

	if len(out) == 0 {
		return nil, ErrEmptyDataset
	}
	if dropped > 0 {
		logging.QueryWarn("dropped %d rows without coordinates", dropped)
	}
	logging.Query("loaded %d projects", len(out))
	return out, nil
}

// parseNumber accepts thousands separators; blanks and NaN are not numbers.
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseInt(s string) int {
	v, ok := parseNumber(s)
	if !ok {
		return 0
	}
	return int(v)
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006",
}

// parseDate handles ISO-ish layouts and unix milliseconds.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	if v, ok := parseNumber(s); ok && v > 1e12 {
		t := time.UnixMilli(int64(v)).UTC()
		return &t
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
