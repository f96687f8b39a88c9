// Package perception turns user text into structured intent (does this turn
// need data, which filters apply, is it a follow-up) and talks to the
// language models that answer it.
package perception

import (
	"regexp"
	"strconv"
	"strings"

	"floodguard/internal/logging"
	"floodguard/internal/projects"
)

// budgetPattern matches "50 million", "50m", "1.5 million". The trailing
// boundary keeps "2024 more" from reading as a budget.
var budgetPattern = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(?:million|m)\b`)

// Classifier applies the fixed lookup tables to free text. It is stateless
// and safe for concurrent use.
type Classifier struct {
	locations   []Location
	aliases     []ContractorAlias
	aliasRegexp []*regexp.Regexp
}

// NewClassifier builds a classifier over the package tables.
func NewClassifier() *Classifier {
	c := &Classifier{
		locations: byLongestKey(Gazetteer),
		aliases:   ContractorAliases,
	}
	for _, a := range c.aliases {
		c.aliasRegexp = append(c.aliasRegexp, regexp.MustCompile(`\b`+regexp.QuoteMeta(a.Token)+`\b`))
	}
	return c
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// NeedsData reports whether text mentions a query keyword or a known place.
func (c *Classifier) NeedsData(text string) bool {
	lower := strings.ToLower(text)
	if containsAny(lower, QueryKeywords) || containsAny(lower, PlaceKeywords) {
		return true
	}
	for _, loc := range c.locations {
		if strings.Contains(lower, loc.Key) {
			return true
		}
	}
	return false
}

// MatchLocation returns the longest gazetteer entry contained in text.
func (c *Classifier) MatchLocation(text string) (Location, bool) {
	lower := strings.ToLower(text)
	for _, loc := range c.locations {
		if strings.Contains(lower, loc.Key) {
			return loc, true
		}
	}
	return Location{}, false
}

// ExtractFilters derives a conjunctive filter from text. Predicates that
// cannot be found are left unset.
func (c *Classifier) ExtractFilters(text string) projects.Filters {
	var f projects.Filters
	lower := strings.ToLower(text)

	if loc, ok := c.MatchLocation(lower); ok {
		f.Province = loc.Canonical
		if loc.IsCity() {
			f.Municipality = loc.Canonical
		}
	}

	for _, year := range YearCandidates {
		if strings.Contains(text, strconv.Itoa(year)) {
			f.InfraYear = []int{year}
			break
		}
	}

	for i, re := range c.aliasRegexp {
		if re.MatchString(lower) {
			f.Contractor = c.aliases[i].Canonical
			break
		}
	}

	if m := budgetPattern.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			minCost := v * 1_000_000
			f.MinContractCost = &minCost
		}
	}

	logging.PerceptionDebug("extracted filters from %q: %+v", text, f)
	return f
}

// IsFollowUp reports whether text continues a previous lookup.
func (c *Classifier) IsFollowUp(text string) bool {
	return containsAny(strings.ToLower(text), FollowUpIndicators)
}
