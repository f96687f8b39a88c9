package perception

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeedsData(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		text string
		want bool
	}{
		{"Show flood control projects", true},
		{"Bulacan", true},
		{"anything near Davao?", true},
		{"Hello!", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, c.NeedsData(tt.text))
		})
	}
}

func TestMatchLocationPrefersLongestKey(t *testing.T) {
	c := NewClassifier()

	loc, ok := c.MatchLocation("projects in Quezon City please")
	require.True(t, ok)
	assert.Equal(t, "QUEZON CITY", loc.Canonical)

	loc, ok = c.MatchLocation("Quezon province")
	require.True(t, ok)
	assert.Equal(t, "QUEZON", loc.Canonical)

	loc, ok = c.MatchLocation("davao del sur drainage")
	require.True(t, ok)
	assert.Equal(t, "DAVAO DEL SUR", loc.Canonical)

	_, ok = c.MatchLocation("somewhere else")
	assert.False(t, ok)
}

func TestExtractFiltersProvinceOnly(t *testing.T) {
	f := NewClassifier().ExtractFilters("Show flood projects in Bulacan")

	assert.Equal(t, "BULACAN", f.Province)
	assert.Empty(t, f.Municipality)
	assert.Nil(t, f.InfraYear)
	assert.Empty(t, f.Contractor)
	assert.Nil(t, f.MinContractCost)
}

func TestExtractFiltersCitySetsMunicipality(t *testing.T) {
	c := NewClassifier()

	f := c.ExtractFilters("projects in Marikina")
	assert.Equal(t, "MARIKINA CITY", f.Province)
	assert.Equal(t, "MARIKINA CITY", f.Municipality)

	f = c.ExtractFilters("what is in manila")
	assert.Equal(t, "CITY OF MANILA", f.Municipality)
}

func TestExtractFiltersCombined(t *testing.T) {
	f := NewClassifier().ExtractFilters("Show projects in Pampanga 2023 above 100 million by GED")

	assert.Equal(t, "PAMPANGA", f.Province)
	assert.Equal(t, []int{2023}, f.InfraYear)
	assert.Equal(t, "GED", f.Contractor)
	require.NotNil(t, f.MinContractCost)
	assert.InDelta(t, 100_000_000, *f.MinContractCost, 0.001)
}

func TestExtractFiltersYearOrder(t *testing.T) {
	f := NewClassifier().ExtractFilters("compare 2022 and 2024")
	assert.Equal(t, []int{2024}, f.InfraYear)
}

func TestExtractFiltersBudget(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		text string
		want float64
		ok   bool
	}{
		{"over 50 million", 50_000_000, true},
		{"above 1.5m", 1_500_000, true},
		{"at least 20M pesos", 20_000_000, true},
		{"2024 more projects", 0, false},
		{"no amount here", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			f := c.ExtractFilters(tt.text)
			if !tt.ok {
				assert.Nil(t, f.MinContractCost)
				return
			}
			require.NotNil(t, f.MinContractCost)
			assert.InDelta(t, tt.want, *f.MinContractCost, 0.001)
		})
	}
}

func TestExtractFiltersContractorWholeWord(t *testing.T) {
	c := NewClassifier()

	assert.Equal(t, "AZARRAGA", c.ExtractFilters("projects by Azarraga").Contractor)
	assert.Empty(t, c.ExtractFilters("I changed my mind").Contractor)
}

func TestExtractFiltersEmpty(t *testing.T) {
	f := NewClassifier().ExtractFilters("hello")
	assert.True(t, f.Empty())
}

func TestIsFollowUp(t *testing.T) {
	c := NewClassifier()

	assert.True(t, c.IsFollowUp("What about Cebu?"))
	assert.True(t, c.IsFollowUp("show me the top ones"))
	assert.True(t, c.IsFollowUp("Tell me about the largest"))
	assert.False(t, c.IsFollowUp("Show projects in Bulacan"))
}

func TestIsCity(t *testing.T) {
	assert.True(t, Location{Canonical: "PASIG CITY"}.IsCity())
	assert.True(t, Location{Canonical: "QUEZON"}.IsCity())
	assert.False(t, Location{Canonical: "BULACAN"}.IsCity())
}
