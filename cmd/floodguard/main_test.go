package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floodguard/cmd/floodguard/ui"
	"floodguard/internal/chat"
	"floodguard/internal/perception"
	"floodguard/internal/projects"
	"floodguard/internal/retrieval"
)

const testCSV = "ObjectId,ProjectID,ProjectComponentID,Region,Province,Municipality,Latitude,Longitude,ABC,ContractCost,Contractor,ProjectDescription,TypeofWork,InfraYear\n" +
	"1,P-1,P-1-A,Region III,BULACAN,MALOLOS,14.84,120.81,5000000,4500000,ABC Builders,Construction of flood wall,Flood Mitigation Structure,2023\n" +
	"2,P-2,P-2-A,Region III,BULACAN,HAGONOY,14.83,120.73,9000000,8000000,XYZ Corp,Drainage improvement,Drainage,2024\n" +
	"3,P-3,P-3-A,NCR,METRO MANILA,CITY OF MANILA,14.59,120.98,3000000,2500000,ABC Builders,Revetment,Revetment,2023\n"

func TestBuildQueryFromText(t *testing.T) {
	opts := searchOptions{sortField: "contract_cost", limit: 20}
	q, err := buildQuery("flood control in Bulacan 2023", opts, perception.NewClassifier())
	require.NoError(t, err)

	require.NotNil(t, q.Filters)
	assert.Equal(t, "BULACAN", q.Filters.Province)
	assert.Equal(t, []int{2023}, q.Filters.InfraYear)
	assert.Equal(t, "desc", q.SortOrder)
	assert.Equal(t, 20, q.Limit)
	assert.Nil(t, q.Spatial)
}

func TestBuildQueryFlagsOverrideText(t *testing.T) {
	opts := searchOptions{
		province:  "Pampanga",
		years:     []int{2022, 2021},
		minCost:   1_000_000,
		ascending: true,
		sortField: "infra_year",
	}
	q, err := buildQuery("projects in Bulacan 2023", opts, perception.NewClassifier())
	require.NoError(t, err)

	want := projects.Filters{Province: "Pampanga", InfraYear: []int{2022, 2021}}
	minCost := 1_000_000.0
	want.MinContractCost = &minCost
	if diff := cmp.Diff(&want, q.Filters); diff != "" {
		t.Errorf("filters mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "asc", q.SortOrder)
	assert.Equal(t, "infra_year", q.SortField)
}

func TestBuildQueryNoFilters(t *testing.T) {
	q, err := buildQuery("", searchOptions{}, perception.NewClassifier())
	require.NoError(t, err)
	assert.Nil(t, q.Filters)
}

func TestBuildQueryNear(t *testing.T) {
	q, err := buildQuery("", searchOptions{near: "14.5995, 120.9842", radiusKM: 3}, perception.NewClassifier())
	require.NoError(t, err)
	require.NotNil(t, q.Spatial)
	assert.Equal(t, projects.SpatialRadius, q.Spatial.Type)
	assert.InDelta(t, 14.5995, q.Spatial.Lat, 1e-9)
	assert.InDelta(t, 120.9842, q.Spatial.Lon, 1e-9)
	assert.InDelta(t, 3.0, q.Spatial.RadiusKM, 1e-9)
}

func TestBuildQueryErrors(t *testing.T) {
	c := perception.NewClassifier()

	_, err := buildQuery("", searchOptions{minCost: 5, maxCost: 1}, c)
	assert.ErrorContains(t, err, "exceeds")

	for _, near := range []string{"14.5", "a,120", "14.5,b"} {
		_, err := buildQuery("", searchOptions{near: near}, c)
		assert.Error(t, err, near)
	}
}

func TestPeso(t *testing.T) {
	assert.Equal(t, "₱0", peso(0))
	assert.Equal(t, "₱1,234,568", peso(1234567.5))
	assert.Equal(t, "₱17,000,000", peso(17e6))
}

func TestRenderProjects(t *testing.T) {
	records, err := projects.ReadCSV(strings.NewReader(testCSV))
	require.NoError(t, err)
	engine := projects.NewEngine(records)
	res, err := engine.Search(projects.Query{})
	require.NoError(t, err)

	var buf bytes.Buffer
	renderProjects(&buf, res, ui.DefaultStyles())
	out := buf.String()
	assert.Contains(t, out, "P-2-A")
	assert.Contains(t, out, "HAGONOY, BULACAN")
	assert.Contains(t, out, "₱8,000,000")
	assert.Contains(t, out, "3 projects, total ₱15,000,000")

	buf.Reset()
	renderProjects(&buf, &projects.Result{}, ui.DefaultStyles())
	assert.Contains(t, buf.String(), "No projects matched.")
}

func TestRenderArticles(t *testing.T) {
	var buf bytes.Buffer
	renderArticles(&buf, []retrieval.Article{{
		Title:         "DPWH flood wall inspected",
		Snippet:       "Inspectors visited the site.",
		URL:           "https://news.example.ph/a",
		Source:        "news.example.ph",
		PublishedDate: "2024-05-01",
	}}, ui.DefaultStyles())
	out := buf.String()
	assert.Contains(t, out, "1. DPWH flood wall inspected")
	assert.Contains(t, out, "news.example.ph · 2024-05-01")
	assert.Contains(t, out, "https://news.example.ph/a")

	buf.Reset()
	renderArticles(&buf, nil, ui.DefaultStyles())
	assert.Contains(t, buf.String(), "No related news found.")
}

func TestEventPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := newEventPrinter(&buf, ui.DefaultStyles())
	p.markdown = func(s string) (string, error) { return "<md>" + s + "</md>", nil }

	bbox := projects.BBox{{120.7, 14.5}, {121.0, 14.9}}
	events := []chat.Event{
		{Type: chat.EventStatus, Message: "Processing your question..."},
		{Type: chat.EventProjects, Count: 1, Data: []chat.ProjectSummary{{
			ProjectID: "P-1-A", Description: "Flood wall", Contractor: "ABC BUILDERS",
			ContractCost: 4_500_000, Municipality: "MALOLOS", Province: "BULACAN",
		}}},
		{Type: chat.EventMapBounds, BBox: &bbox},
		{Type: chat.EventMessage, Content: "**Answer**", Done: true},
		{Type: chat.EventNews, Data: []retrieval.Article{{Title: "Story", URL: "https://x.ph"}}},
	}
	for _, ev := range events {
		require.NoError(t, p.Emit(ev))
	}
	assert.False(t, p.failed)

	out := buf.String()
	assert.Contains(t, out, "Processing your question...")
	assert.Contains(t, out, "Matching projects (1)")
	assert.Contains(t, out, "MALOLOS, BULACAN")
	assert.Contains(t, out, "₱4,500,000")
	assert.Contains(t, out, "Map bounds: [120.7000, 14.5000] to [121.0000, 14.9000]")
	assert.Contains(t, out, "<md>**Answer**</md>")
	assert.Contains(t, out, "1. Story")

	require.NoError(t, p.Emit(chat.Event{Type: chat.EventError, Content: chat.MsgKeysRequired}))
	assert.True(t, p.failed)
	assert.Contains(t, buf.String(), "Error: "+chat.MsgKeysRequired)
}

func TestSearchCommandJSON(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "projects.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(testCSV), 0644))
	cfgPath := filepath.Join(dir, "floodguard.yaml")
	yaml := "data:\n  projects_csv: " + csvPath + "\nvector:\n  enabled: false\nlogging:\n  level: error\n  format: console\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0644))

	t.Cleanup(func() { searchOpts = searchOptions{} })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", cfgPath, "search", "--json", "--contractor", "abc builders", "--sort", "contract_cost"})
	require.NoError(t, rootCmd.Execute())

	var res projects.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	require.Len(t, res.Records, 2)
	assert.Equal(t, "P-1-A", res.Records[0].ProjectComponentID)
	assert.Equal(t, "P-3-A", res.Records[1].ProjectComponentID)
	assert.InDelta(t, 7_000_000, res.Stats.TotalBudget, 0.5)
}
