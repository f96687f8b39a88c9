package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floodguard/internal/projects"
	"floodguard/internal/tools"
	"floodguard/internal/tools/dataset"
)

func registry(t *testing.T) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry()
	require.NoError(t, dataset.RegisterAll(reg, projects.NewEngine([]projects.Record{
		{ProjectID: "P1", ProjectComponentID: "P1_A", Province: "PALAWAN", ContractCost: 5e6, Contractor: "GED CONSTRUCTION", Latitude: 9.74, Longitude: 118.73},
		{ProjectID: "P2", ProjectComponentID: "P2_A", Province: "BULACAN", ContractCost: 7e6, Contractor: "SUNWEST", Latitude: 14.84, Longitude: 120.81},
	})))
	return reg
}

func call(name string, args map[string]any) mcpgo.CallToolRequest {
	var req mcpgo.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcpgo.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcpgo.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func TestNewServer_RegistersEveryTool(t *testing.T) {
	reg := registry(t)
	s, err := NewServer(reg)
	require.NoError(t, err)

	listed := s.ListTools()
	assert.Len(t, listed, reg.Count())
	for _, name := range reg.Names() {
		assert.Contains(t, listed, name)
	}
}

func TestDefinition_Schema(t *testing.T) {
	reg := registry(t)
	def, err := Definition(reg.Get("contractor_analysis"))
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(def.RawInputSchema, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"contractor"}, schema["required"])
	assert.Contains(t, schema["properties"], "contractor")
	assert.Equal(t, "contractor_analysis", def.Name)
}

func TestHandler(t *testing.T) {
	reg := registry(t)
	s, err := NewServer(reg)
	require.NoError(t, err)
	st := s.GetTool("project_search")
	require.NotNil(t, st)

	res, err := st.Handler(context.Background(), call("project_search", map[string]any{"province": "PALAWAN"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var out dataset.SearchOutput
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "P1", out.Projects[0].ProjectID)
}

func TestHandler_ErrorsAreResults(t *testing.T) {
	reg := registry(t)

	res, err := Handler(reg, "contractor_analysis")(context.Background(), call("contractor_analysis", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "missing required argument")

	res, err = Handler(reg, "missing_tool")(context.Background(), call("missing_tool", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "tool not found")
}
