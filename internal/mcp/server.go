// Package mcp publishes the tool registry as a Model Context Protocol server.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"floodguard/internal/logging"
	"floodguard/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

const instructions = `FloodGuard PH exposes Philippine flood control project data.
Use project_search, project_stats, contractor_analysis and geospatial_search
for the dataset, news_fetch for related coverage, and semantic_search (when
enabled) for free-text similarity over descriptions and fetched news.`

// inputSchema is the JSON schema object derived from a tool's ToolSchema.
type inputSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]tools.Property `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// Definition converts a registry tool into an MCP tool definition.
func Definition(t *tools.Tool) (mcpgo.Tool, error) {
	props := t.Schema.Properties
	if props == nil {
		props = map[string]tools.Property{}
	}
	raw, err := json.Marshal(inputSchema{Type: "object", Properties: props, Required: t.Schema.Required})
	if err != nil {
		return mcpgo.Tool{}, fmt.Errorf("schema for %s: %w", t.Name, err)
	}
	return mcpgo.NewToolWithRawSchema(t.Name, t.Description, raw), nil
}

// Handler adapts one registry tool to the MCP call signature. Tool failures
// are reported as error results, not protocol errors.
func Handler(reg *tools.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		args := req.GetArguments()
		if args == nil {
			args = map[string]any{}
		}
		res, err := reg.Execute(ctx, name, args)
		if err != nil {
			logging.ToolsWarn("mcp call %s failed: %v", name, err)
			return mcpgo.NewToolResultError(err.Error()), nil
		}
		out, err := mcpgo.NewToolResultJSON(res.Result)
		if err != nil {
			return mcpgo.NewToolResultErrorFromErr("failed to encode result", err), nil
		}
		return out, nil
	}
}

// NewServer registers every tool of reg on a new MCP server.
func NewServer(reg *tools.Registry) (*server.MCPServer, error) {
	s := server.NewMCPServer(
		"floodguard",
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	for _, t := range reg.All() {
		def, err := Definition(t)
		if err != nil {
			return nil, err
		}
		s.AddTool(def, Handler(reg, t.Name))
	}
	logging.Tools("mcp server ready with %d tools", reg.Count())
	return s, nil
}

// ServeStdio runs the server over stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
