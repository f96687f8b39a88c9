// Package tools is the flat capability table behind the MCP server and the
// /api/tools endpoint.
//
// Every capability is a Tool value with a uniform handler signature. The set
// is closed and small, so lookup is a map from name to Tool:
//
//	name → Registry.Get() → validateArgs → Tool.Execute() → structured result
package tools

import (
	"context"
)

// ToolCategory groups tools for listing.
type ToolCategory string

const (
	// CategoryDataset covers queries over the loaded project records.
	CategoryDataset ToolCategory = "/dataset"

	// CategoryResearch covers news search and the semantic index.
	CategoryResearch ToolCategory = "/research"
)

// Property describes a single parameter property for JSON schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	// Items describes array element schema (required for type="array")
	Items *PropertyItems `json:"items,omitempty"`
}

// PropertyItems describes the schema for array elements.
type PropertyItems struct {
	Type string `json:"type"`
}

// ToolSchema defines the JSON schema for tool arguments.
type ToolSchema struct {
	// Required lists parameters that must be provided.
	Required []string `json:"required"`

	// Properties describes each parameter.
	Properties map[string]Property `json:"properties"`
}

// ExecuteFunc is the signature for tool execution. The result must be
// JSON-encodable.
type ExecuteFunc func(ctx context.Context, args map[string]any) (any, error)

// Tool is one named capability.
type Tool struct {
	// Name is the unique identifier for the tool.
	Name string

	// Description explains what the tool does.
	// Shown to MCP clients and in the tool listing.
	Description string

	// Category groups the tool in listings.
	Category ToolCategory

	// Execute runs the tool with the given arguments.
	Execute ExecuteFunc

	// Schema defines the expected arguments.
	Schema ToolSchema
}

// Validate checks if the tool definition is valid.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// ToolResult wraps the result of tool execution with metadata.
type ToolResult struct {
	// ToolName identifies which tool was executed.
	ToolName string `json:"tool"`

	// Result is the structured output of the tool.
	Result any `json:"result,omitempty"`

	// Error is set if the tool failed.
	Error error `json:"-"`

	// DurationMs is how long execution took.
	DurationMs int64 `json:"duration_ms"`
}

// IsSuccess returns true if the tool executed without error.
func (r *ToolResult) IsSuccess() bool {
	return r.Error == nil
}
