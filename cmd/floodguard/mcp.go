package main

import (
	"context"

	"github.com/spf13/cobra"

	"floodguard/internal/logging"
	"floodguard/internal/mcp"
)

// mcpCmd serves the tool registry over stdio
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the dataset and news tools over MCP (stdio)",
	Long: `Runs a Model Context Protocol server on stdin/stdout exposing the same
capabilities as GET /api/tools. Logs go to stderr.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go a.indexProjects(ctx)

	s, err := mcp.NewServer(a.registry)
	if err != nil {
		return err
	}
	logging.Boot("MCP server starting on stdio (%d tools)", a.registry.Count())
	return mcp.ServeStdio(s)
}
