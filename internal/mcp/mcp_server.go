// Package mcp serves the monitoring pipeline to AI agents over the Model Context Protocol.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sundog-labs/pvdrift/internal/contract"
)

// NewMCPServer initializes and configures the pvdrift MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, store contract.ReportStore) *server.MCPServer {
	s := server.NewMCPServer(
		"Pvdrift Monitoring Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		store:   store,
	}

	// --- 1. Tool: run_monitor ---
	s.AddTool(mcp.NewTool("run_monitor",
		mcp.WithDescription("Run a drift monitoring pass between a reference dataset and a current dataset."),
		mcp.WithString("reference_path", mcp.Description("Path to the reference CSV dataset."), mcp.Required()),
		mcp.WithString("current_path", mcp.Description("Path to the current CSV dataset (defaults to the configured one).")),
		mcp.WithString("method", mcp.Description("Drift method (ks, psi). Defaults to 'ks'."), mcp.Enum("ks", "psi")),
		mcp.WithNumber("threshold", mcp.Description("Per-column drift threshold override.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of ranked columns returned.")),
	), h.handleRunMonitor)

	// --- 2. Tool: build_features ---
	s.AddTool(mcp.NewTool("build_features",
		mcp.WithDescription("Build the feature matrix (lags, rolling means, cyclical hour encoding) for one dataset."),
		mcp.WithString("dataset_path", mcp.Description("Path to the CSV dataset."), mcp.Required()),
		mcp.WithString("lags", mcp.Description("Comma-separated lag offsets in rows (e.g. '1,2,24').")),
		mcp.WithNumber("window", mcp.Description("Rolling mean window in rows.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of feature rows returned.")),
	), h.handleBuildFeatures)

	// --- 3. Tool: get_report ---
	s.AddTool(mcp.NewTool("get_report",
		mcp.WithDescription("Load one archived monitoring report by its ID."),
		mcp.WithString("report_id", mcp.Description("The archived report ID."), mcp.Required()),
	), h.handleGetReport)

	// --- 4. Tool: list_reports ---
	s.AddTool(mcp.NewTool("list_reports",
		mcp.WithDescription("List the most recent archived monitoring runs, newest first."),
		mcp.WithNumber("limit", mcp.Description("Limit the number of runs returned.")),
	), h.handleListReports)

	return s
}

// StartMCPServer starts the pvdrift MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, store contract.ReportStore) error {
	s := NewMCPServer(baseCfg, store)
	return server.ServeStdio(s)
}
