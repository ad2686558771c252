package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sundog-labs/pvdrift/core"
	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/internal/ingest"
	"github.com/sundog-labs/pvdrift/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	store   contract.ReportStore
}

func (h *toolHandler) handleRunMonitor(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("reference_path", ""); p != "" {
		cfg.ReferencePath = p
	}
	if p := request.GetString("current_path", ""); p != "" {
		cfg.CurrentPath = p
	}
	if m := request.GetString("method", ""); m != "" {
		cfg.Method = schema.DriftMethod(m)
		cfg.DriftThreshold = schema.GetDefaultThresholds()[cfg.Method]
	}
	if v := request.GetFloat("threshold", 0); v > 0 {
		cfg.DriftThreshold = v
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = l
	}

	if cfg.ReferencePath == "" {
		return mcp.NewToolResultError("reference_path is required"), nil
	}

	report, err := core.RunMonitor(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("monitoring failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleBuildFeatures(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	path := request.GetString("dataset_path", "")
	if path == "" {
		return mcp.NewToolResultError("dataset_path is required"), nil
	}
	if s := request.GetString("lags", ""); s != "" {
		lags, err := contract.ParseLagSteps(s)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid lags: %v", err)), nil
		}
		cfg.LagSteps = lags
	}
	if w := request.GetInt("window", 0); w > 0 {
		cfg.RollingWindow = w
	}

	frame, err := ingest.ReadFrame(path, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("could not read dataset: %v", err)), nil
	}

	matrix, err := core.BuildFeatures(cfg, frame)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("feature build failed: %v", err)), nil
	}

	// Feature matrices can run long, clip to the requested rows.
	if l := request.GetInt("limit", 0); l > 0 && l < matrix.Len() {
		matrix.Timestamps = matrix.Timestamps[:l]
		matrix.Values = matrix.Values[:l]
	}

	jsonData, _ := json.MarshalIndent(matrix, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetReport(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.store == nil || h.baseCfg.ArchiveBackend == schema.NoneBackend {
		return mcp.NewToolResultError("no report archive is configured, start the server with a sqlite, mysql or postgresql backend"), nil
	}

	reportID := request.GetString("report_id", "")
	if reportID == "" {
		return mcp.NewToolResultError("report_id is required"), nil
	}

	report, err := h.store.GetReport(reportID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("could not load report: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListReports(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.store == nil || h.baseCfg.ArchiveBackend == schema.NoneBackend {
		return mcp.NewToolResultError("no report archive is configured, start the server with a sqlite, mysql or postgresql backend"), nil
	}

	limit := request.GetInt("limit", 0)
	if limit <= 0 {
		limit = h.baseCfg.ResultLimit
	}

	runs, err := h.store.ListRuns(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("could not list runs: %v", err)), nil
	}

	// The full report body stays out of the listing.
	summaries := make([]map[string]any, 0, len(runs))
	for _, r := range runs {
		summaries = append(summaries, map[string]any{
			"report_id":       r.ReportID,
			"generated_at":    r.GeneratedAt,
			"method":          r.Method,
			"reference_rows":  r.ReferenceRows,
			"current_rows":    r.CurrentRows,
			"drifted_columns": r.DriftedColumns,
			"drift_share":     r.DriftShare,
			"dataset_drifted": r.DatasetDrifted,
		})
	}

	jsonData, _ := json.MarshalIndent(summaries, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
