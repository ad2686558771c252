// Package outwriter renders and writes command output.
package outwriter

import (
	"fmt"
	"path/filepath"

	"github.com/sundog-labs/pvdrift/internal/contract"
)

// LogMonitorHeader prints a concise, 2-line header for a monitoring run.
func LogMonitorHeader(cfg *contract.Config) {
	refName := datasetName(cfg.ReferencePath, "reference")
	curName := datasetName(cfg.CurrentPath, "current")
	if cfg.CurrentPath == "" && cfg.SimulateCurrent {
		curName = "simulated"
	}

	// Line 1: the run summary (datasets and method)
	printHeaderLine(cfg, "🔎", fmt.Sprintf("Monitor: %s vs %s (method: %s)", refName, curName, cfg.Method))

	// Line 2: the actual date range being analyzed
	printHeaderLine(cfg, "📅", fmt.Sprintf("Range: %s", formatTimeRange(cfg)))
}

// LogTrendHeader prints a header for trend analysis.
func LogTrendHeader(cfg *contract.Config) {
	refName := datasetName(cfg.ReferencePath, "reference")
	curName := datasetName(cfg.CurrentPath, "current")

	printHeaderLine(cfg, "🔎", fmt.Sprintf("Trend: %s vs %s (method: %s)", refName, curName, cfg.Method))
	if cfg.TrendInterval > 0 {
		printHeaderLine(cfg, "📅", fmt.Sprintf("Windows: every %v", cfg.TrendInterval))
	} else {
		printHeaderLine(cfg, "📅", fmt.Sprintf("Windows: %d equal row windows", cfg.TrendWindows))
	}
}

// LogCompareHeader prints a header for report comparison.
func LogCompareHeader(cfg *contract.Config) {
	targetID := cfg.TargetID
	if targetID == "" {
		targetID = "latest"
	}

	printHeaderLine(cfg, "🔎", fmt.Sprintf("Archive: %s backend", cfg.ArchiveBackend))
	printHeaderLine(cfg, "📊", fmt.Sprintf("Comparing: %s ↔ %s", cfg.BaseID, targetID))
}

// printHeaderLine writes one header line, with the emoji prefix when enabled.
func printHeaderLine(cfg *contract.Config, emoji, text string) {
	if cfg.UseEmojis {
		fmt.Printf("%s %s\n", emoji, text)
	} else {
		fmt.Printf("%s\n", text)
	}
}

// datasetName reduces a dataset path to its base name for header lines.
func datasetName(path, fallback string) string {
	name := filepath.Base(path)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return fallback
	}
	return name
}

// formatTimeRange renders the configured clipping window. Open ends are
// named rather than shown as zero times.
func formatTimeRange(cfg *contract.Config) string {
	if cfg.StartTime.IsZero() && cfg.EndTime.IsZero() {
		return "full span"
	}
	start := "beginning"
	if !cfg.StartTime.IsZero() {
		start = cfg.StartTime.Format(contract.DateTimeFormat)
	}
	end := "latest"
	if !cfg.EndTime.IsZero() {
		end = cfg.EndTime.Format(contract.DateTimeFormat)
	}
	return fmt.Sprintf("%s → %s", start, end)
}
