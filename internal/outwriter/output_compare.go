package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/schema"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteComparisonResult outputs a report-to-report diff, dispatching based on the output format configured.
func WriteComparisonResult(result *schema.ComparisonResult, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, _ := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeComparisonJSONResults(result, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeComparisonCSVResults(result, cfg, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for the compare command, use text, csv or json")
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeComparisonTable(result, cfg, fmtFloat, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeComparisonJSONResults handles opening the file and calling the JSON writer.
func writeComparisonJSONResults(result *schema.ComparisonResult, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSON(w, result)
	}, "Wrote JSON")
}

// writeComparisonCSVResults handles opening the file and calling the CSV writer.
func writeComparisonCSVResults(result *schema.ComparisonResult, cfg *contract.Config, fmtFloat func(float64) string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		csvWriter := csv.NewWriter(w)
		defer csvWriter.Flush()
		return writeComparisonCSV(csvWriter, result, fmtFloat)
	}, "Wrote CSV")
}

// writeComparisonTable writes the column diffs in a custom comparison format.
func writeComparisonTable(result *schema.ComparisonResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)

	// --- 1. Define Headers (Comparison Mode) ---
	// Note: Use clear headers for base, target, and the change (Delta)
	headers := []string{
		"Rank",
		"Column",
		"Before",
		"After",
		"Delta",
		"Status",
	}
	if cfg.Detail {
		headers = append(headers, "Threshold", "Drift")
	}
	table.Header(headers)

	// 2. Configure Alignment
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// --- 3. Prepare Data Rows ---
	var red, green, yellow func(...any) string
	if cfg.UseColors {
		red = color.New(color.FgRed).SprintFunc()
		green = color.New(color.FgGreen).SprintFunc()
		yellow = color.New(color.FgYellow).SprintFunc()
	} else {
		red = fmt.Sprint
		green = fmt.Sprint
		yellow = fmt.Sprint
	}
	var data [][]string
	for i, d := range result.Details {
		deltaStr := formatSignedDelta(d.Delta, cfg.Precision, red, green, yellow)

		// Columns missing on one side show a dash instead of a zero statistic.
		before := fmtFloat(d.BeforeStatistic)
		if d.Status == schema.NewColumnStatus {
			before = "-"
		}
		after := fmtFloat(d.AfterStatistic)
		if d.Status == schema.RemovedColumnStatus {
			after = "-"
		}

		// Prepare the row data as a slice of strings
		row := []string{
			strconv.Itoa(i + 1), // Rank
			contract.TruncateColumn(d.Column, getMaxTableColumnWidth(cfg)), // Column
			before,           // Base statistic
			after,            // Target statistic
			deltaStr,         // Delta
			string(d.Status), // Column status
		}
		if cfg.Detail {
			row = append(row, fmtFloat(d.Threshold), formatDriftTransition(d))
		}
		data = append(data, row)
	}

	// --- 4. Render the table ---
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	// Compute summary stats
	if _, err := fmt.Fprintf(writer, "Showing top %d of %d column changes\n",
		len(result.Details), result.Summary.TotalColumns); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Net statistic delta: %+.*f, drift share: %.2f → %.2f\n",
		cfg.Precision, result.Summary.NetStatisticDelta,
		result.Summary.BeforeDriftShare, result.Summary.AfterDriftShare); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "New columns: %d, Removed columns: %d, Regressed: %d, Recovered: %d\n",
		result.Summary.NewColumns, result.Summary.RemovedColumns,
		result.Summary.RegressedColumns, result.Summary.RecoveredColumns); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Comparison completed in %v. Archive backend: %s\n",
		duration, cfg.ArchiveBackend); err != nil {
		return err
	}
	return nil
}

// formatDriftTransition describes how a column's verdict moved between the reports.
func formatDriftTransition(d schema.ComparisonDetail) string {
	switch d.Status {
	case schema.NewColumnStatus:
		// Column only exists in the target report
		if d.AfterDrifted {
			return "new, drifted"
		}
		return "new"

	case schema.RemovedColumnStatus:
		// Column only exists in the base report
		if d.BeforeDrifted {
			return "removed, was drifted"
		}
		return "removed"

	default:
		// Column exists in both reports
		switch {
		case !d.BeforeDrifted && d.AfterDrifted:
			return "regressed"
		case d.BeforeDrifted && !d.AfterDrifted:
			return "recovered"
		case d.BeforeDrifted:
			return "still drifted"
		default:
			return "stable"
		}
	}
}

// writeComparisonCSV writes the column diffs to a CSV writer.
func writeComparisonCSV(w *csv.Writer, result *schema.ComparisonResult, fmtFloat func(float64) string) error {
	// 1. Write Header Row
	header := []string{
		"rank",
		"column",
		"before_statistic",
		"after_statistic",
		"delta",
		"before_drifted",
		"after_drifted",
		"threshold",
		"status",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	// 2. Write Data Rows
	for i, d := range result.Details {
		row := []string{
			strconv.Itoa(i + 1),                  // Rank
			d.Column,                             // Column
			fmtFloat(d.BeforeStatistic),          // Base statistic
			fmtFloat(d.AfterStatistic),           // Target statistic
			fmtFloat(d.Delta),                    // Delta
			strconv.FormatBool(d.BeforeDrifted),  // Base verdict
			strconv.FormatBool(d.AfterDrifted),   // Target verdict
			fmtFloat(d.Threshold),                // Threshold
			string(d.Status),                     // Column status
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
