package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/internal/parquet"
	"github.com/sundog-labs/pvdrift/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteMonitoringReport outputs a monitoring report, dispatching based on the output format configured.
func WriteMonitoringReport(report *schema.MonitoringReport, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, _ := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeReportJSONResults(report, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeReportCSVResults(report, cfg, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeReportParquetResults(report, cfg); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportTable(report, cfg, fmtFloat, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeReportJSONResults handles opening the file and calling the JSON writer.
func writeReportJSONResults(report *schema.MonitoringReport, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeReportJSON(w, report)
	}, "Wrote JSON")
}

// writeReportCSVResults handles opening the file and calling the CSV writer.
func writeReportCSVResults(report *schema.MonitoringReport, cfg *contract.Config, fmtFloat func(float64) string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		csvWriter := csv.NewWriter(w)
		defer csvWriter.Flush()
		return writeReportCSV(csvWriter, report, fmtFloat)
	}, "Wrote CSV")
}

// writeReportParquetResults writes the per-column verdicts as a parquet file.
func writeReportParquetResults(report *schema.MonitoringReport, cfg *contract.Config) error {
	return writeParquetFile(cfg.OutputFile, func(path string) error {
		return parquet.WriteColumnResultsParquet(parquet.ConvertReportColumns(report), path)
	}, "Wrote parquet")
}

// writeReportTable generates and writes the human-readable table.
func writeReportTable(report *schema.MonitoringReport, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)

	// 1. Define Headers
	headers := []string{"Rank", "Column", "Statistic", "Threshold", "Label"}
	if cfg.Detail {
		headers = append(headers, "Ref Mean", "Ref Std", "Cur Mean", "Cur Std")
	}
	if cfg.Explain {
		headers = append(headers, "Top Bins")
	}
	table.Header(headers)

	// 2. Configure Separators/Borders to match a minimal look
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	ranked := schema.RankColumnResults(report.Columns)
	shown := min(len(ranked), cfg.ResultLimit)

	var data [][]string
	for _, c := range ranked[:shown] {
		label := c.Label
		if cfg.UseColors {
			label = contract.GetColorLabel(c.Statistic, c.Threshold)
		}

		// Prepare the row data as a slice of strings
		row := []string{
			strconv.Itoa(c.Rank), // Rank
			contract.TruncateColumn(c.Column, getMaxTableColumnWidth(cfg)), // Column
			fmtFloat(c.Statistic), // Statistic
			fmtFloat(c.Threshold), // Threshold
			label,                 // Label
		}
		if cfg.Detail {
			row = append(
				row,
				fmtFloat(c.RefMean),   // Reference mean
				fmtFloat(c.RefStdDev), // Reference std dev
				fmtFloat(c.CurMean),   // Current mean
				fmtFloat(c.CurStdDev), // Current std dev
			)
		}
		if cfg.Explain {
			row = append(row, formatTopBinBreakdown(&c.ColumnDriftResult)) // Breakdown explanation
		}
		data = append(data, row)
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	// Compute summary stats
	if _, err := fmt.Fprintf(writer, "Showing top %d of %d columns (drifted: %d, share: %.2f)\n",
		shown, len(report.Columns), report.DriftedColumns, report.DriftShare); err != nil {
		return err
	}
	if err := writeDatasetVerdict(writer, report, cfg); err != nil {
		return err
	}
	if report.ReferencePerformance != nil {
		if _, err := fmt.Fprintf(writer, "Reference baseline: %s\n", formatPerformance(report.ReferencePerformance, fmtFloat)); err != nil {
			return err
		}
	}
	if report.CurrentPerformance != nil {
		if _, err := fmt.Fprintf(writer, "Current baseline: %s\n", formatPerformance(report.CurrentPerformance, fmtFloat)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(writer, "Analysis completed in %v with %d workers. Archive backend: %s\n",
		duration, cfg.Workers, cfg.ArchiveBackend); err != nil {
		return err
	}
	return nil
}

// writeDatasetVerdict prints the report-level drift verdict line.
func writeDatasetVerdict(writer io.Writer, report *schema.MonitoringReport, cfg *contract.Config) error {
	var err error
	if report.DatasetDrifted {
		if cfg.UseEmojis {
			_, err = fmt.Fprintf(writer, "🚨 Dataset drift: share %.2f exceeds the %.2f gate\n", report.DriftShare, report.ShareThreshold)
		} else {
			_, err = fmt.Fprintf(writer, "Dataset drift: share %.2f exceeds the %.2f gate\n", report.DriftShare, report.ShareThreshold)
		}
		return err
	}
	if cfg.UseEmojis {
		_, err = fmt.Fprintf(writer, "✅ No dataset drift: share %.2f within the %.2f gate\n", report.DriftShare, report.ShareThreshold)
	} else {
		_, err = fmt.Fprintf(writer, "No dataset drift: share %.2f within the %.2f gate\n", report.DriftShare, report.ShareThreshold)
	}
	return err
}

// formatPerformance renders baseline predictor metrics in one line.
func formatPerformance(m *schema.PerformanceMetrics, fmtFloat func(float64) string) string {
	r2 := "n/a"
	if m.R2 != nil {
		r2 = fmtFloat(*m.R2)
	}
	return fmt.Sprintf("MAE %s, RMSE %s, R2 %s (n=%d)", fmtFloat(m.MAE), fmtFloat(m.RMSE), r2, m.Samples)
}

// writeReportCSV writes the per-column verdicts in CSV format.
func writeReportCSV(w *csv.Writer, report *schema.MonitoringReport, fmtFloat func(float64) string) error {
	// CSV header
	header := []string{
		"rank",
		"column",
		"method",
		"ref_mean",
		"ref_std_dev",
		"cur_mean",
		"cur_std_dev",
		"statistic",
		"threshold",
		"drifted",
		"label",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, c := range schema.RankColumnResults(report.Columns) {
		rec := []string{
			strconv.Itoa(c.Rank),            // Rank
			c.Column,                        // Column name
			string(c.Method),                // Drift method
			fmtFloat(c.RefMean),             // Reference mean
			fmtFloat(c.RefStdDev),           // Reference std dev
			fmtFloat(c.CurMean),             // Current mean
			fmtFloat(c.CurStdDev),           // Current std dev
			fmtFloat(c.Statistic),           // Statistic
			fmtFloat(c.Threshold),           // Threshold
			strconv.FormatBool(c.Drifted),   // Per-column verdict
			c.Label,                         // Severity label
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// writeReportJSON writes the full report in JSON format.
func writeReportJSON(w io.Writer, report *schema.MonitoringReport) error {
	return writeJSON(w, report)
}

// binBreakdown holds a key-value pair from the Breakdown map representing a bin's contribution.
type binBreakdown struct {
	Name  string  // e.g. "bin_3"
	Value float64 // The bin's contribution to the statistic
}

const (
	binContribMinimum = 0.01
	topNBins          = 3
)

// formatTopBinBreakdown computes the top 3 bins that contribute to the column statistic.
// Methods without per-bin contributions yield an empty breakdown.
func formatTopBinBreakdown(c *schema.ColumnDriftResult) string {
	var bins []binBreakdown

	// 1. Filter and Convert Map to Slice
	for k, v := range c.Breakdown {
		// Only include meaningful bins
		if math.Abs(v) >= binContribMinimum {
			bins = append(bins, binBreakdown{Name: k, Value: v})
		}
	}

	if len(bins) == 0 {
		return "Not applicable"
	}

	// 2. Sort the Slice by contribution in descending order, name-stable for ties
	sort.Slice(bins, func(i, j int) bool {
		ai, aj := math.Abs(bins[i].Value), math.Abs(bins[j].Value)
		if ai != aj {
			return ai > aj
		}
		return bins[i].Name < bins[j].Name
	})

	// 3. Limit to Top 3 and Format the Output
	limit := min(len(bins), topNBins)
	parts := make([]string, 0, limit)
	for i := range limit {
		parts = append(parts, bins[i].Name)
	}
	return strings.Join(parts, " > ")
}
