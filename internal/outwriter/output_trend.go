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

// WriteTrendResult outputs the drift evolution, dispatching based on the output format configured.
func WriteTrendResult(result *schema.TrendResult, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeTrendJSONResults(result, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeTrendCSVResults(result, cfg, fmtFloat, intFmt); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for the trend command, use text, csv or json")
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTrendTable(result, cfg, fmtFloat, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeTrendJSONResults handles opening the file and calling the JSON writer.
func writeTrendJSONResults(result *schema.TrendResult, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSON(w, result)
	}, "Wrote JSON")
}

// writeTrendCSVResults handles opening the file and calling the CSV writer.
func writeTrendCSVResults(result *schema.TrendResult, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		csvWriter := csv.NewWriter(w)
		defer csvWriter.Flush()
		return writeTrendCSV(csvWriter, result, fmtFloat, intFmt)
	}, "Wrote CSV")
}

// writeTrendTable writes the windows in a drift-evolution table.
func writeTrendTable(result *schema.TrendResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)

	// --- 1. Define Headers ---
	headers := []string{"Window", "Start", "End", "Rows", "Share", "Δ Share", "Verdict"}
	if cfg.Detail {
		headers = append(headers, "Drifted Cols")
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
	for i, p := range result.Points {
		// The first window has nothing to move from.
		deltaStr := "-"
		if i > 0 {
			deltaStr = formatSignedDelta(p.DriftShare-result.Points[i-1].DriftShare, cfg.Precision, red, green, yellow)
		}

		verdict := green("ok")
		if p.DatasetDrifted {
			verdict = red("DRIFT")
		}

		row := []string{
			strconv.Itoa(p.Window),                      // Window index
			p.Start.Format(contract.DateTimeFormat),     // Window start
			p.End.Format(contract.DateTimeFormat),       // Window end
			strconv.Itoa(p.Rows),                        // Rows in the window
			fmtFloat(p.DriftShare),                      // Drift share
			deltaStr,                                    // Share movement vs previous window
			verdict,                                     // Dataset verdict
		}
		if cfg.Detail {
			row = append(row, strconv.Itoa(p.DriftedColumns))
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
	drifted := 0
	for _, p := range result.Points {
		if p.DatasetDrifted {
			drifted++
		}
	}
	if _, err := fmt.Fprintf(writer, "Method: %s (threshold %.4f, share gate %.2f)\n",
		result.Method, result.Threshold, result.ShareThreshold); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "%d of %d windows drifted\n", drifted, len(result.Points)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Trend completed in %v with %d workers\n", duration, cfg.Workers); err != nil {
		return err
	}
	return nil
}

// formatSignedDelta renders a metric movement with sign and direction marker.
// Upward movement is the bad direction for both drift shares and statistics,
// so it takes the red color.
func formatSignedDelta(delta float64, precision int, red, green, yellow func(...any) string) string {
	switch {
	case delta > 0:
		// %f never prints the +
		return red(fmt.Sprintf("+%.*f ▲", precision, delta))
	case delta < 0:
		// The - comes with the float
		return green(fmt.Sprintf("%.*f ▼", precision, delta))
	default:
		// Flat windows get no direction marker
		return yellow(fmt.Sprintf("%.*f", precision, 0.0))
	}
}

// writeTrendCSV writes the windows to a CSV writer.
func writeTrendCSV(w *csv.Writer, result *schema.TrendResult, fmtFloat func(float64) string, intFmt string) error {
	// 1. Write Header Row
	header := []string{
		"window",
		"start",
		"end",
		"rows",
		"drifted_columns",
		"drift_share",
		"dataset_drifted",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	// 2. Write Data Rows
	for _, p := range result.Points {
		row := []string{
			fmt.Sprintf(intFmt, p.Window),               // Window index
			p.Start.Format(contract.DateTimeFormat),     // Window start
			p.End.Format(contract.DateTimeFormat),       // Window end
			fmt.Sprintf(intFmt, p.Rows),                 // Rows in the window
			fmt.Sprintf(intFmt, p.DriftedColumns),       // Drifted columns
			fmtFloat(p.DriftShare),                      // Drift share
			strconv.FormatBool(p.DatasetDrifted),        // Dataset verdict
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
