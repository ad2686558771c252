package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/internal/parquet"
	"github.com/sundog-labs/pvdrift/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteFrame outputs a sensor frame, dispatching based on the output format
// configured. The simulator uses this to hand a perturbed dataset back to
// the caller in whichever format the next pipeline stage wants.
func WriteFrame(frame *schema.Frame, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, _ := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeFrameJSONResults(frame, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeFrameCSVResults(frame, cfg, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeFrameParquetResults(frame, cfg); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
	default:
		// Default to human-readable preview table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFrameTable(frame, cfg, fmtFloat, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeFrameJSONResults handles opening the file and calling the JSON writer.
func writeFrameJSONResults(frame *schema.Frame, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeFrameJSON(w, frame)
	}, "Wrote JSON")
}

// writeFrameCSVResults handles opening the file and calling the CSV writer.
func writeFrameCSVResults(frame *schema.Frame, cfg *contract.Config, fmtFloat func(float64) string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		csvWriter := csv.NewWriter(w)
		defer csvWriter.Flush()
		return writeFrameCSV(csvWriter, frame, fmtFloat)
	}, "Wrote CSV")
}

// writeFrameParquetResults writes the frame in long format as a parquet file.
func writeFrameParquetResults(frame *schema.Frame, cfg *contract.Config) error {
	return writeParquetFile(cfg.OutputFile, func(path string) error {
		return parquet.WriteFeatureCellsParquet(parquet.ConvertFrame(frame), path)
	}, "Wrote parquet")
}

// writeFrameTable writes a preview of the frame plus summary lines.
func writeFrameTable(frame *schema.Frame, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration, writer io.Writer) error {
	previewCols := min(len(frame.Columns), maxPreviewColumns)
	previewRows := min(frame.Len(), cfg.ResultLimit)

	table := tablewriter.NewWriter(writer)

	// 1. Define Headers
	headers := make([]string, 0, previewCols+1)
	headers = append(headers, "Timestamp")
	for _, c := range frame.Columns[:previewCols] {
		headers = append(headers, contract.TruncateColumn(c, getMaxTableColumnWidth(cfg)))
	}
	table.Header(headers)

	// 2. Configure Alignment
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Prepare Data Rows
	var data [][]string
	for _, r := range frame.Records[:previewRows] {
		row := make([]string, 0, previewCols+1)
		row = append(row, r.Timestamp.Format(contract.DateTimeFormat))
		for _, c := range frame.Columns[:previewCols] {
			row = append(row, fmtFloat(r.Channels[c]))
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
	if _, err := fmt.Fprintf(writer, "Showing %d of %d records across %d channels\n",
		previewRows, frame.Len(), len(frame.Columns)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Channels: %s\n", schema.FormatColumns(frame.Columns, 8)); err != nil {
		return err
	}
	if frame.Len() > 0 {
		start, end := frame.TimeSpan()
		if _, err := fmt.Fprintf(writer, "Span: %s → %s\n",
			start.Format(contract.DateTimeFormat), end.Format(contract.DateTimeFormat)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(writer, "Simulation completed in %v\n", duration); err != nil {
		return err
	}
	return nil
}

// writeFrameJSON writes the frame as a flat array of timestamped records.
func writeFrameJSON(w io.Writer, frame *schema.Frame) error {
	rows := make([]map[string]any, frame.Len())
	for i, r := range frame.Records {
		row := make(map[string]any, len(r.Channels)+1)
		row["timestamp"] = r.Timestamp
		for k, v := range r.Channels {
			row[k] = v
		}
		rows[i] = row
	}
	return writeJSON(w, rows)
}

// writeFrameCSV writes the full frame, one row per record. The output is a
// valid ingest dataset, so a simulated frame can feed a later monitor run.
func writeFrameCSV(w *csv.Writer, frame *schema.Frame, fmtFloat func(float64) string) error {
	header := make([]string, 0, len(frame.Columns)+1)
	header = append(header, "timestamp")
	header = append(header, frame.Columns...)
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range frame.Records {
		row := make([]string, 0, len(frame.Columns)+1)
		row = append(row, r.Timestamp.Format(contract.DateTimeFormat))
		for _, c := range frame.Columns {
			row = append(row, fmtFloat(r.Channels[c]))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
