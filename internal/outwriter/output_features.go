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

// maxPreviewColumns caps how many feature columns the preview table shows,
// keeping it inside a typical terminal. CSV, JSON and parquet always carry
// the full column set.
const maxPreviewColumns = 6

// WriteFeatureMatrix outputs a built feature matrix, dispatching based on the output format configured.
func WriteFeatureMatrix(matrix *schema.FeatureMatrix, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, _ := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeMatrixJSONResults(matrix, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeMatrixCSVResults(matrix, cfg, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeMatrixParquetResults(matrix, cfg); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
	default:
		// Default to human-readable preview table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMatrixTable(matrix, cfg, fmtFloat, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeMatrixJSONResults handles opening the file and calling the JSON writer.
func writeMatrixJSONResults(matrix *schema.FeatureMatrix, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSON(w, matrix)
	}, "Wrote JSON")
}

// writeMatrixCSVResults handles opening the file and calling the CSV writer.
func writeMatrixCSVResults(matrix *schema.FeatureMatrix, cfg *contract.Config, fmtFloat func(float64) string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		csvWriter := csv.NewWriter(w)
		defer csvWriter.Flush()
		return writeMatrixCSV(csvWriter, matrix, fmtFloat)
	}, "Wrote CSV")
}

// writeMatrixParquetResults writes the matrix in long format as a parquet file.
func writeMatrixParquetResults(matrix *schema.FeatureMatrix, cfg *contract.Config) error {
	return writeParquetFile(cfg.OutputFile, func(path string) error {
		return parquet.WriteFeatureCellsParquet(parquet.ConvertFeatureMatrix(matrix), path)
	}, "Wrote parquet")
}

// writeMatrixTable writes a preview of the matrix plus summary lines.
func writeMatrixTable(matrix *schema.FeatureMatrix, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration, writer io.Writer) error {
	previewCols := min(len(matrix.Columns), maxPreviewColumns)
	previewRows := min(matrix.Len(), cfg.ResultLimit)

	table := tablewriter.NewWriter(writer)

	// 1. Define Headers
	headers := make([]string, 0, previewCols+1)
	headers = append(headers, "Timestamp")
	for _, c := range matrix.Columns[:previewCols] {
		headers = append(headers, contract.TruncateColumn(c, getMaxTableColumnWidth(cfg)))
	}
	table.Header(headers)

	// 2. Configure Alignment
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Prepare Data Rows
	var data [][]string
	for i := range previewRows {
		row := make([]string, 0, previewCols+1)
		row = append(row, matrix.Timestamps[i].Format(contract.DateTimeFormat))
		for _, v := range matrix.Values[i][:previewCols] {
			row = append(row, fmtFloat(v))
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
	if _, err := fmt.Fprintf(writer, "Showing %d of %d feature rows across %d columns\n",
		previewRows, matrix.Len(), len(matrix.Columns)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Columns: %s\n", schema.FormatColumns(matrix.Columns, 8)); err != nil {
		return err
	}
	if matrix.Len() > 0 {
		if _, err := fmt.Fprintf(writer, "Span: %s → %s\n",
			matrix.Timestamps[0].Format(contract.DateTimeFormat),
			matrix.Timestamps[matrix.Len()-1].Format(contract.DateTimeFormat)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(writer, "Feature build completed in %v with %d workers\n", duration, cfg.Workers); err != nil {
		return err
	}
	return nil
}

// writeMatrixCSV writes the full matrix, one row per timestamp.
func writeMatrixCSV(w *csv.Writer, matrix *schema.FeatureMatrix, fmtFloat func(float64) string) error {
	header := make([]string, 0, len(matrix.Columns)+1)
	header = append(header, "timestamp")
	header = append(header, matrix.Columns...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i, values := range matrix.Values {
		row := make([]string, 0, len(values)+1)
		row = append(row, matrix.Timestamps[i].Format(contract.DateTimeFormat))
		for _, v := range values {
			row = append(row, fmtFloat(v))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
