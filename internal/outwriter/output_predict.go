package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/schema"
)

// WritePredictionResult outputs a next-interval forecast, dispatching based on the output format configured.
func WritePredictionResult(result *schema.PredictionResult, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, _ := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writePredictionJSONResults(result, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writePredictionCSVResults(result, cfg, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for the predict command, use text, csv or json")
	default:
		// Default to human-readable text
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePredictionText(w, result, cfg, fmtFloat, duration)
		}, "Wrote text")
	}
	return nil
}

// writePredictionJSONResults handles opening the file and calling the JSON writer.
func writePredictionJSONResults(result *schema.PredictionResult, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSON(w, result)
	}, "Wrote JSON")
}

// writePredictionCSVResults handles opening the file and calling the CSV writer.
func writePredictionCSVResults(result *schema.PredictionResult, cfg *contract.Config, fmtFloat func(float64) string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		csvWriter := csv.NewWriter(w)
		defer csvWriter.Flush()
		return writePredictionCSV(csvWriter, result, fmtFloat)
	}, "Wrote CSV")
}

// writePredictionText displays the forecast in human-readable text format.
func writePredictionText(w io.Writer, result *schema.PredictionResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if cfg.UseEmojis {
		if _, err := fmt.Fprintf(w, "🔮 Next-interval forecast:\n"); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(w, "Next-interval forecast:\n"); err != nil {
			return err
		}
	}

	labels := []string{"Predictor:", "Target:", "Last seen:", "Next at:", "Prediction:", "Rows scored:"}
	values := []any{
		result.Predictor,
		result.TargetColumn,
		result.LastTimestamp.Format(contract.DateTimeFormat),
		result.NextTimestamp.Format(contract.DateTimeFormat),
		fmtFloat(result.Prediction),
		result.Rows,
	}

	// Pad every label to the widest so the values line up
	maxLabelLen := 0
	for _, label := range labels {
		if len(label) > maxLabelLen {
			maxLabelLen = len(label)
		}
	}
	for i, label := range labels {
		if _, err := fmt.Fprintf(w, "  %-*s %v\n", maxLabelLen+1, label, values[i]); err != nil {
			return err
		}
	}

	if result.Baseline != nil {
		if _, err := fmt.Fprintf(w, "\nBaseline fit: %s\n", formatPerformance(result.Baseline, fmtFloat)); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "\nForecast completed in %v with %d workers\n", duration, cfg.Workers); err != nil {
		return err
	}
	return nil
}

// writePredictionCSV writes the forecast as a single CSV row.
func writePredictionCSV(w *csv.Writer, result *schema.PredictionResult, fmtFloat func(float64) string) error {
	header := []string{
		"predictor",
		"target_column",
		"last_timestamp",
		"next_timestamp",
		"prediction",
		"rows",
		"mae",
		"rmse",
		"r2",
		"samples",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	mae, rmse, r2, samples := "", "", "", ""
	if result.Baseline != nil {
		mae = fmtFloat(result.Baseline.MAE)
		rmse = fmtFloat(result.Baseline.RMSE)
		if result.Baseline.R2 != nil {
			r2 = fmtFloat(*result.Baseline.R2)
		}
		samples = strconv.Itoa(result.Baseline.Samples)
	}

	row := []string{
		result.Predictor,                                // Predictor name
		result.TargetColumn,                             // Target channel
		result.LastTimestamp.Format(contract.DateTimeFormat), // Last observation
		result.NextTimestamp.Format(contract.DateTimeFormat), // Forecast time
		fmtFloat(result.Prediction),                     // Forecast value
		strconv.Itoa(result.Rows),                       // Rows scored
		mae,                                             // Baseline MAE
		rmse,                                            // Baseline RMSE
		r2,                                              // Baseline R2, empty when undefined
		samples,                                         // Baseline sample count
	}
	return w.Write(row)
}
