package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/schema"
)

// PrintMethodDefinitions displays the formal definitions of the drift methods.
// This is a static display that reads no datasets.
func PrintMethodDefinitions(cfg *contract.Config) error {
	// Build the complete render model with all processed data
	renderModel := buildMethodsRenderModel()

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, renderModel)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			writer := csv.NewWriter(w)
			defer writer.Flush()
			return writeMethodsCSV(writer, renderModel)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for the metrics command, use text, csv or json")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return printMethodsText(w, renderModel, cfg)
		}, "Wrote text")
	}
}

// buildMethodsRenderModel constructs the complete render model with all processed data.
func buildMethodsRenderModel() *schema.MethodsRenderModel {
	defaults := schema.GetDefaultThresholds()

	return &schema.MethodsRenderModel{
		Title:       "Drift Methods",
		Description: "Per-column verdict: statistic >= threshold. Dataset verdict: drifted share > share gate.",
		Methods: []schema.MethodInfo{
			{
				Name:      string(schema.KSMethod),
				Purpose:   "Distribution shape change via the two-sample Kolmogorov-Smirnov distance",
				Range:     "[0, 1]",
				Verdict:   "statistic >= threshold",
				Threshold: defaults[schema.KSMethod],
			},
			{
				Name:      string(schema.PSIMethod),
				Purpose:   "Population shift across decile bins derived from the reference column",
				Range:     "[0, +inf)",
				Verdict:   "statistic >= threshold",
				Threshold: defaults[schema.PSIMethod],
			},
		},
		FeatureNaming: map[string]string{
			"<channel>_lag_<k>":       "value of the channel k rows earlier",
			"<channel>_roll_mean_<w>": "trailing mean over the last w rows",
			"hour_sin, hour_cos":      "cyclical encoding of the observation hour",
		},
		ShareThreshold: contract.DefaultShare,
	}
}

// getDisplayNameForMethod returns the display name for a drift method,
// with emoji when enabled.
func getDisplayNameForMethod(name string, emojis bool) string {
	if !emojis {
		return strings.ToUpper(name)
	}
	switch name {
	case string(schema.KSMethod):
		return "📐 KS"
	case string(schema.PSIMethod):
		return "📊 PSI"
	default:
		return strings.ToUpper(name)
	}
}

// printMethodsText displays the methods in human-readable text format.
func printMethodsText(w io.Writer, renderModel *schema.MethodsRenderModel, cfg *contract.Config) error {
	title := renderModel.Title
	if cfg.UseEmojis {
		title = "📈 " + title
	}
	if _, err := fmt.Fprintf(w, "%s\n", title); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "=============\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s\n", renderModel.Description); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\n"); err != nil {
		return err
	}

	for _, method := range renderModel.Methods {
		displayName := getDisplayNameForMethod(method.Name, cfg.UseEmojis)
		if _, err := fmt.Fprintf(w, "%s: %s\n", displayName, method.Purpose); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "   Range: %s\n", method.Range); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "   Verdict: %s\n", method.Verdict); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "   Default threshold: %.2f\n", method.Threshold); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "\n"); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "Feature naming:\n"); err != nil {
		return err
	}
	// Map iteration order is random, sort the keys for a stable display.
	names := make([]string, 0, len(renderModel.FeatureNaming))
	for name := range renderModel.FeatureNaming {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "   %s: %s\n", name, renderModel.FeatureNaming[name]); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "\nDefault share gate: %.2f\n", renderModel.ShareThreshold); err != nil {
		return err
	}
	return nil
}

// writeMethodsCSV writes the method definitions in CSV format.
func writeMethodsCSV(w *csv.Writer, renderModel *schema.MethodsRenderModel) error {
	// Write header
	header := []string{"Method", "Purpose", "Range", "Verdict", "Default Threshold"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write each method
	for _, method := range renderModel.Methods {
		record := []string{
			method.Name,
			method.Purpose,
			method.Range,
			method.Verdict,
			fmt.Sprintf("%.2f", method.Threshold),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	return nil
}
