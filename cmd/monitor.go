package cmd

import (
	"github.com/spf13/cobra"
	"github.com/sundog-labs/pvdrift/core"
	"github.com/sundog-labs/pvdrift/internal/contract"
)

// monitorCmd runs the full drift monitoring pipeline.
var monitorCmd = &cobra.Command{
	Use:   "monitor <reference.csv> [current.csv]",
	Short: "Score a current dataset against a reference for feature drift.",
	Long: `Build forecasting features on both datasets, compare their distributions
column by column and report which features have drifted.

The reference dataset captures the conditions your model was fitted on. The
current dataset is the fresh telemetry you want to trust. Each feature column
is scored with the selected drift method, ranked by severity and checked
against the dataset-level share gate.

The run is archived when a backend is configured, so later runs can be
compared and trended.

Examples:
  # Compare a fresh week of telemetry against the training window
  pvdrift monitor plant1_train.csv plant1_week32.csv

  # Use PSI scoring with a custom gate
  pvdrift monitor plant1_train.csv plant1_week32.csv --method psi --share 0.3

  # Score an external model's predictions alongside the drift report
  pvdrift monitor plant1_train.csv plant1_week32.csv --predictions-csv model_out.csv

  # Synthesize the current side by perturbing the reference
  pvdrift monitor plant1_train.csv --simulate --perturb "irradiation:noise:0.2" --seed 7

  # Show per-column statistic breakdowns and export to CSV
  pvdrift monitor plant1_train.csv plant1_week32.csv --detail --explain --output csv --output-file drift.csv`,
	Args:    cobra.RangeArgs(1, 2),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMonitor(rootCtx, cfg, reportStore); err != nil {
			contract.LogFatal("Cannot run drift monitoring", err)
		}
	},
}
