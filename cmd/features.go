package cmd

import (
	"github.com/spf13/cobra"
	"github.com/sundog-labs/pvdrift/core"
	"github.com/sundog-labs/pvdrift/internal/contract"
)

// featuresCmd builds and renders the feature matrix for one dataset.
var featuresCmd = &cobra.Command{
	Use:   "features <dataset.csv>",
	Short: "Build the forecasting feature matrix for a single dataset.",
	Long: `Construct lag, rolling mean and time encoding features from plant telemetry
and print the resulting matrix.

Use this to inspect exactly what the monitoring pipeline feeds into drift
scoring, or to export model-ready features for training elsewhere. Leading
rows consumed by lag and rolling history are dropped, so the matrix starts
at the first fully populated row.

Examples:
  # Preview the default feature set
  pvdrift features plant1_week32.csv

  # Wider history: one-step, one-hour and one-day lags at 15-minute sampling
  pvdrift features plant1_week32.csv --lags 1,4,96 --window 4

  # Export features for training in pandas
  pvdrift features plant1_week32.csv --output parquet --output-file features.parquet`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteFeatures(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot build features", err)
		}
	},
}
