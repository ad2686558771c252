package cmd

import (
	"github.com/spf13/cobra"
	"github.com/sundog-labs/pvdrift/core"
	"github.com/sundog-labs/pvdrift/internal/contract"
)

// predictCmd emits the next-interval baseline forecast.
var predictCmd = &cobra.Command{
	Use:   "predict <dataset.csv>",
	Short: "Forecast the next interval of the target column.",
	Long: `Score the persistence baseline over the dataset and emit the forecast for
the next sampling interval.

The baseline predicts each interval from the previous one, which is the
standard yardstick for short-horizon solar forecasting. Its fit metrics (MAE,
RMSE, R2) tell you how much headroom a real model has on this plant, and the
forecast itself gives you the next expected reading.

Examples:
  # Forecast the next dc_power reading
  pvdrift predict plant1_week32.csv

  # Forecast a different channel over a clipped window
  pvdrift predict plant1_week32.csv --target ac_power --start 2020-05-30T00:00:00Z

  # Machine-readable forecast for a downstream scheduler
  pvdrift predict plant1_week32.csv --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecutePredict(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot run forecast", err)
		}
	},
}
