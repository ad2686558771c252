package cmd

import (
	"github.com/spf13/cobra"
	"github.com/sundog-labs/pvdrift/core"
	"github.com/sundog-labs/pvdrift/internal/contract"
)

// trendCmd tracks drift evolution across successive windows.
var trendCmd = &cobra.Command{
	Use:   "trend <reference.csv> [current.csv]",
	Short: "Show how drift evolved across successive windows of the current dataset.",
	Long: `Split the current dataset into successive time windows and run the drift
analysis on each against a fixed reference.

A single monitoring run tells you whether the data has drifted; the trend
tells you whether it is getting worse. Each window reports its drift share,
the change from the previous window and whether the dataset gate tripped,
so you can spot gradual sensor decay before it becomes an outage.

Examples:
  # Four equal windows over the current dataset
  pvdrift trend plant1_train.csv plant1_week32.csv

  # Finer resolution: eight windows
  pvdrift trend plant1_train.csv plant1_week32.csv --windows 8

  # Fixed six-hour windows instead of an even split
  pvdrift trend plant1_train.csv plant1_week32.csv --interval "6 hours"

  # Export the trajectory for plotting
  pvdrift trend plant1_train.csv plant1_week32.csv --output csv --output-file trend.csv`,
	Args:    cobra.RangeArgs(1, 2),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTrend(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot run trend analysis", err)
		}
	},
}
