package cmd

import (
	"github.com/spf13/cobra"
	"github.com/sundog-labs/pvdrift/core"
	"github.com/sundog-labs/pvdrift/internal/contract"
)

// metricsCmd displays the formal definitions of the drift methods.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display definitions and default thresholds for the drift methods",
	Long: `Show what each drift method measures, its value range, its verdict rule and
its default threshold, plus the feature naming scheme.

No datasets are read - this is purely informational.

Use this to:
- Understand what KS and PSI each respond to
- Explain drift verdicts to your team
- Decode feature column names in reports
- Check the default thresholds before overriding them

Examples:
  # Show method definitions
  pvdrift metrics

  # Definitions as JSON for docs tooling
  pvdrift metrics --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMetrics(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot display metrics", err)
		}
	},
}
