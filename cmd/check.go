package cmd

import (
	"github.com/spf13/cobra"
	"github.com/sundog-labs/pvdrift/core"
	"github.com/sundog-labs/pvdrift/internal/contract"
)

// checkCmd evaluates the drift gate and sets the exit code.
var checkCmd = &cobra.Command{
	Use:   "check <reference.csv> [current.csv]",
	Short: "Enforce the drift gate for automated pipelines (fails on dataset drift)",
	Long: `Run the drift analysis and exit non-zero when the dataset-level gate trips.

Designed for scheduled retraining pipelines and data quality jobs. Output is
a concise verdict rather than the full report, and the exit code carries the
decision:
  0 - drift share within the gate
  1 - dataset drifted, downstream steps should not trust this data

Use cases:
- Gate retraining jobs on input data health
- Block report publication when telemetry shifts
- Alert on sensor degradation from cron

Examples:
  # Gate a retraining pipeline
  pvdrift check plant1_train.csv plant1_today.csv || ./retrain.sh

  # Stricter gate with PSI scoring
  pvdrift check plant1_train.csv plant1_today.csv --method psi --share 0.25

  # Rehearse the gate against synthetic drift
  pvdrift check plant1_train.csv --simulate --perturb "irradiation:noise:0.4" --seed 7`,
	Args:    cobra.RangeArgs(1, 2),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// Gate evaluation and the exit code live in ExecuteCheck
		if err := core.ExecuteCheck(rootCtx, cfg); err != nil {
			contract.LogFatal("Drift gate check failed", err)
		}
	},
}
