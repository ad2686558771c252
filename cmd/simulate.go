package cmd

import (
	"github.com/spf13/cobra"
	"github.com/sundog-labs/pvdrift/core"
	"github.com/sundog-labs/pvdrift/internal/contract"
)

// simulateCmd perturbs a dataset to produce synthetic drift.
var simulateCmd = &cobra.Command{
	Use:   "simulate <reference.csv>",
	Short: "Perturb a dataset to produce synthetic drifted telemetry.",
	Long: `Apply column perturbations to a reference dataset and write the result.

Useful for rehearsing incident response and validating thresholds before a
real sensor fault does it for you. Perturbation kinds:
  noise    - add Gaussian noise with the given sigma
  scale    - multiply values by the given factor
  shift    - add the given offset to every value
  resample - replace the given fraction of rows with draws from the column

Runs are reproducible when a seed is given. Unseeded runs report the seed
they picked so they can be replayed.

Examples:
  # Degrade the irradiation sensor and drift the ambient temperature
  pvdrift simulate plant1_train.csv --perturb "irradiation:noise:0.2,ambient_temp:shift:1.5"

  # Reproducible run written to a file
  pvdrift simulate plant1_train.csv --perturb "module_temp:scale:1.1" --seed 42 --output csv --output-file drifted.csv

  # Perturbation specs can also live under 'perturbations:' in .pvdrift.yaml
  pvdrift simulate plant1_train.csv --config .pvdrift.yaml`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSimulate(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot run simulation", err)
		}
	},
}
