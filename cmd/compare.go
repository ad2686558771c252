package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/sundog-labs/pvdrift/core"
	"github.com/sundog-labs/pvdrift/internal/contract"
)

// compareCmd diffs two archived monitoring runs.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two archived monitoring runs column by column.",
	Long: `Diff two archived monitoring reports to see how drift changed between runs.

Reads both reports from the archive, so no datasets are needed. For every
column the comparison shows the before/after statistics, the delta and its
drift transition (new, removed, regressed, recovered), plus a summary of
the net movement.

Ideal for:
- Release validation - did the new inverter firmware change the data?
- Incident review - when exactly did the irradiation channel degrade?
- Cleaning checks - did panel washing bring distributions back?

Report IDs come from monitor runs; find them with 'pvdrift archive status'
or the MCP list_reports tool.

Examples:
  # Compare a run against the latest other archived run
  pvdrift compare --base-id 7f3a2b1c

  # Compare two specific runs with per-column detail
  pvdrift compare --base-id 7f3a2b1c --target-id 9e8d0a4f --detail

  # Export the diff for a report
  pvdrift compare --base-id 7f3a2b1c --target-id 9e8d0a4f --output json --output-file diff.json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if cfg.BaseID == "" {
			contract.LogFatal("Cannot run comparison", errors.New("a base report ID must be provided"))
		}
		if err := core.ExecuteCompare(rootCtx, cfg, reportStore); err != nil {
			contract.LogFatal("Cannot run comparison", err)
		}
	},
}
