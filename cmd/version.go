package cmd

import (
	"runtime"

	"github.com/spf13/cobra"
)

// versionCmd prints the build identity a bug report should include.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of pvdrift.",
	Long: `Display the build identity of this binary.

Covers the release version, the git commit it was built from, the build
timestamp and the Go runtime, which is usually what a bug report needs.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("pvdrift CLI\n")
		cmd.Printf("  Version: %s\n", version)
		cmd.Printf("  Commit:  %s\n", commit)
		cmd.Printf("  Built:   %s\n", date)
		cmd.Printf("  Runtime: %s\n", runtime.Version())
	},
}
