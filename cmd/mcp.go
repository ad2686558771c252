package cmd

import (
	"github.com/spf13/cobra"
	"github.com/sundog-labs/pvdrift/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Pvdrift MCP server",
	Long:  `Serve drift monitoring to AI agents over stdio. The exposed tools cover monitor runs, feature builds and the report archive.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Same setup as the dataset commands, minus the header lines.
		// Stdout carries the protocol, so nothing extra may print there.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, reportStore)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
