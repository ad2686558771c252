// main holds the entrypoint for the pvdrift CLI.
package main

import (
	"github.com/sundog-labs/pvdrift/cmd"
	"github.com/sundog-labs/pvdrift/internal/contract"
)

func main() {
	err := cmd.Execute()

	// Release resources before deciding the exit code, LogFatal skips defers.
	cmd.CloseReportStore()
	if perr := cmd.StopProfiling(); perr != nil {
		contract.LogWarn("Could not stop profiling", perr)
	}

	if err != nil {
		contract.LogFatal("Cannot run pvdrift", err)
	}
}
