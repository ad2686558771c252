package iostore

import (
	"fmt"

	"github.com/sundog-labs/pvdrift/schema"
)

// PrintArchiveStatus prints report archive status information.
func PrintArchiveStatus(status schema.ArchiveStatus) {
	fmt.Printf("Archive Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Reports: %d\n", status.TotalReports)
	if status.TotalReports > 0 {
		fmt.Printf("Drifted Reports: %d\n", status.DriftedReports)
		fmt.Printf("Last Report ID: %s\n", status.LastReportID)
		fmt.Printf("Last Report: %s\n", status.LastReportTime.Format("2006-01-02 15:04:05"))
		fmt.Printf("Oldest Report: %s\n", status.OldestReportTime.Format("2006-01-02 15:04:05"))
	}
	fmt.Println("Table Sizes:")
	for table, size := range status.TableSizes {
		fmt.Printf("  %s: %d rows\n", table, size)
	}
}
