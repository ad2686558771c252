package iostore

import (
	"errors"
	"fmt"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/internal/parquet"
	"github.com/sundog-labs/pvdrift/schema"
)

// exportRunLimit bounds how many runs a single export reads.
const exportRunLimit = 100000

// ExecuteArchiveExport exports archived monitoring data to Parquet files.
func ExecuteArchiveExport(store contract.ReportStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("archive export requires a configured store backend")
	}

	// Refuse to export an empty archive
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get archive status: %w", err)
	}

	if status.TotalReports == 0 {
		return errors.New("no archived reports found to export")
	}

	fmt.Printf("Exporting the %s archive...\n", status.Backend)
	fmt.Printf("Total monitoring runs: %d\n", status.TotalReports)
	fmt.Printf("Total column verdicts: %d\n", status.TableSizes[columnResultsTable])

	// Retrieve all archived runs
	runs, err := store.ListRuns(exportRunLimit)
	if err != nil {
		return fmt.Errorf("failed to retrieve monitoring runs: %w", err)
	}

	// Retrieve the column verdicts for every run
	var columnRecords []schema.ColumnResultRecord
	for _, run := range runs {
		records, err := store.ListColumnResults(run.ReportID)
		if err != nil {
			return fmt.Errorf("failed to retrieve column results for %s: %w", run.ReportID, err)
		}
		columnRecords = append(columnRecords, records...)
	}

	// Map the records onto the parquet row types
	parquetRuns := parquet.ConvertMonitoringRunRecords(runs)
	parquetColumns := parquet.ConvertColumnResultRecords(columnRecords)

	// Write monitoring runs to Parquet
	runsFile := outputFile + ".monitoring_runs.parquet"
	if err := parquet.WriteMonitoringRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write monitoring runs: %w", err)
	}
	fmt.Printf("Exported %d monitoring runs to: %s\n", len(parquetRuns), runsFile)

	// Write column results to Parquet
	columnsFile := outputFile + ".column_results.parquet"
	if err := parquet.WriteColumnResultsParquet(parquetColumns, columnsFile); err != nil {
		return fmt.Errorf("failed to write column results: %w", err)
	}
	fmt.Printf("Exported %d column verdicts to: %s\n", len(parquetColumns), columnsFile)

	fmt.Println("\nBoth files load directly into DuckDB, Spark, pandas or any other Parquet reader.")

	return nil
}
