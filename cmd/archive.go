package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/internal/iostore"
	"github.com/sundog-labs/pvdrift/schema"
)

// archiveSetup loads minimal configuration needed for archive operations.
// This is used by commands that need archive access without full shared setup.
func archiveSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get archive-related config values
	backendStr := viper.GetString("archive-backend")
	connStr := viper.GetString("archive-db-connect")

	// An unset backend means archiving is off
	var backend schema.StoreBackend
	if backendStr == "" {
		backend = schema.NoneBackend
	} else {
		backend = schema.StoreBackend(backendStr)
	}

	// Reject malformed connection strings before opening anything
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// The export subcommand reads its destination from here
	outputFile := viper.GetString("output-file")

	// Initialize the store with the loaded config
	store, err := iostore.NewReportStore(backend, connStr)
	if err != nil {
		return fmt.Errorf("failed to initialize report archive: %w", err)
	}
	reportStore = store

	cfg.ArchiveBackend = backend
	cfg.ArchiveDBConnect = connStr
	cfg.OutputFile = outputFile

	return nil
}

// archiveSetupWrapper wraps archiveSetup to provide PreRunE for archive commands.
func archiveSetupWrapper(_ *cobra.Command, _ []string) error {
	return archiveSetup()
}

// archiveMigrateSetup resolves the backend config without opening the store.
// Opening would create the tables and defeat a migration run against a
// fresh database.
func archiveMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get archive-related config values
	backendStr := viper.GetString("archive-backend")
	connStr := viper.GetString("archive-db-connect")

	// An unset backend means archiving is off
	var backend schema.StoreBackend
	if backendStr == "" {
		backend = schema.NoneBackend
	} else {
		backend = schema.StoreBackend(backendStr)
	}

	// Reject malformed connection strings before opening anything
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// An empty SQLite connection string falls back to the default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetArchiveDBFilePath()
	}

	cfg.ArchiveBackend = backend
	cfg.ArchiveDBConnect = connStr

	return nil
}

// archiveMigrateSetupWrapper wraps archiveMigrateSetup to provide PreRunE for migrate command.
func archiveMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return archiveMigrateSetup()
}

// archiveCmd groups the report archive subcommands.
//
// These run archiveSetup rather than the full sharedSetup: there are no
// datasets to validate, only the store connection matters.
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage archived monitoring runs and exports",
	Long: `Manage the archive of monitoring runs used for comparisons and reporting.

When enabled, pvdrift archives every monitoring run, storing:
- Run metadata (timestamp, configuration, drift verdict)
- Per-column drift statistics and distribution summaries
- The full report for later comparison

This enables longitudinal tracking, run comparisons and data export for BI tools.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show archive statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all archived runs
  migrate - Apply or roll back schema migrations

Examples:
  # Check archive status
  pvdrift archive status

  # Export for analysis in pandas/DuckDB
  pvdrift archive export --output-file drift-history`,
}

// archiveClearCmd clears the archived data.
var archiveClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all archived monitoring runs",
	Long: `Delete all archived monitoring runs and their per-column results.

WARNING: This action cannot be undone. Consider exporting data first.

Use this when:
- Resetting drift history after a plant reconfiguration
- Database storage is full
- Starting fresh monitoring history
- Testing archive features

Examples:
  # Export before clearing
  pvdrift archive export --output-file backup
  pvdrift archive clear

  # Clear and start fresh
  pvdrift archive clear`,
	PreRunE: archiveSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := reportStore.Clear(); err != nil {
			contract.LogFatal("Failed to clear archive data", err)
		}
		fmt.Println("Archive data cleared successfully.")
	},
}

// archiveStatusCmd shows archive status.
var archiveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display archive statistics and connection details",
	Long: `Show detailed information about the monitoring run archive.

Displays:
- Backend type and connection status
- Total number of monitoring runs stored
- Last and oldest run timestamps
- Total column results across all runs

Use this to:
- Verify archiving is enabled and working
- Find report IDs for the compare command
- Monitor data accumulation over time
- Check database connection health

Examples:
  # Check archive status
  pvdrift archive status`,
	PreRunE: archiveSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := reportStore.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get archive status", err)
		}
		iostore.PrintArchiveStatus(status)
	},
}

// archiveExportCmd exports archived data to Parquet files.
var archiveExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived runs to Parquet for BI tools and analytics",
	Long: `Export all archived monitoring data to Parquet format for analytics tools.

The --output-file value is used as a filename prefix. Two files are written:
- <prefix>.monitoring_runs.parquet - metadata and verdict for each run
- <prefix>.column_results.parquet - per-column drift statistics and summaries

Parquet format enables:
- Fast querying with DuckDB, Apache Spark, pandas
- Efficient storage with columnar compression
- Direct import into BI tools (Tableau, Metabase, etc.)

Use cases:
- Drift trend dashboards across plants
- Seasonal recalibration studies
- Fleet-wide sensor health reporting

Examples:
  # Export all data
  pvdrift archive export --output-file drift-history

  # Use with DuckDB for analysis
  pvdrift archive export --output-file data
  duckdb -c "SELECT * FROM read_parquet('data.monitoring_runs.parquet') LIMIT 10"`,
	PreRunE: archiveSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iostore.ExecuteArchiveExport(reportStore, cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export archive data", err)
		}
	},
}

// archiveMigrateCmd runs database migrations for the archive store.
var archiveMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back archive schema migrations",
	Long: `Manage database schema versions for the report archive.

Migrations allow:
- Upgrading to new schema versions when pvdrift is updated
- Safely modifying database structure without data loss
- Rolling back schema changes if needed
- Testing new features on specific schema versions

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  pvdrift archive migrate

  # Migrate to specific version
  pvdrift archive migrate --target-version 2

  # Rollback to previous version
  pvdrift archive migrate --target-version 0`,
	PreRunE: archiveMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iostore.MigrateArchive(cfg.ArchiveBackend, cfg.ArchiveDBConnect, targetVersion); err != nil {
			contract.LogFatal("Migration failed", err)
		}
	},
}
