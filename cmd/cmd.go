// Package cmd defines the command-line interface for pvdrift.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/schema"
)

func init() {
	// initConfig runs once cobra has parsed the command line
	cobra.OnInitialize(initConfig)

	// Wire every subcommand under root
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the archive subcommands to the parent archive command
	archiveCmd.AddCommand(archiveStatusCmd)
	archiveCmd.AddCommand(archiveClearCmd)
	archiveCmd.AddCommand(archiveExportCmd)
	archiveCmd.AddCommand(archiveMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("target", schema.DefaultTargetColumn, "Production column scored for drift gating and forecasting")
	rootCmd.PersistentFlags().String("drop", "", "Comma-separated list of columns to exclude from analysis")
	rootCmd.PersistentFlags().String("lags", "1", "Comma-separated lag offsets in sampling intervals (e.g. 1,4,96)")
	rootCmd.PersistentFlags().Int("window", contract.DefaultRollingWindow, "Rolling mean window size in rows")
	rootCmd.PersistentFlags().String("method", string(schema.KSMethod), "Drift method: ks or psi")
	rootCmd.PersistentFlags().Float64("threshold", 0, "Per-column drift threshold override (0 = method default)")
	rootCmd.PersistentFlags().Float64("share", contract.DefaultShare, "Share of drifted columns that flags the whole dataset")
	rootCmd.PersistentFlags().String("start", "", "Start of the analysis window in ISO8601")
	rootCmd.PersistentFlags().String("end", "", "End of the analysis window in ISO8601")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Write output to this file instead of stdout")
	rootCmd.PersistentFlags().Bool("detail", false, "Print per-column mean and standard deviation summaries")
	rootCmd.PersistentFlags().Int("width", 0, "Table width override (0 = detect terminal width)")
	rootCmd.PersistentFlags().String("archive-backend", string(schema.SQLiteBackend), "Report archive backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("archive-db-connect", "", "Archive connection string: mysql user:pass@tcp(host:port)/dbname, postgresql host=... dbname=...")
	rootCmd.PersistentFlags().String("emoji", "yes", "Emojis in text output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("color", "yes", "Colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Bool("simulate", false, "Synthesize the current dataset by perturbing the reference")
	rootCmd.PersistentFlags().String("perturb", "", "Perturbation spec per column (format: 'irradiation:noise:0.2,ambient_temp:shift:1.5')")
	rootCmd.PersistentFlags().String("seed", "", "Random seed for reproducible perturbations")
	rootCmd.PersistentFlags().String("profile", "", "Write CPU and memory profiles with this filename prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of monitorCmd to Viper
	monitorCmd.Flags().Bool("explain", false, "Print per-column statistic breakdown (PSI bin contributions)")
	monitorCmd.Flags().String("predictions-csv", "", "CSV of external model predictions to score against the current dataset")
	if err := viper.BindPFlags(monitorCmd.Flags()); err != nil {
		contract.LogFatal("Error binding monitor flags", err)
	}

	// Bind all flags of trendCmd to Viper
	trendCmd.Flags().Int("windows", contract.DefaultTrendWindows, "Number of successive windows to split the current dataset into")
	trendCmd.Flags().String("interval", "", "Fixed window length (e.g. '6 hours'), overrides --windows")
	if err := viper.BindPFlags(trendCmd.Flags()); err != nil {
		contract.LogFatal("Error binding trend flags", err)
	}

	// Bind all flags of compareCmd to Viper
	compareCmd.Flags().String("base-id", "", "Report ID of the BEFORE run")
	compareCmd.Flags().String("target-id", "", "Report ID of the AFTER run (defaults to the latest other run)")
	if err := viper.BindPFlags(compareCmd.Flags()); err != nil {
		contract.LogFatal("Error binding compare flags", err)
	}

	// Bind all flags of archiveMigrateCmd to Viper
	archiveMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(archiveMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding archive migrate flags", err)
	}
}
