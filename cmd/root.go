package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/internal/iostore"
	"github.com/sundog-labs/pvdrift/schema"
)

// Populated through -ldflags by the release build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the parent context every command runs under.
var rootCtx = context.Background()

// cfg holds the validated configuration commands execute against.
var cfg = &contract.Config{}

// input collects the raw values viper merges from file, env and flags,
// before validation turns them into cfg.
var input = &contract.ConfigRawInput{}

// profile carries the pprof settings resolved from --profile.
var profile = &contract.ProfileConfig{}

// reportStore is the global report archive instance.
var reportStore contract.ReportStore

// startProfiling begins the CPU profile. The heap snapshot is taken when
// profiling stops.
func startProfiling() error {
	if !profile.Enabled {
		return nil
	}

	cpuFile, err := os.Create(profile.Prefix + ".cpu.prof")
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}

	_, err = fmt.Fprintf(os.Stdout, "Profiling to %s.cpu.prof and %s.mem.prof\n", profile.Prefix, profile.Prefix)
	return err
}

// stopProfiling ends the CPU profile and captures the heap.
func stopProfiling() error {
	if !profile.Enabled {
		return nil
	}

	pprof.StopCPUProfile()

	memFile, err := os.Create(profile.Prefix + ".mem.prof")
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = memFile.Close() }()

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	_, err = fmt.Fprintf(os.Stdout, "Wrote profiles, inspect with 'go tool pprof %s.cpu.prof'\n", profile.Prefix)
	return err
}

// rootCmd anchors the command tree. Running it bare prints help.
var rootCmd = &cobra.Command{
	Use:                "pvdrift",
	Short:              "Monitor solar power datasets for feature drift and forecast decay.",
	Long:               `Pvdrift builds forecasting features from plant telemetry and tells you when the data feeding your model has shifted under it.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig points viper at the config file, env prefix and defaults.
func initConfig() {
	// An explicit --config wins over the search path
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".pvdrift") // Extension-less config file name
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")     // Current directory first
		viper.AddConfigPath("$HOME") // Then the home directory
	}

	// PVDRIFT_ARCHIVE_BACKEND style env vars map onto flag names
	viper.SetEnvPrefix("PVDRIFT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Defaults, overridable by file, env and flags in that order
	viper.SetDefault("target", schema.DefaultTargetColumn)
	viper.SetDefault("lags", "1")
	viper.SetDefault("window", contract.DefaultRollingWindow)
	viper.SetDefault("method", schema.KSMethod)
	viper.SetDefault("share", contract.DefaultShare)
	viper.SetDefault("limit", contract.DefaultResultLimit)
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("windows", contract.DefaultTrendWindows)
	viper.SetDefault("archive-backend", schema.SQLiteBackend)
	viper.SetDefault("archive-db-connect", "")
	viper.SetDefault("emoji", "yes")
	viper.SetDefault("color", "yes")
}

// sharedSetup resolves the full configuration and opens the report archive.
// It is the PreRunE for every command that reads datasets.
func sharedSetup(_ context.Context, _ *cobra.Command, args []string) error {
	profilePrefix := viper.GetString("profile")
	if err := contract.ProcessProfilingConfig(profile, profilePrefix); err != nil {
		return fmt.Errorf("failed to process profiling config: %w", err)
	}
	if profile.Enabled {
		if err := startProfiling(); err != nil {
			return fmt.Errorf("failed to start profiling: %w", err)
		}
	}

	// A missing config file is fine, defaults, env and flags still apply.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Pull everything viper resolved into the raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// Dataset paths arrive as positional arguments, outside viper's reach.
	if len(args) >= 1 {
		input.ReferencePathStr = args[0]
	}
	if len(args) >= 2 {
		input.CurrentPathStr = args[1]
	}

	// Validation turns the raw input into the typed cfg.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	store, err := iostore.NewReportStore(cfg.ArchiveBackend, cfg.ArchiveDBConnect)
	if err != nil {
		return fmt.Errorf("failed to initialize report archive: %w", err)
	}
	reportStore = store

	return nil
}

// sharedSetupWrapper adapts sharedSetup to cobra's PreRunE signature.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// loadConfigFile reads the config file for commands that skip sharedSetup,
// the archive subcommands among them.
func loadConfigFile() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".pvdrift")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// CloseReportStore releases the report archive connection if one was opened.
func CloseReportStore() {
	if reportStore == nil {
		return
	}
	if err := reportStore.Close(); err != nil {
		contract.LogWarn("Could not close report archive", err)
	}
}

// StopProfiling flushes the profiles on the way out of main.
func StopProfiling() error {
	return stopProfiling()
}
