// Command benchmark times pvdrift against synthetic telemetry of increasing
// size. Every command is measured twice per dataset: with the archive turned
// off, then against a fresh SQLite archive where the first run pays the schema
// setup (cold) and the rest measure steady state (warm). Timings land in a
// timestamped CSV under /tmp.
//
// The pvdrift binary must be on PATH. Datasets are generated into the
// directory named on the command line:
//
//	go run benchmark/main.go <dataset-dir>
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult captures the timings for one command on one dataset.
type BenchmarkResult struct {
	Dataset       string
	Command       string
	NoArchiveTime string
	ColdTime      string
	WarmTime      string
}

// BenchmarkConfig drives a full benchmark sweep.
type BenchmarkConfig struct {
	DatasetBase   string
	Timeout       time.Duration
	Workers       int
	NoArchiveRuns int
	ArchiveRuns   int
	Datasets      []string
	DatasetRows   map[string]int
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s <dataset-dir>\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		DatasetBase:   os.Args[1],
		Timeout:       5 * time.Minute,
		Workers:       8,
		NoArchiveRuns: 3,
		ArchiveRuns:   4,
		Datasets:      []string{"day", "week", "month", "season"},
		DatasetRows: map[string]int{
			"day":    96,
			"week":   672,
			"month":  2880,
			"season": 8640,
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Cannot benchmark: %v\n", err)
		os.Exit(1)
	}

	if err := generateDatasets(config); err != nil {
		fmt.Printf("Dataset generation failed: %v\n", err)
		os.Exit(1)
	}

	// Cold timings assume the archive starts empty.
	fmt.Printf("Clearing archive...\n")
	clearCmd := exec.Command("pvdrift", "archive", "clear")
	if out, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: archive clear failed: %v\n%s\n", err, out)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Could not write results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites fails fast when the binary or dataset directory is missing.
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("pvdrift"); err != nil {
		return fmt.Errorf("pvdrift binary not found in PATH")
	}
	if info, err := os.Stat(config.DatasetBase); err != nil || !info.IsDir() {
		return fmt.Errorf("dataset directory not found at %s", config.DatasetBase)
	}
	return nil
}

// generateDatasets writes a reference and a drifted current dataset for every size
func generateDatasets(config BenchmarkConfig) error {
	fmt.Printf("Generating synthetic telemetry in %s\n", config.DatasetBase)

	for _, name := range config.Datasets {
		rows := config.DatasetRows[name]
		rng := rand.New(rand.NewSource(42))

		refPath := filepath.Join(config.DatasetBase, name+"_ref.csv")
		if err := writeTelemetry(refPath, rows, 0.0, rng); err != nil {
			return fmt.Errorf("failed to generate %s: %w", refPath, err)
		}

		// The current side carries a deliberate irradiation shift so the
		// monitor run has real drift to score.
		curPath := filepath.Join(config.DatasetBase, name+"_cur.csv")
		if err := writeTelemetry(curPath, rows/4, 0.15, rng); err != nil {
			return fmt.Errorf("failed to generate %s: %w", curPath, err)
		}
	}

	return nil
}

// writeTelemetry emits a plausible 15-minute solar telemetry CSV with the
// given number of rows. The shift moves the irradiation curve to mimic
// sensor drift.
func writeTelemetry(path string, rows int, shift float64, rng *rand.Rand) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"timestamp", "dc_power", "ac_power", "irradiation", "module_temp", "ambient_temp"}); err != nil {
		return err
	}

	start := time.Date(2020, 5, 15, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		ts := start.Add(time.Duration(i) * 15 * time.Minute)
		hour := float64(ts.Hour()) + float64(ts.Minute())/60

		// Daylight bell between 06:00 and 18:00
		daylight := 0.0
		if hour > 6 && hour < 18 {
			daylight = math.Sin(math.Pi * (hour - 6) / 12)
		}

		irradiation := daylight*(0.95+0.1*rng.Float64()) + shift*daylight
		ambient := 24 + 6*daylight + rng.Float64()
		module := ambient + 18*irradiation
		dcPower := irradiation * 7200 * (0.97 + 0.06*rng.Float64())
		acPower := dcPower * 0.975

		record := []string{
			ts.Format(time.RFC3339),
			fmt.Sprintf("%.3f", dcPower),
			fmt.Sprintf("%.3f", acPower),
			fmt.Sprintf("%.4f", irradiation),
			fmt.Sprintf("%.2f", module),
			fmt.Sprintf("%.2f", ambient),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}

// runBenchmarks sweeps every command across every dataset size.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	fmt.Printf("Benchmarking %d dataset sizes, %d workers, timeout %v\n",
		len(config.Datasets), config.Workers, config.Timeout)

	var results []BenchmarkResult
	for _, dataset := range config.Datasets {
		refPath := filepath.Join(config.DatasetBase, dataset+"_ref.csv")
		curPath := filepath.Join(config.DatasetBase, dataset+"_cur.csv")

		results = append(results,
			benchCommand(config, dataset, "monitor", []string{refPath, curPath}),
			benchCommand(config, dataset, "trend", []string{refPath, curPath, "--windows", "4"}),
			benchCommand(config, dataset, "features", []string{refPath, "--lags", "1,4,96", "--window", "4"}),
		)
	}
	return results
}

// benchCommand times one command on one dataset, archive off then SQLite.
func benchCommand(config BenchmarkConfig, dataset, command string, extraArgs []string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, dataset)

	_, noArchiveAvg := timedRuns(config, command, extraArgs, "none", config.NoArchiveRuns)
	cold, warmAvg := timedRuns(config, command, extraArgs, "sqlite", config.ArchiveRuns)

	coldStr := "TIMEOUT"
	if cold > 0 {
		coldStr = fmt.Sprintf("%.3fs", cold)
	}
	fmt.Printf("  no-archive %s, cold %s, warm %s\n", noArchiveAvg, coldStr, warmAvg)

	return BenchmarkResult{
		Dataset:       dataset,
		Command:       command,
		NoArchiveTime: noArchiveAvg,
		ColdTime:      coldStr,
		WarmTime:      warmAvg,
	}
}

// timedRuns invokes pvdrift numRuns times with the given archive backend.
// The first successful run is the cold time and the rest are averaged into
// the warm time. Runs that fail or exceed the timeout are dropped.
func timedRuns(config BenchmarkConfig, command string, extraArgs []string, backend string, numRuns int) (cold float64, warmAvg string) {
	args := []string{command, "--archive-backend", backend, "--workers", fmt.Sprintf("%d", config.Workers)}
	args = append(args, extraArgs...)

	var times []float64
	for run := 0; run < numRuns; run++ {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		out, err := exec.CommandContext(ctx, "pvdrift", args...).CombinedOutput()
		cancel()
		if err == nil && isSuccess(out, command) {
			times = append(times, time.Since(start).Seconds())
		}
	}

	if len(times) == 0 {
		return 0, "TIMEOUT"
	}
	cold = times[0]
	warm := times[1:]
	if len(warm) == 0 {
		return cold, fmt.Sprintf("%.3fs", cold)
	}
	var sum float64
	for _, t := range warm {
		sum += t
	}
	return cold, fmt.Sprintf("%.3fs", sum/float64(len(warm)))
}

// isSuccess matches the completion line each command prints at the end of
// its report, so a run that errored out mid-analysis is not timed.
func isSuccess(output []byte, command string) bool {
	text := string(output)

	var phrase string
	switch command {
	case "trend":
		phrase = "Trend completed in"
	case "features":
		phrase = "Feature build completed in"
	default:
		phrase = "Analysis completed in"
	}

	return strings.Contains(text, phrase) &&
		strings.Contains(text, "with") &&
		strings.Contains(text, "workers")
}

// saveResults writes the sweep to a timestamped CSV under /tmp.
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/pvdrift_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"dataset", "cmd", "no_archive_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Command, result.NoArchiveTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("write CSV record: %w", err)
		}
	}

	fmt.Printf("Wrote %s\n", filename)
	return nil
}

// printSummary groups the timings by command for a quick read.
func printSummary(results []BenchmarkResult) {
	printGroup(results, "monitor", "Monitor analysis:")
	printGroup(results, "trend", "Trend analysis:")
	printGroup(results, "features", "Feature build:")
}

func printGroup(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-12s no-archive %s, cold %s, warm %s\n",
				result.Dataset, result.NoArchiveTime, result.ColdTime, result.WarmTime)
		}
	}
}
