package core

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/schema"
)

// ExecuteCheck runs the check command for CI/CD gating.
// It compares the two datasets, prints a concise verdict and returns a
// non-zero exit code when the drift share breaches the gate.
func ExecuteCheck(ctx context.Context, cfg *contract.Config) error {
	start := time.Now()

	builder := NewCheckResultBuilder(ctx, cfg)

	_, err := builder.ValidatePrerequisites()
	if err != nil {
		return err
	}

	_, err = builder.LoadDatasets()
	if err != nil {
		return err
	}

	_, err = builder.RunAnalysis()
	if err != nil {
		return err
	}

	builder.BuildResult()

	if result := builder.GetResult(); result != nil {
		printCheckResult(result, cfg, time.Since(start))

		// Return non-zero exit if the gate failed
		if !result.Passed {
			fmt.Printf("%d drifted column(s) found\n", len(result.FailedColumns))
			os.Exit(1)
		}
	}
	return nil
}

// CheckResultBuilder builds the gate verdict using a builder pattern.
type CheckResultBuilder struct {
	cfg       *contract.Config
	ctx       context.Context
	reference *schema.Frame
	current   *schema.Frame
	report    *schema.MonitoringReport
	result    *schema.CheckResult
}

// NewCheckResultBuilder starts an empty builder bound to the run config.
func NewCheckResultBuilder(ctx context.Context, cfg *contract.Config) *CheckResultBuilder {
	return &CheckResultBuilder{
		cfg: cfg,
		ctx: ctx,
	}
}

// ValidatePrerequisites ensures the gate has two datasets to compare.
func (b *CheckResultBuilder) ValidatePrerequisites() (*CheckResultBuilder, error) {
	if b.cfg.ReferencePath == "" {
		return nil, fmt.Errorf("check requires a reference dataset. Example: pvdrift check reference.csv current.csv")
	}
	if b.cfg.CurrentPath == "" && !b.cfg.SimulateCurrent {
		return nil, fmt.Errorf("check requires a current dataset or --simulate with perturbations")
	}
	return b, nil
}

// LoadDatasets ingests both sides of the comparison.
func (b *CheckResultBuilder) LoadDatasets() (*CheckResultBuilder, error) {
	reference, current, err := loadMonitoringFrames(b.cfg)
	if err != nil {
		return nil, err
	}
	b.reference = reference
	b.current = current
	return b, nil
}

// RunAnalysis performs the feature build and drift analysis.
func (b *CheckResultBuilder) RunAnalysis() (*CheckResultBuilder, error) {
	report, err := analyzeFrames(b.cfg, b.reference, b.current)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze datasets: %w. Verify both CSVs share the same sensor columns", err)
	}
	b.report = report
	return b, nil
}

// BuildResult assembles the gate verdict from the report. The drifted
// columns are the share numerator, listed so a failing pipeline names its
// offenders.
func (b *CheckResultBuilder) BuildResult() *CheckResultBuilder {
	var failed []schema.CheckFailedColumn
	for _, c := range b.report.Columns {
		if c.Drifted {
			failed = append(failed, schema.CheckFailedColumn{
				Column:    c.Column,
				Statistic: c.Statistic,
				Threshold: c.Threshold,
			})
		}
	}

	b.result = &schema.CheckResult{
		Passed:         !b.report.DatasetDrifted,
		Report:         b.report,
		FailedColumns:  failed,
		ShareThreshold: b.cfg.ShareThreshold,
		ShareObserved:  b.report.DriftShare,
	}
	return b
}

// GetResult returns the built check result, or nil before BuildResult ran.
func (b *CheckResultBuilder) GetResult() *schema.CheckResult {
	return b.result
}

// printCheckResult renders the verdict in the short form CI logs want.
func printCheckResult(result *schema.CheckResult, cfg *contract.Config, duration time.Duration) {
	printCheckHeader(result, duration)

	if result.Passed {
		printCheckSuccess(result, cfg)
	} else {
		printCheckFailure(result, cfg)
	}
}

// printCheckHeader prints the gate parameters above either verdict.
func printCheckHeader(result *schema.CheckResult, duration time.Duration) {
	fmt.Println("Drift Gate Results:")

	labels := []string{"Method:", "Threshold:", "Share gate:"}
	values := []any{
		result.Report.Method,
		fmt.Sprintf("%.4f", columnThreshold(result.Report)),
		fmt.Sprintf("%.2f", result.ShareThreshold),
	}

	// Pad every label to the widest so the values line up
	maxLabelLen := 0
	for _, label := range labels {
		if len(label) > maxLabelLen {
			maxLabelLen = len(label)
		}
	}
	for i, label := range labels {
		fmt.Printf("  %-*s %v\n", maxLabelLen+1, label, values[i])
	}
	fmt.Println()

	fmt.Printf("Checked %d columns in %v\n\n", len(result.Report.Columns), duration)
}

// columnThreshold reads the per-column threshold back out of the report.
func columnThreshold(report *schema.MonitoringReport) float64 {
	if len(report.Columns) == 0 {
		return 0
	}
	return report.Columns[0].Threshold
}

// printCheckSuccess reports a pass and the columns that came closest.
func printCheckSuccess(result *schema.CheckResult, cfg *contract.Config) {
	if cfg.UseEmojis {
		fmt.Printf("✅ Drift share %.2f is within the %.2f gate\n\n", result.ShareObserved, result.ShareThreshold)
	} else {
		fmt.Printf("PASS: drift share %.2f is within the %.2f gate\n\n", result.ShareObserved, result.ShareThreshold)
	}

	fmt.Println("Highest statistics observed:")

	ranked := schema.RankColumnResults(result.Report.Columns)
	limit := min(len(ranked), 3)
	for _, c := range ranked[:limit] {
		fmt.Printf("  %s: %s=%.4f (threshold %.4f, %s)\n", c.Column, result.Report.Method, c.Statistic, c.Threshold, c.Label)
	}
}

// printCheckFailure reports the breach and names the worst offenders.
func printCheckFailure(result *schema.CheckResult, cfg *contract.Config) {
	if cfg.UseEmojis {
		fmt.Printf("❌ Drift gate failed: share %.2f exceeds the %.2f gate\n\n", result.ShareObserved, result.ShareThreshold)
	} else {
		fmt.Printf("FAIL: drift share %.2f exceeds the %.2f gate\n\n", result.ShareObserved, result.ShareThreshold)
	}

	failed := make([]schema.CheckFailedColumn, len(result.FailedColumns))
	copy(failed, result.FailedColumns)

	// Sort by statistic descending
	sort.Slice(failed, func(i, j int) bool {
		return failed[i].Statistic > failed[j].Statistic
	})

	fmt.Printf("Drifted columns (%d of %d):\n", len(failed), len(result.Report.Columns))

	// Show top 5 offenders, with "+X more" if needed
	maxToShow := 5
	shown := 0
	for _, f := range failed {
		if shown >= maxToShow {
			remaining := len(failed) - shown
			if remaining > 0 {
				fmt.Printf("  ... and %d more\n", remaining)
			}
			break
		}
		fmt.Printf("  - %s (statistic: %.4f >= threshold: %.4f)\n", f.Column, f.Statistic, f.Threshold)
		shown++
	}
	fmt.Println()
}
