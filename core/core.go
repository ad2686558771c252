// Package core has core logic for feature building, drift analysis and reporting.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/internal/ingest"
	"github.com/sundog-labs/pvdrift/internal/outwriter"
	"github.com/sundog-labs/pvdrift/schema"
)

// ExecutorFunc defines the function signature for executing different monitoring modes.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config) error

// ExecuteMonitor runs the full monitoring pipeline and renders the report.
// It serves as the main entry point for the 'monitor' mode. When a report
// store is supplied the report is archived before rendering; archive failures
// degrade to a warning because the run itself succeeded.
func ExecuteMonitor(ctx context.Context, cfg *contract.Config, store contract.ReportStore) error {
	start := time.Now()

	outwriter.LogMonitorHeader(cfg)

	report, err := RunMonitor(ctx, cfg)
	if err != nil {
		return err
	}

	archiveReport(store, cfg, report)

	duration := time.Since(start)
	return outwriter.WriteMonitoringReport(report, cfg, duration)
}

// RunMonitor loads both datasets, builds features on each side, scores the
// baseline predictor and runs the drift analysis. It produces the report
// without rendering, so the MCP server and the check gate can reuse it.
func RunMonitor(_ context.Context, cfg *contract.Config) (*schema.MonitoringReport, error) {
	reference, current, err := loadMonitoringFrames(cfg)
	if err != nil {
		return nil, err
	}
	return analyzeFrames(cfg, reference, current)
}

// ExecuteFeatures builds the feature matrix for a single dataset and renders
// it. It serves as the main entry point for the 'features' mode.
func ExecuteFeatures(_ context.Context, cfg *contract.Config) error {
	start := time.Now()

	frame, err := loadFrame(cfg, cfg.ReferencePath)
	if err != nil {
		return err
	}

	matrix, err := BuildFeatures(cfg, frame)
	if err != nil {
		return err
	}

	duration := time.Since(start)
	return outwriter.WriteFeatureMatrix(matrix, cfg, duration)
}

// ExecuteSimulate perturbs a reference dataset and writes the result.
// Unseeded runs pick a seed from the clock and call that out, with the
// chosen seed, so the run can be replayed.
func ExecuteSimulate(_ context.Context, cfg *contract.Config) error {
	start := time.Now()

	reference, err := loadFrame(cfg, cfg.ReferencePath)
	if err != nil {
		return err
	}

	perturbed, seed, err := Simulate(cfg, reference)
	if err != nil {
		return err
	}
	if !cfg.Seeded {
		contract.LogWarn("Unseeded simulation", fmt.Errorf("seed %d came from the clock, pass --seed %d to replay this run", seed, seed))
	}

	duration := time.Since(start)
	return outwriter.WriteFrame(perturbed, cfg, duration)
}

// ExecuteMetrics displays the drift methods, their default thresholds and the
// feature naming scheme. This is a static display that reads no datasets.
func ExecuteMetrics(_ context.Context, cfg *contract.Config) error {
	return outwriter.PrintMethodDefinitions(cfg)
}

// loadFrame ingests one CSV dataset and applies the configured column drops
// and time clipping.
func loadFrame(cfg *contract.Config, path string) (*schema.Frame, error) {
	if path == "" {
		return nil, errors.New("a dataset path is required")
	}
	return ingest.ReadFrame(path, cfg)
}

// loadMonitoringFrames resolves the two sides of a monitoring run. The
// current side comes from its own dataset when one is given, or from the
// simulator when --simulate asks for a derived one.
func loadMonitoringFrames(cfg *contract.Config) (*schema.Frame, *schema.Frame, error) {
	reference, err := loadFrame(cfg, cfg.ReferencePath)
	if err != nil {
		return nil, nil, err
	}

	if cfg.CurrentPath != "" {
		current, err := ingest.ReadFrame(cfg.CurrentPath, cfg)
		if err != nil {
			return nil, nil, err
		}
		return reference, current, nil
	}

	if cfg.SimulateCurrent {
		current, seed, err := Simulate(cfg, reference)
		if err != nil {
			return nil, nil, err
		}
		if !cfg.Seeded {
			contract.LogWarn("Unseeded simulation", fmt.Errorf("seed %d came from the clock, pass --seed %d to replay this run", seed, seed))
		}
		return reference, current, nil
	}

	return nil, nil, errors.New("no current dataset: pass a second CSV or use --simulate with perturbations")
}

// analyzeFrames builds both feature matrices, attaches the performance
// series and runs the drift analysis.
func analyzeFrames(cfg *contract.Config, reference, current *schema.Frame) (*schema.MonitoringReport, error) {
	refMatrix, err := BuildFeatures(cfg, reference)
	if err != nil {
		return nil, fmt.Errorf("reference features: %w", err)
	}
	curMatrix, err := BuildFeatures(cfg, current)
	if err != nil {
		return nil, fmt.Errorf("current features: %w", err)
	}

	input := &AnalyzeInput{Reference: refMatrix, Current: curMatrix}
	if err := attachPerformanceSeries(cfg, input, reference, current, refMatrix, curMatrix); err != nil {
		return nil, err
	}

	return AnalyzeDrift(cfg, input)
}

// attachPerformanceSeries wires the aligned target and prediction series into
// the analysis input. External predictions cover the current side only; the
// baseline persistence predictor scores both sides so the report can show the
// reference-period delta. Datasets without the target column skip performance
// with a warning, leaving drift as the sole product.
func attachPerformanceSeries(cfg *contract.Config, input *AnalyzeInput, reference, current *schema.Frame, refMatrix, curMatrix *schema.FeatureMatrix) error {
	target := cfg.TargetColumn
	if !reference.HasColumn(target) || !current.HasColumn(target) {
		contract.LogWarn("Skipping performance metrics", fmt.Errorf("target column %q is not present in both datasets", target))
		return nil
	}

	curTarget, err := BuildAlignedTarget(cfg, current, target)
	if err != nil {
		return err
	}
	input.CurrentTarget = curTarget

	if cfg.PredictionsPath != "" {
		preds, err := ingest.ReadPredictions(cfg.PredictionsPath)
		if err != nil {
			return err
		}
		input.CurrentPredictions = preds
		return nil
	}

	refTarget, err := BuildAlignedTarget(cfg, reference, target)
	if err != nil {
		return err
	}
	input.ReferenceTarget = refTarget

	predictor := NewPersistencePredictor(target)
	curPreds, err := predictor.Predict(curMatrix, curTarget)
	if err != nil {
		return err
	}
	refPreds, err := predictor.Predict(refMatrix, refTarget)
	if err != nil {
		return err
	}
	input.CurrentPredictions = curPreds
	input.ReferencePredictions = refPreds

	return nil
}

// archiveReport saves the report when a store is configured. The run already
// succeeded at this point, so storage trouble degrades to a warning.
func archiveReport(store contract.ReportStore, cfg *contract.Config, report *schema.MonitoringReport) {
	if store == nil {
		return
	}
	if err := store.SaveReport(report, monitorConfigParams(cfg)); err != nil {
		contract.LogWarn("Could not archive report", err)
		return
	}
}

// monitorConfigParams captures the knobs that shaped a run, stored beside the
// archived report so past verdicts stay interpretable.
func monitorConfigParams(cfg *contract.Config) map[string]any {
	return map[string]any{
		"reference_path":  cfg.ReferencePath,
		"current_path":    cfg.CurrentPath,
		"target":          cfg.TargetColumn,
		"lag_steps":       cfg.LagSteps,
		"rolling_window":  cfg.RollingWindow,
		"method":          string(cfg.Method),
		"threshold":       cfg.DriftThreshold,
		"share_threshold": cfg.ShareThreshold,
		"workers":         cfg.Workers,
		"simulated":       cfg.SimulateCurrent,
	}
}
