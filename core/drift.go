package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/schema"
)

// AnalyzeInput bundles the matrices and aligned series one drift analysis consumes.
// Target and prediction series are optional as a pair: drift-only runs leave them
// nil, performance runs supply both.
type AnalyzeInput struct {
	Reference *schema.FeatureMatrix
	Current   *schema.FeatureMatrix

	ReferenceTarget []float64
	CurrentTarget   []float64

	// CurrentPredictions is the model output for the current matrix rows.
	CurrentPredictions []float64

	// ReferencePredictions enables the optional reference-period metrics
	// for delta comparison against the current period.
	ReferencePredictions []float64
}

// AnalyzeDrift compares the reference and current feature matrices column by
// column and assembles a monitoring report. Columns are tested concurrently;
// results keep matrix column order, so identical inputs and configuration
// produce identical verdicts regardless of worker count.
//
// A drifted dataset is a normal result. Errors only signal unusable input:
// empty matrices, mismatched schemas or misaligned series.
func AnalyzeDrift(cfg *contract.Config, input *AnalyzeInput) (*schema.MonitoringReport, error) {
	if err := validateAnalyzeInput(input); err != nil {
		return nil, err
	}

	columns := analyzeColumns(cfg, input.Reference, input.Current)

	drifted := 0
	for _, c := range columns {
		if c.Drifted {
			drifted++
		}
	}
	share := float64(drifted) / float64(len(columns))

	report := &schema.MonitoringReport{
		ID:             uuid.NewString(),
		GeneratedAt:    time.Now().UTC(),
		Method:         cfg.Method,
		Reference:      input.Reference.Summary(),
		Current:        input.Current.Summary(),
		Columns:        columns,
		DriftedColumns: drifted,
		DriftShare:     share,
		ShareThreshold: cfg.ShareThreshold,
		DatasetDrifted: share > cfg.ShareThreshold,
	}

	if input.CurrentTarget != nil {
		metrics, err := ComputePerformance(input.CurrentPredictions, input.CurrentTarget)
		if err != nil {
			return nil, err
		}
		report.CurrentPerformance = metrics
	}
	if input.ReferencePredictions != nil {
		metrics, err := ComputePerformance(input.ReferencePredictions, input.ReferenceTarget)
		if err != nil {
			return nil, err
		}
		report.ReferencePerformance = metrics
	}

	return report, nil
}

// validateAnalyzeInput fails fast on inputs the analysis cannot use.
func validateAnalyzeInput(input *AnalyzeInput) error {
	ref, cur := input.Reference, input.Current
	if ref == nil || ref.Len() == 0 {
		return fmt.Errorf("%w: reference matrix has no rows", schema.ErrEmptyDataset)
	}
	if cur == nil || cur.Len() == 0 {
		return fmt.Errorf("%w: current matrix has no rows", schema.ErrEmptyDataset)
	}
	if !schema.ColumnsEqual(ref.Columns, cur.Columns) {
		return fmt.Errorf("%w: reference columns %s vs current columns %s",
			schema.ErrSchemaMismatch,
			schema.FormatColumns(ref.Columns, 6),
			schema.FormatColumns(cur.Columns, 6))
	}

	if input.ReferenceTarget != nil && len(input.ReferenceTarget) != ref.Len() {
		return fmt.Errorf("%w: reference target has %d values for %d matrix rows",
			schema.ErrSchemaMismatch, len(input.ReferenceTarget), ref.Len())
	}
	if input.CurrentTarget != nil && len(input.CurrentTarget) != cur.Len() {
		return fmt.Errorf("%w: current target has %d values for %d matrix rows",
			schema.ErrSchemaMismatch, len(input.CurrentTarget), cur.Len())
	}
	if (input.CurrentPredictions == nil) != (input.CurrentTarget == nil) {
		return fmt.Errorf("%w: current predictions and target must be supplied together", schema.ErrSchemaMismatch)
	}
	if input.CurrentPredictions != nil && len(input.CurrentPredictions) != len(input.CurrentTarget) {
		return fmt.Errorf("%w: %d predictions for %d current target values",
			schema.ErrSchemaMismatch, len(input.CurrentPredictions), len(input.CurrentTarget))
	}
	if input.ReferencePredictions != nil && input.ReferenceTarget == nil {
		return fmt.Errorf("%w: reference predictions supplied without reference target", schema.ErrSchemaMismatch)
	}
	if input.ReferencePredictions != nil && len(input.ReferencePredictions) != len(input.ReferenceTarget) {
		return fmt.Errorf("%w: %d predictions for %d reference target values",
			schema.ErrSchemaMismatch, len(input.ReferencePredictions), len(input.ReferenceTarget))
	}
	return nil
}

// analyzeColumns tests all columns in parallel using a worker pool.
// It spawns cfg.Workers goroutines and lets each write to a unique index
// of the results slice, which keeps matrix column order without locking.
func analyzeColumns(cfg *contract.Config, ref, cur *schema.FeatureMatrix) []schema.ColumnDriftResult {
	results := make([]schema.ColumnDriftResult, len(ref.Columns))
	jobCh := make(chan int, len(ref.Columns))
	var wg sync.WaitGroup

	// Start worker pool
	for range max(cfg.Workers, 1) {
		wg.Go(func() {
			for idx := range jobCh {
				name := ref.Columns[idx]
				results[idx] = testColumn(cfg, name, ref.Column(name), cur.Column(name))
			}
		})
	}

	// Send column indices to worker channel
	for idx := range ref.Columns {
		jobCh <- idx
	}
	close(jobCh)

	// Block until the pool drains
	wg.Wait()

	return results
}

// testColumn runs the configured two-sample test for one column.
func testColumn(cfg *contract.Config, name string, ref, cur []float64) schema.ColumnDriftResult {
	result := schema.ColumnDriftResult{
		Column:    name,
		Method:    cfg.Method,
		Threshold: cfg.DriftThreshold,
	}
	result.RefMean, result.RefStdDev = columnMoments(ref)
	result.CurMean, result.CurStdDev = columnMoments(cur)

	switch cfg.Method {
	case schema.PSIMethod:
		result.Statistic, result.Breakdown = psiStatistic(ref, cur)
	default: // schema.KSMethod
		result.Statistic = ksStatistic(ref, cur)
	}

	// Meeting the threshold counts as drift, matching the DRIFTED label band.
	result.Drifted = result.Statistic >= result.Threshold
	return result
}
