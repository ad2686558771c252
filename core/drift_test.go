package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/schema"
)

// makeChannelFrame builds a single-channel frame at 15-minute spacing.
func makeChannelFrame(t *testing.T, column string, values []float64) *schema.Frame {
	t.Helper()

	start := time.Date(2020, 5, 15, 6, 0, 0, 0, time.UTC)
	records := make([]schema.SensorRecord, 0, len(values))
	for i, v := range values {
		records = append(records, schema.SensorRecord{
			Timestamp: start.Add(time.Duration(i) * 15 * time.Minute),
			Channels:  map[string]float64{column: v},
		})
	}

	frame, err := schema.NewFrame([]string{column}, records)
	require.NoError(t, err)
	return frame
}

func TestAnalyzeDriftNullCase(t *testing.T) {
	cfg := testConfig()

	frame := makeSolarFrame(t, 48, func(i int) (float64, float64) {
		return float64(i) * 0.1, float64(i)
	})
	matrix, err := BuildFeatures(cfg, frame)
	require.NoError(t, err)

	report, err := AnalyzeDrift(cfg, &AnalyzeInput{Reference: matrix, Current: matrix.Clone()})
	require.NoError(t, err)

	// A dataset compared against itself never drifts.
	assert.NotEmpty(t, report.ID)
	assert.False(t, report.GeneratedAt.IsZero())
	assert.Equal(t, schema.KSMethod, report.Method)
	assert.Equal(t, 0, report.DriftedColumns)
	assert.Zero(t, report.DriftShare)
	assert.False(t, report.DatasetDrifted)
	assert.Nil(t, report.CurrentPerformance)
	assert.Nil(t, report.ReferencePerformance)

	require.Len(t, report.Columns, 6)
	for _, c := range report.Columns {
		assert.False(t, c.Drifted, "column %s", c.Column)
		assert.Zero(t, c.Statistic, "column %s", c.Column)
		assert.Equal(t, cfg.DriftThreshold, c.Threshold)
		assert.Nil(t, c.Breakdown) // KS has no per-bin detail
	}

	assert.Equal(t, matrix.Summary(), report.Reference)
	assert.Equal(t, matrix.Summary(), report.Current)

	// Reports are consumed by the archive and the MCP surface as JSON.
	_, err = json.Marshal(report)
	require.NoError(t, err)
}

func TestAnalyzeDriftDetectsShiftedColumn(t *testing.T) {
	cfg := testConfig()
	cfg.LagSteps = []int{1, 2}

	reference := makeSolarFrame(t, 48, func(i int) (float64, float64) {
		return float64(i) * 0.1, float64(i)
	})
	current := makeSolarFrame(t, 48, func(i int) (float64, float64) {
		return float64(i)*0.1 + 300, float64(i) // Only irradiation moves
	})

	refMatrix, err := BuildFeatures(cfg, reference)
	require.NoError(t, err)
	curMatrix, err := BuildFeatures(cfg, current)
	require.NoError(t, err)

	report, err := AnalyzeDrift(cfg, &AnalyzeInput{Reference: refMatrix, Current: curMatrix})
	require.NoError(t, err)

	// Exactly the three irradiation-derived features drift; the time
	// encodings and the untouched channel stay stable.
	assert.Equal(t, []string{
		"irradiation_lag_1", "irradiation_lag_2", "irradiation_roll_mean_1",
	}, report.DriftedColumnNames())

	assert.Equal(t, 3, report.DriftedColumns)
	assert.InDelta(t, 3.0/8.0, report.DriftShare, 1e-12)
	assert.False(t, report.DatasetDrifted) // 0.375 does not exceed 0.5

	for _, name := range []string{"hour_sin", "hour_cos", "dc_power_lag_1"} {
		result := report.ColumnResult(name)
		require.NotNil(t, result)
		assert.False(t, result.Drifted)
		assert.Zero(t, result.Statistic)
	}
	shifted := report.ColumnResult("irradiation_lag_1")
	require.NotNil(t, shifted)
	assert.InDelta(t, 1.0, shifted.Statistic, 1e-12) // Disjoint samples
}

func TestAnalyzeDriftDatasetVerdictStrictlyExceeds(t *testing.T) {
	values := make([]float64, 48)
	shifted := make([]float64, 48)
	for i := range values {
		values[i] = float64(i)
		shifted[i] = float64(i) + 300
	}

	cfg := testConfig()
	cfg.LagSteps = []int{1, 2}

	refMatrix, err := BuildFeatures(cfg, makeChannelFrame(t, "irradiation", values))
	require.NoError(t, err)
	curMatrix, err := BuildFeatures(cfg, makeChannelFrame(t, "irradiation", shifted))
	require.NoError(t, err)

	// 3 of 5 columns drift: both lags and the rolling mean.
	report, err := AnalyzeDrift(cfg, &AnalyzeInput{Reference: refMatrix, Current: curMatrix})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, report.DriftShare, 1e-12)
	assert.True(t, report.DatasetDrifted)

	// The share must strictly exceed the threshold, so an exact tie holds.
	cfg.ShareThreshold = 0.6
	report, err = AnalyzeDrift(cfg, &AnalyzeInput{Reference: refMatrix, Current: curMatrix})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, report.DriftShare, 1e-12)
	assert.False(t, report.DatasetDrifted)
}

func TestAnalyzeDriftPSIMethod(t *testing.T) {
	cfg := testConfig()
	cfg.Method = schema.PSIMethod
	cfg.DriftThreshold = schema.GetDefaultThresholds()[schema.PSIMethod]
	cfg.LagSteps = []int{1}

	values := make([]float64, 48)
	moved := make([]float64, 48)
	for i := range values {
		values[i] = float64(i)
		moved[i] = float64(i) + 300
	}

	refMatrix, err := BuildFeatures(cfg, makeChannelFrame(t, "irradiation", values))
	require.NoError(t, err)
	sameMatrix, err := BuildFeatures(cfg, makeChannelFrame(t, "irradiation", values))
	require.NoError(t, err)
	movedMatrix, err := BuildFeatures(cfg, makeChannelFrame(t, "irradiation", moved))
	require.NoError(t, err)

	stable, err := AnalyzeDrift(cfg, &AnalyzeInput{Reference: refMatrix, Current: sameMatrix})
	require.NoError(t, err)
	for _, c := range stable.Columns {
		assert.Equal(t, schema.PSIMethod, c.Method)
		assert.False(t, c.Drifted, "column %s", c.Column)
		assert.NotEmpty(t, c.Breakdown, "column %s", c.Column)
	}

	drifted, err := AnalyzeDrift(cfg, &AnalyzeInput{Reference: refMatrix, Current: movedMatrix})
	require.NoError(t, err)
	lag := drifted.ColumnResult("irradiation_lag_1")
	require.NotNil(t, lag)
	assert.True(t, lag.Drifted)
	assert.Greater(t, lag.Statistic, cfg.DriftThreshold)
	assert.NotEmpty(t, lag.Breakdown)
}

func TestAnalyzeDriftDeterministicAcrossWorkers(t *testing.T) {
	reference := makeSolarFrame(t, 60, func(i int) (float64, float64) {
		return float64(i) * 0.3, float64(i % 11)
	})

	simCfg := testConfig()
	simCfg.Perturbations = map[string]contract.PerturbationSpec{
		"irradiation": {Kind: schema.NoisePerturbation, Amount: 50},
	}
	simCfg.Seed = 7
	simCfg.Seeded = true
	current, _, err := Simulate(simCfg, reference)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.LagSteps = []int{1, 2, 3}

	refMatrix, err := BuildFeatures(cfg, reference)
	require.NoError(t, err)
	curMatrix, err := BuildFeatures(cfg, current)
	require.NoError(t, err)

	var reports []*schema.MonitoringReport
	for _, workers := range []int{1, 4, 16} {
		wcfg := cfg.Clone()
		wcfg.Workers = workers
		report, err := AnalyzeDrift(wcfg, &AnalyzeInput{Reference: refMatrix, Current: curMatrix})
		require.NoError(t, err)
		reports = append(reports, report)
	}

	// Identical inputs and configuration give identical verdicts in
	// identical order, no matter how the work was spread.
	for _, report := range reports[1:] {
		assert.Equal(t, reports[0].Columns, report.Columns)
		assert.Equal(t, reports[0].DriftedColumns, report.DriftedColumns)
		assert.Equal(t, reports[0].DriftShare, report.DriftShare)
		assert.Equal(t, reports[0].DatasetDrifted, report.DatasetDrifted)
	}
}

func TestAnalyzeDriftWithPerformance(t *testing.T) {
	cfg := testConfig()

	frame := makeSolarFrame(t, 30, func(i int) (float64, float64) {
		return 500, float64(i)
	})

	matrix, err := BuildFeatures(cfg, frame)
	require.NoError(t, err)
	target, err := BuildAlignedTarget(cfg, frame, "dc_power")
	require.NoError(t, err)

	predictor := NewPersistencePredictor("dc_power")
	preds, err := predictor.Predict(matrix, target)
	require.NoError(t, err)

	report, err := AnalyzeDrift(cfg, &AnalyzeInput{
		Reference:            matrix,
		Current:              matrix.Clone(),
		ReferenceTarget:      target,
		CurrentTarget:        target,
		CurrentPredictions:   preds,
		ReferencePredictions: preds,
	})
	require.NoError(t, err)

	// dc_power climbs by one per row, so persistence misses by exactly one.
	require.NotNil(t, report.CurrentPerformance)
	assert.InDelta(t, 1.0, report.CurrentPerformance.MAE, 1e-12)
	assert.InDelta(t, 1.0, report.CurrentPerformance.RMSE, 1e-12)
	require.NotNil(t, report.CurrentPerformance.R2)
	assert.Equal(t, len(target), report.CurrentPerformance.Samples)

	require.NotNil(t, report.ReferencePerformance)
	assert.InDelta(t, 1.0, report.ReferencePerformance.MAE, 1e-12)
}

func TestAnalyzeDriftInputErrors(t *testing.T) {
	cfg := testConfig()

	frame := makeSolarFrame(t, 20, func(i int) (float64, float64) {
		return float64(i), float64(i)
	})
	matrix, err := BuildFeatures(cfg, frame)
	require.NoError(t, err)

	otherCfg := testConfig()
	otherCfg.LagSteps = []int{1, 2}
	otherMatrix, err := BuildFeatures(otherCfg, frame)
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    *AnalyzeInput
		expected error
	}{
		{
			name:     "nil reference",
			input:    &AnalyzeInput{Reference: nil, Current: matrix},
			expected: schema.ErrEmptyDataset,
		},
		{
			name:     "empty reference",
			input:    &AnalyzeInput{Reference: &schema.FeatureMatrix{}, Current: matrix},
			expected: schema.ErrEmptyDataset,
		},
		{
			name:     "empty current",
			input:    &AnalyzeInput{Reference: matrix, Current: &schema.FeatureMatrix{}},
			expected: schema.ErrEmptyDataset,
		},
		{
			name:     "column mismatch",
			input:    &AnalyzeInput{Reference: matrix, Current: otherMatrix},
			expected: schema.ErrSchemaMismatch,
		},
		{
			name: "misaligned current target",
			input: &AnalyzeInput{
				Reference:          matrix,
				Current:            matrix,
				CurrentTarget:      []float64{1, 2, 3},
				CurrentPredictions: []float64{1, 2, 3},
			},
			expected: schema.ErrSchemaMismatch,
		},
		{
			name: "predictions without target",
			input: &AnalyzeInput{
				Reference:          matrix,
				Current:            matrix,
				CurrentPredictions: make([]float64, matrix.Len()),
			},
			expected: schema.ErrSchemaMismatch,
		},
		{
			name: "reference predictions without reference target",
			input: &AnalyzeInput{
				Reference:            matrix,
				Current:              matrix,
				ReferencePredictions: make([]float64, matrix.Len()),
			},
			expected: schema.ErrSchemaMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AnalyzeDrift(cfg, tt.input)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestAnalyzeDriftEndToEndSimulatedShift(t *testing.T) {
	// Twelve hours of quarter-hour irradiation telemetry around 500 W/m2,
	// perturbed by a +300 shift: the analyzer must flag the dataset.
	values := make([]float64, 48)
	for i := range values {
		values[i] = 500 + float64(i%5)
	}
	reference := makeChannelFrame(t, "irradiation", values)

	cfg := testConfig()
	cfg.LagSteps = []int{1, 2}
	cfg.Perturbations = map[string]contract.PerturbationSpec{
		"irradiation": {Kind: schema.ShiftPerturbation, Amount: 300},
	}
	cfg.Seed = 42
	cfg.Seeded = true

	current, seed, err := Simulate(cfg, reference)
	require.NoError(t, err)
	assert.Equal(t, int64(42), seed)

	refMatrix, err := BuildFeatures(cfg, reference)
	require.NoError(t, err)
	curMatrix, err := BuildFeatures(cfg, current)
	require.NoError(t, err)

	report, err := AnalyzeDrift(cfg, &AnalyzeInput{Reference: refMatrix, Current: curMatrix})
	require.NoError(t, err)

	assert.True(t, report.DatasetDrifted)
	assert.InDelta(t, 0.6, report.DriftShare, 1e-12)
	assert.Equal(t, []string{
		"irradiation_lag_1", "irradiation_lag_2", "irradiation_roll_mean_1",
	}, report.DriftedColumnNames())

	// The clock features stay put: the simulator never touches timestamps.
	for _, name := range []string{"hour_sin", "hour_cos"} {
		result := report.ColumnResult(name)
		require.NotNil(t, result)
		assert.False(t, result.Drifted)
	}
}
