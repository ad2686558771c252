package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundog-labs/pvdrift/schema"
)

func TestPersistencePredictorUsesLagColumn(t *testing.T) {
	cfg := testConfig()

	frame := makeSolarFrame(t, 24, func(i int) (float64, float64) {
		return 500, float64(i) * 10
	})
	matrix, err := BuildFeatures(cfg, frame)
	require.NoError(t, err)
	target, err := BuildAlignedTarget(cfg, frame, "dc_power")
	require.NoError(t, err)

	preds, err := NewPersistencePredictor("dc_power").Predict(matrix, target)
	require.NoError(t, err)

	// The lag-1 feature already holds the previous observation for every
	// aligned row, the first one included.
	require.Len(t, preds, len(target))
	for i, p := range preds {
		assert.Equal(t, target[i]-10, p, "row %d", i)
	}
}

func TestPersistencePredictorFallbackShiftsTarget(t *testing.T) {
	cfg := testConfig()

	frame := makeSolarFrame(t, 12, func(i int) (float64, float64) {
		return float64(i), float64(i)
	})
	matrix, err := BuildFeatures(cfg, frame)
	require.NoError(t, err)

	// No ambient_temp_lag_1 column exists, so the predictor falls back to
	// shifting the target series by one row.
	target := make([]float64, matrix.Len())
	for i := range target {
		target[i] = float64(i+1) * 3
	}

	preds, err := NewPersistencePredictor("ambient_temp").Predict(matrix, target)
	require.NoError(t, err)

	require.Len(t, preds, len(target))
	assert.Equal(t, target[0], preds[0])
	for i := 1; i < len(preds); i++ {
		assert.Equal(t, target[i-1], preds[i], "row %d", i)
	}
}

func TestPersistencePredictorErrors(t *testing.T) {
	cfg := testConfig()

	frame := makeSolarFrame(t, 12, func(i int) (float64, float64) {
		return float64(i), float64(i)
	})
	matrix, err := BuildFeatures(cfg, frame)
	require.NoError(t, err)

	predictor := NewPersistencePredictor("dc_power")

	t.Run("nil matrix", func(t *testing.T) {
		_, err := predictor.Predict(nil, nil)
		assert.ErrorIs(t, err, schema.ErrEmptyDataset)
	})

	t.Run("empty matrix", func(t *testing.T) {
		_, err := predictor.Predict(&schema.FeatureMatrix{}, nil)
		assert.ErrorIs(t, err, schema.ErrEmptyDataset)
	})

	t.Run("target length mismatch", func(t *testing.T) {
		_, err := predictor.Predict(matrix, []float64{1, 2, 3})
		assert.ErrorIs(t, err, schema.ErrSchemaMismatch)
	})
}

func TestPersistencePredictorName(t *testing.T) {
	assert.Equal(t, "persistence", NewPersistencePredictor("dc_power").Name())
}

func TestRunPredict(t *testing.T) {
	cfg := testConfig()

	frame := makeSolarFrame(t, 24, func(i int) (float64, float64) {
		return 500, float64(i)
	})

	result, err := RunPredict(cfg, frame)
	require.NoError(t, err)

	assert.Equal(t, "persistence", result.Predictor)
	assert.Equal(t, "dc_power", result.TargetColumn)
	assert.Equal(t, 23, result.Rows) // One warmup row burned

	// Persistence carries the last observation forward one interval.
	ts := frame.Timestamps()
	last := ts[len(ts)-1]
	assert.Equal(t, float64(23), result.Prediction)
	assert.Equal(t, last, result.LastTimestamp)
	assert.Equal(t, last.Add(15*time.Minute), result.NextTimestamp)

	// On a series climbing one unit per row the baseline misses by one.
	require.NotNil(t, result.Baseline)
	assert.InDelta(t, 1.0, result.Baseline.MAE, 1e-12)
	assert.InDelta(t, 1.0, result.Baseline.RMSE, 1e-12)
	assert.Equal(t, 23, result.Baseline.Samples)
}

func TestRunPredictErrors(t *testing.T) {
	t.Run("short history", func(t *testing.T) {
		frame := makeSolarFrame(t, 1, func(i int) (float64, float64) {
			return 1, 1
		})
		_, err := RunPredict(testConfig(), frame)
		assert.ErrorIs(t, err, schema.ErrInsufficientHistory)
	})

	t.Run("missing target column", func(t *testing.T) {
		frame := makeChannelFrame(t, "irradiation", []float64{1, 2, 3, 4, 5})
		_, err := RunPredict(testConfig(), frame)
		assert.ErrorIs(t, err, schema.ErrSchemaMismatch)
	})
}
