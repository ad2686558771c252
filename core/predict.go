package core

import (
	"context"
	"fmt"
	"time"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/internal/outwriter"
	"github.com/sundog-labs/pvdrift/schema"
)

// ExecutePredict builds features on the latest window of a dataset, scores
// the baseline predictor over it and emits the next-interval forecast.
func ExecutePredict(_ context.Context, cfg *contract.Config) error {
	start := time.Now()

	frame, err := loadFrame(cfg, cfg.ReferencePath)
	if err != nil {
		return err
	}

	result, err := RunPredict(cfg, frame)
	if err != nil {
		return err
	}

	duration := time.Since(start)
	return outwriter.WritePredictionResult(result, cfg, duration)
}

// RunPredict produces the forecast without rendering. The next-interval
// timestamp is projected from the spacing of the last two records.
func RunPredict(cfg *contract.Config, frame *schema.Frame) (*schema.PredictionResult, error) {
	matrix, err := BuildFeatures(cfg, frame)
	if err != nil {
		return nil, err
	}
	target, err := BuildAlignedTarget(cfg, frame, cfg.TargetColumn)
	if err != nil {
		return nil, err
	}

	predictor := NewPersistencePredictor(cfg.TargetColumn)
	preds, err := predictor.Predict(matrix, target)
	if err != nil {
		return nil, err
	}
	baseline, err := ComputePerformance(preds, target)
	if err != nil {
		return nil, err
	}

	ts := frame.Timestamps()
	last := ts[len(ts)-1]
	interval := last.Sub(ts[len(ts)-2])

	return &schema.PredictionResult{
		Predictor:     predictor.Name(),
		TargetColumn:  cfg.TargetColumn,
		LastTimestamp: last,
		NextTimestamp: last.Add(interval),
		Prediction:    target[len(target)-1],
		Rows:          matrix.Len(),
		Baseline:      baseline,
	}, nil
}

// PersistencePredictor forecasts each row as the previous target observation.
// For photovoltaic series this is the classic no-skill baseline a trained
// model has to beat.
type PersistencePredictor struct {
	lagColumn string
}

var _ contract.Predictor = &PersistencePredictor{} // Compile-time check

// NewPersistencePredictor creates a persistence baseline for the given target channel.
func NewPersistencePredictor(target string) *PersistencePredictor {
	return &PersistencePredictor{lagColumn: schema.LagFeatureName(target, 1)}
}

// Name implements the contract.Predictor interface.
func (p *PersistencePredictor) Name() string {
	return "persistence"
}

// Predict implements the contract.Predictor interface.
func (p *PersistencePredictor) Predict(matrix *schema.FeatureMatrix, target []float64) ([]float64, error) {
	if matrix == nil || matrix.Len() == 0 {
		return nil, fmt.Errorf("%w: matrix has no rows", schema.ErrEmptyDataset)
	}
	if len(target) != matrix.Len() {
		return nil, fmt.Errorf("%w: %d target values for %d matrix rows",
			schema.ErrSchemaMismatch, len(target), matrix.Len())
	}

	// The lag-1 feature holds the previous observation for every row,
	// including the first one.
	if col := matrix.Column(p.lagColumn); col != nil {
		return col, nil
	}

	// Without the lag feature, shift the target by one row. The first row
	// repeats itself for lack of an earlier sample.
	preds := make([]float64, len(target))
	preds[0] = target[0]
	copy(preds[1:], target[:len(target)-1])
	return preds, nil
}
