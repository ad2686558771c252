package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sundog-labs/pvdrift/schema"
)

// ComputePerformance derives regression quality metrics from aligned
// prediction and ground-truth series. R2 is omitted when the truth series
// is constant or too short, since the usual formula divides by its variance.
func ComputePerformance(predictions, truth []float64) (*schema.PerformanceMetrics, error) {
	if len(truth) == 0 {
		return nil, fmt.Errorf("%w: no samples to score", schema.ErrEmptyDataset)
	}
	if len(predictions) != len(truth) {
		return nil, fmt.Errorf("%w: %d predictions for %d ground-truth samples",
			schema.ErrSchemaMismatch, len(predictions), len(truth))
	}

	n := float64(len(truth))
	metrics := &schema.PerformanceMetrics{
		MAE:     floats.Distance(predictions, truth, 1) / n,
		RMSE:    floats.Distance(predictions, truth, 2) / math.Sqrt(n),
		Samples: len(truth),
	}

	if len(truth) >= 2 && stat.Variance(truth, nil) > 0 {
		r2 := stat.RSquaredFrom(predictions, truth, nil)
		metrics.R2 = &r2
	}

	return metrics, nil
}
