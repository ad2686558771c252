package schema

import "time"

// PredictionResult is the outcome of a next-interval forecast run.
type PredictionResult struct {
	Predictor     string    `json:"predictor"`
	TargetColumn  string    `json:"target_column"`
	LastTimestamp time.Time `json:"last_timestamp"`
	NextTimestamp time.Time `json:"next_timestamp"`
	Prediction    float64   `json:"prediction"`
	Rows          int       `json:"rows"` // Feature rows scored in the window

	// Baseline holds the predictor's in-window fit against observed truth,
	// so the forecast ships with an error estimate.
	Baseline *PerformanceMetrics `json:"baseline,omitempty"`
}
