package schema

import "time"

// TrendPoint is the drift verdict for one window of the current dataset.
type TrendPoint struct {
	Window         int       `json:"window"` // 1-based window index
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Rows           int       `json:"rows"`
	DriftedColumns int       `json:"drifted_columns"`
	DriftShare     float64   `json:"drift_share"`
	DatasetDrifted bool      `json:"dataset_drifted"`
}

// TrendResult holds drift evolution across successive windows.
type TrendResult struct {
	Points         []TrendPoint `json:"points"`
	Method         DriftMethod  `json:"method"`
	Threshold      float64      `json:"threshold"`
	ShareThreshold float64      `json:"share_threshold"`
}
