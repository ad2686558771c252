package schema

// ComparisonDetail captures how one column's drift moved between two
// archived monitoring reports.
type ComparisonDetail struct {
	Column          string       `json:"column"`
	BeforeStatistic float64      `json:"before_statistic"`
	AfterStatistic  float64      `json:"after_statistic"`
	Delta           float64      `json:"delta"`
	BeforeDrifted   bool         `json:"before_drifted"`
	AfterDrifted    bool         `json:"after_drifted"`
	Threshold       float64      `json:"threshold"`
	Status          ColumnStatus `json:"status"`
}

// ComparisonSummary aggregates a report-to-report comparison.
type ComparisonSummary struct {
	TotalColumns      int     `json:"total_columns"`
	NewColumns        int     `json:"new_columns"`
	RemovedColumns    int     `json:"removed_columns"`
	RegressedColumns  int     `json:"regressed_columns"` // Newly drifted in the target report
	RecoveredColumns  int     `json:"recovered_columns"` // Drifted before, stable now
	NetStatisticDelta float64 `json:"net_statistic_delta"`
	BeforeDriftShare  float64 `json:"before_drift_share"`
	AfterDriftShare   float64 `json:"after_drift_share"`
}

// ComparisonResult is the full outcome of comparing two archived reports.
type ComparisonResult struct {
	BaseID   string             `json:"base_id"`
	TargetID string             `json:"target_id"`
	Details  []ComparisonDetail `json:"details"`
	Summary  ComparisonSummary  `json:"summary"`
}
