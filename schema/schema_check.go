package schema

// CheckResult holds the outcome of a drift gate run.
type CheckResult struct {
	Passed         bool
	Report         *MonitoringReport
	FailedColumns  []CheckFailedColumn
	ShareThreshold float64 // Max drift share the gate tolerates
	ShareObserved  float64
}

// CheckFailedColumn is one column that pushed the gate over its threshold.
type CheckFailedColumn struct {
	Column    string
	Statistic float64
	Threshold float64
}
