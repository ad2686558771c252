package schema

import "time"

// MonitoringRunRecord represents a row from the pvdrift_monitoring_runs table.
type MonitoringRunRecord struct {
	ReportID       string
	GeneratedAt    time.Time
	Method         string
	ReferenceRows  int32
	CurrentRows    int32
	DriftedColumns int32
	DriftShare     float64
	DatasetDrifted bool
	ConfigParams   *string
	ReportJSON     string
}

// ColumnResultRecord represents a row from the pvdrift_column_results table.
type ColumnResultRecord struct {
	ReportID  string
	Column    string
	RefMean   float64
	RefStdDev float64
	CurMean   float64
	CurStdDev float64
	Statistic float64
	Threshold float64
	Drifted   bool
}
