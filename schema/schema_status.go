package schema

import "time"

// ArchiveStatus represents the status of the report archive store.
type ArchiveStatus struct {
	Backend          string           `json:"backend"`
	Connected        bool             `json:"connected"`
	TotalReports     int              `json:"total_reports"`
	DriftedReports   int              `json:"drifted_reports"`
	LastReportID     string           `json:"last_report_id"`
	LastReportTime   time.Time        `json:"last_report_time"`
	OldestReportTime time.Time        `json:"oldest_report_time"`
	TableSizes       map[string]int64 `json:"table_sizes"`
}
