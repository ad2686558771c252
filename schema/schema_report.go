package schema

import "time"

// DatasetSummary describes one side of a monitoring run.
type DatasetSummary struct {
	Rows    int       `json:"rows"`
	Columns int       `json:"columns"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// ColumnDriftResult is the per-column verdict of a monitoring run.
type ColumnDriftResult struct {
	Column    string      `json:"column"`
	Method    DriftMethod `json:"method"`
	RefMean   float64     `json:"ref_mean"`
	RefStdDev float64     `json:"ref_std_dev"`
	CurMean   float64     `json:"cur_mean"`
	CurStdDev float64     `json:"cur_std_dev"`
	Statistic float64     `json:"statistic"`
	Threshold float64     `json:"threshold"`
	Drifted   bool        `json:"drifted"`
	// Breakdown holds per-bin contributions to the statistic when the
	// method produces them (PSI); empty for methods that do not.
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}

// PerformanceMetrics are aggregate regression-quality numbers over
// (prediction, ground-truth) pairs.
type PerformanceMetrics struct {
	MAE     float64  `json:"mae"`
	RMSE    float64  `json:"rmse"`
	R2      *float64 `json:"r2,omitempty"` // nil when undefined (fewer than 2 pairs or zero target variance)
	Samples int      `json:"samples"`
}

// MonitoringReport is the root result of one monitoring invocation.
// It is created fresh per run, never mutated after construction, and fully
// JSON-serializable for the archival layer.
type MonitoringReport struct {
	ID          string      `json:"id"`
	GeneratedAt time.Time   `json:"generated_at"`
	Method      DriftMethod `json:"method"`

	Reference DatasetSummary `json:"reference"`
	Current   DatasetSummary `json:"current"`

	Columns        []ColumnDriftResult `json:"columns"` // Matrix column order
	DriftedColumns int                 `json:"drifted_columns"`
	DriftShare     float64             `json:"drift_share"`
	ShareThreshold float64             `json:"share_threshold"`
	DatasetDrifted bool                `json:"dataset_drifted"`

	CurrentPerformance   *PerformanceMetrics `json:"current_performance,omitempty"`
	ReferencePerformance *PerformanceMetrics `json:"reference_performance,omitempty"`
}

// DriftedColumnNames lists the columns flagged as drifted, in report order.
func (r *MonitoringReport) DriftedColumnNames() []string {
	var names []string
	for _, c := range r.Columns {
		if c.Drifted {
			names = append(names, c.Column)
		}
	}
	return names
}

// ColumnResult returns the result for the named column, or nil when the
// report does not cover it.
func (r *MonitoringReport) ColumnResult(name string) *ColumnDriftResult {
	for i := range r.Columns {
		if r.Columns[i].Column == name {
			return &r.Columns[i]
		}
	}
	return nil
}
