package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundog-labs/pvdrift/schema"
)

// sampleReport builds a four-column report with one drifted column. The
// columns are deliberately out of severity order so ranking is observable.
func sampleReport() *schema.MonitoringReport {
	r2 := 0.91
	return &schema.MonitoringReport{
		ID:          "run-42",
		GeneratedAt: time.Date(2020, 5, 30, 12, 0, 0, 0, time.UTC),
		Method:      schema.KSMethod,
		Reference: schema.DatasetSummary{
			Rows:    96,
			Columns: 4,
			Start:   time.Date(2020, 5, 29, 0, 0, 0, 0, time.UTC),
			End:     time.Date(2020, 5, 29, 23, 45, 0, 0, time.UTC),
		},
		Current: schema.DatasetSummary{
			Rows:    48,
			Columns: 4,
			Start:   time.Date(2020, 5, 30, 0, 0, 0, 0, time.UTC),
			End:     time.Date(2020, 5, 30, 11, 45, 0, 0, time.UTC),
		},
		Columns: []schema.ColumnDriftResult{
			{Column: "dc_power_lag_1", Method: schema.KSMethod, RefMean: 512.5, RefStdDev: 120.3, CurMean: 515.1, CurStdDev: 118.9, Statistic: 0.04, Threshold: 0.10},
			{Column: "hour_sin", Method: schema.KSMethod, RefMean: 0.2, RefStdDev: 0.7, CurMean: 0.21, CurStdDev: 0.69, Statistic: 0.02, Threshold: 0.10},
			{Column: "irradiation_lag_1", Method: schema.KSMethod, RefMean: 0.45, RefStdDev: 0.3, CurMean: 0.61, CurStdDev: 0.28, Statistic: 0.35, Threshold: 0.10, Drifted: true},
			{Column: "module_temp_roll_mean_4", Method: schema.KSMethod, RefMean: 34.2, RefStdDev: 8.1, CurMean: 33.8, CurStdDev: 8.3, Statistic: 0.09, Threshold: 0.10},
		},
		DriftedColumns:     1,
		DriftShare:         0.25,
		ShareThreshold:     0.5,
		DatasetDrifted:     false,
		CurrentPerformance: &schema.PerformanceMetrics{MAE: 12.5, RMSE: 20.1, R2: &r2, Samples: 48},
	}
}

func sampleTrend() *schema.TrendResult {
	base := time.Date(2020, 5, 30, 0, 0, 0, 0, time.UTC)
	return &schema.TrendResult{
		Points: []schema.TrendPoint{
			{Window: 1, Start: base, End: base.Add(6 * time.Hour), Rows: 24, DriftedColumns: 0, DriftShare: 0, DatasetDrifted: false},
			{Window: 2, Start: base.Add(6 * time.Hour), End: base.Add(12 * time.Hour), Rows: 24, DriftedColumns: 1, DriftShare: 0.25, DatasetDrifted: false},
			{Window: 3, Start: base.Add(12 * time.Hour), End: base.Add(18 * time.Hour), Rows: 24, DriftedColumns: 3, DriftShare: 0.75, DatasetDrifted: true},
		},
		Method:         schema.KSMethod,
		Threshold:      0.10,
		ShareThreshold: 0.5,
	}
}

func sampleComparison() *schema.ComparisonResult {
	return &schema.ComparisonResult{
		BaseID:   "run-a",
		TargetID: "run-b",
		Details: []schema.ComparisonDetail{
			{Column: "irradiation_lag_1", BeforeStatistic: 0.08, AfterStatistic: 0.35, Delta: 0.27, AfterDrifted: true, Threshold: 0.10, Status: schema.ActiveColumnStatus},
			{Column: "ambient_temp_lag_1", BeforeStatistic: 0.22, Delta: -0.22, BeforeDrifted: true, Threshold: 0.10, Status: schema.RemovedColumnStatus},
			{Column: "wind_speed_lag_1", AfterStatistic: 0.12, Delta: 0.12, AfterDrifted: true, Threshold: 0.10, Status: schema.NewColumnStatus},
			{Column: "hour_sin", BeforeStatistic: 0.03, AfterStatistic: 0.03, Delta: 0, Threshold: 0.10, Status: schema.ActiveColumnStatus},
		},
		Summary: schema.ComparisonSummary{
			TotalColumns:      4,
			NewColumns:        1,
			RemovedColumns:    1,
			RegressedColumns:  1,
			NetStatisticDelta: 0.27,
			BeforeDriftShare:  0,
			AfterDriftShare:   0.25,
		},
	}
}

func sampleMatrix() *schema.FeatureMatrix {
	base := time.Date(2020, 5, 30, 6, 0, 0, 0, time.UTC)
	return &schema.FeatureMatrix{
		Columns:    []string{"dc_power_lag_1", "irradiation_lag_1", "hour_sin"},
		Timestamps: []time.Time{base, base.Add(15 * time.Minute), base.Add(30 * time.Minute)},
		Values: [][]float64{
			{0, 0.02, 0.5},
			{120.5, 0.15, 0.61},
			{260.8, 0.32, 0.71},
		},
	}
}

func sampleFrame(t *testing.T) *schema.Frame {
	t.Helper()
	base := time.Date(2020, 5, 30, 6, 0, 0, 0, time.UTC)
	records := []schema.SensorRecord{
		{Timestamp: base, Channels: map[string]float64{"dc_power": 0, "irradiation": 0.02}},
		{Timestamp: base.Add(15 * time.Minute), Channels: map[string]float64{"dc_power": 120.5, "irradiation": 0.15}},
		{Timestamp: base.Add(30 * time.Minute), Channels: map[string]float64{"dc_power": 260.8, "irradiation": 0.32}},
	}
	frame, err := schema.NewFrame([]string{"dc_power", "irradiation"}, records)
	require.NoError(t, err)
	return frame
}

func TestWriteReportJSON(t *testing.T) {
	var buf bytes.Buffer
	err := writeReportJSON(&buf, sampleReport())
	require.NoError(t, err)

	// Parse the JSON to verify structure
	var result map[string]any
	err = json.Unmarshal(buf.Bytes(), &result)
	require.NoError(t, err)

	assert.Equal(t, "run-42", result["id"])
	assert.Equal(t, 0.25, result["drift_share"])
	assert.Equal(t, false, result["dataset_drifted"])

	columns, ok := result["columns"].([]any)
	require.True(t, ok)
	assert.Len(t, columns, 4)
}

func TestWriteReportCSV(t *testing.T) {
	fmtFloat, _ := createFormatters(2)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	err := writeReportCSV(w, sampleReport(), fmtFloat)
	require.NoError(t, err)
	w.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5) // header + 4 rows

	// Check header
	assert.Contains(t, lines[0], "rank")
	assert.Contains(t, lines[0], "column")
	assert.Contains(t, lines[0], "statistic")
	assert.Contains(t, lines[0], "label")

	// Rows come out ranked by severity, worst first
	assert.Contains(t, lines[1], "irradiation_lag_1")
	assert.Contains(t, lines[1], "CRITICAL")
	assert.Contains(t, lines[1], "true")
	assert.Contains(t, lines[2], "module_temp_roll_mean_4")
	assert.Contains(t, lines[2], "WATCH")
	assert.Contains(t, lines[4], "hour_sin")
	assert.Contains(t, lines[4], "STABLE")
}

func TestWriteReportCSVEmptyColumns(t *testing.T) {
	fmtFloat, _ := createFormatters(2)
	report := sampleReport()
	report.Columns = nil

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	err := writeReportCSV(w, report, fmtFloat)
	require.NoError(t, err)
	w.Flush()

	// Should only have header
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "rank")
}

func TestWriteTrendCSV(t *testing.T) {
	fmtFloat, intFmt := createFormatters(2)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	err := writeTrendCSV(w, sampleTrend(), fmtFloat, intFmt)
	require.NoError(t, err)
	w.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)

	assert.Contains(t, lines[0], "window")
	assert.Contains(t, lines[0], "drift_share")
	assert.Contains(t, lines[1], "2020-05-30T00:00:00Z")
	assert.Contains(t, lines[1], "false")
	assert.Contains(t, lines[3], "0.75")
	assert.Contains(t, lines[3], "true")
}

func TestWriteComparisonCSV(t *testing.T) {
	fmtFloat, _ := createFormatters(2)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	err := writeComparisonCSV(w, sampleComparison(), fmtFloat)
	require.NoError(t, err)
	w.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)

	assert.Contains(t, lines[0], "delta")
	assert.Contains(t, lines[0], "status")
	assert.Contains(t, lines[1], "irradiation_lag_1")
	assert.Contains(t, lines[1], "0.27")
	assert.Contains(t, lines[1], "active")
	assert.Contains(t, lines[2], "removed")
	assert.Contains(t, lines[3], "new")
}

func TestWritePredictionCSV(t *testing.T) {
	fmtFloat, _ := createFormatters(2)
	r2 := 0.87
	result := &schema.PredictionResult{
		Predictor:     "persistence",
		TargetColumn:  "dc_power",
		LastTimestamp: time.Date(2020, 5, 30, 14, 30, 0, 0, time.UTC),
		NextTimestamp: time.Date(2020, 5, 30, 14, 45, 0, 0, time.UTC),
		Prediction:    412.5,
		Rows:          96,
		Baseline:      &schema.PerformanceMetrics{MAE: 15.2, RMSE: 24.8, R2: &r2, Samples: 96},
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	err := writePredictionCSV(w, result, fmtFloat)
	require.NoError(t, err)
	w.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	assert.Contains(t, lines[0], "predictor")
	assert.Contains(t, lines[0], "prediction")
	assert.Contains(t, lines[1], "persistence")
	assert.Contains(t, lines[1], "412.50")
	assert.Contains(t, lines[1], "2020-05-30T14:45:00Z")
	assert.Contains(t, lines[1], "0.87")
}

func TestWritePredictionCSVNoBaseline(t *testing.T) {
	fmtFloat, _ := createFormatters(2)
	result := &schema.PredictionResult{
		Predictor:     "persistence",
		TargetColumn:  "dc_power",
		LastTimestamp: time.Date(2020, 5, 30, 14, 30, 0, 0, time.UTC),
		NextTimestamp: time.Date(2020, 5, 30, 14, 45, 0, 0, time.UTC),
		Prediction:    412.5,
		Rows:          96,
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	err := writePredictionCSV(w, result, fmtFloat)
	require.NoError(t, err)
	w.Flush()

	// Baseline cells stay empty without metrics
	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "", records[1][6]) // mae
	assert.Equal(t, "", records[1][8]) // r2
}

func TestWriteMatrixCSV(t *testing.T) {
	fmtFloat, _ := createFormatters(2)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	err := writeMatrixCSV(w, sampleMatrix(), fmtFloat)
	require.NoError(t, err)
	w.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)

	assert.Equal(t, "timestamp,dc_power_lag_1,irradiation_lag_1,hour_sin", lines[0])
	assert.Contains(t, lines[2], "2020-05-30T06:15:00Z")
	assert.Contains(t, lines[2], "120.50")
}

func TestWriteFrameCSV(t *testing.T) {
	fmtFloat, _ := createFormatters(2)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	err := writeFrameCSV(w, sampleFrame(t), fmtFloat)
	require.NoError(t, err)
	w.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)

	assert.Equal(t, "timestamp,dc_power,irradiation", lines[0])
	assert.Contains(t, lines[3], "260.80")
}

func TestWriteFrameJSON(t *testing.T) {
	var buf bytes.Buffer
	err := writeFrameJSON(&buf, sampleFrame(t))
	require.NoError(t, err)

	var rows []map[string]any
	err = json.Unmarshal(buf.Bytes(), &rows)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Contains(t, rows[0], "timestamp")
	assert.Equal(t, 120.5, rows[1]["dc_power"])
	assert.Equal(t, 0.15, rows[1]["irradiation"])
}

func TestWriteMethodsCSV(t *testing.T) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	err := writeMethodsCSV(w, buildMethodsRenderModel())
	require.NoError(t, err)
	w.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	assert.Contains(t, lines[0], "Method")
	assert.Contains(t, lines[0], "Purpose")
	assert.Contains(t, lines[1], "ks")
	assert.Contains(t, lines[1], "0.10")
	assert.Contains(t, lines[2], "psi")
	assert.Contains(t, lines[2], "0.20")
}
