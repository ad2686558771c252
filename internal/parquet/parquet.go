// Package parquet provides data structures and functions for exporting pvdrift
// monitoring data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/sundog-labs/pvdrift/schema"
)

// MonitoringRun represents a single archived monitoring run with metadata.
// This struct maps to the pvdrift_monitoring_runs database table.
type MonitoringRun struct {
	// ReportID is the unique identifier for this monitoring run
	ReportID string `parquet:"report_id,snappy"`

	// GeneratedAt is when the report was produced (stored as TIMESTAMP with nanosecond precision)
	GeneratedAt time.Time `parquet:"generated_at,snappy"`

	// Method is the drift statistic used ("ks" or "psi")
	Method string `parquet:"method,snappy"`

	// ReferenceRows is the number of reference rows scored in this run
	ReferenceRows int32 `parquet:"reference_rows,snappy"`

	// CurrentRows is the number of current rows scored in this run
	CurrentRows int32 `parquet:"current_rows,snappy"`

	// DriftedColumns is the number of columns flagged as drifted
	DriftedColumns int32 `parquet:"drifted_columns,snappy"`

	// DriftShare is the fraction of columns flagged as drifted
	DriftShare float64 `parquet:"drift_share,snappy"`

	// DatasetDrifted is the dataset-level verdict
	DatasetDrifted bool `parquet:"dataset_drifted,snappy"`

	// ConfigParams is the run configuration as JSON, absent when none was recorded
	ConfigParams *string `parquet:"config_params,optional,snappy"`

	// ReportJSON contains the full JSON-encoded report
	ReportJSON string `parquet:"report_json,snappy"`
}

// ColumnResult represents one per-column verdict of an archived run.
// This struct maps to the pvdrift_column_results database table.
type ColumnResult struct {
	// ReportID references the parent monitoring run
	ReportID string `parquet:"report_id,snappy"`

	// Column is the feature column name
	Column string `parquet:"column_name,snappy"`

	// RefMean is the column mean over the reference dataset
	RefMean float64 `parquet:"ref_mean,snappy"`

	// RefStdDev is the column standard deviation over the reference dataset
	RefStdDev float64 `parquet:"ref_std_dev,snappy"`

	// CurMean is the column mean over the current dataset
	CurMean float64 `parquet:"cur_mean,snappy"`

	// CurStdDev is the column standard deviation over the current dataset
	CurStdDev float64 `parquet:"cur_std_dev,snappy"`

	// Statistic is the drift statistic value for this column
	Statistic float64 `parquet:"statistic,snappy"`

	// Threshold is the decision threshold the statistic was compared against
	Threshold float64 `parquet:"threshold,snappy"`

	// Drifted is the per-column verdict
	Drifted bool `parquet:"drifted,snappy"`
}

// FeatureCell is one (timestamp, column, value) observation in long format.
// Frames and feature matrices flatten to this shape for Parquet output.
type FeatureCell struct {
	Timestamp time.Time `parquet:"timestamp,snappy"`
	Column    string    `parquet:"column,snappy"`
	Value     float64   `parquet:"value,snappy"`
}

// writeParquet writes records to a Parquet file using struct schema inference.
func writeParquet[T any](data []T, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is automatically derived from the struct tags
	writer := parquet.NewGenericWriter[T](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// WriteMonitoringRunsParquet writes a slice of MonitoringRun structs to a Parquet file.
func WriteMonitoringRunsParquet(data []MonitoringRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteColumnResultsParquet writes a slice of ColumnResult structs to a Parquet file.
func WriteColumnResultsParquet(data []ColumnResult, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteFeatureCellsParquet writes a slice of FeatureCell structs to a Parquet file.
func WriteFeatureCellsParquet(data []FeatureCell, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertMonitoringRunRecords converts schema.MonitoringRunRecord to MonitoringRun for Parquet export.
func ConvertMonitoringRunRecords(records []schema.MonitoringRunRecord) []MonitoringRun {
	result := make([]MonitoringRun, len(records))
	for i, record := range records {
		result[i] = MonitoringRun{
			ReportID:       record.ReportID,
			GeneratedAt:    record.GeneratedAt,
			Method:         record.Method,
			ReferenceRows:  record.ReferenceRows,
			CurrentRows:    record.CurrentRows,
			DriftedColumns: record.DriftedColumns,
			DriftShare:     record.DriftShare,
			DatasetDrifted: record.DatasetDrifted,
			ConfigParams:   record.ConfigParams,
			ReportJSON:     record.ReportJSON,
		}
	}
	return result
}

// ConvertColumnResultRecords converts schema.ColumnResultRecord to ColumnResult for Parquet export.
func ConvertColumnResultRecords(records []schema.ColumnResultRecord) []ColumnResult {
	result := make([]ColumnResult, len(records))
	for i, record := range records {
		result[i] = ColumnResult{
			ReportID:  record.ReportID,
			Column:    record.Column,
			RefMean:   record.RefMean,
			RefStdDev: record.RefStdDev,
			CurMean:   record.CurMean,
			CurStdDev: record.CurStdDev,
			Statistic: record.Statistic,
			Threshold: record.Threshold,
			Drifted:   record.Drifted,
		}
	}
	return result
}

// ConvertReportColumns flattens a report's per-column verdicts to ColumnResult rows.
func ConvertReportColumns(report *schema.MonitoringReport) []ColumnResult {
	if report == nil {
		return nil
	}
	result := make([]ColumnResult, len(report.Columns))
	for i, col := range report.Columns {
		result[i] = ColumnResult{
			ReportID:  report.ID,
			Column:    col.Column,
			RefMean:   col.RefMean,
			RefStdDev: col.RefStdDev,
			CurMean:   col.CurMean,
			CurStdDev: col.CurStdDev,
			Statistic: col.Statistic,
			Threshold: col.Threshold,
			Drifted:   col.Drifted,
		}
	}
	return result
}

// ConvertFeatureMatrix flattens a feature matrix to long-format cells, row major.
func ConvertFeatureMatrix(matrix *schema.FeatureMatrix) []FeatureCell {
	if matrix == nil {
		return nil
	}
	result := make([]FeatureCell, 0, len(matrix.Values)*len(matrix.Columns))
	for i, row := range matrix.Values {
		for j, column := range matrix.Columns {
			result = append(result, FeatureCell{
				Timestamp: matrix.Timestamps[i],
				Column:    column,
				Value:     row[j],
			})
		}
	}
	return result
}

// ConvertFrame flattens a sensor frame to long-format cells, record major.
func ConvertFrame(frame *schema.Frame) []FeatureCell {
	if frame == nil {
		return nil
	}
	result := make([]FeatureCell, 0, len(frame.Records)*len(frame.Columns))
	for _, record := range frame.Records {
		for _, column := range frame.Columns {
			result = append(result, FeatureCell{
				Timestamp: record.Timestamp,
				Column:    column,
				Value:     record.Channels[column],
			})
		}
	}
	return result
}
