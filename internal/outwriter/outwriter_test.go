package outwriter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/schema"
)

func TestWriteMonitoringReportJSONFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "report.json")
	cfg := &contract.Config{
		Output:         schema.JSONOut,
		OutputFile:     outputFile,
		Precision:      4,
		ResultLimit:    25,
		Workers:        2,
		ArchiveBackend: schema.SQLiteBackend,
	}

	err := WriteMonitoringReport(sampleReport(), cfg, time.Second)
	require.NoError(t, err)

	content, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal(content, &result))
	assert.Equal(t, "run-42", result["id"])
	assert.Equal(t, 0.25, result["drift_share"])
}

func TestWriteMonitoringReportCSVFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "report.csv")
	cfg := &contract.Config{
		Output:         schema.CSVOut,
		OutputFile:     outputFile,
		Precision:      2,
		ResultLimit:    25,
		Workers:        2,
		ArchiveBackend: schema.SQLiteBackend,
	}

	err := WriteMonitoringReport(sampleReport(), cfg, time.Second)
	require.NoError(t, err)

	content, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[1], "irradiation_lag_1")
}

func TestWriteMonitoringReportParquetFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "report.parquet")
	cfg := &contract.Config{
		Output:         schema.ParquetOut,
		OutputFile:     outputFile,
		Precision:      2,
		ResultLimit:    25,
		Workers:        2,
		ArchiveBackend: schema.SQLiteBackend,
	}

	err := WriteMonitoringReport(sampleReport(), cfg, time.Second)
	require.NoError(t, err)

	info, err := os.Stat(outputFile)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteMonitoringReportParquetRequiresOutputFile(t *testing.T) {
	cfg := &contract.Config{
		Output:         schema.ParquetOut,
		Precision:      2,
		ResultLimit:    25,
		Workers:        2,
		ArchiveBackend: schema.SQLiteBackend,
	}

	err := WriteMonitoringReport(sampleReport(), cfg, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output-file")
}

func TestWriteMonitoringReportDefaultsToText(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "report.txt")
	cfg := &contract.Config{
		Output:         "",
		OutputFile:     outputFile,
		Precision:      2,
		ResultLimit:    25,
		Workers:        2,
		ArchiveBackend: schema.SQLiteBackend,
		Width:          120,
	}

	err := WriteMonitoringReport(sampleReport(), cfg, time.Second)
	require.NoError(t, err)

	content, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Showing top 4 of 4 columns")
}

func TestWriteFeatureMatrixJSONFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "features.json")
	cfg := &contract.Config{
		Output:      schema.JSONOut,
		OutputFile:  outputFile,
		Precision:   2,
		ResultLimit: 25,
		Workers:     1,
	}

	err := WriteFeatureMatrix(sampleMatrix(), cfg, time.Second)
	require.NoError(t, err)

	content, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal(content, &result))

	columns, ok := result["columns"].([]any)
	require.True(t, ok)
	assert.Len(t, columns, 3)
}

func TestWriteFeatureMatrixParquetFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "features.parquet")
	cfg := &contract.Config{
		Output:      schema.ParquetOut,
		OutputFile:  outputFile,
		Precision:   2,
		ResultLimit: 25,
		Workers:     1,
	}

	err := WriteFeatureMatrix(sampleMatrix(), cfg, time.Second)
	require.NoError(t, err)

	info, err := os.Stat(outputFile)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteFrameCSVFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "frame.csv")
	cfg := &contract.Config{
		Output:      schema.CSVOut,
		OutputFile:  outputFile,
		Precision:   2,
		ResultLimit: 25,
	}

	err := WriteFrame(sampleFrame(t), cfg, time.Second)
	require.NoError(t, err)

	content, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "timestamp,dc_power,irradiation", lines[0])
}

func TestWriteTrendResultParquetUnsupported(t *testing.T) {
	cfg := &contract.Config{Output: schema.ParquetOut, Precision: 2}

	err := WriteTrendResult(sampleTrend(), cfg, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestWritePredictionResultParquetUnsupported(t *testing.T) {
	cfg := &contract.Config{Output: schema.ParquetOut, Precision: 2}

	err := WritePredictionResult(samplePrediction(), cfg, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestWriteComparisonResultParquetUnsupported(t *testing.T) {
	cfg := &contract.Config{Output: schema.ParquetOut, Precision: 2}

	err := WriteComparisonResult(sampleComparison(), cfg, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestPrintMethodDefinitionsParquetUnsupported(t *testing.T) {
	cfg := &contract.Config{Output: schema.ParquetOut}

	err := PrintMethodDefinitions(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestPrintMethodDefinitionsJSONFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "methods.json")
	cfg := &contract.Config{Output: schema.JSONOut, OutputFile: outputFile}

	err := PrintMethodDefinitions(cfg)
	require.NoError(t, err)

	content, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal(content, &result))
	assert.Equal(t, "Drift Methods", result["title"])

	methods, ok := result["methods"].([]any)
	require.True(t, ok)
	assert.Len(t, methods, 2)
}
