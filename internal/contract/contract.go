// Package contract holds the interfaces and shared plumbing the commands and core build on.
package contract

import (
	"github.com/sundog-labs/pvdrift/schema"
)

// Predictor produces model output for a feature matrix. The monitoring
// engine treats predictions as opaque numbers, so any model that emits
// one value per row can sit behind this interface.
type Predictor interface {
	// Name identifies the prediction strategy in reports and logs.
	Name() string

	// Predict returns one forecast per matrix row, aligned by index.
	Predict(matrix *schema.FeatureMatrix, target []float64) ([]float64, error)
}

// ReportStore defines the interface for archiving monitoring runs and reading them back.
// This allows the archive layer to be mocked for testing.
type ReportStore interface {
	// SaveReport persists a finished report along with the configuration that produced it
	SaveReport(report *schema.MonitoringReport, configParams map[string]any) error

	// GetReport loads a single archived report by its ID
	GetReport(reportID string) (*schema.MonitoringReport, error)

	// ListRuns returns the most recent archived runs, newest first
	ListRuns(limit int) ([]schema.MonitoringRunRecord, error)

	// ListColumnResults returns the per-column rows recorded for a report
	ListColumnResults(reportID string) ([]schema.ColumnResultRecord, error)

	// GetStatus returns status information about the archive store
	GetStatus() (schema.ArchiveStatus, error)

	// Clear removes all archived runs and column results
	Clear() error

	// Close closes the underlying connection
	Close() error
}
