package iostore

import (
	"github.com/stretchr/testify/mock"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/schema"
)

// MockReportStore is a mock implementation of ReportStore for testing.
type MockReportStore struct {
	mock.Mock
}

var _ contract.ReportStore = &MockReportStore{} // Compile-time check

// SaveReport implements the ReportStore interface.
func (m *MockReportStore) SaveReport(report *schema.MonitoringReport, configParams map[string]any) error {
	args := m.Called(report, configParams)
	return args.Error(0)
}

// GetReport implements the ReportStore interface.
func (m *MockReportStore) GetReport(reportID string) (*schema.MonitoringReport, error) {
	args := m.Called(reportID)
	report, _ := args.Get(0).(*schema.MonitoringReport)
	return report, args.Error(1)
}

// ListRuns implements the ReportStore interface.
func (m *MockReportStore) ListRuns(limit int) ([]schema.MonitoringRunRecord, error) {
	args := m.Called(limit)
	records, _ := args.Get(0).([]schema.MonitoringRunRecord)
	return records, args.Error(1)
}

// ListColumnResults implements the ReportStore interface.
func (m *MockReportStore) ListColumnResults(reportID string) ([]schema.ColumnResultRecord, error) {
	args := m.Called(reportID)
	records, _ := args.Get(0).([]schema.ColumnResultRecord)
	return records, args.Error(1)
}

// GetStatus implements the ReportStore interface.
func (m *MockReportStore) GetStatus() (schema.ArchiveStatus, error) {
	args := m.Called()
	status, _ := args.Get(0).(schema.ArchiveStatus)
	return status, args.Error(1)
}

// Clear implements the ReportStore interface.
func (m *MockReportStore) Clear() error {
	args := m.Called()
	return args.Error(0)
}

// Close implements the ReportStore interface.
func (m *MockReportStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
