package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundog-labs/pvdrift/schema"
)

func TestCheckResultBuilderValidatePrerequisites(t *testing.T) {
	tests := []struct {
		name          string
		reference     string
		current       string
		simulate      bool
		expectedError string
	}{
		{
			name:          "missing reference",
			expectedError: "check requires a reference dataset",
		},
		{
			name:          "missing current without simulate",
			reference:     "reference.csv",
			expectedError: "check requires a current dataset",
		},
		{
			name:      "simulate stands in for the current dataset",
			reference: "reference.csv",
			simulate:  true,
		},
		{
			name:      "both datasets",
			reference: "reference.csv",
			current:   "current.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.ReferencePath = tt.reference
			cfg.CurrentPath = tt.current
			cfg.SimulateCurrent = tt.simulate

			builder := NewCheckResultBuilder(context.Background(), cfg)
			_, err := builder.ValidatePrerequisites()

			if tt.expectedError == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.expectedError)
			}
		})
	}
}

func TestCheckResultBuilderBuildResultFailingGate(t *testing.T) {
	cfg := testConfig()

	report := &schema.MonitoringReport{
		Method: schema.KSMethod,
		Columns: []schema.ColumnDriftResult{
			{Column: "hour_sin", Statistic: 0.02, Threshold: 0.1},
			{Column: "irradiation_lag_1", Statistic: 0.85, Threshold: 0.1, Drifted: true},
			{Column: "irradiation_roll_mean_3", Statistic: 0.6, Threshold: 0.1, Drifted: true},
		},
		DriftedColumns: 2,
		DriftShare:     2.0 / 3.0,
		ShareThreshold: cfg.ShareThreshold,
		DatasetDrifted: true,
	}

	builder := &CheckResultBuilder{cfg: cfg, report: report}
	result := builder.BuildResult().GetResult()

	require.NotNil(t, result)
	assert.False(t, result.Passed)
	assert.Same(t, report, result.Report)
	assert.Equal(t, cfg.ShareThreshold, result.ShareThreshold)
	assert.Equal(t, report.DriftShare, result.ShareObserved)

	// A failing pipeline names its offenders.
	assert.Equal(t, []schema.CheckFailedColumn{
		{Column: "irradiation_lag_1", Statistic: 0.85, Threshold: 0.1},
		{Column: "irradiation_roll_mean_3", Statistic: 0.6, Threshold: 0.1},
	}, result.FailedColumns)
}

func TestCheckResultBuilderBuildResultPassingGate(t *testing.T) {
	cfg := testConfig()

	// One drifted column out of four stays under the 0.5 share gate, so the
	// gate passes while still listing the drifted column.
	report := &schema.MonitoringReport{
		Method: schema.KSMethod,
		Columns: []schema.ColumnDriftResult{
			{Column: "hour_sin", Statistic: 0.01, Threshold: 0.1},
			{Column: "hour_cos", Statistic: 0.01, Threshold: 0.1},
			{Column: "dc_power_lag_1", Statistic: 0.04, Threshold: 0.1},
			{Column: "irradiation_lag_1", Statistic: 0.3, Threshold: 0.1, Drifted: true},
		},
		DriftedColumns: 1,
		DriftShare:     0.25,
		ShareThreshold: cfg.ShareThreshold,
	}

	builder := &CheckResultBuilder{cfg: cfg, report: report}
	result := builder.BuildResult().GetResult()

	require.NotNil(t, result)
	assert.True(t, result.Passed)
	assert.Equal(t, 0.25, result.ShareObserved)
	require.Len(t, result.FailedColumns, 1)
	assert.Equal(t, "irradiation_lag_1", result.FailedColumns[0].Column)
}

func TestCheckResultBuilderGetResultBeforeBuild(t *testing.T) {
	builder := NewCheckResultBuilder(context.Background(), testConfig())
	assert.Nil(t, builder.GetResult())
}

func TestColumnThreshold(t *testing.T) {
	assert.Zero(t, columnThreshold(&schema.MonitoringReport{}))

	report := &schema.MonitoringReport{
		Columns: []schema.ColumnDriftResult{{Column: "hour_sin", Threshold: 0.2}},
	}
	assert.Equal(t, 0.2, columnThreshold(report))
}
