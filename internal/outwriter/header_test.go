package outwriter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sundog-labs/pvdrift/internal/contract"
)

func TestDatasetName(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		fallback string
		expected string
	}{
		{name: "file path", path: "/data/plant1.csv", fallback: "reference", expected: "plant1.csv"},
		{name: "bare file", path: "generation.parquet", fallback: "current", expected: "generation.parquet"},
		{name: "empty path", path: "", fallback: "reference", expected: "reference"},
		{name: "dot path", path: ".", fallback: "current", expected: "current"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, datasetName(tt.path, tt.fallback))
		})
	}
}

func TestFormatTimeRange(t *testing.T) {
	start := time.Date(2020, 5, 30, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 5, 30, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		cfg      *contract.Config
		expected string
	}{
		{
			name:     "no clipping",
			cfg:      &contract.Config{},
			expected: "full span",
		},
		{
			name:     "start only",
			cfg:      &contract.Config{StartTime: start},
			expected: "2020-05-30T00:00:00Z → latest",
		},
		{
			name:     "end only",
			cfg:      &contract.Config{EndTime: end},
			expected: "beginning → 2020-05-30T12:00:00Z",
		},
		{
			name:     "both ends",
			cfg:      &contract.Config{StartTime: start, EndTime: end},
			expected: "2020-05-30T00:00:00Z → 2020-05-30T12:00:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatTimeRange(tt.cfg))
		})
	}
}
