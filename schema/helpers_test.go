package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNormalizeColumnName maps plant export headers to canonical channel names.
func TestNormalizeColumnName(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{
			name:     "uppercase export header",
			header:   "AMBIENT_TEMPERATURE",
			expected: "ambient_temperature",
		},
		{
			name:     "already canonical",
			header:   "dc_power",
			expected: "dc_power",
		},
		{
			name:     "surrounding whitespace",
			header:   "  IRRADIATION ",
			expected: "irradiation",
		},
		{
			name:     "inner spaces collapse",
			header:   "Module  Temperature",
			expected: "module_temperature",
		},
		{
			name:     "empty header",
			header:   "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeColumnName(tt.header))
		})
	}
}

// TestColumnsEqual is order-sensitive by contract.
func TestColumnsEqual(t *testing.T) {
	assert.True(t, ColumnsEqual([]string{"a", "b"}, []string{"a", "b"}))
	assert.False(t, ColumnsEqual([]string{"a", "b"}, []string{"b", "a"}))
	assert.False(t, ColumnsEqual([]string{"a"}, []string{"a", "b"}))
	assert.True(t, ColumnsEqual(nil, nil))
	assert.True(t, ColumnsEqual(nil, []string{}))
}

// TestFormatColumns elides long lists.
func TestFormatColumns(t *testing.T) {
	cols := []string{"hour_sin", "hour_cos", "irradiation", "dc_power"}

	assert.Equal(t, "hour_sin, hour_cos, irradiation, dc_power", FormatColumns(cols, 0))
	assert.Equal(t, "hour_sin, hour_cos, irradiation, dc_power", FormatColumns(cols, 4))
	assert.Equal(t, "hour_sin, hour_cos (+2 more)", FormatColumns(cols, 2))
}
