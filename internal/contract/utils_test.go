package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundog-labs/pvdrift/schema"
)

func TestGetColorLabel(t *testing.T) {
	tests := []struct {
		name      string
		statistic float64
		threshold float64
		label     string
	}{
		{"stable", 0.02, 0.10, schema.StableLabel},
		{"watch", 0.09, 0.10, schema.WatchLabel},
		{"drifted", 0.12, 0.10, schema.DriftedLabel},
		{"critical", 0.30, 0.10, schema.CriticalLabel},
		{"unknown", 0.30, 0, schema.UnknownLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetColorLabel(tt.statistic, tt.threshold)
			// Should contain the plain label
			assert.Contains(t, result, tt.label)
		})
	}
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "report.json")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		assert.NotNil(t, file)
		_ = file.Close()

		_, err = os.Stat(tempFile)
		assert.NoError(t, err, "output file should exist after SelectOutputFile")
	})

	t.Run("invalid path returns error", func(t *testing.T) {
		_, err := SelectOutputFile(filepath.Join(t.TempDir(), "missing", "report.json"))
		assert.Error(t, err)
	})
}

func TestShouldDropColumn(t *testing.T) {
	drops := []string{"plant_id", "source_key"}

	tests := []struct {
		name     string
		column   string
		expected bool
	}{
		{"exact match", "plant_id", true},
		{"unnormalized match", "Plant ID", true},
		{"no match", "irradiation", false},
		{"empty column", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShouldDropColumn(tt.column, drops))
		})
	}

	t.Run("nil drop list", func(t *testing.T) {
		assert.False(t, ShouldDropColumn("plant_id", nil))
	})
}

func TestGetArchiveDBFilePath(t *testing.T) {
	path := GetArchiveDBFilePath()
	assert.True(t, strings.HasSuffix(path, ".pvdrift_archive.db"))
}

func TestTruncateColumn(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		expected string
	}{
		{"short name unchanged", "irradiation", 20, "irradiation"},
		{"long name truncated", "ambient_temperature_roll_mean_24", 20, "ambient_temperatu..."},
		{"exact width unchanged", "dc_power", 8, "dc_power"},
		{"tiny width unchanged", "dc_power", 3, "dc_power"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncateColumn(tt.input, tt.maxWidth))
		})
	}
}

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    bool
		expectError bool
	}{
		{"yes", "yes", true, false},
		{"true mixed case", "TrUe", true, false},
		{"one", "1", true, false},
		{"no", "no", false, false},
		{"false", "false", false, false},
		{"zero", "0", false, false},
		{"empty", "", false, true},
		{"garbage", "maybe", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseBoolString(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}
