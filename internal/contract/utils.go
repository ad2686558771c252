package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fatih/color"

	"github.com/sundog-labs/pvdrift/schema"
)

// Color variables for console output.
var (
	CriticalColor = color.New(color.FgRed, color.Bold)     // criticalColor represents a severe distribution break.
	DriftedColor  = color.New(color.FgMagenta, color.Bold) // driftedColor represents a confirmed threshold breach.
	WatchColor    = color.New(color.FgYellow)              // watchColor represents movement approaching the threshold.
	StableColor   = color.New(color.FgCyan)                // stableColor represents an unremarkable column.
)

// GetColorLabel returns a colored text label for console output (table).
// It uses schema.GetPlainDriftLabel to determine the string, and then applies
// the appropriate color.
func GetColorLabel(statistic, threshold float64) string {
	text := schema.GetPlainDriftLabel(statistic, threshold)

	switch text {
	case schema.CriticalLabel:
		return CriticalColor.Sprint(text)
	case schema.DriftedLabel:
		return DriftedColor.Sprint(text)
	case schema.WatchLabel:
		return WatchColor.Sprint(text)
	case schema.StableLabel:
		return StableColor.Sprint(text)
	default: // "UNKNOWN"
		return text
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the
// provided file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ShouldDropColumn returns true if the given column name matches any of the
// configured drop entries. Names are compared in normalized form, so
// "Ambient Temperature" and "ambient_temperature" refer to the same column.
func ShouldDropColumn(name string, drops []string) bool {
	if len(drops) == 0 {
		return false
	}
	return slices.Contains(drops, schema.NormalizeColumnName(name))
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetArchiveDBFilePath returns the path to the SQLite DB file for report archival.
func GetArchiveDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".pvdrift_archive.db"
	}
	return filepath.Join(homeDir, ".pvdrift_archive.db")
}

// TruncateColumn truncates a column name to a maximum width with ellipsis suffix.
// Requires maxWidth > 3 to ensure there's space for both the "..." suffix and at
// least one character of content. Without this check, small maxWidth values could
// cause slice bounds errors in the truncation calculation.
func TruncateColumn(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return name
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
