package schema

import (
	"fmt"
	"strings"
)

// NormalizeColumnName maps a CSV header to the canonical channel name:
// trimmed, lowercased, inner spaces collapsed to underscores. The plant
// export headers (AMBIENT_TEMPERATURE, IRRADIATION, DC_POWER) and their
// lowercase variants normalize to the same names.
func NormalizeColumnName(header string) string {
	name := strings.TrimSpace(header)
	name = strings.ToLower(name)
	name = strings.Join(strings.Fields(name), "_")
	return name
}

// ColumnsEqual reports whether two column lists carry the same names in the
// same order. Order matters: downstream consumers index rows positionally.
func ColumnsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FormatColumns renders a column list for log lines, eliding the tail when
// the list is long.
func FormatColumns(columns []string, limit int) string {
	if limit <= 0 || len(columns) <= limit {
		return strings.Join(columns, ", ")
	}
	shown := strings.Join(columns[:limit], ", ")
	return fmt.Sprintf("%s (+%d more)", shown, len(columns)-limit)
}
