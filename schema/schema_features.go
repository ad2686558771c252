package schema

import (
	"fmt"
	"time"
)

// FeatureMatrix is the model-ready output of the feature builder: a fixed,
// named, ordered column set with one row per source timestamp that survived
// the warm-up drop. Row i of Values aligns with Timestamps[i]; every row has
// exactly len(Columns) values.
type FeatureMatrix struct {
	Columns    []string    `json:"columns"`
	Timestamps []time.Time `json:"timestamps"`
	Values     [][]float64 `json:"values"`
}

// Len returns the number of feature rows.
func (m *FeatureMatrix) Len() int {
	return len(m.Values)
}

// ColumnIndex returns the position of the named column, or -1 when absent.
func (m *FeatureMatrix) ColumnIndex(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the named column's values in row order,
// or nil when the matrix does not contain the column.
func (m *FeatureMatrix) Column(name string) []float64 {
	idx := m.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	values := make([]float64, len(m.Values))
	for i, row := range m.Values {
		values[i] = row[idx]
	}
	return values
}

// Row returns row i without copying. Callers must not mutate it.
func (m *FeatureMatrix) Row(i int) []float64 {
	return m.Values[i]
}

// Clone returns a deep copy of the matrix.
func (m *FeatureMatrix) Clone() *FeatureMatrix {
	out := &FeatureMatrix{
		Columns:    make([]string, len(m.Columns)),
		Timestamps: make([]time.Time, len(m.Timestamps)),
		Values:     make([][]float64, len(m.Values)),
	}
	copy(out.Columns, m.Columns)
	copy(out.Timestamps, m.Timestamps)
	for i, row := range m.Values {
		out.Values[i] = make([]float64, len(row))
		copy(out.Values[i], row)
	}
	return out
}

// Summary describes the matrix for report headers.
func (m *FeatureMatrix) Summary() DatasetSummary {
	s := DatasetSummary{Rows: len(m.Values), Columns: len(m.Columns)}
	if len(m.Timestamps) > 0 {
		s.Start = m.Timestamps[0]
		s.End = m.Timestamps[len(m.Timestamps)-1]
	}
	return s
}

// LagFeatureName is the column name for channel lagged by k rows.
func LagFeatureName(channel string, k int) string {
	return fmt.Sprintf("%s_lag_%d", channel, k)
}

// RollMeanFeatureName is the column name for channel's trailing mean over w rows.
func RollMeanFeatureName(channel string, w int) string {
	return fmt.Sprintf("%s_roll_mean_%d", channel, w)
}
