package schema

import "sort"

// EnrichedColumnResult pairs a column verdict with presentation fields
// computed at output time.
type EnrichedColumnResult struct {
	Rank  int    `json:"rank"`
	Label string `json:"label"`
	ColumnDriftResult
}

// Severity label constants.
const (
	CriticalLabel = "CRITICAL" // Statistic at twice the threshold or beyond
	DriftedLabel  = "DRIFTED"  // Statistic at or above the threshold
	WatchLabel    = "WATCH"    // Statistic approaching the threshold
	StableLabel   = "STABLE"   // Statistic well below the threshold
	UnknownLabel  = "UNKNOWN"  // Threshold missing or not positive
)

// Severity bands for the statistic/threshold ratio.
const (
	criticalSeverityRatio = 2.0
	warnSeverityRatio     = 0.8
)

// GetPlainDriftLabel classifies a column's statistic against its threshold
// without any color markup.
func GetPlainDriftLabel(statistic, threshold float64) string {
	if threshold <= 0 {
		return UnknownLabel
	}
	ratio := statistic / threshold
	switch {
	case ratio >= criticalSeverityRatio:
		return CriticalLabel
	case ratio >= 1.0:
		return DriftedLabel
	case ratio >= warnSeverityRatio:
		return WatchLabel
	default:
		return StableLabel
	}
}

// RankColumnResults orders column results by statistic/threshold ratio
// descending and attaches rank and plain label. The input is not modified.
func RankColumnResults(columns []ColumnDriftResult) []EnrichedColumnResult {
	enriched := make([]EnrichedColumnResult, len(columns))
	for i, c := range columns {
		enriched[i] = EnrichedColumnResult{ColumnDriftResult: c}
	}
	// Stable sort keeps equal-ratio columns in report order.
	sort.SliceStable(enriched, func(i, j int) bool {
		return severityRatio(enriched[i]) > severityRatio(enriched[j])
	})
	for i := range enriched {
		enriched[i].Rank = i + 1
		enriched[i].Label = GetPlainDriftLabel(enriched[i].Statistic, enriched[i].Threshold)
	}
	return enriched
}

func severityRatio(c EnrichedColumnResult) float64 {
	if c.Threshold <= 0 {
		return 0
	}
	return c.Statistic / c.Threshold
}
