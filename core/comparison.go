package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/internal/outwriter"
	"github.com/sundog-labs/pvdrift/schema"
)

// ExecuteCompare diffs two archived monitoring reports column by column.
// An empty target ID compares the base against the latest other archived run.
func ExecuteCompare(_ context.Context, cfg *contract.Config, store contract.ReportStore) error {
	start := time.Now()

	if store == nil || cfg.ArchiveBackend == schema.NoneBackend {
		return errors.New("compare needs a report archive: set --archive-backend")
	}

	outwriter.LogCompareHeader(cfg)

	base, err := store.GetReport(cfg.BaseID)
	if err != nil {
		return fmt.Errorf("base report %s: %w", cfg.BaseID, err)
	}

	targetID := cfg.TargetID
	if targetID == "" {
		targetID, err = latestReportID(store, cfg.BaseID)
		if err != nil {
			return err
		}
	}
	target, err := store.GetReport(targetID)
	if err != nil {
		return fmt.Errorf("target report %s: %w", targetID, err)
	}

	result := CompareReports(base, target)
	trimComparisonDetails(result, cfg.ResultLimit)

	duration := time.Since(start)
	return outwriter.WriteComparisonResult(result, cfg, duration)
}

// latestReportID resolves the most recent archived run, skipping the base so
// the comparison has two distinct sides.
func latestReportID(store contract.ReportStore, baseID string) (string, error) {
	runs, err := store.ListRuns(2)
	if err != nil {
		return "", err
	}
	for _, run := range runs {
		if run.ReportID != baseID {
			return run.ReportID, nil
		}
	}
	return "", fmt.Errorf("no archived run to compare against %s", baseID)
}

// CompareReports computes per-column statistic deltas between two archived
// reports. Details are ordered by absolute delta descending so the biggest
// movers lead; ties fall back to column name for a stable order.
func CompareReports(base, target *schema.MonitoringReport) *schema.ComparisonResult {
	baseCols := make(map[string]schema.ColumnDriftResult, len(base.Columns))
	for _, c := range base.Columns {
		baseCols[c.Column] = c
	}

	details := make([]schema.ComparisonDetail, 0, max(len(base.Columns), len(target.Columns)))
	seen := make(map[string]bool, len(target.Columns))

	for _, after := range target.Columns {
		seen[after.Column] = true
		before, ok := baseCols[after.Column]
		if !ok {
			details = append(details, schema.ComparisonDetail{
				Column:         after.Column,
				AfterStatistic: after.Statistic,
				Delta:          after.Statistic,
				AfterDrifted:   after.Drifted,
				Threshold:      after.Threshold,
				Status:         schema.NewColumnStatus,
			})
			continue
		}
		details = append(details, schema.ComparisonDetail{
			Column:          after.Column,
			BeforeStatistic: before.Statistic,
			AfterStatistic:  after.Statistic,
			Delta:           after.Statistic - before.Statistic,
			BeforeDrifted:   before.Drifted,
			AfterDrifted:    after.Drifted,
			Threshold:       after.Threshold,
			Status:          schema.ActiveColumnStatus,
		})
	}

	for _, before := range base.Columns {
		if seen[before.Column] {
			continue
		}
		details = append(details, schema.ComparisonDetail{
			Column:          before.Column,
			BeforeStatistic: before.Statistic,
			Delta:           -before.Statistic,
			BeforeDrifted:   before.Drifted,
			Threshold:       before.Threshold,
			Status:          schema.RemovedColumnStatus,
		})
	}

	sort.Slice(details, func(i, j int) bool {
		di, dj := math.Abs(details[i].Delta), math.Abs(details[j].Delta)
		if di != dj {
			return di > dj
		}
		return details[i].Column < details[j].Column
	})

	return &schema.ComparisonResult{
		BaseID:   base.ID,
		TargetID: target.ID,
		Details:  details,
		Summary:  summarizeComparison(base, target, details),
	}
}

// summarizeComparison aggregates the details into headline counts. The net
// delta spans active columns only, so schema changes do not masquerade as
// drift movement.
func summarizeComparison(base, target *schema.MonitoringReport, details []schema.ComparisonDetail) schema.ComparisonSummary {
	summary := schema.ComparisonSummary{
		TotalColumns:     len(details),
		BeforeDriftShare: base.DriftShare,
		AfterDriftShare:  target.DriftShare,
	}

	for _, d := range details {
		switch d.Status {
		case schema.NewColumnStatus:
			summary.NewColumns++
		case schema.RemovedColumnStatus:
			summary.RemovedColumns++
		case schema.ActiveColumnStatus:
			summary.NetStatisticDelta += d.Delta
			if !d.BeforeDrifted && d.AfterDrifted {
				summary.RegressedColumns++
			}
			if d.BeforeDrifted && !d.AfterDrifted {
				summary.RecoveredColumns++
			}
		}
	}
	return summary
}

// trimComparisonDetails caps the rendered details at the result limit. The
// summary keeps its counts from the full set.
func trimComparisonDetails(result *schema.ComparisonResult, limit int) {
	if limit > 0 && len(result.Details) > limit {
		result.Details = result.Details[:limit]
	}
}
