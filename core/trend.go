package core

import (
	"context"
	"fmt"
	"time"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/internal/outwriter"
	"github.com/sundog-labs/pvdrift/schema"
)

// ExecuteTrend splits the current dataset into successive windows and runs
// the drift analysis on each, showing how drift evolved over time against a
// fixed reference.
func ExecuteTrend(_ context.Context, cfg *contract.Config) error {
	start := time.Now()

	outwriter.LogTrendHeader(cfg)

	reference, current, err := loadMonitoringFrames(cfg)
	if err != nil {
		return err
	}

	refMatrix, err := BuildFeatures(cfg, reference)
	if err != nil {
		return fmt.Errorf("reference features: %w", err)
	}

	bounds, err := splitFrameWindows(cfg, current)
	if err != nil {
		return err
	}

	points := make([]schema.TrendPoint, 0, len(bounds))
	for i, b := range bounds {
		sub := current.Window(b.lo, b.hi)

		// Features are rebuilt per window, so each window burns its own
		// warmup rows. Short windows surface as insufficient history with
		// the window named.
		curMatrix, err := BuildFeatures(cfg, sub)
		if err != nil {
			return fmt.Errorf("window %d of %d (%d rows): %w", i+1, len(bounds), sub.Len(), err)
		}

		report, err := AnalyzeDrift(cfg, &AnalyzeInput{Reference: refMatrix, Current: curMatrix})
		if err != nil {
			return fmt.Errorf("window %d of %d: %w", i+1, len(bounds), err)
		}

		windowStart, windowEnd := sub.TimeSpan()
		points = append(points, schema.TrendPoint{
			Window:         i + 1,
			Start:          windowStart,
			End:            windowEnd,
			Rows:           sub.Len(),
			DriftedColumns: report.DriftedColumns,
			DriftShare:     report.DriftShare,
			DatasetDrifted: report.DatasetDrifted,
		})
	}

	result := &schema.TrendResult{
		Points:         points,
		Method:         cfg.Method,
		Threshold:      cfg.DriftThreshold,
		ShareThreshold: cfg.ShareThreshold,
	}

	duration := time.Since(start)
	return outwriter.WriteTrendResult(result, cfg, duration)
}

// windowBounds is a half-open [lo, hi) row range of the current frame.
type windowBounds struct {
	lo, hi int
}

// splitFrameWindows cuts the frame into successive windows, by fixed time
// interval when one is configured, otherwise into the configured count of
// near-equal row windows.
func splitFrameWindows(cfg *contract.Config, frame *schema.Frame) ([]windowBounds, error) {
	if cfg.TrendInterval > 0 {
		return windowsByInterval(frame, cfg.TrendInterval)
	}
	return windowsByCount(frame, cfg.TrendWindows)
}

func windowsByCount(frame *schema.Frame, count int) ([]windowBounds, error) {
	n := frame.Len()
	if count > n {
		return nil, fmt.Errorf("%w: cannot split %d records into %d windows", schema.ErrInsufficientHistory, n, count)
	}
	bounds := make([]windowBounds, 0, count)
	for i := range count {
		bounds = append(bounds, windowBounds{
			lo: i * n / count,
			hi: (i + 1) * n / count,
		})
	}
	return bounds, nil
}

func windowsByInterval(frame *schema.Frame, interval time.Duration) ([]windowBounds, error) {
	n := frame.Len()
	if n == 0 {
		return nil, fmt.Errorf("%w: no records to window", schema.ErrEmptyDataset)
	}

	ts := frame.Timestamps()
	var bounds []windowBounds
	lo := 0
	cut := ts[0].Add(interval)
	for i := 1; i < n; i++ {
		if ts[i].Before(cut) {
			continue
		}
		bounds = append(bounds, windowBounds{lo: lo, hi: i})
		lo = i
		// Gaps in the telemetry can leap several intervals at once.
		for !ts[i].Before(cut) {
			cut = cut.Add(interval)
		}
	}
	bounds = append(bounds, windowBounds{lo: lo, hi: n})
	return bounds, nil
}
