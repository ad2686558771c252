package core

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/schema"
)

// hoursPerDay is the cycle length for the hour-of-day encoding.
const hoursPerDay = 24.0

// FeatureMatrixBuilder derives model features from a sensor frame.
// Steps chain and record the first failure; Build surfaces it.
type FeatureMatrixBuilder struct {
	cfg    *contract.Config
	frame  *schema.Frame
	warmup int

	columns []string
	rows    []schema.SensorRecord
	matrix  *schema.FeatureMatrix
	err     error
}

// NewFeatureMatrixBuilder is the starting point for building a feature matrix.
func NewFeatureMatrixBuilder(cfg *contract.Config, frame *schema.Frame) *FeatureMatrixBuilder {
	return &FeatureMatrixBuilder{cfg: cfg, frame: frame}
}

// ValidateInputs checks the configuration and the frame length eagerly so
// later steps can assume well-formed inputs.
func (b *FeatureMatrixBuilder) ValidateInputs() *FeatureMatrixBuilder {
	if b.err != nil {
		return b
	}

	if len(b.cfg.LagSteps) == 0 {
		b.err = fmt.Errorf("%w: lag steps must not be empty", schema.ErrInvalidConfiguration)
		return b
	}
	for _, k := range b.cfg.LagSteps {
		if k <= 0 {
			b.err = fmt.Errorf("%w: lag step %d is not positive", schema.ErrInvalidConfiguration, k)
			return b
		}
	}
	if b.cfg.RollingWindow <= 0 {
		b.err = fmt.Errorf("%w: rolling window %d is not positive", schema.ErrInvalidConfiguration, b.cfg.RollingWindow)
		return b
	}

	b.warmup = b.cfg.WarmupRows()
	rows := 0
	if b.frame != nil {
		rows = b.frame.Len()
	}
	if rows <= b.warmup {
		b.err = fmt.Errorf("%w: %d records present, need more than %d for lags %v and window %d",
			schema.ErrInsufficientHistory, rows, b.warmup, b.cfg.LagSteps, b.cfg.RollingWindow)
		return b
	}

	b.rows = b.frame.Records
	return b
}

// ResolveColumns fixes the output column order: cyclic time encodings first,
// then per-channel lags and rolling means in frame column order. The order
// depends only on configuration, never on input size.
func (b *FeatureMatrixBuilder) ResolveColumns() *FeatureMatrixBuilder {
	if b.err != nil {
		return b
	}

	columns := []string{schema.HourSinColumn, schema.HourCosColumn}
	for _, channel := range b.frame.Columns {
		for _, k := range b.cfg.LagSteps {
			columns = append(columns, schema.LagFeatureName(channel, k))
		}
		columns = append(columns, schema.RollMeanFeatureName(channel, b.cfg.RollingWindow))
	}
	b.columns = columns
	return b
}

// ComputeRows fills one feature row per input record past the warmup span.
// Records lacking full lag or window history produce no row at all.
func (b *FeatureMatrixBuilder) ComputeRows() *FeatureMatrixBuilder {
	if b.err != nil {
		return b
	}

	// Extract each channel once so the row loop works on flat series.
	series := make(map[string][]float64, len(b.frame.Columns))
	for _, channel := range b.frame.Columns {
		series[channel] = b.frame.Column(channel)
	}

	window := b.cfg.RollingWindow
	outRows := len(b.rows) - b.warmup
	timestamps := make([]time.Time, outRows)
	values := make([][]float64, outRows)

	for out := range outRows {
		t := out + b.warmup
		timestamps[out] = b.rows[t].Timestamp

		row := make([]float64, 0, len(b.columns))
		sin, cos := cyclicHourEncoding(b.rows[t].Timestamp)
		row = append(row, sin, cos)

		for _, channel := range b.frame.Columns {
			col := series[channel]
			for _, k := range b.cfg.LagSteps {
				row = append(row, col[t-k])
			}
			row = append(row, stat.Mean(col[t-window+1:t+1], nil))
		}
		values[out] = row
	}

	b.matrix = &schema.FeatureMatrix{
		Columns:    b.columns,
		Timestamps: timestamps,
		Values:     values,
	}
	return b
}

// Build finalizes the construction and returns the completed matrix.
func (b *FeatureMatrixBuilder) Build() (*schema.FeatureMatrix, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.matrix, nil
}

// BuildFeatures runs the full builder chain over a frame.
func BuildFeatures(cfg *contract.Config, frame *schema.Frame) (*schema.FeatureMatrix, error) {
	return NewFeatureMatrixBuilder(cfg, frame).
		ValidateInputs().
		ResolveColumns().
		ComputeRows().
		Build()
}

// BuildAlignedTarget returns the target channel values aligned 1:1 with the
// feature rows BuildFeatures produces for the same frame and configuration.
func BuildAlignedTarget(cfg *contract.Config, frame *schema.Frame, target string) ([]float64, error) {
	warmup := cfg.WarmupRows()
	rows := 0
	if frame != nil {
		rows = frame.Len()
	}
	if rows <= warmup {
		return nil, fmt.Errorf("%w: %d records present, need more than %d for lags %v and window %d",
			schema.ErrInsufficientHistory, rows, warmup, cfg.LagSteps, cfg.RollingWindow)
	}
	if !frame.HasColumn(target) {
		return nil, fmt.Errorf("%w: target column %q not in frame columns %v", schema.ErrSchemaMismatch, target, frame.Columns)
	}

	aligned := make([]float64, 0, frame.Len()-warmup)
	for t := warmup; t < frame.Len(); t++ {
		aligned = append(aligned, frame.Records[t].Channels[target])
	}
	return aligned, nil
}

// cyclicHourEncoding maps a timestamp's fractional hour of day onto the unit
// circle. Hour 23:59 lands next to 00:00 instead of a full day away, and
// minutes and seconds keep the encoding continuous within each hour.
func cyclicHourEncoding(ts time.Time) (sin, cos float64) {
	h := float64(ts.Hour()) +
		float64(ts.Minute())/60.0 +
		float64(ts.Second())/3600.0
	angle := 2 * math.Pi * h / hoursPerDay
	return math.Sin(angle), math.Cos(angle)
}
