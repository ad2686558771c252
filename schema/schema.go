// Package schema has the data model, constants and shared types for all parts of pvdrift.
package schema

import (
	"fmt"
	"sort"
	"time"
)

// SensorRecord is one timestamped plant observation.
// Channel values are keyed by column name (e.g. "irradiation", "dc_power").
// Records are immutable once ingested into a frame.
type SensorRecord struct {
	Timestamp time.Time          // Observation time, unique within a frame
	Channels  map[string]float64 // Numeric sensor channels by column name
}

// Clone returns a deep copy of the record.
func (r SensorRecord) Clone() SensorRecord {
	channels := make(map[string]float64, len(r.Channels))
	for k, v := range r.Channels {
		channels[k] = v
	}
	return SensorRecord{Timestamp: r.Timestamp, Channels: channels}
}

// Frame is an ordered sequence of sensor records, sorted ascending by
// timestamp and unique per timestamp. Missing timestamps are treated as
// absent, never zero-filled. A frame is owned by whichever pipeline stage
// currently holds it; Clone produces an independent copy when two stages
// need the same data.
type Frame struct {
	Columns []string       // Ordered channel names shared by every record
	Records []SensorRecord // Sorted ascending by timestamp
}

// NewFrame builds a frame from records, sorting them ascending by timestamp.
// Records are deep-copied so later mutation of the inputs cannot reach the
// frame. It fails when two records share a timestamp, or when a record's
// channel set differs from the declared columns.
func NewFrame(columns []string, records []SensorRecord) (*Frame, error) {
	cols := make([]string, len(columns))
	copy(cols, columns)

	recs := make([]SensorRecord, len(records))
	for i, r := range records {
		recs[i] = r.Clone()
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Timestamp.Before(recs[j].Timestamp) })

	for i, r := range recs {
		if i > 0 && !recs[i-1].Timestamp.Before(r.Timestamp) {
			return nil, fmt.Errorf("duplicate timestamp %s in frame", r.Timestamp.Format(time.RFC3339))
		}
		if len(r.Channels) != len(cols) {
			return nil, fmt.Errorf("record at %s has %d channels, frame declares %d: %w",
				r.Timestamp.Format(time.RFC3339), len(r.Channels), len(cols), ErrSchemaMismatch)
		}
		for _, c := range cols {
			if _, ok := r.Channels[c]; !ok {
				return nil, fmt.Errorf("record at %s missing channel %q: %w",
					r.Timestamp.Format(time.RFC3339), c, ErrSchemaMismatch)
			}
		}
	}

	return &Frame{Columns: cols, Records: recs}, nil
}

// Len returns the number of records in the frame.
func (f *Frame) Len() int {
	return len(f.Records)
}

// HasColumn reports whether the frame declares the named channel.
func (f *Frame) HasColumn(name string) bool {
	for _, c := range f.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Column returns the named channel's values in record order,
// or nil when the frame does not declare the channel.
func (f *Frame) Column(name string) []float64 {
	if !f.HasColumn(name) {
		return nil
	}
	values := make([]float64, len(f.Records))
	for i, r := range f.Records {
		values[i] = r.Channels[name]
	}
	return values
}

// Timestamps returns the record timestamps in order.
func (f *Frame) Timestamps() []time.Time {
	ts := make([]time.Time, len(f.Records))
	for i, r := range f.Records {
		ts[i] = r.Timestamp
	}
	return ts
}

// TimeSpan returns the first and last timestamps of the frame.
// Both are zero for an empty frame.
func (f *Frame) TimeSpan() (time.Time, time.Time) {
	if len(f.Records) == 0 {
		return time.Time{}, time.Time{}
	}
	return f.Records[0].Timestamp, f.Records[len(f.Records)-1].Timestamp
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	cols := make([]string, len(f.Columns))
	copy(cols, f.Columns)
	recs := make([]SensorRecord, len(f.Records))
	for i, r := range f.Records {
		recs[i] = r.Clone()
	}
	return &Frame{Columns: cols, Records: recs}
}

// Window returns a deep copy of the records in [lo, hi).
// Index semantics follow Go slicing.
func (f *Frame) Window(lo, hi int) *Frame {
	out := &Frame{Columns: make([]string, len(f.Columns))}
	copy(out.Columns, f.Columns)
	out.Records = make([]SensorRecord, 0, hi-lo)
	for _, r := range f.Records[lo:hi] {
		out.Records = append(out.Records, r.Clone())
	}
	return out
}

// Tail returns a deep copy of the last n records, or the whole frame
// when it holds fewer than n.
func (f *Frame) Tail(n int) *Frame {
	lo := max(len(f.Records)-n, 0)
	return f.Window(lo, len(f.Records))
}

// Summary describes the frame for report headers and ingest logs.
func (f *Frame) Summary() DatasetSummary {
	start, end := f.TimeSpan()
	return DatasetSummary{
		Rows:    len(f.Records),
		Columns: len(f.Columns),
		Start:   start,
		End:     end,
	}
}
