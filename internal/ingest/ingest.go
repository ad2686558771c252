// Package ingest has CSV ingestion for plant telemetry exports.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/schema"
)

// timestampLayouts are the accepted DATE_TIME representations, tried in
// order. Plant exports mix "2020-05-15 06:00:00" and "15-05-2020 06:00"
// depending on which system produced the file.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02-01-2006 15:04",
}

// timestampHeaders are the normalized header names recognized as the
// timestamp column.
var timestampHeaders = map[string]bool{
	"date_time": true,
	"timestamp": true,
	"datetime":  true,
}

// valueColumn maps a kept sensor channel to its CSV field index.
type valueColumn struct {
	name string // Normalized channel name
	idx  int    // Field index in the source row
}

// ReadFrame reads a telemetry CSV into a frame. Headers are normalized to
// canonical channel names, non-numeric columns are skipped with a warning,
// and rows outside the configured time range are clipped. Duplicate
// timestamps keep the first occurrence, so multi-inverter exports collapse
// to one record per interval.
func ReadFrame(path string, cfg *contract.Config) (*schema.Frame, error) {
	header, rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	// 1. Locate the timestamp column
	tsIdx, err := timestampColumn(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// 2. Decide which columns are numeric sensor channels
	columns := selectValueColumns(header, rows, tsIdx, cfg.DropColumns)
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s has no numeric sensor columns", schema.ErrSchemaMismatch, path)
	}

	// 3. Build the records, clipping and deduplicating as we go
	records := buildRecords(path, rows, tsIdx, columns, cfg)
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no usable records in %s", schema.ErrEmptyDataset, path)
	}

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.name
	}
	frame, err := schema.NewFrame(names, records)
	if err != nil {
		return nil, fmt.Errorf("assembling frame from %s: %w", path, err)
	}
	return frame, nil
}

// readRows loads the CSV header and all data rows. Rows that fail to parse
// are skipped so one ragged line does not sink the whole file.
func readRows(path string) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header from %s: %w", path, err)
	}

	var rows [][]string
	badRows := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			badRows++
			continue
		}
		rows = append(rows, row)
	}
	if badRows > 0 {
		contract.LogWarn("Malformed CSV rows",
			fmt.Errorf("skipped %d unreadable rows in %s", badRows, path))
	}

	return header, rows, nil
}

// timestampColumn finds the field index of the timestamp column.
func timestampColumn(header []string) (int, error) {
	for i, h := range header {
		if timestampHeaders[schema.NormalizeColumnName(h)] {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: no timestamp column found (expected DATE_TIME or timestamp)",
		schema.ErrSchemaMismatch)
}

// selectValueColumns returns the columns to ingest as sensor channels. A
// column is numeric when every one of its values parses as a float; string
// columns like SOURCE_KEY fall out here with a warning. Columns named in
// the drop list are excluded silently since that exclusion was asked for.
func selectValueColumns(header []string, rows [][]string, tsIdx int, drops []string) []valueColumn {
	var columns []valueColumn
	for i, h := range header {
		if i == tsIdx {
			continue
		}
		name := schema.NormalizeColumnName(h)
		if name == "" || contract.ShouldDropColumn(h, drops) {
			continue
		}

		if row, value, ok := firstNonNumeric(rows, i); !ok {
			contract.LogWarn("Skipping non-numeric column",
				fmt.Errorf("%s has value %q at row %d", name, value, row))
			continue
		}
		columns = append(columns, valueColumn{name: name, idx: i})
	}
	return columns
}

// firstNonNumeric scans one CSV field across all rows. It reports ok when
// every value parses, otherwise the first offending row and value. Empty
// cells are missing readings, not evidence the column holds text.
func firstNonNumeric(rows [][]string, idx int) (int, string, bool) {
	for r, row := range rows {
		if row[idx] == "" {
			continue
		}
		if _, err := strconv.ParseFloat(row[idx], 64); err != nil {
			return r + 2, row[idx], false // +2: 1-based with header row
		}
	}
	return 0, "", true
}

// buildRecords converts raw rows to sensor records. Rows with unparseable
// timestamps or incomplete readings are dropped and counted; rows outside
// the configured start/end range are clipped without comment.
func buildRecords(path string, rows [][]string, tsIdx int, columns []valueColumn, cfg *contract.Config) []schema.SensorRecord {
	records := make([]schema.SensorRecord, 0, len(rows))
	seen := make(map[int64]bool, len(rows))
	badTime, missing, duplicates := 0, 0, 0

	for _, row := range rows {
		ts, err := parseTimestamp(row[tsIdx])
		if err != nil {
			badTime++
			continue
		}
		if !cfg.StartTime.IsZero() && ts.Before(cfg.StartTime) {
			continue
		}
		if !cfg.EndTime.IsZero() && ts.After(cfg.EndTime) {
			continue
		}
		if seen[ts.UnixNano()] {
			duplicates++
			continue
		}

		channels := make(map[string]float64, len(columns))
		complete := true
		for _, c := range columns {
			v, err := strconv.ParseFloat(row[c.idx], 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				complete = false
				break
			}
			channels[c.name] = v
		}
		if !complete {
			missing++
			continue
		}

		seen[ts.UnixNano()] = true
		records = append(records, schema.SensorRecord{Timestamp: ts, Channels: channels})
	}

	if badTime > 0 {
		contract.LogWarn("Unparseable timestamps",
			fmt.Errorf("dropped %d rows in %s", badTime, path))
	}
	if missing > 0 {
		contract.LogWarn("Missing sensor readings",
			fmt.Errorf("dropped %d rows with empty, NaN or infinite values in %s", missing, path))
	}
	if duplicates > 0 {
		contract.LogWarn("Duplicate timestamps",
			fmt.Errorf("kept the first of %d repeated intervals in %s", duplicates, path))
	}

	return records
}

// parseTimestamp tries the accepted layouts in order.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q matches none of the accepted layouts", s)
}

// ReadPredictions reads externally produced predictions, one value per row,
// aligned with the current dataset's feature rows. A single-column file may
// omit the header; files with several columns must name one "prediction".
func ReadPredictions(path string) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open predictions: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	first, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: no predictions in %s", schema.ErrEmptyDataset, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read predictions from %s: %w", path, err)
	}

	idx := 0
	var preds []float64
	if v, err := strconv.ParseFloat(first[0], 64); err == nil {
		// Headerless single-column file; the first row is already data.
		if len(first) > 1 {
			return nil, fmt.Errorf("predictions file %s has %d columns but no header naming one \"prediction\"", path, len(first))
		}
		preds = append(preds, v)
	} else {
		idx, err = predictionColumn(first)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("predictions row %d in %s: %w", row, path, err)
		}
		v, err := strconv.ParseFloat(record[idx], 64)
		if err != nil {
			return nil, fmt.Errorf("predictions row %d in %s: %q is not numeric", row, path, record[idx])
		}
		preds = append(preds, v)
	}

	if len(preds) == 0 {
		return nil, fmt.Errorf("%w: no predictions in %s", schema.ErrEmptyDataset, path)
	}
	return preds, nil
}

// predictionColumn picks the prediction field from a header row. A single
// column is taken as-is whatever its name; otherwise the column normalized
// to "prediction" wins.
func predictionColumn(header []string) (int, error) {
	if len(header) == 1 {
		return 0, nil
	}
	for i, h := range header {
		if schema.NormalizeColumnName(h) == "prediction" {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no \"prediction\" column among %d columns", len(header))
}
