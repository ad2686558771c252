package contract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// spanRe captures "N <unit>" with an optional "ago" suffix, so one
// expression serves both --start/--end offsets and trend intervals.
var spanRe = regexp.MustCompile(`^(\d+)\s+(year|month|week|day|hour|minute)s?(\s+ago)?$`)

// flatUnits are the units with a fixed length. Years and months are
// calendar units, handled per call site.
var flatUnits = map[string]time.Duration{
	"week":   7 * 24 * time.Hour,
	"day":    24 * time.Hour,
	"hour":   time.Hour,
	"minute": time.Minute,
}

// ParseRelativeTime converts "2 days ago" style offsets into a time.Time
// before now. Years and months move by calendar date, the rest by fixed
// durations.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	value, unit, ago, err := parseSpan(s)
	if err != nil {
		return time.Time{}, err
	}
	if !ago {
		return time.Time{}, fmt.Errorf("relative time needs an \"ago\" suffix: %s", s)
	}

	switch unit {
	case "year":
		return now.AddDate(-value, 0, 0), nil
	case "month":
		return now.AddDate(0, -value, 0), nil
	default:
		return now.Add(-time.Duration(value) * flatUnits[unit]), nil
	}
}

// ParseLookbackDuration converts "90m", "6 hours" or "2 weeks" into a
// duration. Go's own syntax is tried first; the worded form approximates
// months as 30 days and years as 365.
func ParseLookbackDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
		if d == 0 {
			return 0, errors.New("the span must be longer than zero")
		}
		return d, nil
	}

	value, unit, ago, err := parseSpan(s)
	if err != nil {
		return 0, err
	}
	if ago {
		return 0, fmt.Errorf("lookback durations do not take an \"ago\" suffix: %s", s)
	}

	var d time.Duration
	switch unit {
	case "year":
		d = time.Duration(value) * 365 * 24 * time.Hour
	case "month":
		d = time.Duration(value) * 30 * 24 * time.Hour
	default:
		d = time.Duration(value) * flatUnits[unit]
	}
	if d == 0 {
		return 0, errors.New("the span must be longer than zero")
	}
	return d, nil
}

// parseSpan splits "N <unit>[ ago]" into its parts, case-insensitively.
func parseSpan(s string) (int, string, bool, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	matches := spanRe.FindStringSubmatch(s)
	if matches == nil {
		return 0, "", false, fmt.Errorf("invalid time span: %q", s)
	}
	value, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, "", false, fmt.Errorf("invalid time span: %q", s)
	}
	return value, matches[2], matches[3] != "", nil
}
