package utils

import (
	"fmt"
	"strings"
	"time"
)

// MonthLayout is the year-month key used in archive file names.
const MonthLayout = "2006-01"

// DayFirstLayout is the date layout of archived calendar rows.
const DayFirstLayout = "02/01/2006"

// MonthKey returns the "YYYY-MM" key of t.
func MonthKey(t time.Time) string {
	return t.Format(MonthLayout)
}

// MonthBounds returns the first and last day of the month that contains t.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)
	return first, last
}

// MonthsAround returns distinct month starts visited by stepping 30 days at a
// time from ahead steps in the future to back steps in the past, newest first.
func MonthsAround(now time.Time, ahead, back int) []time.Time {
	seen := make(map[string]bool)
	var months []time.Time
	for offset := -ahead; offset <= back; offset++ {
		t := now.AddDate(0, 0, -30*offset)
		first, _ := MonthBounds(t)
		key := MonthKey(first)
		if seen[key] {
			continue
		}
		seen[key] = true
		months = append(months, first)
	}
	return months
}

// ParseDayFirst parses a calendar date written day first ("12/03/2024").
// ISO dates ("2024-03-12") are accepted too.
func ParseDayFirst(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DayFirstLayout, "2/1/2006", "2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// TruncateDay drops the clock part of t, keeping its calendar date in UTC.
func TruncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
