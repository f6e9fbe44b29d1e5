package main

import (
	"fmt"
	"time"

	"igvision/pkg/analyser"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate reads a date in loc. dateOnly reports whether it had no time
// of day.
func parseDate(s string, loc *time.Location) (t time.Time, dateOnly bool, err error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, layout == "2006-01-02", nil
		}
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
}

// timeRange builds the analysis window. A date-only until covers that
// whole day.
func timeRange(since, until string, loc *time.Location) (analyser.TimeRange, error) {
	var tr analyser.TimeRange
	if since != "" {
		t, _, err := parseDate(since, loc)
		if err != nil {
			return tr, fmt.Errorf("--since: %w", err)
		}
		tr.Since = t
	}
	if until != "" {
		t, dateOnly, err := parseDate(until, loc)
		if err != nil {
			return tr, fmt.Errorf("--until: %w", err)
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		tr.Until = t
	}
	if !tr.Since.IsZero() && !tr.Until.IsZero() && tr.Until.Before(tr.Since) {
		return tr, fmt.Errorf("--until %s is before --since %s", until, since)
	}
	return tr, nil
}
