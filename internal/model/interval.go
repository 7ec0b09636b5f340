package model

import (
	"fmt"
	"time"
)

// Interval is the bucket width for telemetry aggregation.
type Interval string

const (
	IntervalHour  Interval = "hour"
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
)

// ParseInterval validates an interval name.
func ParseInterval(s string) (Interval, error) {
	switch Interval(s) {
	case IntervalHour, IntervalDay, IntervalWeek, IntervalMonth:
		return Interval(s), nil
	}
	return "", fmt.Errorf("unknown interval %q (want hour, day, week or month)", s)
}

// Truncate rounds t down to the start of its interval unit. Weeks start
// on Monday, matching SQL date_trunc('week').
func (iv Interval) Truncate(t time.Time) time.Time {
	switch iv {
	case IntervalHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	case IntervalDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case IntervalWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		// Monday = 1 ... Sunday = 0, shift Sunday back six days
		offset := int(day.Weekday()) - 1
		if offset < 0 {
			offset = 6
		}
		return day.AddDate(0, 0, -offset)
	case IntervalMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
	return t
}
