package utils

import (
	"fmt"
	"time"
)

// GenerateDates returns startDate and every step of interval after it up to
// and including endDate.
func GenerateDates(startDate, endDate time.Time, interval *TimeInterval) ([]time.Time, error) {
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("endDate must be after startDate")
	}
	if interval == nil || interval.IsZero() {
		return nil, fmt.Errorf("interval must be positive")
	}

	var dates []time.Time
	for currentDate := startDate; !currentDate.After(endDate); currentDate = interval.AddTo(currentDate) {
		dates = append(dates, currentDate)
	}
	return dates, nil
}

// ParseDate accepts 2006-01-02, 2006/01/02 or RFC3339 and returns UTC.
func ParseDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, ShortDashDateLayout, ShortSlashDateLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
}

// EndOfDay returns the last instant of t's day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
