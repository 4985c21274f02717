package hours

import (
	"time"
)

const monthLayout = "2006-01"

// StartOfMonth truncates t to the first day of its month in UTC
func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// EndOfMonth returns the first instant of the following month
func EndOfMonth(month time.Time) time.Time {
	return StartOfMonth(month).AddDate(0, 1, 0)
}

// ParseMonth parses "YYYY-MM" (or a full "YYYY-MM-DD" date) into the month start.
// An empty string resolves to the month containing now.
func ParseMonth(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return StartOfMonth(now), nil
	}
	if t, err := time.Parse(monthLayout, value); err == nil {
		return StartOfMonth(t), nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return StartOfMonth(t), nil
	}
	return time.Time{}, ErrInvalidMonth
}

// FormatMonth renders a month as "YYYY-MM"
func FormatMonth(month time.Time) string {
	return month.UTC().Format(monthLayout)
}

// CanNavigateNext reports whether a month after selected may be shown.
// Navigation stops at the current calendar month.
func CanNavigateNext(selected, now time.Time) bool {
	return StartOfMonth(selected).Before(StartOfMonth(now))
}
