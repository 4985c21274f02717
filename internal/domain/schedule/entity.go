package schedule

import (
	"fmt"
	"time"
)

// WeeklySlot is a recurring entry of a staff member's weekly schedule
type WeeklySlot struct {
	ID          string
	StaffID     string
	Kind        string // 'class', 'tutoring', 'adventure', 'elective'
	Title       string
	DayOfWeek   int // 0=Sunday, ..., 6=Saturday
	StartMinute int // minutes since midnight
	EndMinute   int
	ValidFrom   *time.Time
	ValidUntil  *time.Time
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session is a one-off dated activity: a confirmed booking or an event
type Session struct {
	ID          string
	StaffID     string
	Kind        string // 'booking', 'event'
	Title       string
	Date        time.Time
	StartMinute int
	EndMinute   int
}

// DurationHours returns the slot length in hours; zero for inverted ranges
func (s WeeklySlot) DurationHours() float64 {
	return minutesToHours(s.StartMinute, s.EndMinute)
}

// DurationHours returns the session length in hours; zero for inverted ranges
func (s Session) DurationHours() float64 {
	return minutesToHours(s.StartMinute, s.EndMinute)
}

// ActiveOn reports whether the slot applies on the given date
func (s WeeklySlot) ActiveOn(date time.Time) bool {
	if !s.IsActive {
		return false
	}
	if int(date.Weekday()) != s.DayOfWeek {
		return false
	}
	if s.ValidFrom != nil && date.Before(truncateDay(*s.ValidFrom)) {
		return false
	}
	if s.ValidUntil != nil && date.After(truncateDay(*s.ValidUntil)) {
		return false
	}
	return true
}

// FormatMinute renders minutes since midnight as HH:MM
func FormatMinute(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

func minutesToHours(start, end int) float64 {
	if end <= start {
		return 0
	}
	return float64(end-start) / 60
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
