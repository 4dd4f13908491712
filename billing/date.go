package billing

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar-day abstraction (all schedule math is calendar-based)
// =============================================================================

// Date is a calendar date with no time-of-day and no timezone drift.
// Due-date arithmetic is calendar arithmetic: adding a month to January 31
// lands on the last day of February, not on March 2.
type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses an ISO date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays advances the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.normalize().AddDate(0, 0, n)}
}

// AddCalendarMonths advances the date by n calendar months, preserving the
// day-of-month where the target month has one. Days past the end of the
// target month clamp to its last day:
//
//	2024-01-31 + 1 month = 2024-02-29 (leap year)
//	2024-01-31 + 2 months = 2024-03-31
//
// This is NOT time.AddDate semantics, which would normalize Jan 31 + 1 month
// into March. Monthly billing cadences require the clamped behavior.
func (d Date) AddCalendarMonths(n int) Date {
	year := d.Year()
	month := int(d.Month()) + n
	// Normalize month into 1..12, carrying into the year.
	year += (month - 1) / 12
	month = (month-1)%12 + 1
	if month < 1 {
		month += 12
		year--
	}

	day := d.Day()
	if last := DaysInMonth(year, time.Month(month)); day > last {
		day = last
	}
	return NewDate(year, time.Month(month), day)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }

func (d Date) String() string {
	return d.normalize().Format("2006-01-02")
}

// =============================================================================
// CLOCK - Injected time source (the engine never reads wall-clock time)
// =============================================================================

// Clock supplies "now" to the billing service. Classification decisions
// ("this due date already passed") are made against an injected clock so
// they are deterministic and testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock. Used by cmd/server.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant. Used in tests.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }
