package engine

import "time"

// =============================================================================
// DAY - Calendar-date value type (the engine works at day granularity only)
// =============================================================================

// Day is a calendar date with no time-of-day component. All Days are
// normalized to midnight UTC at construction so the type is safe to use
// as a map key and comparable with ==.
type Day struct {
	Time time.Time
}

// Constructors
func NewDay(year int, month time.Month, day int) Day {
	return Day{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates an arbitrary timestamp to its calendar date.
func DayOf(t time.Time) Day {
	return NewDay(t.Year(), t.Month(), t.Day())
}

// Comparison
func (d Day) Before(other Day) bool        { return d.Time.Before(other.Time) }
func (d Day) After(other Day) bool         { return d.Time.After(other.Time) }
func (d Day) Equal(other Day) bool         { return d.Time.Equal(other.Time) }
func (d Day) BeforeOrEqual(other Day) bool { return !d.After(other) }
func (d Day) AfterOrEqual(other Day) bool  { return !d.Before(other) }

// Arithmetic
func (d Day) AddDays(n int) Day { return DayOf(d.Time.AddDate(0, 0, n)) }

func (d Day) IsZero() bool { return d.Time.IsZero() }

func (d Day) String() string { return d.Time.Format("2006-01-02") }

// FormatDay renders an optional date, using the empty string for absent.
// Effective entry/exit dates are *Day throughout the engine: nil means
// "no event of this kind is known", and callers must check for nil before
// comparing - a nil date never participates in Before/After.
func FormatDay(d *Day) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// =============================================================================
// WINDOW - The inclusive reporting period under evaluation
// =============================================================================

// Window is the inclusive [Start, End] reporting period. Every grid fact,
// interval clip, and lifecycle decision is made relative to one Window.
type Window struct {
	Start Day
	End   Day
}

// Contains returns true if the day falls within [Start, End].
func (w Window) Contains(d Day) bool {
	return d.AfterOrEqual(w.Start) && d.BeforeOrEqual(w.End)
}

// Days returns every day in the window in ascending order.
func (w Window) Days() []Day {
	var days []Day
	for d := w.Start; d.BeforeOrEqual(w.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Len returns the number of days in the window.
func (w Window) Len() int {
	return int(w.End.Time.Sub(w.Start.Time).Hours()/24) + 1
}

func (w Window) String() string {
	return "[" + w.Start.String() + ", " + w.End.String() + "]"
}
