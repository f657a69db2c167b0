// Package timewindow computes civil-timezone day, week, and month boundaries
// from a YYYY-MM-DD date key. Every function is pure and total: a malformed
// key falls back to the current day in the civil timezone rather than
// returning an error. No other package constructs date arithmetic directly.
package timewindow

import (
	"fmt"
	"time"
)

const DateKeyLayout = "2006-01-02"

// Period selects the window size for settlement and reporting queries.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

func ParsePeriod(s string) (Period, bool) {
	switch Period(s) {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return Period(s), true
	}
	return "", false
}

// Window is a half-open [Start, End) interval of instants.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Location builds the fixed civil timezone from a UTC offset in minutes.
// The service intentionally runs all day/week/month math in one national
// timezone regardless of the host's runtime zone.
func Location(offsetMinutes int) *time.Location {
	name := fmt.Sprintf("UTC%+03d:%02d", offsetMinutes/60, abs(offsetMinutes%60))
	return time.FixedZone(name, offsetMinutes*60)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// parseDateKey resolves a date key to local midnight. Malformed input maps
// to today in the civil timezone.
func parseDateKey(dateKey string, loc *time.Location) time.Time {
	t, err := time.ParseInLocation(DateKeyLayout, dateKey, loc)
	if err != nil {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	}
	return t
}

// DateKey formats an instant as the civil date it falls on.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateKeyLayout)
}

// Day returns the 24-hour window for the date key's civil day.
func Day(dateKey string, loc *time.Location) Window {
	start := parseDateKey(dateKey, loc)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// Week returns the Monday-aligned week containing the date key. Two keys
// seven days apart always produce distinct adjacent windows; two keys in the
// same civil week produce identical windows.
func Week(dateKey string, loc *time.Location) Window {
	day := parseDateKey(dateKey, loc)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	start := day.AddDate(0, 0, -offset)
	return Window{Start: start, End: start.AddDate(0, 0, 7)}
}

// Month returns the calendar month containing the date key.
func Month(dateKey string, loc *time.Location) Window {
	day := parseDateKey(dateKey, loc)
	start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, loc)
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// ForPeriod dispatches to Day, Week, or Month. Unknown periods fall back to
// the day window, keeping the function total like the rest of the package.
func ForPeriod(period Period, dateKey string, loc *time.Location) Window {
	switch period {
	case PeriodWeek:
		return Week(dateKey, loc)
	case PeriodMonth:
		return Month(dateKey, loc)
	default:
		return Day(dateKey, loc)
	}
}

// IsValidKey reports whether the string is a well-formed date key. Callers
// that must reject bad input (rather than fall back) check this first.
func IsValidKey(dateKey string) bool {
	_, err := time.Parse(DateKeyLayout, dateKey)
	return err == nil
}
