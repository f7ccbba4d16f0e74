// Package timeutil holds the date, clock and frequency conversions shared by
// the reminder engine. All functions are pure; callers pass "now" explicitly.
package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the wire format prescriptions use for calendar dates.
	DateLayout = "01/02/2006"
	// ISODateLayout is the format persisted state uses for calendar dates.
	ISODateLayout = "2006-01-02"
	// ClockLayout is the 24-hour wall-clock format.
	ClockLayout = "15:04"
)

const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

var (
	ErrInvalidDate      = errors.New("invalid date, expected MM/DD/YYYY")
	ErrInvalidISODate   = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidClock     = errors.New("invalid clock time, expected HH:MM")
	ErrInvalidFrequency = errors.New("invalid frequency, expected N/day, N/week, daily or weekly")
)

// ParseDate parses an MM/DD/YYYY string into a local-midnight time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseISODate parses a YYYY-MM-DD string into a local-midnight time.
func ParseISODate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(ISODateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidISODate, s)
	}
	return t, nil
}

func FormatISODate(t time.Time) string {
	return t.Format(ISODateLayout)
}

// ParseClock parses an HH:MM string into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func FormatClock(d time.Duration) string {
	d = d % Day
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// DateOf truncates t to local midnight.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// At combines the calendar date of day with a clock offset from midnight.
func At(day time.Time, clock time.Duration) time.Time {
	return DateOf(day).Add(clock)
}

func SameDay(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}

// ParseFrequency interprets a dose-frequency spec into a per-cycle count and
// the cycle length. Accepted forms: "N/day", "N/daily", "N/week", "N/weekly",
// and the bare tokens "daily" (1 per day) and "weekly" (1 per week). Any other
// spec is an error; an unknown unit must never silently become a zero cycle.
func ParseFrequency(spec string) (count int, cycle time.Duration, err error) {
	s := strings.ToLower(strings.TrimSpace(spec))

	if before, after, found := strings.Cut(s, "/"); found {
		n, convErr := strconv.Atoi(strings.TrimSpace(before))
		if convErr != nil || n <= 0 {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidFrequency, spec)
		}
		cycle, err = cycleForUnit(strings.TrimSpace(after))
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidFrequency, spec)
		}
		return n, cycle, nil
	}

	switch s {
	case "daily":
		return 1, Day, nil
	case "weekly":
		return 1, Week, nil
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrInvalidFrequency, spec)
}

func cycleForUnit(unit string) (time.Duration, error) {
	switch unit {
	case "day", "daily":
		return Day, nil
	case "week", "weekly":
		return Week, nil
	}
	return 0, ErrInvalidFrequency
}
