// Package dateutil provides date parsing and week normalization utilities.
package dateutil

import (
	"errors"
	"strings"
	"time"
)

// Validation errors.
var (
	ErrInvalidDateFormat = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidWeek       = errors.New("week must be YYYY-MM-DD, this, next, last or a signed offset like +2")
)

// DateLayout is the canonical date format used for storage and display.
const DateLayout = "2006-01-02"

// ParseDate parses a date string in YYYY-MM-DD format.
// If the string is empty, returns today's date.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return TruncateToDay(time.Now()), nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (monday, sunday time.Time) {
	t = TruncateToDay(t)
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday becomes day 7 in ISO week
	}
	monday = t.AddDate(0, 0, -(weekday - 1))
	sunday = monday.AddDate(0, 0, 6)
	return monday, sunday
}

// WeekStart returns the Monday of t's week as a UTC midnight date.
// The calendar date of t is kept; only its location is dropped, so the
// result is the same for every instant that shares t's local date.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	monday, _ := WeekRange(day)
	return monday
}

// TruncateToDay returns t with time set to midnight.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseWeek resolves a week reference to the Monday of that week.
//
//   - Empty string, "this" or "this-week": the week containing relativeTo
//   - "next", "next-week": the following week
//   - "last", "prev", "last-week": the previous week
//   - "+N" / "-N": N weeks after or before the current week
//   - "YYYY-MM-DD": the week containing that date
//
// All inputs are case-insensitive.
func ParseWeek(s string, relativeTo time.Time) (time.Time, error) {
	current := WeekStart(relativeTo)
	input := strings.ToLower(strings.TrimSpace(s))

	switch input {
	case "", "this", "this-week", "current":
		return current, nil
	case "next", "next-week":
		return current.AddDate(0, 0, 7), nil
	case "last", "prev", "previous", "last-week":
		return current.AddDate(0, 0, -7), nil
	}

	if input[0] == '+' || input[0] == '-' {
		n, ok := parseOffset(input[1:])
		if !ok {
			return time.Time{}, ErrInvalidWeek
		}
		if input[0] == '-' {
			n = -n
		}
		return current.AddDate(0, 0, 7*n), nil
	}

	date, err := time.Parse(DateLayout, input)
	if err != nil {
		return time.Time{}, ErrInvalidWeek
	}
	return WeekStart(date), nil
}

func parseOffset(s string) (int, bool) {
	if s == "" || len(s) > 3 {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
