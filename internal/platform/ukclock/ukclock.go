// Package ukclock converts between UK wall-clock times and UTC instants.
//
// British Summer Time (UTC+1) applies to calendar dates from the last Sunday
// of March up to, but not including, the last Sunday of October. Every other
// date is on GMT. The switch is applied per calendar date rather than at 01:00
// UTC, which is accurate for every kickoff and main card slot the sources list.
package ukclock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// IsBST reports whether the UK calendar date falls inside the summer-time window.
func IsBST(year int, month time.Month, day int) bool {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	start := lastSunday(year, time.March)
	end := lastSunday(year, time.October)
	return !d.Before(start) && d.Before(end)
}

// Offset returns the UK offset from UTC for the given calendar date.
func Offset(year int, month time.Month, day int) time.Duration {
	if IsBST(year, month, day) {
		return time.Hour
	}
	return 0
}

// ToUTC interprets date (YYYY-MM-DD) and clock (HH:MM) as UK local time.
func ToUTC(date, clock string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse uk date %q: %w", date, err)
	}
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}

	local := time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
	return local.Add(-Offset(d.Year(), d.Month(), d.Day())), nil
}

// FromUTC renders an instant as UK local date and HH:MM.
func FromUTC(t time.Time) (date string, clock string) {
	t = t.UTC()
	local := t.Add(Offset(t.Year(), t.Month(), t.Day()))
	return local.Format(DateLayout), local.Format(TimeLayout)
}

// Today returns the UK calendar date for now.
func Today(now time.Time) string {
	date, _ := FromUTC(now)
	return date
}

// ParseClock accepts "H:MM", "HH:MM" or "HH.MM" in 24h form.
func ParseClock(v string) (int, int, error) {
	v = strings.TrimSpace(v)
	sep := strings.IndexAny(v, ":.")
	if sep <= 0 || sep > 2 || len(v)-sep-1 != 2 {
		return 0, 0, fmt.Errorf("invalid clock %q", v)
	}
	hour, err := strconv.Atoi(v[:sep])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in clock %q", v)
	}
	minute, err := strconv.Atoi(v[sep+1:])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in clock %q", v)
	}
	return hour, minute, nil
}

// NormalizeClock returns the HH:MM form of a parseable clock string.
func NormalizeClock(v string) (string, bool) {
	hour, minute, err := ParseClock(v)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

func lastSunday(year int, month time.Month) time.Time {
	// day 0 of the next month is the last day of this one
	d := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
