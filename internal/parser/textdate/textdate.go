// Package textdate finds calendar dates written the way UK listings write them.
package textdate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// "Sunday 16th June 2025", "16 Jun 2025"
	dayMonthYear = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+([a-z]{3,9})\.?,?\s+(\d{4})\b`)
	// "June 16th, 2025", "Sunday, June 16 2025"
	monthDayYear = regexp.MustCompile(`(?i)\b([a-z]{3,9})\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	// "2025-06-16"
	isoDate = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	// "Monday 16th June", "16 Jun"
	dayMonth = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+([a-z]{3,9})\b`)
	// "June 16th", "Monday, June 16"
	monthDay = regexp.MustCompile(`(?i)\b([a-z]{3,9})\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
)

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// Find returns the first recognizable date in text as YYYY-MM-DD. ISO dates
// win over day-month-year, which wins over month-day-year.
func Find(text string) (string, bool) {
	d, _, ok := FindIndex(text)
	return d, ok
}

// FindIndex is Find plus the byte offset where the match starts.
func FindIndex(text string) (string, int, bool) {
	for _, m := range isoDate.FindAllStringSubmatchIndex(text, -1) {
		if d, ok := buildDate(text[m[2]:m[3]], monthFromNumber(text[m[4]:m[5]]), text[m[6]:m[7]]); ok {
			return d, m[0], true
		}
	}
	for _, m := range dayMonthYear.FindAllStringSubmatchIndex(text, -1) {
		if month, ok := months[strings.ToLower(text[m[4]:m[5]])]; ok {
			if d, ok := buildDate(text[m[6]:m[7]], month, text[m[2]:m[3]]); ok {
				return d, m[0], true
			}
		}
	}
	for _, m := range monthDayYear.FindAllStringSubmatchIndex(text, -1) {
		if month, ok := months[strings.ToLower(text[m[2]:m[3]])]; ok {
			if d, ok := buildDate(text[m[6]:m[7]], month, text[m[4]:m[5]]); ok {
				return d, m[0], true
			}
		}
	}
	return "", -1, false
}

// FindNear is Find that also accepts dates written without a year ("Monday
// 16th June"). The year is the one that puts the date closest to ref, so a
// "2nd January" heading seen in late December resolves to the next year.
func FindNear(text string, ref time.Time) (string, bool) {
	if d, ok := Find(text); ok {
		return d, true
	}
	for _, m := range dayMonth.FindAllStringSubmatchIndex(text, -1) {
		if month, ok := months[strings.ToLower(text[m[4]:m[5]])]; ok {
			if d, ok := nearestDate(month, text[m[2]:m[3]], ref); ok {
				return d, true
			}
		}
	}
	for _, m := range monthDay.FindAllStringSubmatchIndex(text, -1) {
		if month, ok := months[strings.ToLower(text[m[2]:m[3]])]; ok {
			if d, ok := nearestDate(month, text[m[4]:m[5]], ref); ok {
				return d, true
			}
		}
	}
	return "", false
}

func nearestDate(month time.Month, dayText string, ref time.Time) (string, bool) {
	best := ""
	var bestGap time.Duration
	for _, year := range []int{ref.Year() - 1, ref.Year(), ref.Year() + 1} {
		d, ok := buildDate(strconv.Itoa(year), month, dayText)
		if !ok {
			continue
		}
		at, _ := time.Parse("2006-01-02", d)
		gap := at.Sub(ref)
		if gap < 0 {
			gap = -gap
		}
		if best == "" || gap < bestGap {
			best, bestGap = d, gap
		}
	}
	return best, best != ""
}

func monthFromNumber(v string) time.Month {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 12 {
		return 0
	}
	return time.Month(n)
}

func buildDate(yearText string, month time.Month, dayText string) (string, bool) {
	year, err := strconv.Atoi(yearText)
	if err != nil || month == 0 {
		return "", false
	}
	day, err := strconv.Atoi(dayText)
	if err != nil || day < 1 || day > 31 {
		return "", false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// reject 31 June and friends rather than letting time.Date roll over
	if d.Month() != month || d.Day() != day {
		return "", false
	}
	return d.Format("2006-01-02"), true
}
