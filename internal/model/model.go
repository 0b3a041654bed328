package model

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used on the wire and in config.
const DateLayout = "2006-01-02"

// Date is a calendar day without time or zone. The zero value is not a valid
// date; use NewDate, ParseDate or FromTime.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date, normalizing out-of-range months and days the same way
// time.Date does (e.g. Feb 30 -> Mar 2).
func NewDate(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime returns the calendar day of t in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return FromTime(t), nil
}

// Time returns the date at midnight UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// In returns the date at midnight in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }
func (d Date) Equal(o Date) bool  { return d.Compare(o) == 0 }

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return FromTime(d.Time().AddDate(0, 0, n))
}

// ISOWeek returns the ISO 8601 year and week number in which d occurs.
func (d Date) ISOWeek() (year, week int) {
	return d.Time().ISOWeek()
}

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// WeeksInYear returns the number of ISO weeks (52 or 53) in the given ISO year.
func WeeksInYear(year int) int {
	// Dec 28 is always in the last ISO week of its year.
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

// MondayOfISOWeek returns the Monday of ISO week `week` of ISO year `year`.
// Weeks past the end of the year (or below 1) continue into the adjacent
// year, so MondayOfISOWeek(2024, 53) is the Monday of 2025-W01.
func MondayOfISOWeek(year, week int) Date {
	// Jan 4 is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7 // days since Monday
	week1 := jan4.AddDate(0, 0, -offset)
	return FromTime(week1.AddDate(0, 0, (week-1)*7))
}

// SortDates returns a sorted copy of dates.
func SortDates(dates []Date) []Date {
	out := make([]Date, len(dates))
	copy(out, dates)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// UniqueSorted returns a sorted copy of dates with duplicates removed.
func UniqueSorted(dates []Date) []Date {
	sorted := SortDates(dates)
	out := sorted[:0:0]
	for i, d := range sorted {
		if i > 0 && d.Equal(sorted[i-1]) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
