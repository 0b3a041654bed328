package planner

import (
	"fmt"
	"strings"

	"vacplan/internal/model"
)

// WeekNumbering selects how a date is turned into a week number.
type WeekNumbering int

const (
	// WeekNumberingContinuous counts ISO weeks relative to the plan year:
	// days that ISO assigns to the following year keep counting past the
	// plan year's last week, days assigned to the previous year count down
	// from 0. 2024-12-31 is week 53 of a 2024 plan, 2021-01-01 is week 0 of
	// a 2021 plan.
	WeekNumberingContinuous WeekNumbering = iota
	// WeekNumberingISO is the raw ISO week-of-year (1-53) with no
	// rollover correction.
	WeekNumberingISO
)

func (n WeekNumbering) String() string {
	switch n {
	case WeekNumberingISO:
		return "iso"
	default:
		return "continuous"
	}
}

// ParseWeekNumbering parses "continuous" (default when empty) or "iso".
func ParseWeekNumbering(s string) (WeekNumbering, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "continuous":
		return WeekNumberingContinuous, nil
	case "iso":
		return WeekNumberingISO, nil
	default:
		return WeekNumberingContinuous, fmt.Errorf("unknown week numbering %q", s)
	}
}

// WeekOf returns the week number of d for a plan in the given year.
func WeekOf(d model.Date, year int, n WeekNumbering) int {
	isoYear, week := d.ISOWeek()
	if n == WeekNumberingISO {
		return week
	}
	for y := year; y < isoYear; y++ {
		week += model.WeeksInYear(y)
	}
	for y := isoYear; y < year; y++ {
		week -= model.WeeksInYear(y)
	}
	return week
}

// WeeksBetween returns week(b) - week(a). The result is signed and is not
// clamped; it may be zero or negative.
func WeeksBetween(a, b model.Date, year int, n WeekNumbering) int {
	return WeekOf(b, year, n) - WeekOf(a, year, n)
}

// MondayOf returns the Monday of the given plan-year week.
func MondayOf(year, week int) model.Date {
	return model.MondayOfISOWeek(year, week)
}
