package ics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	appLog "vacplan/internal/log"
	"vacplan/internal/model"
)

// maxOccurrencesPerRule caps a single rule's expansion within one year.
// A daily rule yields at most 366 dates.
const maxOccurrencesPerRule = 400

// ExpandRule returns the dates produced by an RRULE within year, skipping
// exdates. dtstart anchors the rule; when zero, Jan 1 of year is used.
//
// rule is the RRULE value only, e.g. "FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=24".
func ExpandRule(rule string, dtstart model.Date, year int, exdates []model.Date) ([]model.Date, error) {
	if rule == "" {
		return nil, errors.New("ics: empty RRULE")
	}

	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("ics: parse RRULE %q: %w", rule, err)
	}
	if dtstart.IsZero() {
		dtstart = model.NewDate(year, time.January, 1)
	}
	r.DTStart(dtstart.Time())

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exdates {
		set.ExDate(ex.Time())
	}

	from := model.NewDate(year, time.January, 1).Time()
	to := model.NewDate(year, time.December, 31).Time()
	times := set.Between(from, to, true)

	if len(times) > maxOccurrencesPerRule {
		appLog.Warn("ics: rule expansion truncated", "rule", rule, "count", len(times), "cap", maxOccurrencesPerRule)
		times = times[:maxOccurrencesPerRule]
	}

	out := make([]model.Date, 0, len(times))
	for _, t := range times {
		out = append(out, model.FromTime(t))
	}
	return out, nil
}

// Rule is a named recurring day off, e.g. a yearly company shutdown.
type Rule struct {
	Name    string
	RRule   string
	Regions []string
}

// RuleSource expands configured rules into holidays of the requested year.
type RuleSource struct {
	Rules []Rule
}

func (s RuleSource) Holidays(_ context.Context, year int) (*model.HolidaySet, error) {
	set := model.NewHolidaySet(nil)
	for _, rule := range s.Rules {
		dates, err := ExpandRule(rule.RRule, model.Date{}, year, nil)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		for _, d := range dates {
			set.Add(model.Holiday{Date: d, Name: rule.Name, Regions: rule.Regions})
		}
		appLog.Debug("rule expanded", "name", rule.Name, "year", year, "count", len(dates))
	}
	return set, nil
}
