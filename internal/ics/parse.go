package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "vacplan/internal/log"
	"vacplan/internal/model"
)

// ParsedEvent is the part of a VEVENT a holiday feed cares about.
type ParsedEvent struct {
	UID      string
	Summary  string
	Start    model.Date
	RawRRule string
	ExDates  []model.Date
}

// ParseEvents parses an ICS payload. Events whose start cannot be read are
// logged and skipped.
func ParseEvents(body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("ics: empty body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ics: parse calendar: %w", err)
	}

	events := make([]ParsedEvent, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Warn("ics: skipping vevent", "uid", ve.Id(), "err", perr)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent
	out.UID = ve.Id()
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}

	start, err := eventStart(ve)
	if err != nil {
		return out, err
	}
	out.Start = start

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	// EXDATE may repeat and may hold a comma separated list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if d, err := parseICSDate(part); err == nil {
				out.ExDates = append(out.ExDates, d)
			}
		}
	}
	return out, nil
}

// eventStart returns the calendar day of DTSTART. All-day values are read
// as dates; date-times keep their own zone's calendar day.
func eventStart(ve *ical.VEvent) (model.Date, error) {
	prop := ve.GetProperty(ical.ComponentPropertyDtStart)
	if prop == nil {
		return model.Date{}, errors.New("missing DTSTART")
	}

	allDay := !strings.Contains(prop.Value, "T")
	if vs, ok := prop.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		allDay = true
	}

	var (
		t   time.Time
		err error
	)
	if allDay {
		t, err = ve.GetAllDayStartAt()
	} else {
		t, err = ve.GetStartAt()
	}
	if err != nil {
		return model.Date{}, err
	}
	return model.FromTime(t), nil
}

// parseICSDate reads the date part of a DATE or DATE-TIME value.
func parseICSDate(v string) (model.Date, error) {
	v = strings.TrimSpace(v)
	if len(v) < 8 {
		return model.Date{}, fmt.Errorf("ics: short date value %q", v)
	}
	t, err := time.Parse("20060102", v[:8])
	if err != nil {
		return model.Date{}, err
	}
	return model.FromTime(t), nil
}

// HolidaysFromEvents turns parsed events into holidays of year, expanding
// recurring events. Every holiday is assigned to region.
func HolidaysFromEvents(events []ParsedEvent, region string, year int) []model.Holiday {
	out := make([]model.Holiday, 0, len(events))
	for _, ev := range events {
		if ev.RawRRule == "" {
			if ev.Start.Year == year {
				out = append(out, model.Holiday{Date: ev.Start, Name: ev.Summary, Regions: []string{region}})
			}
			continue
		}

		dates, err := ExpandRule(ev.RawRRule, ev.Start, year, ev.ExDates)
		if err != nil {
			appLog.Warn("ics: skipping recurring event", "uid", ev.UID, "err", err)
			continue
		}
		for _, d := range dates {
			out = append(out, model.Holiday{Date: d, Name: ev.Summary, Regions: []string{region}})
		}
	}
	return out
}
