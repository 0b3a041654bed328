package ics

import (
	"io"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"

	"vacplan/internal/model"
	"vacplan/internal/planner"
)

const productID = "vacplan"

// ExportOptions controls plan export.
type ExportOptions struct {
	// Name becomes X-WR-CALNAME.
	Name string
	// Now stamps DTSTAMP; time.Now() when zero.
	Now time.Time
	// Holidays, when set, adds the plan's real boundary dates as
	// transparent events named after the holiday.
	Holidays *model.HolidaySet
}

// Export builds a calendar with one all-day event per recommended
// vacation day.
func Export(res planner.Result, opts ExportOptions) *ical.Calendar {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Name == "" {
		opts.Name = "Vacation plan " + res.Region
	}

	cal := ical.NewCalendarFor(productID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(opts.Name)

	for i, d := range res.VacationDays {
		ev := addDay(cal, "vacation", i, d, opts.Now)
		ev.SetSummary("Vacation day")
		ev.AddCategory("VACATION")
	}

	if opts.Holidays != nil {
		yearEnd := planner.YearEndBoundary(res.StartDate)
		for i, d := range res.Boundaries {
			if d.Equal(yearEnd) {
				continue
			}
			name := opts.Holidays.Name(res.Region, d)
			if name == "" {
				name = "Day off"
			}
			ev := addDay(cal, "holiday", i, d, opts.Now)
			ev.SetSummary(name)
			ev.AddCategory("HOLIDAY")
			ev.SetTimeTransparency(ical.TransparencyTransparent)
		}
	}
	return cal
}

// WritePlan serializes Export(res, opts) to w.
func WritePlan(w io.Writer, res planner.Result, opts ExportOptions) error {
	return Export(res, opts).SerializeTo(w)
}

func addDay(cal *ical.Calendar, kind string, idx int, d model.Date, now time.Time) *ical.VEvent {
	uid := kind + "-" + d.Time().Format("20060102") + "-" + strconv.Itoa(idx) + "@" + productID
	ev := cal.AddEvent(uid)
	ev.SetDtStampTime(now)
	ev.SetAllDayStartAt(d.Time())
	ev.SetAllDayEndAt(d.AddDays(1).Time())
	return ev
}
