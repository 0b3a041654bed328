// Package report renders planning results for the console and for files.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"vacplan/internal/model"
	"vacplan/internal/planner"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts text (default), json or csv.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json or csv)", s)
	}
}

// Kind classifies a day off.
type Kind string

const (
	KindHoliday  Kind = "holiday"
	KindFixed    Kind = "fixed"
	KindVacation Kind = "vacation"
	KindYearEnd  Kind = "year-end"
)

// Day is one entry of the merged days-off list.
type Day struct {
	Date    model.Date `json:"date"`
	Weekday string     `json:"weekday"`
	Kind    Kind       `json:"kind"`
	Name    string     `json:"name,omitempty"`
	// WeeksToNext is the week delta to the following day off; absent on the
	// last entry.
	WeeksToNext *int `json:"weeks_to_next,omitempty"`
}

// Document is the JSON shape of a plan report.
type Document struct {
	Region       string       `json:"region"`
	StartDate    model.Date   `json:"start_date"`
	Plan         planner.Plan `json:"plan"`
	VacationDays []model.Date `json:"vacation_days"`
	DaysOff      []Day        `json:"days_off"`
	Deltas       []int        `json:"deltas"`
}

// Days merges res into one annotated list. holidays supplies names and may
// be nil.
func Days(res planner.Result, holidays *model.HolidaySet) []Day {
	vacation := toSet(res.VacationDays)
	fixed := toSet(res.FixedDays)
	yearEnd := planner.YearEndBoundary(res.StartDate)

	out := make([]Day, len(res.DaysOff))
	for i, d := range res.DaysOff {
		day := Day{Date: d, Weekday: d.Weekday().String()}
		switch {
		case vacation[d]:
			day.Kind = KindVacation
		case fixed[d]:
			day.Kind = KindFixed
		case d.Equal(yearEnd):
			day.Kind = KindYearEnd
		default:
			day.Kind = KindHoliday
			day.Name = holidays.Name(res.Region, d)
		}
		if i < len(res.Deltas) {
			delta := res.Deltas[i]
			day.WeeksToNext = &delta
		}
		out[i] = day
	}
	return out
}

// Write renders res in format f.
func Write(w io.Writer, res planner.Result, holidays *model.HolidaySet, f Format) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, res, holidays)
	case FormatCSV:
		return WriteCSV(w, res, holidays)
	default:
		return WriteText(w, res, holidays)
	}
}

// NewDocument builds the JSON view of res.
func NewDocument(res planner.Result, holidays *model.HolidaySet) Document {
	return Document{
		Region:       res.Region,
		StartDate:    res.StartDate,
		Plan:         res.Plan,
		VacationDays: res.VacationDays,
		DaysOff:      Days(res, holidays),
		Deltas:       res.Deltas,
	}
}

// WriteJSON writes res as an indented Document.
func WriteJSON(w io.Writer, res planner.Result, holidays *model.HolidaySet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(res, holidays))
}

// WriteCSV writes one row per day off.
func WriteCSV(w io.Writer, res planner.Result, holidays *model.HolidaySet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "weekday", "kind", "name", "weeks_to_next"}); err != nil {
		return err
	}
	for _, day := range Days(res, holidays) {
		next := ""
		if day.WeeksToNext != nil {
			next = strconv.Itoa(*day.WeeksToNext)
		}
		if err := cw.Write([]string{day.Date.String(), day.Weekday, string(day.Kind), day.Name, next}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText writes a human readable summary followed by the merged list.
func WriteText(w io.Writer, res planner.Result, holidays *model.HolidaySet) error {
	p := res.Plan
	fmt.Fprintf(w, "Region:          %s\n", res.Region)
	fmt.Fprintf(w, "Start date:      %s\n", res.StartDate)
	fmt.Fprintf(w, "Vacation days:   %d to place", p.Budget)
	if n := len(res.FixedDays); n > 0 {
		fmt.Fprintf(w, " (+%d fixed)", n)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Remaining weeks: %d (effective %d)\n", p.RemainingWeeks, p.EffectiveWeeks)
	fmt.Fprintf(w, "Optimal spacing: %.2f weeks\n\n", p.Optimal)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDAY\tKIND\tNAME\tWEEKS TO NEXT")
	for _, day := range Days(res, holidays) {
		next := "-"
		if day.WeeksToNext != nil {
			next = strconv.Itoa(*day.WeeksToNext)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", day.Date, day.Weekday[:3], day.Kind, day.Name, next)
	}
	return tw.Flush()
}

// WriteHolidays lists the holidays of region, or of every region when
// region is empty.
func WriteHolidays(w io.Writer, set *model.HolidaySet, region string, f Format) error {
	regions := set.Regions()
	if region != "" {
		if _, ok := set.Region(region); !ok {
			return fmt.Errorf("%w %q (available: %s)", planner.ErrUnknownRegion, region, strings.Join(regions, ", "))
		}
		regions = []string{region}
	}

	type entry struct {
		Region string     `json:"region"`
		Date   model.Date `json:"date"`
		Name   string     `json:"name"`
	}
	var entries []entry
	for _, r := range regions {
		dates, _ := set.Region(r)
		for _, d := range dates {
			entries = append(entries, entry{Region: r, Date: d, Name: set.Name(r, d)})
		}
	}

	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if entries == nil {
			entries = []entry{}
		}
		return enc.Encode(entries)
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"region", "date", "name"}); err != nil {
			return err
		}
		for _, e := range entries {
			if err := cw.Write([]string{e.Region, e.Date.String(), e.Name}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "REGION\tDATE\tNAME")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Region, e.Date, e.Name)
		}
		return tw.Flush()
	}
}

func toSet(dates []model.Date) map[model.Date]bool {
	out := make(map[model.Date]bool, len(dates))
	for _, d := range dates {
		out[d] = true
	}
	return out
}
