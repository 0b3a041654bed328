package planner

import (
	"fmt"
	"strings"
	"time"

	appLog "vacplan/internal/log"
	"vacplan/internal/model"
)

// Gap is the stretch between two consecutive boundary dates together with
// the number of vacation days allocated strictly inside it.
type Gap struct {
	From   model.Date `json:"from"`
	To     model.Date `json:"to"`
	Weeks  int        `json:"weeks"`
	Low    bool       `json:"low"`
	Weight float64    `json:"weight"`
	Days   int        `json:"days"`
}

// Plan is the per-gap allocation plus the figures it was derived from.
type Plan struct {
	Year           int     `json:"year"`
	RemainingWeeks int     `json:"remaining_weeks"`
	TotalDaysOff   int     `json:"total_days_off"`
	Optimal        float64 `json:"optimal_interval"`
	EffectiveWeeks int     `json:"effective_weeks"`
	Budget         int     `json:"budget"`
	Gaps           []Gap   `json:"gaps"`
}

// Input describes one planning run.
type Input struct {
	Region    string
	Holidays  *model.HolidaySet
	StartDate model.Date

	// VacationDays is the whole yearly budget, including FixedVacationDays.
	VacationDays      int
	FixedVacationDays []model.Date

	Numbering WeekNumbering

	// AnchorPrevious keeps the last boundary on or before StartDate so the
	// weeks leading up to the first remaining holiday are weighted too.
	AnchorPrevious bool
}

// Result is the outcome of Run.
type Result struct {
	Region       string       `json:"region"`
	StartDate    model.Date   `json:"start_date"`
	Boundaries   []model.Date `json:"boundaries"`
	FixedDays    []model.Date `json:"fixed_days"`
	Plan         Plan         `json:"plan"`
	VacationDays []model.Date `json:"vacation_days"`
	DaysOff      []model.Date `json:"days_off"`
	Deltas       []int        `json:"deltas"`
}

// Run plans the remaining vacation days for in.Region.
func Run(in Input) (Result, error) {
	if in.VacationDays < 0 {
		return Result{}, ErrInvalidBudget
	}

	holidays, ok := in.Holidays.Region(in.Region)
	if !ok {
		return Result{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownRegion, in.Region, strings.Join(in.Holidays.Regions(), ", "))
	}

	fixed := model.UniqueSorted(in.FixedVacationDays)
	budget := in.VacationDays - len(fixed)
	if budget < 0 {
		return Result{}, fmt.Errorf("%w: %d fixed days, budget %d", ErrBudgetExceeded, len(fixed), in.VacationDays)
	}

	all := model.UniqueSorted(append(append([]model.Date{}, holidays...), fixed...))
	boundaries := Boundaries(all, in.StartDate, in.AnchorPrevious)

	plan, err := Allocate(boundaries, in.StartDate, budget, in.Numbering)
	if err != nil {
		return Result{}, err
	}

	year := in.StartDate.Year
	startWeek := WeekOf(in.StartDate, year, in.Numbering)
	vacation := make([]model.Date, 0, budget)
	for _, g := range plan.Gaps {
		// An anchored lead-in gap is weighted from the anchor but only the
		// weeks after the start date can take days.
		from := max(WeekOf(g.From, year, in.Numbering), startWeek)
		weeks, err := PlaceWeeks(g.Days, from, WeekOf(g.To, year, in.Numbering))
		if err != nil {
			return Result{}, fmt.Errorf("place weeks between %s and %s: %w", g.From, g.To, err)
		}
		for _, w := range weeks {
			monday := MondayOf(year, w)
			if !monday.After(in.StartDate) {
				monday = MondayOf(year, startWeek+1)
			}
			vacation = append(vacation, monday)
		}
	}
	vacation = model.SortDates(vacation)

	daysOff := model.SortDates(append(append([]model.Date{}, boundaries...), vacation...))

	appLog.Debug("plan computed",
		"region", in.Region,
		"start", in.StartDate,
		"budget", budget,
		"fixed", len(fixed),
		"boundaries", len(boundaries),
		"remaining_weeks", plan.RemainingWeeks,
		"optimal", fmt.Sprintf("%.3f", plan.Optimal),
		"effective_weeks", plan.EffectiveWeeks,
	)

	return Result{
		Region:       in.Region,
		StartDate:    in.StartDate,
		Boundaries:   boundaries,
		FixedDays:    fixed,
		Plan:         plan,
		VacationDays: vacation,
		DaysOff:      daysOff,
		Deltas:       Deltas(daysOff, year, in.Numbering),
	}, nil
}

// Boundaries returns the sorted dates strictly after start and before the
// next year, followed by the synthetic Jan 1 of the next year. With anchor
// the last date on or before start is kept in front.
func Boundaries(sorted []model.Date, start model.Date, anchor bool) []model.Date {
	yearEnd := YearEndBoundary(start)
	out := make([]model.Date, 0, len(sorted)+2)

	if anchor {
		var prev model.Date
		for _, d := range sorted {
			if d.After(start) {
				break
			}
			prev = d
		}
		if !prev.IsZero() {
			out = append(out, prev)
		}
	}

	for _, d := range sorted {
		if d.After(start) && d.Before(yearEnd) {
			out = append(out, d)
		}
	}
	return append(out, yearEnd)
}

// YearEndBoundary is Jan 1 of the year after start.
func YearEndBoundary(start model.Date) model.Date {
	return model.NewDate(start.Year+1, time.January, 1)
}

// Allocate computes the per-gap day counts for budget vacation days between
// the given boundaries. boundaries must be sorted and end with the year-end
// boundary.
func Allocate(boundaries []model.Date, start model.Date, budget int, n WeekNumbering) (Plan, error) {
	if len(boundaries) == 0 {
		return Plan{}, ErrNoBoundaries
	}
	if budget < 0 {
		return Plan{}, ErrInvalidBudget
	}

	year := start.Year
	remaining := WeeksBetween(start, model.NewDate(year, time.December, 31), year, n)
	total := budget + len(boundaries)

	optimal, err := OptimalInterval(remaining, total)
	if err != nil {
		return Plan{}, err
	}

	intervals := make([]int, len(boundaries)-1)
	for i := range intervals {
		intervals[i] = WeeksBetween(boundaries[i], boundaries[i+1], year, n)
	}

	effective := EffectiveRemainingWeeks(remaining, optimal, intervals)
	if budget > 0 && (remaining <= 0 || effective <= 0) {
		return Plan{}, fmt.Errorf("%w: remaining weeks %d, effective weeks %d", ErrNoCapacity, remaining, effective)
	}

	weights, days, err := DistributeDays(intervals, optimal, effective, budget)
	if err != nil {
		return Plan{}, err
	}

	gaps := make([]Gap, len(intervals))
	for i, iv := range intervals {
		gaps[i] = Gap{
			From:   boundaries[i],
			To:     boundaries[i+1],
			Weeks:  iv,
			Low:    IsLow(iv, optimal),
			Weight: weights[i],
			Days:   days[i],
		}
	}

	return Plan{
		Year:           year,
		RemainingWeeks: remaining,
		TotalDaysOff:   total,
		Optimal:        optimal,
		EffectiveWeeks: effective,
		Budget:         budget,
		Gaps:           gaps,
	}, nil
}

// Deltas returns the week difference between each pair of consecutive dates.
func Deltas(dates []model.Date, year int, n WeekNumbering) []int {
	if len(dates) < 2 {
		return []int{}
	}
	out := make([]int, len(dates)-1)
	for i := range out {
		out[i] = WeeksBetween(dates[i], dates[i+1], year, n)
	}
	return out
}
