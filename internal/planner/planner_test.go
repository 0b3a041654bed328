package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacplan/internal/model"
)

func d(year int, month time.Month, day int) model.Date {
	return model.NewDate(year, month, day)
}

// bc2021 is the British Columbia 2021 holiday list used throughout, in
// deliberately unsorted order.
func bc2021() *model.HolidaySet {
	dates := []model.Date{
		d(2021, time.July, 1),
		d(2021, time.January, 1),
		d(2021, time.April, 2),
		d(2021, time.May, 24),
		d(2021, time.December, 27),
		d(2021, time.August, 2),
		d(2021, time.September, 6),
		d(2021, time.October, 11),
		d(2021, time.November, 11),
	}
	holidays := make([]model.Holiday, 0, len(dates))
	for _, date := range dates {
		holidays = append(holidays, model.Holiday{Date: date, Regions: []string{"BC"}})
	}
	return model.NewHolidaySet(holidays)
}

func TestRunEndToEnd(t *testing.T) {
	res, err := Run(Input{
		Region:       "BC",
		Holidays:     bc2021(),
		StartDate:    d(2021, time.February, 14),
		VacationDays: 14,
	})
	require.NoError(t, err)

	assert.Equal(t, []model.Date{
		d(2021, time.April, 2),
		d(2021, time.May, 24),
		d(2021, time.July, 1),
		d(2021, time.August, 2),
		d(2021, time.September, 6),
		d(2021, time.October, 11),
		d(2021, time.November, 11),
		d(2021, time.December, 27),
		d(2022, time.January, 1),
	}, res.Boundaries)

	plan := res.Plan
	assert.Equal(t, 46, plan.RemainingWeeks)
	assert.Equal(t, 23, plan.TotalDaysOff)
	assert.InDelta(t, 2.0, plan.Optimal, 1e-9)
	assert.Equal(t, 46, plan.EffectiveWeeks)

	days := make([]int, 0, len(plan.Gaps))
	for _, g := range plan.Gaps {
		days = append(days, g.Days)
	}
	assert.Equal(t, []int{3, 2, 2, 2, 2, 1, 2, 0}, days)
	assert.True(t, plan.Gaps[7].Low)

	assert.Equal(t, []model.Date{
		d(2021, time.April, 12),
		d(2021, time.April, 26),
		d(2021, time.May, 10),
		d(2021, time.June, 7),
		d(2021, time.June, 14),
		d(2021, time.July, 12),
		d(2021, time.July, 19),
		d(2021, time.August, 16),
		d(2021, time.August, 23),
		d(2021, time.September, 20),
		d(2021, time.September, 27),
		d(2021, time.October, 25),
		d(2021, time.November, 22),
		d(2021, time.December, 13),
	}, res.VacationDays)

	require.Len(t, res.DaysOff, 23)
	assert.Equal(t, []int{2, 2, 2, 2, 2, 1, 2, 2, 1, 2, 2, 1, 2, 2, 1, 2, 2, 2, 3, 3, 2, 0}, res.Deltas)
	for i, delta := range res.Deltas {
		if delta == 0 {
			continue
		}
		assert.InDelta(t, plan.Optimal, float64(delta), 1.0, "delta %d", i)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	in := Input{
		Region:       "BC",
		Holidays:     bc2021(),
		StartDate:    d(2021, time.February, 14),
		VacationDays: 14,
	}

	first, err := Run(in)
	require.NoError(t, err)
	second, err := Run(in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunZeroVacationDays(t *testing.T) {
	res, err := Run(Input{
		Region:    "BC",
		Holidays:  bc2021(),
		StartDate: d(2021, time.February, 14),
	})
	require.NoError(t, err)

	assert.Empty(t, res.VacationDays)
	assert.Equal(t, res.Boundaries, res.DaysOff)
}

func TestRunSingleRemainingHoliday(t *testing.T) {
	set := model.NewHolidaySet([]model.Holiday{{Date: d(2021, time.September, 6), Regions: []string{"BC"}}})

	res, err := Run(Input{
		Region:       "BC",
		Holidays:     set,
		StartDate:    d(2021, time.June, 1),
		VacationDays: 5,
	})
	require.NoError(t, err)

	require.Len(t, res.Plan.Gaps, 1)
	assert.Equal(t, 5, res.Plan.Gaps[0].Days)
	assert.Len(t, res.VacationDays, 5)
	assert.Equal(t, d(2021, time.September, 27), res.VacationDays[0])
}

func TestRunMoreDaysThanWeeks(t *testing.T) {
	set := model.NewHolidaySet([]model.Holiday{{Date: d(2021, time.September, 6), Regions: []string{"BC"}}})
	start := d(2021, time.June, 1)

	res, err := Run(Input{
		Region:       "BC",
		Holidays:     set,
		StartDate:    start,
		VacationDays: 40,
	})
	require.NoError(t, err)

	// 40 days over a 16-week gap share Mondays; the budget is still spent in full.
	require.Len(t, res.VacationDays, 40)
	assert.Less(t, len(model.UniqueSorted(res.VacationDays)), 40)
	for _, v := range res.VacationDays {
		assert.True(t, v.After(start))
		assert.Equal(t, 2021, v.Year)
	}
	assert.Len(t, res.DaysOff, 42)
}

func TestAllocateErrors(t *testing.T) {
	_, err := Allocate(nil, d(2021, time.June, 1), 3, WeekNumberingContinuous)
	assert.ErrorIs(t, err, ErrNoBoundaries)

	_, err = Allocate([]model.Date{d(2022, time.January, 1)}, d(2021, time.June, 1), -1, WeekNumberingContinuous)
	assert.ErrorIs(t, err, ErrInvalidBudget)
}

func TestRunSingleLowGap(t *testing.T) {
	set := model.NewHolidaySet([]model.Holiday{{Date: d(2021, time.December, 27), Regions: []string{"BC"}}})
	in := Input{
		Region:       "BC",
		Holidays:     set,
		StartDate:    d(2021, time.December, 1),
		VacationDays: 2,
	}

	_, err := Run(in)
	assert.ErrorIs(t, err, ErrNoCapacity)

	in.VacationDays = 0
	res, err := Run(in)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Plan.Gaps[0].Days)
}

func TestRunFixedVacationDays(t *testing.T) {
	res, err := Run(Input{
		Region:            "BC",
		Holidays:          bc2021(),
		StartDate:         d(2021, time.February, 16),
		VacationDays:      14,
		FixedVacationDays: []model.Date{d(2021, time.February, 2), d(2021, time.March, 2)},
	})
	require.NoError(t, err)

	assert.Equal(t, 12, res.Plan.Budget)
	assert.Len(t, res.VacationDays, 12)
	assert.Contains(t, res.Boundaries, d(2021, time.March, 2))
	assert.NotContains(t, res.Boundaries, d(2021, time.February, 2))

	total := 0
	for _, g := range res.Plan.Gaps {
		total += g.Days
	}
	assert.Equal(t, 12, total)
}

func TestRunBudgetErrors(t *testing.T) {
	_, err := Run(Input{
		Region:            "BC",
		Holidays:          bc2021(),
		StartDate:         d(2021, time.February, 16),
		VacationDays:      1,
		FixedVacationDays: []model.Date{d(2021, time.February, 2), d(2021, time.March, 2)},
	})
	assert.ErrorIs(t, err, ErrBudgetExceeded)

	_, err = Run(Input{Region: "BC", Holidays: bc2021(), StartDate: d(2021, time.February, 16), VacationDays: -1})
	assert.ErrorIs(t, err, ErrInvalidBudget)
}

func TestRunUnknownRegion(t *testing.T) {
	_, err := Run(Input{Region: "ON", Holidays: bc2021(), StartDate: d(2021, time.February, 14), VacationDays: 3})
	require.ErrorIs(t, err, ErrUnknownRegion)
	assert.Contains(t, err.Error(), "BC")
}

func TestRunAcrossISOYearBoundary(t *testing.T) {
	// 2024-12-31 and 2025-01-01 both fall in ISO week 2025-W01.
	set := model.NewHolidaySet([]model.Holiday{
		{Date: d(2024, time.September, 2), Regions: []string{"BC"}},
		{Date: d(2024, time.December, 26), Regions: []string{"BC"}},
	})
	in := Input{
		Region:       "BC",
		Holidays:     set,
		StartDate:    d(2024, time.June, 3),
		VacationDays: 6,
	}

	res, err := Run(in)
	require.NoError(t, err)
	assert.Equal(t, 30, res.Plan.RemainingWeeks)
	assert.Len(t, res.VacationDays, 6)
	for _, v := range res.VacationDays {
		assert.Equal(t, 2024, v.Year)
	}

	in.Numbering = WeekNumberingISO
	_, err = Run(in)
	assert.ErrorIs(t, err, ErrNoCapacity)
}

func TestRunAnchorPrevious(t *testing.T) {
	res, err := Run(Input{
		Region:         "BC",
		Holidays:       bc2021(),
		StartDate:      d(2021, time.February, 14),
		VacationDays:   14,
		AnchorPrevious: true,
	})
	require.NoError(t, err)

	assert.Equal(t, d(2021, time.January, 1), res.Boundaries[0])
	assert.Equal(t, 13, res.Plan.Gaps[0].Weeks)
	assert.Len(t, res.VacationDays, 14)
	for _, v := range res.VacationDays {
		assert.True(t, v.After(res.StartDate), "vacation %s not after start %s", v, res.StartDate)
	}
}

func TestRunAnchorPreviousLateStart(t *testing.T) {
	start := d(2021, time.March, 20)
	res, err := Run(Input{
		Region:         "BC",
		Holidays:       bc2021(),
		StartDate:      start,
		VacationDays:   14,
		AnchorPrevious: true,
	})
	require.NoError(t, err)

	assert.Equal(t, d(2021, time.January, 1), res.Boundaries[0])
	require.Len(t, res.VacationDays, 14)
	for _, v := range res.VacationDays {
		assert.True(t, v.After(start), "vacation %s not after start %s", v, start)
	}
}

func TestBoundariesDropsNextYear(t *testing.T) {
	sorted := []model.Date{
		d(2021, time.January, 1),
		d(2021, time.July, 1),
		d(2022, time.January, 1),
		d(2022, time.July, 1),
	}
	got := Boundaries(sorted, d(2021, time.February, 1), false)

	assert.Equal(t, []model.Date{d(2021, time.July, 1), d(2022, time.January, 1)}, got)
	assert.Len(t, sorted, 4)
}

func TestWeekOf(t *testing.T) {
	assert.Equal(t, 53, WeekOf(d(2024, time.December, 31), 2024, WeekNumberingContinuous))
	assert.Equal(t, 1, WeekOf(d(2024, time.December, 31), 2024, WeekNumberingISO))
	assert.Equal(t, 0, WeekOf(d(2021, time.January, 1), 2021, WeekNumberingContinuous))
	assert.Equal(t, 53, WeekOf(d(2021, time.January, 1), 2021, WeekNumberingISO))
	assert.Equal(t, 52, WeekOf(d(2022, time.January, 1), 2021, WeekNumberingContinuous))
}

func TestWeeksBetween(t *testing.T) {
	tests := []struct {
		a, b model.Date
		n    WeekNumbering
		want int
	}{
		{d(2021, time.April, 2), d(2021, time.July, 1), WeekNumberingContinuous, 13},
		{d(2021, time.April, 2), d(2021, time.July, 1), WeekNumberingISO, 13},
		{d(2021, time.December, 27), d(2022, time.January, 1), WeekNumberingContinuous, 0},
		{d(2024, time.December, 23), d(2024, time.December, 31), WeekNumberingContinuous, 1},
		{d(2024, time.December, 23), d(2024, time.December, 31), WeekNumberingISO, -51},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WeeksBetween(tt.a, tt.b, tt.a.Year, tt.n), "%s to %s (%s)", tt.a, tt.b, tt.n)
	}
}

func TestWeekOfMondayRoundTrip(t *testing.T) {
	for _, year := range []int{2021, 2024, 2026} {
		for week := 0; week <= 54; week++ {
			monday := MondayOf(year, week)
			require.Equal(t, week, WeekOf(monday, year, WeekNumberingContinuous), "%d week %d", year, week)
		}
	}
}

func TestParseWeekNumbering(t *testing.T) {
	n, err := ParseWeekNumbering("ISO")
	require.NoError(t, err)
	assert.Equal(t, WeekNumberingISO, n)
	assert.Equal(t, "iso", n.String())

	n, err = ParseWeekNumbering("")
	require.NoError(t, err)
	assert.Equal(t, WeekNumberingContinuous, n)

	_, err = ParseWeekNumbering("gregorian")
	assert.Error(t, err)
}
