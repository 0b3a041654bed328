package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2021-02-14")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2021, Month: time.February, Day: 14}, d)
	assert.Equal(t, "2021-02-14", d.String())

	_, err = ParseDate("2021-13-01")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Day Date `json:"day"`
	}{NewDate(2021, time.July, 1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2021-07-01"}`, string(b))

	var out struct {
		Day Date `json:"day"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2021-12-27"}`), &out))
	assert.Equal(t, NewDate(2021, time.December, 27), out.Day)
}

func TestDateOrdering(t *testing.T) {
	a := NewDate(2021, time.April, 2)
	b := NewDate(2021, time.May, 24)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.Equal(b))
	assert.Equal(t, 0, a.Compare(NewDate(2021, time.April, 2)))
	assert.Equal(t, NewDate(2021, time.March, 2), NewDate(2021, time.February, 30))
}

func TestISOWeek(t *testing.T) {
	tests := []struct {
		date     Date
		wantYear int
		wantWeek int
	}{
		{NewDate(2021, time.February, 14), 2021, 6},
		{NewDate(2021, time.December, 31), 2021, 52},
		{NewDate(2022, time.January, 1), 2021, 52},
		{NewDate(2021, time.January, 1), 2020, 53},
		{NewDate(2024, time.December, 31), 2025, 1},
	}

	for _, tc := range tests {
		t.Run(tc.date.String(), func(t *testing.T) {
			y, w := tc.date.ISOWeek()
			assert.Equal(t, tc.wantYear, y)
			assert.Equal(t, tc.wantWeek, w)
		})
	}
}

func TestWeeksInYear(t *testing.T) {
	assert.Equal(t, 53, WeeksInYear(2020))
	assert.Equal(t, 52, WeeksInYear(2021))
	assert.Equal(t, 53, WeeksInYear(2026))
}

func TestMondayOfISOWeekRoundTrip(t *testing.T) {
	for _, year := range []int{2020, 2021, 2024, 2025, 2026} {
		for week := 1; week <= WeeksInYear(year); week++ {
			monday := MondayOfISOWeek(year, week)
			require.Equal(t, time.Monday, monday.Weekday(), "%d-W%02d", year, week)

			y, w := monday.ISOWeek()
			require.Equal(t, year, y, "%d-W%02d", year, week)
			require.Equal(t, week, w, "%d-W%02d", year, week)
		}
	}
}

func TestMondayOfISOWeekOverflow(t *testing.T) {
	// 2024 has 52 ISO weeks, so week 53 is 2025-W01.
	assert.Equal(t, NewDate(2024, time.December, 30), MondayOfISOWeek(2024, 53))
	assert.Equal(t, NewDate(2020, time.December, 28), MondayOfISOWeek(2021, 0))
}

func TestUniqueSorted(t *testing.T) {
	in := []Date{
		NewDate(2021, time.July, 1),
		NewDate(2021, time.April, 2),
		NewDate(2021, time.July, 1),
	}
	out := UniqueSorted(in)

	assert.Equal(t, []Date{NewDate(2021, time.April, 2), NewDate(2021, time.July, 1)}, out)
	assert.Equal(t, NewDate(2021, time.July, 1), in[0], "input must not be reordered")
}

func TestHolidaySet(t *testing.T) {
	set := NewHolidaySet([]Holiday{
		{Date: NewDate(2021, time.July, 1), Name: "Canada Day", Regions: []string{"BC", "AB"}},
		{Date: NewDate(2021, time.April, 2), Name: "Good Friday", Regions: []string{"BC"}},
		{Date: NewDate(2021, time.April, 2), Regions: []string{"BC"}},
	})

	bc, ok := set.Region("BC")
	require.True(t, ok)
	assert.Equal(t, []Date{NewDate(2021, time.April, 2), NewDate(2021, time.July, 1)}, bc)

	_, ok = set.Region("ON")
	assert.False(t, ok)

	assert.Equal(t, []string{"AB", "BC"}, set.Regions())
	assert.Equal(t, "Good Friday", set.Name("BC", NewDate(2021, time.April, 2)))
	assert.Empty(t, set.Name("AB", NewDate(2021, time.April, 2)))
	assert.Equal(t, 3, set.Len())

	bc[0] = NewDate(1999, time.January, 1)
	again, _ := set.Region("BC")
	assert.Equal(t, NewDate(2021, time.April, 2), again[0], "Region must return a copy")
}

func TestHolidaySetMerge(t *testing.T) {
	a := NewHolidaySet([]Holiday{{Date: NewDate(2021, time.July, 1), Regions: []string{"BC"}}})
	b := NewHolidaySet([]Holiday{{Date: NewDate(2021, time.December, 24), Name: "Shutdown", Regions: []string{"BC"}}})

	merged := a.Merge(b)
	bc, _ := merged.Region("BC")
	assert.Len(t, bc, 2)
	assert.Equal(t, "Shutdown", merged.Name("BC", NewDate(2021, time.December, 24)))
	assert.Equal(t, 1, a.Len())
}
