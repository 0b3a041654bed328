package holidays

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"vacplan/internal/model"
)

// FederalRegion collects holidays flagged as federal by the API.
const FederalRegion = "CA"

// apiResponse mirrors the holidays endpoint:
//
//	{"holidays":[{"date":"2021-07-01","nameEn":"Canada Day","federal":1,"provinces":[{"id":"BC"}]}]}
type apiResponse struct {
	Holidays []apiHoliday `json:"holidays"`
}

type apiHoliday struct {
	Date      string        `json:"date"`
	NameEn    string        `json:"nameEn"`
	Federal   int           `json:"federal"`
	Provinces []apiProvince `json:"provinces"`
}

type apiProvince struct {
	ID string `json:"id"`
}

// Parse decodes a holidays API document into a HolidaySet keyed by province
// ID. Entries need not be sorted.
func Parse(body []byte) (*model.HolidaySet, error) {
	if len(body) == 0 {
		return nil, errors.New("holidays: empty response body")
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("holidays: decode response: %w", err)
	}

	list := make([]model.Holiday, 0, len(resp.Holidays))
	for _, h := range resp.Holidays {
		date, err := model.ParseDate(h.Date)
		if err != nil {
			return nil, fmt.Errorf("holidays: %q: %w", h.NameEn, err)
		}

		regions := make([]string, 0, len(h.Provinces)+1)
		for _, p := range h.Provinces {
			id := strings.ToUpper(strings.TrimSpace(p.ID))
			if id == "" {
				return nil, fmt.Errorf("holidays: %s %q has a province without id", h.Date, h.NameEn)
			}
			regions = append(regions, id)
		}
		if h.Federal == 1 {
			regions = append(regions, FederalRegion)
		}

		list = append(list, model.Holiday{Date: date, Name: h.NameEn, Regions: regions})
	}

	return model.NewHolidaySet(list), nil
}

// FromStrings builds a HolidaySet from region -> ISO-8601 date strings.
func FromStrings(byRegion map[string][]string) (*model.HolidaySet, error) {
	set := model.NewHolidaySet(nil)
	for region, dates := range byRegion {
		for _, s := range dates {
			date, err := model.ParseDate(s)
			if err != nil {
				return nil, fmt.Errorf("holidays: region %s: %w", region, err)
			}
			set.Add(model.Holiday{Date: date, Regions: []string{region}})
		}
	}
	return set, nil
}
