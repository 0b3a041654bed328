package holidays

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"vacplan/internal/fetch"
	appLog "vacplan/internal/log"
	"vacplan/internal/model"
)

// DefaultURL is the public Canadian holidays API.
const DefaultURL = "https://canada-holidays.ca/api/v1/holidays"

// Source supplies the holidays of a year, grouped by region.
type Source interface {
	Holidays(ctx context.Context, year int) (*model.HolidaySet, error)
}

// Client reads holidays from the JSON API.
type Client struct {
	fetcher *fetch.Fetcher
	baseURL string
}

// NewClient returns a Client for baseURL (DefaultURL when empty).
func NewClient(f *fetch.Fetcher, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{fetcher: f, baseURL: baseURL}
}

// Holidays fetches and parses the holidays of year.
func (c *Client) Holidays(ctx context.Context, year int) (*model.HolidaySet, error) {
	u, err := c.yearURL(year)
	if err != nil {
		return nil, err
	}

	res, err := c.fetcher.Fetch(ctx, fetch.Source{ID: "holidays-api", URL: u})
	if err != nil {
		return nil, err
	}

	set, err := Parse(res.Body)
	if err != nil {
		return nil, err
	}
	appLog.Info("holidays loaded", "year", year, "regions", len(set.Regions()), "entries", set.Len(), "from_cache", res.FromCache)
	return set, nil
}

func (c *Client) yearURL(year int) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("holidays: bad url: %w", err)
	}
	q := u.Query()
	q.Set("year", strconv.Itoa(year))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Multi merges the holidays of several sources. Any failing source fails the
// whole call.
type Multi []Source

func (m Multi) Holidays(ctx context.Context, year int) (*model.HolidaySet, error) {
	set := model.NewHolidaySet(nil)
	for _, src := range m {
		part, err := src.Holidays(ctx, year)
		if err != nil {
			return nil, err
		}
		set = set.Merge(part)
	}
	return set, nil
}

// Static is a fixed HolidaySet, handy for tests and offline runs.
type Static struct {
	Set *model.HolidaySet
}

func (s Static) Holidays(context.Context, int) (*model.HolidaySet, error) {
	if s.Set == nil {
		return model.NewHolidaySet(nil), nil
	}
	return s.Set, nil
}
