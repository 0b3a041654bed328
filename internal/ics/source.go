package ics

import (
	"context"
	"fmt"
	"os"
	"strings"

	"vacplan/internal/fetch"
	appLog "vacplan/internal/log"
	"vacplan/internal/model"
)

// FeedSource reads holidays for one region from an ICS feed. Location is
// either an http(s) URL or a local file path (optionally file://).
type FeedSource struct {
	ID       string
	Location string
	Region   string
	Fetcher  *fetch.Fetcher
}

func (s FeedSource) Holidays(ctx context.Context, year int) (*model.HolidaySet, error) {
	body, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("ics source %s: %w", s.ID, err)
	}

	events, err := ParseEvents(body)
	if err != nil {
		return nil, fmt.Errorf("ics source %s: %w", s.ID, err)
	}

	list := HolidaysFromEvents(events, s.Region, year)
	appLog.Info("ics holidays loaded", "id", s.ID, "region", s.Region, "year", year, "event_count", len(events), "holiday_count", len(list))
	return model.NewHolidaySet(list), nil
}

func (s FeedSource) load(ctx context.Context) ([]byte, error) {
	if strings.HasPrefix(s.Location, "http://") || strings.HasPrefix(s.Location, "https://") {
		if s.Fetcher == nil {
			return nil, fmt.Errorf("no fetcher for %s", fetch.RedactURL(s.Location))
		}
		res, err := s.Fetcher.Fetch(ctx, fetch.Source{ID: s.ID, URL: s.Location})
		if err != nil {
			return nil, err
		}
		return res.Body, nil
	}
	return os.ReadFile(strings.TrimPrefix(s.Location, "file://"))
}
