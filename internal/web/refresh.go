package web

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	appLog "vacplan/internal/log"
	"vacplan/internal/model"
)

var errHolidaySource = errors.New("holiday source unavailable")

// holidaysFor returns the cached holidays of year, loading them on first use.
func (s *Server) holidaysFor(ctx context.Context, year int) (*model.HolidaySet, error) {
	s.holidaysMu.RLock()
	set, ok := s.holidays[year]
	s.holidaysMu.RUnlock()
	if ok {
		return set, nil
	}
	return s.load(ctx, year)
}

func (s *Server) load(ctx context.Context, year int) (*model.HolidaySet, error) {
	set, err := s.source.Holidays(ctx, year)
	if err != nil {
		s.metrics.RefreshTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: year %d: %v", errHolidaySource, year, err)
	}

	s.holidaysMu.Lock()
	s.holidays[year] = set
	total := 0
	for _, cached := range s.holidays {
		total += cached.Len()
	}
	s.holidaysMu.Unlock()

	s.metrics.RefreshTotal.WithLabelValues("ok").Inc()
	s.metrics.HolidayEntries.Set(float64(total))
	s.metrics.LastRefresh.Set(float64(s.now().Unix()))
	return set, nil
}

// Refresh reloads the current year plus every year already cached. Years
// that fail keep their previous data.
func (s *Server) Refresh(ctx context.Context) error {
	years := map[int]bool{s.now().In(s.cfg.Location()).Year(): true}
	s.holidaysMu.RLock()
	for y := range s.holidays {
		years[y] = true
	}
	s.holidaysMu.RUnlock()

	var errs []error
	for y := range years {
		if _, err := s.load(ctx, y); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	appLog.Info("holidays refreshed", "years", len(years))
	return nil
}

// StartScheduler runs Refresh on cfg.RefreshCron until ctx is cancelled.
// The returned scheduler is already started.
func (s *Server) StartScheduler(ctx context.Context) (*cron.Cron, error) {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(s.cfg.Location()),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(s.cfg.RefreshCron, func() {
		if err := s.Refresh(ctx); err != nil {
			appLog.Error("scheduled holiday refresh failed", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("refresh schedule %q: %w", s.cfg.RefreshCron, err)
	}
	c.Start()
	appLog.Info("holiday refresh scheduled", "cron", s.cfg.RefreshCron)

	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return c, nil
}

// cronLogger routes scheduler messages through the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	appLog.Error("cron: "+msg, err, kv...)
}
