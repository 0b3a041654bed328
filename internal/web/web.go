package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vacplan/internal/config"
	"vacplan/internal/holidays"
	"vacplan/internal/ics"
	appLog "vacplan/internal/log"
	"vacplan/internal/model"
	"vacplan/internal/planner"
	"vacplan/internal/report"
)

var errBadRequest = errors.New("bad request")

// Server exposes plans and holidays over HTTP.
type Server struct {
	cfg     *config.Config
	source  holidays.Source
	mux     *http.ServeMux
	metrics *metrics
	now     func() time.Time

	// Holidays per year, filled lazily and replaced by Refresh.
	holidaysMu sync.RWMutex
	holidays   map[int]*model.HolidaySet
}

// NewServer constructs a new Server reading holidays from src.
func NewServer(cfg *config.Config, src holidays.Source) *Server {
	s := &Server{
		cfg:      cfg,
		source:   src,
		mux:      http.NewServeMux(),
		metrics:  newMetrics(),
		now:      time.Now,
		holidays: make(map[int]*model.HolidaySet),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials leave auth disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="vacplan", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.handle("/health", s.handleHealth)
	s.handle("/api/plan", s.handlePlan)
	s.handle("/api/holidays", s.handleHolidays)
	s.handle("/plan.ics", s.handlePlanICS)
	s.mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
}

func (s *Server) handle(route string, h http.HandlerFunc) {
	counter := s.metrics.RequestsTotal.MustCurryWith(prometheus.Labels{"route": route})
	s.mux.Handle(route, promhttp.InstrumentHandlerCounter(counter, h))
}

// StartServer serves s on cfg.Listen, refreshes holidays on cfg.RefreshCron
// and shuts down gracefully when ctx is cancelled.
func StartServer(ctx context.Context, cfg *config.Config, src holidays.Source) error {
	s := NewServer(cfg, src)

	if err := s.Refresh(ctx); err != nil {
		// Not fatal: requests fetch lazily and the next scheduled run retries.
		appLog.Error("initial holiday refresh failed", err)
	}

	sched, err := s.StartScheduler(ctx)
	if err != nil {
		return err
	}
	defer func() { <-sched.Stop().Done() }()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePlan returns a plan as JSON.
//
// GET /api/plan?region=BC&start=2021-02-14&days=14&fixed=2021-08-03
//
// Every parameter is optional and overrides the configured value.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	res, set, err := s.plan(r.Context(), r.URL.Query())
	if err != nil {
		s.writePlanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report.NewDocument(res, set))
}

// handlePlanICS returns the recommended vacation days as an iCalendar feed.
// It accepts the same parameters as /api/plan.
func (s *Server) handlePlanICS(w http.ResponseWriter, r *http.Request) {
	res, set, err := s.plan(r.Context(), r.URL.Query())
	if err != nil {
		s.writePlanError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=vacplan_%s_%d.ics", res.Region, res.StartDate.Year))
	if err := ics.WritePlan(w, res, ics.ExportOptions{Now: s.now(), Holidays: set}); err != nil {
		appLog.Error("failed to write ics response", err)
	}
}

// handleHolidays lists cached holidays.
//
// GET /api/holidays?region=BC&year=2021
func (s *Server) handleHolidays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year := parseIntDefault(q.Get("year"), s.now().In(s.cfg.Location()).Year())
	region := strings.ToUpper(strings.TrimSpace(q.Get("region")))

	set, err := s.holidaysFor(r.Context(), year)
	if err != nil {
		appLog.Error("api holidays: load failed", err, "year", year)
		writeError(w, http.StatusBadGateway, "failed to load holidays")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := report.WriteHolidays(w, set, region, report.FormatJSON); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
	}
}

// plan resolves the request against the configuration and runs the planner.
func (s *Server) plan(ctx context.Context, q url.Values) (planner.Result, *model.HolidaySet, error) {
	now := s.now()

	start, err := s.cfg.Start(now)
	if err != nil {
		return planner.Result{}, nil, err
	}
	if v := q.Get("start"); v != "" {
		if start, err = model.ParseDate(v); err != nil {
			return planner.Result{}, nil, fmt.Errorf("%w: start: %v", errBadRequest, err)
		}
	}

	set, err := s.holidaysFor(ctx, start.Year)
	if err != nil {
		return planner.Result{}, nil, err
	}

	in, err := s.cfg.PlannerInput(set, now)
	if err != nil {
		return planner.Result{}, nil, err
	}
	in.StartDate = start

	if v := q.Get("region"); v != "" {
		in.Region = strings.ToUpper(strings.TrimSpace(v))
	}
	if v := q.Get("days"); v != "" {
		if in.VacationDays, err = strconv.Atoi(v); err != nil {
			return planner.Result{}, nil, fmt.Errorf("%w: days: %v", errBadRequest, err)
		}
	}
	if v := q.Get("fixed"); v != "" {
		in.FixedVacationDays = nil
		for _, part := range strings.Split(v, ",") {
			d, err := model.ParseDate(strings.TrimSpace(part))
			if err != nil {
				return planner.Result{}, nil, fmt.Errorf("%w: fixed: %v", errBadRequest, err)
			}
			in.FixedVacationDays = append(in.FixedVacationDays, d)
		}
	}
	if v := q.Get("numbering"); v != "" {
		if in.Numbering, err = planner.ParseWeekNumbering(v); err != nil {
			return planner.Result{}, nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}

	timer := prometheus.NewTimer(s.metrics.PlanDuration)
	res, err := planner.Run(in)
	timer.ObserveDuration()
	if err != nil {
		return planner.Result{}, nil, err
	}
	return res, set, nil
}

func (s *Server) writePlanError(w http.ResponseWriter, err error) {
	status, kind := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, planner.ErrInvalidBudget):
		status, kind = http.StatusBadRequest, "bad_request"
	case errors.Is(err, planner.ErrUnknownRegion):
		status, kind = http.StatusNotFound, "unknown_region"
	case errors.Is(err, planner.ErrBudgetExceeded), errors.Is(err, planner.ErrNoCapacity):
		status, kind = http.StatusUnprocessableEntity, "no_capacity"
	case errors.Is(err, errHolidaySource):
		status, kind = http.StatusBadGateway, "holiday_source"
	case errors.Is(err, planner.ErrBudgetMismatch):
		kind = "budget_mismatch"
	}
	s.metrics.PlanErrorsTotal.WithLabelValues(kind).Inc()

	switch status {
	case http.StatusInternalServerError:
		appLog.Error("plan failed", err)
		writeError(w, status, "failed to compute plan")
		return
	case http.StatusBadGateway:
		appLog.Error("plan failed", err)
		writeError(w, status, "failed to load holidays")
		return
	}
	writeError(w, status, err.Error())
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
