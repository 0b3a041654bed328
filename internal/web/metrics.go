package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vacplan"

// metrics are registered on a per-server registry so several servers (tests)
// can coexist in one process.
type metrics struct {
	registry *prometheus.Registry

	// RequestsTotal counts HTTP requests partitioned by route and status code.
	RequestsTotal *prometheus.CounterVec

	// PlanDuration stores the time spent computing a plan.
	PlanDuration prometheus.Histogram

	// PlanErrorsTotal counts failed plans partitioned by error kind.
	PlanErrorsTotal *prometheus.CounterVec

	// RefreshTotal counts holiday refreshes partitioned by result.
	RefreshTotal *prometheus.CounterVec

	// HolidayEntries is the number of region/date pairs currently cached.
	HolidayEntries prometheus.Gauge

	// LastRefresh is the unix time of the last successful refresh.
	LastRefresh prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &metrics{
		registry: reg,
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of HTTP requests partitioned by route and status code",
		}, []string{"route", "code"}),
		PlanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "plan_duration_seconds",
			Help:      "Time spent computing a vacation plan",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		PlanErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "plan_errors_total",
			Help:      "Number of failed plans partitioned by error kind",
		}, []string{"kind"}),
		RefreshTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "holidays",
			Name:      "refresh_total",
			Help:      "Number of holiday refreshes partitioned by result",
		}, []string{"result"}),
		HolidayEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "holidays",
			Name:      "entries",
			Help:      "Number of cached region/date holiday pairs",
		}),
		LastRefresh: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "holidays",
			Name:      "last_refresh_timestamp_seconds",
			Help:      "Unix time of the last successful holiday refresh",
		}),
	}
}
