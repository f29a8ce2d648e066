// Package metrics holds the Prometheus collectors of the service. All
// recording methods are safe on a nil *Metrics, which is how callers run
// with metrics disabled.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pricewatch"

// Metrics is the collector set.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Quote pipeline
	CacheLookupsTotal      *prometheus.CounterVec
	UpstreamFetchesTotal   *prometheus.CounterVec
	UpstreamFetchDuration  *prometheus.HistogramVec
	RateLimitRejectedTotal prometheus.Counter

	// Alert sweep
	SweepsTotal         *prometheus.CounterVec
	AlertsTriggered     prometheus.Counter
	NotifyFailuresTotal prometheus.Counter
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		CacheLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quotes",
			Name:      "cache_lookups_total",
			Help:      "Quote cache lookups by result",
		}, []string{"class", "result"}),
		UpstreamFetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quotes",
			Name:      "upstream_fetches_total",
			Help:      "Upstream quote fetches by provider and outcome",
		}, []string{"provider", "outcome"}),
		UpstreamFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "quotes",
			Name:      "upstream_fetch_duration_seconds",
			Help:      "Upstream quote fetch duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 4, 8},
		}, []string{"provider"}),
		RateLimitRejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quotes",
			Name:      "rate_limited_total",
			Help:      "Quote requests rejected by the per-client limiter",
		}),

		SweepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "sweeps_total",
			Help:      "Alert sweeps by outcome",
		}, []string{"outcome"}),
		AlertsTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "triggered_total",
			Help:      "Alerts transitioned to triggered",
		}),
		NotifyFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "notify_failures_total",
			Help:      "Alert notifications that could not be sent",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CacheLookupsTotal,
		m.UpstreamFetchesTotal,
		m.UpstreamFetchDuration,
		m.RateLimitRejectedTotal,
		m.SweepsTotal,
		m.AlertsTriggered,
		m.NotifyFailuresTotal,
	)
	return m
}

// Registry exposes the private registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) RecordCacheLookup(class string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(class, result).Inc()
}

func (m *Metrics) RecordUpstreamFetch(provider string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "error"
	if ok {
		outcome = "ok"
	}
	m.UpstreamFetchesTotal.WithLabelValues(provider, outcome).Inc()
	m.UpstreamFetchDuration.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitRejectedTotal.Inc()
}

// RecordSweep records one sweep run. err != nil counts as a failed run.
func (m *Metrics) RecordSweep(triggered, notifyFailures int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SweepsTotal.WithLabelValues("error").Inc()
		return
	}
	m.SweepsTotal.WithLabelValues("ok").Inc()
	m.AlertsTriggered.Add(float64(triggered))
	m.NotifyFailuresTotal.Add(float64(notifyFailures))
}
