// Package metrics exposes Prometheus collectors for refreshes, provider
// fetches and HTTP requests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "econdash"

// Metrics holds the application collectors and the registry they live in.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	fetchTotal      *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	fetchRecords    *prometheus.CounterVec
	refreshMonths   *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	lastRefresh     prometheus.Gauge
	datasetRecords  prometheus.Gauge
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry
// together with the Go and process collectors.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.fetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_fetch_total",
		Help:      "Calendar provider fetches by outcome",
	}, []string{"provider", "status"})
	m.fetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_fetch_duration_seconds",
		Help:      "Time spent fetching one month from the provider",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})
	m.fetchRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_records_total",
		Help:      "Calendar releases received from the provider",
	}, []string{"provider"})
	m.refreshMonths = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_months_total",
		Help:      "Archive months visited by refreshes, by result",
	}, []string{"result"})
	m.refreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "refresh_duration_seconds",
		Help:      "Duration of a full dataset refresh",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
	m.lastRefresh = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_refresh_timestamp_seconds",
		Help:      "Unix time of the last completed refresh",
	})
	m.datasetRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dataset_records",
		Help:      "Releases in the currently loaded dataset",
	})
	m.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"method", "route", "code"})
	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.fetchTotal, m.fetchDuration, m.fetchRecords,
		m.refreshMonths, m.refreshDuration, m.lastRefresh,
		m.datasetRecords, m.requestTotal, m.requestDuration,
	)
	return m
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveFetch records one provider fetch.
func (m *Metrics) ObserveFetch(provider string, records int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.fetchTotal.WithLabelValues(provider, status).Inc()
	m.fetchDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if records > 0 {
		m.fetchRecords.WithLabelValues(provider).Add(float64(records))
	}
}

// ObserveRefresh records the outcome of a completed refresh.
func (m *Metrics) ObserveRefresh(refreshed, skipped, failed int, duration time.Duration, at time.Time) {
	if m == nil {
		return
	}
	m.refreshMonths.WithLabelValues("refreshed").Add(float64(refreshed))
	m.refreshMonths.WithLabelValues("skipped").Add(float64(skipped))
	m.refreshMonths.WithLabelValues("failed").Add(float64(failed))
	m.refreshDuration.Observe(duration.Seconds())
	m.lastRefresh.Set(float64(at.Unix()))
}

// SetDatasetRecords records the size of the loaded dataset.
func (m *Metrics) SetDatasetRecords(n int) {
	if m == nil {
		return
	}
	m.datasetRecords.Set(float64(n))
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
