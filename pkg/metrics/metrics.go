// Package metrics exposes prometheus counters and histograms for the server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roaryviz"

// Metrics holds every collector on its own registry.
type Metrics struct {
	Registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	fileSize        *prometheus.HistogramVec
	analysis        *prometheus.HistogramVec
	jobs            *prometheus.GaugeVec
}

func New() *Metrics {

	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors reported to users, by kind.",
		}, []string{"kind"}),
		fileSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_file_bytes",
			Help:      "Size of uploaded files by kind.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		}, []string{"kind"}),
		analysis: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Duration of analysis operations.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"operation"}),
		jobs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs",
			Help:      "Rarefaction jobs by status.",
		}, []string{"status"}),
	}

	reg.MustRegister(
		m.requests, m.requestDuration, m.errors, m.fileSize, m.analysis, m.jobs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) RecordError(kind string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveFile(kind string, size int64) {
	if m == nil {
		return
	}
	m.fileSize.WithLabelValues(kind).Observe(float64(size))
}

func (m *Metrics) ObserveAnalysis(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.analysis.WithLabelValues(operation).Observe(d.Seconds())
}

// TrackDatasets reports count() as the number of datasets held in memory.
func (m *Metrics) TrackDatasets(count func() int) {
	m.Registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "datasets",
		Help:      "Datasets currently held in memory.",
	}, func() float64 { return float64(count()) }))
}

func (m *Metrics) JobStatus(from, to string) {
	if m == nil {
		return
	}
	if from != "" {
		m.jobs.WithLabelValues(from).Dec()
	}
	m.jobs.WithLabelValues(to).Inc()
}

// CacheStats is what RegisterCache reads on every scrape.
type CacheStats interface {
	Hits() uint64
	Misses() uint64
	Len() int
}

func (m *Metrics) RegisterCache(name string, c CacheStats) {
	labels := prometheus.Labels{"cache": name}
	m.Registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_hits_total", Help: "Cache hits.", ConstLabels: labels,
		}, func() float64 { return float64(c.Hits()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_misses_total", Help: "Cache misses.", ConstLabels: labels,
		}, func() float64 { return float64(c.Misses()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cache_entries", Help: "Cached entries.", ConstLabels: labels,
		}, func() float64 { return float64(c.Len()) }),
	)
}
