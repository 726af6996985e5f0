package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appErrors "github.com/noah-isme/physed-journal-api/pkg/errors"
)

const outcomeOK = "ok"

// MetricsService owns the Prometheus registry of the journal.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	commandTotal    *prometheus.CounterVec
	archiveTotal    *prometheus.CounterVec
	migrationTotal  *prometheus.CounterVec
	migrationRuns   *prometheus.HistogramVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	commandTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_commands_total",
		Help: "Ledger commands by command and outcome code",
	}, []string{"command", "outcome"})

	archiveTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_archive_total",
		Help: "Semester closures by outcome code",
	}, []string{"outcome"})

	migrationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_migration_students_total",
		Help: "Students processed by bulk runs",
	}, []string{"kind", "result"})

	migrationRuns := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "journal_migration_duration_seconds",
		Help:    "Duration of bulk runs",
		Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
	}, []string{"kind"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, commandTotal, archiveTotal, migrationTotal, migrationRuns,
		cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		commandTotal:    commandTotal,
		archiveTotal:    archiveTotal,
		migrationTotal:  migrationTotal,
		migrationRuns:   migrationRuns,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveCommand counts a ledger command by its outcome code.
func (m *MetricsService) ObserveCommand(command string, err error) {
	if m == nil {
		return
	}
	m.commandTotal.WithLabelValues(command, outcome(err)).Inc()
}

// ObserveArchive counts a semester closure by its outcome code.
func (m *MetricsService) ObserveArchive(err error) {
	if m == nil {
		return
	}
	m.archiveTotal.WithLabelValues(outcome(err)).Inc()
}

// ObserveMigration records the totals of a bulk run.
func (m *MetricsService) ObserveMigration(kind string, summary *MigrationSummary) {
	if m == nil || summary == nil {
		return
	}
	m.migrationTotal.WithLabelValues(kind, "archived").Add(float64(summary.Archived))
	m.migrationTotal.WithLabelValues(kind, "failed").Add(float64(summary.Failed))
	m.migrationTotal.WithLabelValues(kind, "skipped").Add(float64(summary.Skipped))
	m.migrationRuns.WithLabelValues(kind).Observe(summary.Duration.Seconds())
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

func outcome(err error) string {
	if err == nil {
		return outcomeOK
	}
	return appErrors.FromError(err).Code
}
