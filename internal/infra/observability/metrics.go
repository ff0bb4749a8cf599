package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for Cenit.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	storeOpDuration   *prometheus.HistogramVec
	recordStoreErrors *prometheus.CounterVec
	invalidations     *prometheus.CounterVec
	statsComputations *prometheus.CounterVec
	workspacesActive  prometheus.Gauge
	requestsTotal     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		storeOpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cenit_store_op_duration_seconds",
				Help:    "Duration of entity store operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		recordStoreErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cenit_record_store_errors_total",
				Help: "Total errors from the record store backend.",
			},
			[]string{"table"},
		),
		invalidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cenit_cache_invalidations_total",
				Help: "Total cache invalidations.",
			},
			[]string{"cache"},
		),
		statsComputations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cenit_stats_computations_total",
				Help: "Dashboard stats accesses by outcome (hit or recompute).",
			},
			[]string{"outcome"},
		),
		workspacesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cenit_workspaces_active",
				Help: "User workspaces currently held in memory.",
			},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cenit_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordStoreOp records the duration of an entity store operation.
func (m *Metrics) RecordStoreOp(operation string, d time.Duration) {
	m.storeOpDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrRecordStoreError increments the backend error counter for a table.
func (m *Metrics) IncrRecordStoreError(table string) {
	m.recordStoreErrors.WithLabelValues(table).Inc()
}

// IncrInvalidation increments the invalidation counter for a cache.
func (m *Metrics) IncrInvalidation(cache string) {
	m.invalidations.WithLabelValues(cache).Inc()
}

// IncrStatsHit counts a dashboard stats access served from the memo.
func (m *Metrics) IncrStatsHit() {
	m.statsComputations.WithLabelValues("hit").Inc()
}

// IncrStatsRecompute counts a full dashboard stats recomputation.
func (m *Metrics) IncrStatsRecompute() {
	m.statsComputations.WithLabelValues("recompute").Inc()
}

// SetWorkspacesActive publishes the current workspace count.
func (m *Metrics) SetWorkspacesActive(n int) {
	m.workspacesActive.Set(float64(n))
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// StoreSnapshot summarizes store and cache health for the
// GET /v1/metrics/stores endpoint.
type StoreSnapshot struct {
	StatsHits              float64 `json:"stats_hits"`
	StatsRecomputes        float64 `json:"stats_recomputes"`
	StatsHitRate           float64 `json:"stats_hit_rate"`
	DashboardInvalidations float64 `json:"dashboard_invalidations"`
	RequestsSuccessful     float64 `json:"requests_successful"`
	RequestsFailed         float64 `json:"requests_failed"`
	ErrorRate              float64 `json:"error_rate"`
}

// GetStoreSnapshot gathers current counter values into a snapshot.
// Note: Prometheus counters expose cumulative values.
func (m *Metrics) GetStoreSnapshot() *StoreSnapshot {
	hits := getCounterValue(m.statsComputations, "hit")
	recomputes := getCounterValue(m.statsComputations, "recompute")
	success := getCounterValue(m.requestsTotal, "success")
	failed := getCounterValue(m.requestsTotal, "error")

	hitRate := float64(0)
	if hits+recomputes > 0 {
		hitRate = hits / (hits + recomputes)
	}
	errorRate := float64(0)
	if success+failed > 0 {
		errorRate = failed / (success + failed)
	}

	return &StoreSnapshot{
		StatsHits:              hits,
		StatsRecomputes:        recomputes,
		StatsHitRate:           hitRate,
		DashboardInvalidations: getCounterValue(m.invalidations, "dashboard"),
		RequestsSuccessful:     success,
		RequestsFailed:         failed,
		ErrorRate:              errorRate,
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
