// Package metrics holds the planner's prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "planner"

// Metrics is safe to use as a nil pointer; every method then does nothing.
type Metrics struct {
	registry      *prometheus.Registry
	mutations     *prometheus.CounterVec
	conflicts     *prometheus.CounterVec
	notifyFailure *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	aggregation   prometheus.Histogram
	sessions      prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_mutations_total",
			Help:      "Task mutations by operation and result.",
		}, []string{"op", "result"}),
		conflicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "save_conflicts_total",
			Help:      "Optimistic concurrency conflicts by operation and outcome.",
		}, []string{"op", "outcome"}),
		notifyFailure: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Best-effort side effects that failed, by sink.",
		}, []string{"sink"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Workload cache lookups by result.",
		}, []string{"result"}),
		aggregation: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workload_build_seconds",
			Help:      "Time spent building workload snapshots.",
			Buckets:   prometheus.DefBuckets,
		}),
		sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_sessions",
			Help:      "Connected real-time sessions.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Mutation(op, result string) {
	if m != nil {
		m.mutations.WithLabelValues(op, result).Inc()
	}
}

func (m *Metrics) Conflict(op, outcome string) {
	if m != nil {
		m.conflicts.WithLabelValues(op, outcome).Inc()
	}
}

func (m *Metrics) NotifyFailed(sink string) {
	if m != nil {
		m.notifyFailure.WithLabelValues(sink).Inc()
	}
}

func (m *Metrics) CacheLookup(result string) {
	if m != nil {
		m.cacheLookups.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ObserveAggregation(d time.Duration) {
	if m != nil {
		m.aggregation.Observe(d.Seconds())
	}
}

func (m *Metrics) SetSessions(n int) {
	if m != nil {
		m.sessions.Set(float64(n))
	}
}
