// Package metrics defines the Prometheus collectors exported by serverboard.
//
// Each [Metrics] owns its own registry so that several boards (and tests)
// can coexist in one process.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "serverboard"

// Fetch results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Reconcile actions.
const (
	ActionCreate = "create"
	ActionEdit   = "edit"
)

// Metrics groups the collectors updated by the scheduler and reconciler.
type Metrics struct {
	registry *prometheus.Registry

	FetchTotal     *prometheus.CounterVec
	FetchRetries   prometheus.Counter
	ReconcileTotal *prometheus.CounterVec
	CachedServers  prometheus.Gauge
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Status API fetches by result.",
		}, []string{"result"}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Retries caused by rate-limited status API responses.",
		}),
		ReconcileTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_total",
			Help:      "Chat message reconciliations by action and result.",
		}, []string{"action", "result"}),
		CachedServers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_servers",
			Help:      "Servers with a cached status record.",
		}),
	}

	reg.MustRegister(
		m.FetchTotal,
		m.FetchRetries,
		m.ReconcileTotal,
		m.CachedServers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveFetch counts one fetch outcome.
func (m *Metrics) ObserveFetch(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.FetchTotal.WithLabelValues(ResultFailure).Inc()
		return
	}
	m.FetchTotal.WithLabelValues(ResultSuccess).Inc()
}

// ObserveRetry counts one rate-limit retry.
func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.FetchRetries.Inc()
}

// ObserveReconcile counts one create or edit outcome.
func (m *Metrics) ObserveReconcile(action string, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.ReconcileTotal.WithLabelValues(action, result).Inc()
}

// TrackDroppedUpdates exports serverboard_dropped_updates_total, read from
// fn on every scrape. Call it at most once per Metrics.
func (m *Metrics) TrackDroppedUpdates(fn func() uint64) {
	if m == nil || fn == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dropped_updates_total",
		Help:      "Cache updates dropped because a subscriber's buffer was full.",
	}, func() float64 { return float64(fn()) }))
}

// SetCached records how many servers currently have a cache entry.
func (m *Metrics) SetCached(n int) {
	if m == nil {
		return
	}
	m.CachedServers.Set(float64(n))
}
