// Package metrics exports sync state and remote request telemetry to Prometheus.
//
// A Collector follows the sync service's state stream and keeps gauges for
// the queue and cycle state, counts finished cycles by result, and can wrap
// the remote client's transport to measure requests to the sync server.
package metrics

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/gridsync/internal/core/domain"
)

const namespace = "gridsync"

// Cycle results.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Collector holds the gridsync Prometheus collectors on a private registry.
type Collector struct {
	registry *prometheus.Registry

	pendingRecords prometheus.Gauge
	failedRecords  prometheus.Gauge
	syncing        prometheus.Gauge
	autoSync       prometheus.Gauge
	lastSync       prometheus.Gauge
	cycles         *prometheus.CounterVec

	requestsInFlight prometheus.Gauge
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec

	mu      sync.Mutex
	prev    domain.SyncState
	started bool
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		pendingRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "pending_records",
			Help:      "Queued changes awaiting their first acknowledgement.",
		}),
		failedRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "failed_records",
			Help:      "Queued changes the server has rejected.",
		}),
		syncing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "in_progress",
			Help:      "1 while a sync cycle is running.",
		}),
		autoSync: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "auto_enabled",
			Help:      "1 while automatic sync is enabled.",
		}),
		lastSync: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful sync cycle.",
		}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "cycles_total",
			Help:      "Finished sync cycles by result.",
		}, []string{"result"}),

		requestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "inflight_requests",
			Help:      "Requests to the sync server currently in flight.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "requests_total",
			Help:      "Requests to the sync server by status code and method.",
		}, []string{"code", "method"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "request_duration_seconds",
			Help:      "Duration of requests to the sync server.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		}, []string{"method"}),
	}

	c.registry.MustRegister(
		c.pendingRecords,
		c.failedRecords,
		c.syncing,
		c.autoSync,
		c.lastSync,
		c.cycles,
		c.requestsInFlight,
		c.requests,
		c.requestDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)

	// Expose both result series from the start.
	c.cycles.WithLabelValues(ResultSuccess)
	c.cycles.WithLabelValues(ResultError)

	return c
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler exposing the registered metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentRoundTripper wraps next with request metrics.
func (c *Collector) InstrumentRoundTripper(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperInFlight(c.requestsInFlight,
		promhttp.InstrumentRoundTripperCounter(c.requests,
			promhttp.InstrumentRoundTripperDuration(c.requestDuration, next)))
}

// Observe updates the gauges from a state snapshot and counts a cycle when
// the snapshot ends one.
func (c *Collector) Observe(state domain.SyncState) {
	c.pendingRecords.Set(float64(state.PendingRecords))
	c.failedRecords.Set(float64(state.FailedRecords))
	c.syncing.Set(boolToFloat(state.IsSyncing))
	c.autoSync.Set(boolToFloat(state.AutoSync))
	if state.HasSynced() {
		c.lastSync.Set(float64(state.LastSyncTime.Unix()))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started && c.prev.IsSyncing && !state.IsSyncing {
		if state.HasError() {
			c.cycles.WithLabelValues(ResultError).Inc()
		} else {
			c.cycles.WithLabelValues(ResultSuccess).Inc()
		}
	}
	c.prev = state
	c.started = true
}

// Watch observes states until the stream closes or ctx is done.
func (c *Collector) Watch(ctx context.Context, states <-chan domain.SyncState) {
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			c.Observe(state)
		}
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
