// Package metrics exposes the Prometheus collector shared by the hosts.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for the application. Every method is
// safe on a nil receiver, which turns it into a no-op.
type Collector struct {
	registry *prometheus.Registry

	// Layout metrics
	Ticks        prometheus.Counter
	TickDuration prometheus.Histogram
	Restarts     prometheus.Counter

	// Store metrics
	StoreOperations *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	ticks := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ticks_total",
		Help:      "Total number of layout ticks",
	})
	tickDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tick_duration_seconds",
		Help:      "Layout tick duration in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
	})
	restarts := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "simulation_restarts_total",
		Help:      "Total number of simulation restarts",
	})
	storeOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_operations_total",
		Help:      "Total number of bookmark store mutations",
	}, []string{"op", "status"})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	registry.MustRegister(ticks, tickDuration, restarts, storeOps, httpRequests)

	return &Collector{
		registry:        registry,
		Ticks:           ticks,
		TickDuration:    tickDuration,
		Restarts:        restarts,
		StoreOperations: storeOps,
		HTTPRequests:    httpRequests,
	}
}

// Registry returns the registry to serve.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return prometheus.NewRegistry()
	}
	return c.registry
}

// ObserveTick records one layout tick.
func (c *Collector) ObserveTick(d time.Duration) {
	if c == nil {
		return
	}
	c.Ticks.Inc()
	c.TickDuration.Observe(d.Seconds())
}

// ObserveRestart records a simulation restart.
func (c *Collector) ObserveRestart() {
	if c == nil {
		return
	}
	c.Restarts.Inc()
}

// ObserveStoreOp records the outcome of a store mutation.
func (c *Collector) ObserveStoreOp(op string, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.StoreOperations.WithLabelValues(op, status).Inc()
}

// ObserveHTTP records a served request.
func (c *Collector) ObserveHTTP(method, route string, status int) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
