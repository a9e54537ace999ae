package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// namespace prefixes every metric exposed by this module.
const namespace = "kubert"

// Metrics aggregates the collectors owned by a single runtime.
type Metrics struct {
	registry *prometheus.Registry

	watchEvents *prometheus.CounterVec
	watchErrors prometheus.Counter

	leaseClaims *prometheus.CounterVec
	leaseHeld   *prometheus.GaugeVec
}

// New creates a Metrics with a fresh registry and all collectors
// registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		watchEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watch",
			Name:      "events_total",
			Help:      "Events delivered by watch pipelines, by operation.",
		}, []string{"op"}),
		watchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watch",
			Name:      "errors_total",
			Help:      "Recoverable errors observed by watch pipelines.",
		}),
		leaseClaims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lease",
			Name:      "claims_total",
			Help:      "Claims observed by lease coordinators, by lease name.",
		}, []string{"name"}),
		leaseHeld: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lease",
			Name:      "held",
			Help:      "Whether this process currently holds the named lease.",
		}, []string{"name"}),
	}
	m.registry.MustRegister(
		m.watchEvents,
		m.watchErrors,
		m.leaseClaims,
		m.leaseHeld,
	)
	return m
}

// Registry returns the registry backing this Metrics for the admin endpoint
// to serve. Returns nil on a nil receiver.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WatchEvent records a delivered pipeline event.
func (m *Metrics) WatchEvent(op string) {
	if m == nil {
		return
	}
	m.watchEvents.WithLabelValues(op).Inc()
}

// WatchError records a recoverable pipeline error.
func (m *Metrics) WatchError() {
	if m == nil {
		return
	}
	m.watchErrors.Inc()
}

// LeaseClaim records an observed claim for the named lease and whether it
// is held by this process.
func (m *Metrics) LeaseClaim(name string, held bool) {
	if m == nil {
		return
	}
	m.leaseClaims.WithLabelValues(name).Inc()
	v := 0.0
	if held {
		v = 1.0
	}
	m.leaseHeld.WithLabelValues(name).Set(v)
}
