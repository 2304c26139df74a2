// Package telemetry holds the Prometheus collectors and OpenTelemetry helpers
// used by the resolver and router. Every method is safe on a nil receiver so
// callers never branch on whether metrics are enabled.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "hxtag"

// Metrics collects resolver and dispatch metrics.
type Metrics struct {
	resolutions      *prometheus.CounterVec
	resolveDuration  prometheus.Histogram
	renders          *prometheus.CounterVec
	dispatches       *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	components       prometheus.Gauge
}

// NewMetrics registers the collectors with reg. Registering twice against the
// same registerer panics, so build one Metrics per process and share it.
//
// Metrics collected:
//   - hxtag_resolutions_total: resolution passes by status (ok, error)
//   - hxtag_resolve_duration_seconds: wall time of a resolution pass
//   - hxtag_component_renders_total: render calls by tag and status
//   - hxtag_dispatch_total: requests by kind (route, page, fragment) and status code
//   - hxtag_dispatch_duration_seconds: request handling time by kind
//   - hxtag_registered_components: components currently registered
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Metrics{
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Total number of resolution passes by status",
		}, []string{"status"}),

		resolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Resolution pass duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		renders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "component_renders_total",
			Help:      "Total number of component render calls by tag and status",
		}, []string{"tag", "status"}),

		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Total number of dispatched requests by kind and status code",
		}, []string{"kind", "status"}),

		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Request handling duration in seconds by kind",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),

		components: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registered_components",
			Help:      "Number of registered components",
		}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveResolve records one finished resolution pass.
func (m *Metrics) ObserveResolve(start time.Time, err error) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(status(err)).Inc()
	m.resolveDuration.Observe(time.Since(start).Seconds())
}

// ObserveRender records one component render call.
func (m *Metrics) ObserveRender(tag string, err error) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(tag, status(err)).Inc()
}

// ObserveDispatch records one handled request.
func (m *Metrics) ObserveDispatch(kind string, code int, start time.Time) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(kind, statusCode(code)).Inc()
	m.dispatchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// SetComponents sets the registered component gauge.
func (m *Metrics) SetComponents(n int) {
	if m == nil {
		return
	}
	m.components.Set(float64(n))
}

func statusCode(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
