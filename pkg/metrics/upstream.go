package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics records calls made to the school REST API.
type UpstreamMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewUpstreamMetrics registers the upstream metrics on the provided registerer.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	if reg == nil {
		return &UpstreamMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of school API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_request_success",
		Help: "School API calls answered with a 2xx/3xx status.",
	}, []string{"method", "route"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_request_failure",
		Help: "School API calls that errored or returned >= 400.",
	}, []string{"method", "route", "status"})
	reg.MustRegister(duration, success, failure)
	return &UpstreamMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration of one call.
func (m *UpstreamMetrics) ObserveDuration(method, route string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(method, normalizeLabel(route)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter.
func (m *UpstreamMetrics) IncSuccess(method, route string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(method, normalizeLabel(route)).Inc()
}

// IncFailure increments the failure counter. status is 0 for transport errors.
func (m *UpstreamMetrics) IncFailure(method, route string, status int) {
	if m == nil || m.failure == nil {
		return
	}
	label := "transport"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.failure.WithLabelValues(method, normalizeLabel(route), label).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
