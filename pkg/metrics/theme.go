package metrics

import "github.com/prometheus/client_golang/prometheus"

// ThemeMetrics counts theme context operations by name and outcome.
type ThemeMetrics struct {
	ops *prometheus.CounterVec
}

func NewThemeMetrics(reg prometheus.Registerer) *ThemeMetrics {
	if reg == nil {
		return &ThemeMetrics{}
	}
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "theme_operations_total",
		Help: "Theme context operations by name and outcome.",
	}, []string{"op", "outcome"})
	reg.MustRegister(ops)
	return &ThemeMetrics{ops: ops}
}

func (m *ThemeMetrics) Inc(op string, err error) {
	if m == nil || m.ops == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ops.WithLabelValues(normalizeLabel(op), outcome).Inc()
}
