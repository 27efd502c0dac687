// Package metrics exposes prometheus counters for core operations. Every
// service method records its outcome; invariant violations get their own
// counter so solvency regressions surface immediately on a dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insurance_core_operations_total",
		Help: "Count of core operations by component, action and outcome.",
	}, []string{"component", "action", "outcome"})

	InvariantViolationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insurance_core_invariant_violations_total",
		Help: "Count of rejected operations that would have violated a protocol invariant.",
	}, []string{"component", "invariant"})
)

func RecordOperation(component, action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	OperationsTotal.WithLabelValues(component, action, outcome).Inc()
}
