package resilience

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

var (
	breakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "breaker_state",
		Help: "Current breaker state: 0=closed, 1=open, 2=half-open.",
	}, []string{"target"})
	breakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "breaker_transitions_total",
		Help: "Breaker state transitions.",
	}, []string{"target", "from", "to"})
	breakerRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "breaker_rejected_total",
		Help: "Calls refused while the breaker was open.",
	}, []string{"target"})
)

// MustRegisterMetrics registers the breaker collectors with reg.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(breakerState, breakerTransitions, breakerRejected)
}

func recordTransition(target string, from, to gobreaker.State) {
	breakerState.WithLabelValues(target).Set(stateValue(to))
	breakerTransitions.WithLabelValues(target, from.String(), to.String()).Inc()
}
