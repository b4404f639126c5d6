// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "awareapp_circuit_breaker_state",
		Help: "Circuit breaker state by host (1 for the active state, 0 otherwise)",
	}, []string{"host", "state"})

	circuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "awareapp_circuit_breaker_trips_total",
		Help: "Total number of circuit breaker transitions to open",
	}, []string{"host"})
)

var circuitStates = []string{"closed", "half-open", "open"}

// SetCircuitBreakerState records the active circuit breaker state for a host.
func SetCircuitBreakerState(host, state string) {
	for _, s := range circuitStates {
		value := 0.0
		if s == state {
			value = 1.0
		}
		circuitBreakerState.WithLabelValues(host, s).Set(value)
	}
}

// RecordCircuitBreakerTrip increments the trip counter when a breaker opens.
func RecordCircuitBreakerTrip(host string) {
	circuitBreakerTrips.WithLabelValues(host).Inc()
}
