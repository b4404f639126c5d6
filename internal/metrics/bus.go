// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	busPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "awareapp_bus_published_total",
		Help: "Total number of events published on the in-memory bus",
	}, []string{"topic"})

	// BusDroppedTotal counts dropped deliveries. Exported for tests.
	BusDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "awareapp_bus_dropped_total",
		Help: "Total number of in-memory bus deliveries dropped by topic and reason",
	}, []string{"topic", "reason"})
)

// IncBusPublished records a published event.
func IncBusPublished(topic string) {
	if topic == "" {
		topic = "unknown"
	}
	busPublishedTotal.WithLabelValues(topic).Inc()
}

// IncBusDrop records a delivery dropped because the subscriber buffer was full.
func IncBusDrop(topic string) {
	IncBusDropReason(topic, "full")
}

// IncBusDropReason records a dropped delivery with a concrete reason.
func IncBusDropReason(topic, reason string) {
	if topic == "" {
		topic = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	BusDroppedTotal.WithLabelValues(topic, reason).Inc()
}
