// SPDX-License-Identifier: MIT

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels for M8 fetches.
const (
	ResultSuccess     = "success"
	ResultNotFound    = "not_found"
	ResultUpstream    = "upstream_error"
	ResultUnavailable = "unavailable"
	ResultTimeout     = "timeout"
	ResultCircuitOpen = "circuit_open"
	ResultRateLimited = "rate_limited"
	ResultBadResponse = "bad_response"
	ResultMalformed   = "malformed"
	ResultCacheHit    = "cache_hit"
)

var (
	m8FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "awareapp_m8_fetch_total",
		Help: "M8 document fetches by source kind and result",
	}, []string{"kind", "result"})

	m8FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "awareapp_m8_fetch_duration_seconds",
		Help:    "M8 document fetch latency by source kind",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"kind"})

	m8ParseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "awareapp_m8_parse_failures_total",
		Help: "M8 documents rejected by the parser by reason",
	}, []string{"reason"})

	m8DocumentBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "awareapp_m8_document_bytes",
		Help:    "Size of fetched M8 documents",
		Buckets: prometheus.ExponentialBuckets(256, 4, 7),
	})
)

// RecordM8Fetch records the outcome and latency of one M8 fetch.
func RecordM8Fetch(kind, result string, d time.Duration) {
	m8FetchTotal.WithLabelValues(kind, result).Inc()
	if result != ResultCacheHit {
		m8FetchDuration.WithLabelValues(kind).Observe(d.Seconds())
	}
}

// RecordM8ParseFailure records a document rejected by the parser.
func RecordM8ParseFailure(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m8ParseFailures.WithLabelValues(reason).Inc()
}

// ObserveM8DocumentSize records the size of a fetched document.
func ObserveM8DocumentSize(n int) {
	m8DocumentBytes.Observe(float64(n))
}
