// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sourceSelections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "awareapp_source_selections_total",
		Help: "Source selections by outcome",
	}, []string{"outcome"}) // outcome=applied|failed|superseded

	streamSelections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "awareapp_stream_selections_total",
		Help: "Stream selections by outcome",
	}, []string{"outcome"}) // outcome=applied|rejected

	playbackStarts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "awareapp_playback_starts_total",
		Help: "Playback initialisations handed to the media session by stream format",
	}, []string{"format"})

	formatChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "awareapp_playback_format_changes_total",
		Help: "Downstream format change events by track kind",
	}, []string{"kind"}) // kind=video|other

	activeServices = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "awareapp_active_services",
		Help: "Number of service list entries in the current M8 model",
	})

	catalogSources = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "awareapp_catalog_sources",
		Help: "Number of sources in the loaded catalogue",
	})

	catalogReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "awareapp_catalog_reloads_total",
		Help: "Catalogue reloads by outcome",
	}, []string{"outcome"}) // outcome=success|failure
)

// RecordSourceSelection records the outcome of a source selection.
func RecordSourceSelection(outcome string) {
	sourceSelections.WithLabelValues(outcome).Inc()
}

// RecordStreamSelection records the outcome of a stream selection.
func RecordStreamSelection(outcome string) {
	streamSelections.WithLabelValues(outcome).Inc()
}

// RecordPlaybackStart records a playback hand-off.
func RecordPlaybackStart(format string) {
	playbackStarts.WithLabelValues(format).Inc()
}

// RecordFormatChange records a downstream format change event.
func RecordFormatChange(video bool) {
	kind := "other"
	if video {
		kind = "video"
	}
	formatChanges.WithLabelValues(kind).Inc()
}

// SetActiveServices sets the service count of the current model.
func SetActiveServices(n int) {
	activeServices.Set(float64(n))
}

// SetCatalogSources sets the number of catalogue sources.
func SetCatalogSources(n int) {
	catalogSources.Set(float64(n))
}

// RecordCatalogReload records a catalogue reload attempt.
func RecordCatalogReload(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	catalogReloads.WithLabelValues(outcome).Inc()
}
