// SPDX-License-Identifier: MIT

package playback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fivegmag/awareapp/internal/bus"
	"github.com/fivegmag/awareapp/internal/log"
	"github.com/fivegmag/awareapp/internal/metrics"
)

// DownstreamFormatChangedEvent is emitted by the player when the format of
// the media it is loading changes, e.g. on a representation switch.
type DownstreamFormatChangedEvent struct {
	ContainerMimeType string `json:"containerMimeType"`
	PeakBitrate       int    `json:"peakBitrate"`
	RepresentationID  string `json:"representationId"`
}

// RepresentationInfo renders the event for display. Only video containers
// produce text; the second result is false for everything else.
func RepresentationInfo(ev DownstreamFormatChangedEvent) (string, bool) {
	if !strings.Contains(strings.ToLower(ev.ContainerMimeType), "video") {
		return "", false
	}
	return fmt.Sprintf("%d kbit/s | representation %s", ev.PeakBitrate/1000, ev.RepresentationID), true
}

// Representation is the last rendered representation text.
type Representation struct {
	Text      string                       `json:"text"`
	Event     DownstreamFormatChangedEvent `json:"event"`
	UpdatedAt time.Time                    `json:"updatedAt"`
}

// EventHandler consumes format change events from the bus and keeps the
// latest representation text.
type EventHandler struct {
	bus    bus.Bus
	logger zerolog.Logger

	mu     sync.RWMutex
	latest *Representation
	ready  chan struct{}
	once   sync.Once
}

// NewEventHandler creates a handler reading from b.
func NewEventHandler(b bus.Bus) *EventHandler {
	return &EventHandler{
		bus:    b,
		logger: log.WithComponent("playback"),
		ready:  make(chan struct{}),
	}
}

// Run subscribes to bus.TopicFormatChanged and handles events until ctx is done.
func (h *EventHandler) Run(ctx context.Context) error {
	sub, err := h.bus.Subscribe(ctx, bus.TopicFormatChanged)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", bus.TopicFormatChanged, err)
	}
	defer func() { _ = sub.Close() }()
	h.once.Do(func() { close(h.ready) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.C():
			if !ok {
				return nil
			}
			ev, ok := msg.(DownstreamFormatChangedEvent)
			if !ok {
				h.logger.Warn().
					Str(log.FieldEvent, "playback.unexpected_message").
					Str("type", fmt.Sprintf("%T", msg)).
					Msg("ignoring unexpected message on format topic")
				continue
			}
			h.Handle(ev)
		}
	}
}

// Ready is closed once Run has subscribed.
func (h *EventHandler) Ready() <-chan struct{} {
	return h.ready
}

// Handle applies one event directly.
func (h *EventHandler) Handle(ev DownstreamFormatChangedEvent) {
	text, ok := RepresentationInfo(ev)
	metrics.RecordFormatChange(ok)
	if !ok {
		return
	}

	h.mu.Lock()
	h.latest = &Representation{Text: text, Event: ev, UpdatedAt: time.Now()}
	h.mu.Unlock()

	h.logger.Debug().
		Str(log.FieldEvent, "playback.representation_changed").
		Str("representation", text).
		Msg("representation changed")
}

// ErrNoRepresentation is returned before any video format event arrived.
var ErrNoRepresentation = errors.New("no representation reported yet")

// Latest returns the most recent representation.
func (h *EventHandler) Latest() (Representation, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return Representation{}, ErrNoRepresentation
	}
	return *h.latest, nil
}
