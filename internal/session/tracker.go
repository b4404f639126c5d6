// SPDX-License-Identifier: MIT

package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fivegmag/awareapp/internal/bus"
	"github.com/fivegmag/awareapp/internal/health"
	"github.com/fivegmag/awareapp/internal/log"
)

// Tracker follows m8.changed announcements and reports the last applied model
// as the "m8" health check.
type Tracker struct {
	bus    bus.Bus
	logger zerolog.Logger

	mu      sync.RWMutex
	last    *bus.M8Changed
	changes int
	ready   chan struct{}
	once    sync.Once
}

// NewTracker creates a tracker reading from b.
func NewTracker(b bus.Bus) *Tracker {
	return &Tracker{
		bus:    b,
		logger: log.WithComponent("session"),
		ready:  make(chan struct{}),
	}
}

// Run subscribes to bus.TopicM8Changed and records announcements until ctx is done.
func (t *Tracker) Run(ctx context.Context) error {
	sub, err := t.bus.Subscribe(ctx, bus.TopicM8Changed)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", bus.TopicM8Changed, err)
	}
	defer func() { _ = sub.Close() }()
	t.once.Do(func() { close(t.ready) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.C():
			if !ok {
				return nil
			}
			ev, ok := msg.(bus.M8Changed)
			if !ok {
				continue
			}
			t.record(ev)
		}
	}
}

// Ready is closed once Run has subscribed.
func (t *Tracker) Ready() <-chan struct{} {
	return t.ready
}

func (t *Tracker) record(ev bus.M8Changed) {
	t.mu.Lock()
	t.last = &ev
	t.changes++
	changes := t.changes
	t.mu.Unlock()

	t.logger.Info().
		Str(log.FieldEvent, "m8.changed").
		Str(log.FieldSourceKey, ev.SourceKey).
		Str(log.FieldBaseURL, ev.BaseURL).
		Int(log.FieldServices, ev.Services).
		Uint64(log.FieldGeneration, ev.Generation).
		Int("changes", changes).
		Msg("stream list refreshed")
}

// Last returns the most recent announcement.
func (t *Tracker) Last() (bus.M8Changed, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.last == nil {
		return bus.M8Changed{}, false
	}
	return *t.last, true
}

// Name implements health.Checker.
func (t *Tracker) Name() string { return "m8" }

// Check is degraded until a model has been announced.
func (t *Tracker) Check(_ context.Context) health.CheckResult {
	last, ok := t.Last()
	if !ok {
		return health.CheckResult{Status: health.StatusDegraded, Message: "no m8 model loaded"}
	}
	return health.CheckResult{
		Status:  health.StatusHealthy,
		Message: fmt.Sprintf("%s: %d services (generation %d)", last.SourceKey, last.Services, last.Generation),
	}
}
