// SPDX-License-Identifier: MIT

package playback

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fivegmag/awareapp/internal/log"
	"github.com/fivegmag/awareapp/internal/m8"
)

// Request records one playback hand-off.
type Request struct {
	Entry       m8.ServiceListEntry `json:"entry"`
	Format      m8.Format           `json:"format"`
	RequestedAt time.Time           `json:"requestedAt"`
}

// State is a snapshot of what the LogAdapter has been told.
type State struct {
	M5Endpoint   string   `json:"m5Endpoint"`
	LookupTable  int      `json:"lookupTableEntries"`
	Playing      bool     `json:"playing"`
	LastPlayback *Request `json:"lastPlayback,omitempty"`
	Stops        int      `json:"stops"`
}

// LogAdapter implements MediaSessionHandler and Player by logging every call
// and remembering the resulting state. It stands in for a real media stack.
type LogAdapter struct {
	mu     sync.Mutex
	state  State
	logger zerolog.Logger
	now    func() time.Time
}

// NewLogAdapter creates a LogAdapter.
func NewLogAdapter() *LogAdapter {
	return &LogAdapter{logger: log.WithComponent("playback"), now: time.Now}
}

func (a *LogAdapter) SetM5Endpoint(ctx context.Context, baseURL string) error {
	a.mu.Lock()
	a.state.M5Endpoint = baseURL
	a.mu.Unlock()

	a.log(ctx).Info().
		Str(log.FieldEvent, "playback.m5_endpoint_set").
		Str(log.FieldBaseURL, baseURL).
		Msg("m5 endpoint updated")
	return nil
}

func (a *LogAdapter) UpdateLookupTable(ctx context.Context, model m8.Model) error {
	a.mu.Lock()
	a.state.LookupTable = model.Len()
	a.mu.Unlock()

	a.log(ctx).Info().
		Str(log.FieldEvent, "playback.lookup_table_updated").
		Int(log.FieldServices, model.Len()).
		Msg("lookup table updated")
	return nil
}

func (a *LogAdapter) InitializePlaybackByServiceListEntry(ctx context.Context, entry m8.ServiceListEntry) error {
	format := m8.FormatUnknown
	if len(entry.EntryPoints) > 0 {
		format = entry.EntryPoints[0].Format()
	}

	a.mu.Lock()
	a.state.Playing = true
	a.state.LastPlayback = &Request{Entry: entry, Format: format, RequestedAt: a.now()}
	a.mu.Unlock()

	a.log(ctx).Info().
		Str(log.FieldEvent, "playback.initialized").
		Str(log.FieldProvisioning, entry.ProvisioningSessionID).
		Str("name", entry.Label()).
		Int("entry_points", len(entry.EntryPoints)).
		Str("format", string(format)).
		Msg("playback initialised")
	return nil
}

func (a *LogAdapter) Reset(ctx context.Context) error {
	a.mu.Lock()
	a.state = State{Stops: a.state.Stops}
	a.mu.Unlock()

	a.log(ctx).Info().
		Str(log.FieldEvent, "playback.reset").
		Msg("media session reset")
	return nil
}

func (a *LogAdapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	wasPlaying := a.state.Playing
	a.state.Playing = false
	a.state.Stops++
	a.mu.Unlock()

	a.log(ctx).Debug().
		Str(log.FieldEvent, "playback.stopped").
		Bool("was_playing", wasPlaying).
		Msg("player stopped")
	return nil
}

func (a *LogAdapter) log(ctx context.Context) *zerolog.Logger {
	l := log.WithContext(ctx, a.logger)
	return &l
}

// State returns a copy of the current state.
func (a *LogAdapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.state
	if s.LastPlayback != nil {
		req := *s.LastPlayback
		s.LastPlayback = &req
	}
	return s
}

var (
	_ MediaSessionHandler = (*LogAdapter)(nil)
	_ Player              = (*LogAdapter)(nil)
)
