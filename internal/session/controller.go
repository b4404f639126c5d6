// SPDX-License-Identifier: MIT

// Package session owns the currently selected M8 source, the resolved model
// and the selected stream, and hands them to the media-session handler.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fivegmag/awareapp/internal/bus"
	"github.com/fivegmag/awareapp/internal/catalog"
	"github.com/fivegmag/awareapp/internal/log"
	"github.com/fivegmag/awareapp/internal/m8"
	"github.com/fivegmag/awareapp/internal/metrics"
	"github.com/fivegmag/awareapp/internal/playback"
	"github.com/fivegmag/awareapp/internal/telemetry"
)

var (
	ErrNoModel     = errors.New("session: no m8 model loaded")
	ErrStreamIndex = errors.New("session: stream index out of range")
	ErrSuperseded  = errors.New("session: selection superseded by a newer one")
	ErrNoCatalog   = errors.New("session: no source catalogue loaded")
)

// Resolver fetches and parses the M8 document at a location.
type Resolver interface {
	Resolve(ctx context.Context, location string) (m8.Model, error)
}

// Status is a point-in-time view of the session.
type Status struct {
	SourceKey   string    `json:"sourceKey"`
	Location    string    `json:"location"`
	BaseURL     string    `json:"baseUrl"`
	Services    int       `json:"services"`
	StreamIndex int       `json:"streamIndex"`
	Generation  uint64    `json:"generation"`
	LoadedAt    time.Time `json:"loadedAt,omitzero"`
	Loaded      bool      `json:"loaded"`
}

// Controller coordinates source selection, stream selection and playback hand-off.
// Failed resolves never modify its state.
type Controller struct {
	resolver Resolver
	handler  playback.MediaSessionHandler
	player   playback.Player
	bus      bus.Bus
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time

	// handoff serialises applying a model with the handler calls that follow it.
	handoff sync.Mutex

	mu          sync.RWMutex
	catalog     *catalog.Catalog
	current     *m8.Model
	selectedKey string
	location    string
	stream      int
	generation  uint64
	applied     uint64
	loadedAt    time.Time
}

// New creates a controller. b may be nil when no one listens for changes.
func New(cat *catalog.Catalog, r Resolver, handler playback.MediaSessionHandler, player playback.Player, b bus.Bus) *Controller {
	return &Controller{
		resolver: r,
		handler:  handler,
		player:   player,
		bus:      b,
		catalog:  cat,
		logger:   log.WithComponent("session"),
		tracer:   telemetry.Tracer("awareapp.session"),
		now:      time.Now,
	}
}

// SelectSource resolves the catalogue entry key and, if it is still the most
// recent selection when the fetch completes, makes it the current model.
func (c *Controller) SelectSource(ctx context.Context, key string) error {
	ctx, span := c.tracer.Start(ctx, "session.select_source")
	defer span.End()

	c.mu.Lock()
	if c.catalog == nil {
		c.mu.Unlock()
		return ErrNoCatalog
	}
	src, err := c.catalog.Lookup(key)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	span.SetAttributes(telemetry.SourceAttributes(src.Key, string(src.Kind), src.Location)...)
	span.SetAttributes(attribute.Int64(telemetry.GenerationKey, int64(gen)))
	logger := log.WithContext(ctx, c.logger).With().
		Str(log.FieldSourceKey, src.Key).
		Str(log.FieldLocation, src.Location).
		Str(log.FieldSourceKind, string(src.Kind)).
		Uint64(log.FieldGeneration, gen).
		Logger()

	model, err := c.resolver.Resolve(ctx, src.Location)
	if err != nil {
		metrics.RecordSourceSelection("failed")
		telemetry.RecordError(span, err, "resolve")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "m8.resolve_failed").
			Msg("failed to resolve m8 document, keeping current model")
		return fmt.Errorf("resolve source %q: %w", key, err)
	}

	c.handoff.Lock()
	defer c.handoff.Unlock()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		metrics.RecordSourceSelection("superseded")
		logger.Info().
			Str(log.FieldEvent, "m8.selection_superseded").
			Msg("discarding m8 model of superseded selection")
		return ErrSuperseded
	}
	c.current = &model
	c.selectedKey = src.Key
	c.location = src.Location
	c.stream = 0
	c.applied = gen
	c.loadedAt = c.now()
	c.mu.Unlock()

	metrics.RecordSourceSelection("applied")
	metrics.SetActiveServices(model.Len())
	logger.Info().
		Str(log.FieldEvent, "m8.applied").
		Str(log.FieldBaseURL, model.BaseURL).
		Int(log.FieldServices, model.Len()).
		Bool("legacy", model.Legacy).
		Msg("m8 model applied")

	if err := c.handOff(ctx, model); err != nil {
		telemetry.RecordError(span, err, "handoff")
		return err
	}

	if c.bus != nil {
		evt := bus.M8Changed{
			SourceKey:  src.Key,
			Location:   src.Location,
			BaseURL:    model.BaseURL,
			Services:   model.Len(),
			Generation: gen,
		}
		if err := c.bus.Publish(ctx, bus.TopicM8Changed, evt); err != nil {
			logger.Warn().Err(err).Str(log.FieldEvent, "m8.publish_failed").Msg("failed to publish m8 change")
		}
	}
	return nil
}

func (c *Controller) handOff(ctx context.Context, model m8.Model) error {
	if c.handler == nil {
		return nil
	}
	if err := c.handler.SetM5Endpoint(ctx, model.BaseURL); err != nil {
		return fmt.Errorf("set m5 endpoint: %w", err)
	}
	if err := c.handler.UpdateLookupTable(ctx, model); err != nil {
		return fmt.Errorf("update lookup table: %w", err)
	}
	return nil
}

// SelectStream makes service list entry i the selected stream.
func (c *Controller) SelectStream(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		metrics.RecordStreamSelection("rejected")
		return ErrNoModel
	}
	if i < 0 || i >= c.current.Len() {
		metrics.RecordStreamSelection("rejected")
		return fmt.Errorf("%w: %d not in [0,%d)", ErrStreamIndex, i, c.current.Len())
	}
	c.stream = i
	metrics.RecordStreamSelection("applied")
	c.logger.Debug().
		Str(log.FieldEvent, "session.stream_selected").
		Int(log.FieldStreamIndex, i).
		Msg("stream selected")
	return nil
}

// SelectedStream returns the selected index and entry.
func (c *Controller) SelectedStream() (int, m8.ServiceListEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.current == nil {
		return 0, m8.ServiceListEntry{}, ErrNoModel
	}
	entry, ok := c.current.Entry(c.stream)
	if !ok {
		return c.stream, m8.ServiceListEntry{}, fmt.Errorf("%w: model has no services", ErrStreamIndex)
	}
	return c.stream, entry, nil
}

// LoadStream stops the player and asks the media-session handler to start
// the selected stream.
func (c *Controller) LoadStream(ctx context.Context) (m8.ServiceListEntry, error) {
	ctx, span := c.tracer.Start(ctx, "session.load_stream")
	defer span.End()

	idx, entry, err := c.SelectedStream()
	if err != nil {
		telemetry.RecordError(span, err, "selection")
		return m8.ServiceListEntry{}, err
	}
	span.SetAttributes(telemetry.StreamAttributes(idx, entry.ProvisioningSessionID, len(entry.EntryPoints))...)

	if c.player != nil {
		if err := c.player.Stop(ctx); err != nil {
			telemetry.RecordError(span, err, "player")
			return m8.ServiceListEntry{}, fmt.Errorf("stop player: %w", err)
		}
	}
	if c.handler != nil {
		if err := c.handler.InitializePlaybackByServiceListEntry(ctx, entry); err != nil {
			telemetry.RecordError(span, err, "handler")
			return m8.ServiceListEntry{}, fmt.Errorf("initialize playback: %w", err)
		}
	}

	format := m8.FormatUnknown
	if len(entry.EntryPoints) > 0 {
		format = entry.EntryPoints[0].Format()
	}
	metrics.RecordPlaybackStart(string(format))

	l := log.WithContext(ctx, c.logger)
	l.Info().
		Str(log.FieldEvent, "session.stream_loaded").
		Int(log.FieldStreamIndex, idx).
		Str(log.FieldProvisioning, entry.ProvisioningSessionID).
		Msg("stream handed to media session")
	return entry, nil
}

// Current returns the current model. The second result is false before the
// first successful selection.
func (c *Controller) Current() (m8.Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return m8.Model{}, false
	}
	return *c.current, true
}

// Streams returns the current model and the selected stream index read under
// one lock. ok is false before the first successful selection.
func (c *Controller) Streams() (model m8.Model, selected int, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return m8.Model{}, 0, false
	}
	return *c.current, c.stream, true
}

// Sources lists the catalogue in order.
func (c *Controller) Sources() []catalog.Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.catalog == nil {
		return nil
	}
	return c.catalog.Sources()
}

// SelectedKey returns the key of the source the current model came from.
func (c *Controller) SelectedKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selectedKey
}

// Status reports the session state.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := Status{
		SourceKey:   c.selectedKey,
		Location:    c.location,
		StreamIndex: c.stream,
		Generation:  c.applied,
		LoadedAt:    c.loadedAt,
		Loaded:      c.current != nil,
	}
	if c.current != nil {
		st.BaseURL = c.current.BaseURL
		st.Services = c.current.Len()
	}
	return st
}

// Reset stops the player and resets the media session. The model is kept.
func (c *Controller) Reset(ctx context.Context) error {
	var errs []error
	if c.player != nil {
		if err := c.player.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop player: %w", err))
		}
	}
	if c.handler != nil {
		if err := c.handler.Reset(ctx); err != nil {
			errs = append(errs, fmt.Errorf("reset media session: %w", err))
		}
	}
	return errors.Join(errs...)
}

// OnCatalogReload swaps in a reloaded catalogue. The selected key is cleared
// when it no longer exists; the current model stays.
func (c *Controller) OnCatalogReload(cat *catalog.Catalog) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.catalog = cat
	metrics.SetCatalogSources(cat.Len())
	if c.selectedKey != "" && !cat.Contains(c.selectedKey) {
		c.logger.Warn().
			Str(log.FieldEvent, "session.selection_orphaned").
			Str(log.FieldSourceKey, c.selectedKey).
			Msg("selected source no longer in catalogue")
		c.selectedKey = ""
	}
}
