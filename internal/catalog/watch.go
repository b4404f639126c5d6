// SPDX-License-Identifier: MIT

package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/fivegmag/awareapp/internal/log"
)

const defaultDebounce = 300 * time.Millisecond

// Holder keeps the current catalogue and reloads it when the file changes.
// A reload that fails to parse keeps the previous catalogue.
type Holder struct {
	path     string
	debounce time.Duration
	logger   zerolog.Logger

	mu      sync.RWMutex
	current *Catalog

	listenersMu sync.RWMutex
	listeners   []func(*Catalog)
}

// NewHolder loads the catalogue at path.
func NewHolder(path string) (*Holder, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Holder{
		path:     filepath.Clean(path),
		debounce: defaultDebounce,
		logger:   log.WithComponent("catalog"),
		current:  c,
	}, nil
}

// Path returns the watched file.
func (h *Holder) Path() string {
	return h.path
}

// Get returns the current catalogue.
func (h *Holder) Get() *Catalog {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// OnReload registers fn to be called after every successful reload.
func (h *Holder) OnReload(fn func(*Catalog)) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Reload re-reads the file. On error the current catalogue stays in place.
func (h *Holder) Reload() error {
	c, err := Load(h.path)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str(log.FieldEvent, "catalog.reload_failed").
			Str(log.FieldPath, h.path).
			Msg("catalog reload failed, keeping previous sources")
		return err
	}

	h.mu.Lock()
	h.current = c
	h.mu.Unlock()

	h.logger.Info().
		Str(log.FieldEvent, "catalog.reloaded").
		Str(log.FieldPath, h.path).
		Int("sources", c.Len()).
		Msg("catalog reloaded")

	h.listenersMu.RLock()
	listeners := make([]func(*Catalog), len(h.listeners))
	copy(listeners, h.listeners)
	h.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(c)
	}
	return nil
}

// Watch blocks until ctx is done, reloading the catalogue whenever the file is
// written, created or renamed into place. The parent directory is watched so
// that editors replacing the file atomically are noticed.
func (h *Holder) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		return fmt.Errorf("watch catalog dir: %w", err)
	}

	h.logger.Info().
		Str(log.FieldEvent, "catalog.watcher_started").
		Str(log.FieldPath, h.path).
		Msg("watching catalog for changes")

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(log.FieldEvent, "catalog.watcher_stopped").Msg("catalog watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != h.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			h.logger.Debug().
				Str(log.FieldEvent, "catalog.file_changed").
				Str("op", event.Op.String()).
				Msg("catalog file changed")

			if timer == nil {
				timer = time.NewTimer(h.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(h.debounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			_ = h.Reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.logger.Error().
				Err(err).
				Str(log.FieldEvent, "catalog.watcher_error").
				Msg("catalog watcher error")
		}
	}
}
