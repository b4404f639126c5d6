// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fivegmag/awareapp/internal/api"
	"github.com/fivegmag/awareapp/internal/bus"
	"github.com/fivegmag/awareapp/internal/catalog"
	"github.com/fivegmag/awareapp/internal/config"
	"github.com/fivegmag/awareapp/internal/health"
	"github.com/fivegmag/awareapp/internal/log"
	"github.com/fivegmag/awareapp/internal/playback"
	"github.com/fivegmag/awareapp/internal/session"
	"github.com/fivegmag/awareapp/internal/telemetry"
	"github.com/fivegmag/awareapp/internal/version"
)

const shutdownTimeout = 15 * time.Second

func runServe(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("awareapp serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file (YAML)")
	listen := fs.String("listen", "", "override api.listenAddr")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}
	if *listen != "" {
		cfg.APIListenAddr = *listen
	}

	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})
	logger := log.WithComponent("daemon")
	logger.Info().
		Str(log.FieldEvent, "config.loaded").
		Str("config_path", *configPath).
		Str("assets_dir", cfg.AssetsDir).
		Str("catalog", cfg.CatalogPath).
		Msg("configuration loaded")

	if err := serve(ctx, cfg, nil); err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "daemon.failed").Msg("awareapp stopped with error")
		return 1
	}
	logger.Info().Str(log.FieldEvent, "daemon.stopped").Msg("awareapp stopped")
	return 0
}

// serve runs the application until ctx is done. When ready is non-nil it
// receives the bound API address once the server accepts connections.
func serve(ctx context.Context, cfg config.AppConfig, ready chan<- string) error {
	logger := log.WithComponent("daemon")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn().Err(err).Msg("telemetry shutdown")
		}
	}()

	holder, err := catalog.NewHolder(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	docCache, redisCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = docCache.Close() }()

	adapter := playback.NewLogAdapter()
	eventBus := bus.NewMemoryBus()
	events := playback.NewEventHandler(eventBus)
	tracker := session.NewTracker(eventBus)
	ctrl := session.New(holder.Get(), newResolver(cfg, docCache), adapter, adapter, eventBus)
	holder.OnReload(ctrl.OnCatalogReload)
	holder.OnReload(clearOnReload(docCache))

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewFileChecker("catalog_file", holder.Path()))
	hm.RegisterChecker(health.NewCountChecker("catalog", "sources", func() int { return holder.Get().Len() }))
	hm.RegisterChecker(tracker)
	hm.RegisterChecker(newCacheChecker(docCache))
	if redisCache != nil {
		hm.RegisterChecker(health.NewPingChecker("redis", redisCache.HealthCheck))
	}

	srv := api.New(api.Deps{
		Session:         ctrl,
		Representations: events,
		Bus:             eventBus,
		Catalog:         holder,
		Health:          hm,
		Version:         cfg.Version,
		RateLimit:       cfg.APIRateLimit,
		TracingService:  cfg.LogService,
	}).HTTPServer(cfg.APIListenAddr)

	ln, err := net.Listen("tcp", cfg.APIListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.APIListenAddr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return events.Run(gctx) })
	g.Go(func() error { return tracker.Run(gctx) })

	if cfg.CatalogWatch {
		g.Go(func() error {
			if err := holder.Watch(gctx); err != nil {
				logger.Warn().Err(err).Str(log.FieldEvent, "catalog.watch_failed").Msg("catalogue hot reload disabled")
			}
			return nil
		})
	}

	g.Go(func() error {
		// Events posted before the consumers subscribed would be dropped.
		for _, subscribed := range []<-chan struct{}{events.Ready(), tracker.Ready()} {
			select {
			case <-subscribed:
			case <-gctx.Done():
				_ = ln.Close()
				return nil
			}
		}
		logger.Info().
			Str(log.FieldEvent, "api.listening").
			Str("addr", ln.Addr().String()).
			Str("version", version.Version).
			Msg("API server listening (HTTP)")
		if ready != nil {
			ready <- ln.Addr().String()
		}
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("API server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		logger.Info().Str(log.FieldEvent, "api.shutdown").Msg("shutting down API server")
		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("API server shutdown: %w", err))
		}
		if err := ctrl.Reset(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("playback reset: %w", err))
		}
		return errors.Join(errs...)
	})

	g.Go(func() error {
		select {
		case <-tracker.Ready():
		case <-gctx.Done():
			return nil
		}
		selectInitialSource(gctx, ctrl, holder.Get(), cfg.CatalogDefaultKey)
		return nil
	})

	return g.Wait()
}

// selectInitialSource selects the configured default key, or the first
// catalogue entry. Failures are logged; the API stays up for a later selection.
func selectInitialSource(ctx context.Context, ctrl *session.Controller, cat *catalog.Catalog, defaultKey string) {
	logger := log.WithComponent("daemon")
	key := defaultKey
	if key == "" {
		keys := cat.Keys()
		if len(keys) == 0 {
			return
		}
		key = keys[0]
	} else if !cat.Contains(key) {
		logger.Warn().
			Str(log.FieldEvent, "catalog.default_key_missing").
			Str(log.FieldSourceKey, key).
			Msg("configured default source is not in the catalogue")
		return
	}

	if err := ctrl.SelectSource(ctx, key); err != nil && !errors.Is(err, session.ErrSuperseded) {
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "m8.initial_select_failed").
			Str(log.FieldSourceKey, key).
			Msg("initial source selection failed")
	}
}
