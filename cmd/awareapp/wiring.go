// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fivegmag/awareapp/internal/cache"
	"github.com/fivegmag/awareapp/internal/catalog"
	"github.com/fivegmag/awareapp/internal/config"
	"github.com/fivegmag/awareapp/internal/health"
	"github.com/fivegmag/awareapp/internal/log"
	"github.com/fivegmag/awareapp/internal/resilience"
	"github.com/fivegmag/awareapp/internal/resolver"
	"github.com/fivegmag/awareapp/internal/version"
)

func loadConfig(path string) (config.AppConfig, error) {
	return config.NewLoader(path, version.Version).Load()
}

// newCache picks Redis when an address is configured, an in-memory cache when
// only a TTL is set, and no cache otherwise.
func newCache(ctx context.Context, cfg config.AppConfig) (cache.Cache, *cache.RedisCache, error) {
	switch {
	case cfg.RedisAddr != "":
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, log.WithComponent("cache"))
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return rc, rc, nil
	case cfg.M8.CacheTTL > 0:
		return cache.NewMemoryCache(cfg.M8.CacheTTL), nil, nil
	default:
		return cache.NewNoOpCache(), nil, nil
	}
}

// newCacheChecker reports document cache counters as the "m8_cache" check.
func newCacheChecker(c cache.Cache) health.Checker {
	return health.NewFuncChecker("m8_cache", func(context.Context) health.CheckResult {
		st := c.Stats()
		return health.CheckResult{
			Status:  health.StatusHealthy,
			Message: fmt.Sprintf("%d entries, %d hits, %d misses", st.CurrentSize, st.Hits, st.Misses),
		}
	})
}

// clearOnReload drops cached documents when the catalogue is reloaded, so an
// operator-triggered reload also refetches every source.
func clearOnReload(c cache.Cache) func(*catalog.Catalog) {
	return func(*catalog.Catalog) {
		c.Clear(context.Background())
	}
}

func newResolver(cfg config.AppConfig, c cache.Cache) *resolver.Resolver {
	return resolver.New(resolver.Options{
		Assets:       os.DirFS(cfg.AssetsDir),
		DocumentName: cfg.M8.DocumentName,
		Timeout:      cfg.M8.Timeout,
		UserAgent:    cfg.M8.UserAgent,
		RateLimit:    cfg.M8.RateLimit,
		RateBurst:    cfg.M8.RateBurst,
		Cache:        c,
		CacheTTL:     cfg.M8.CacheTTL,
		Breakers:     resilience.NewRegistry(cfg.M8.BreakerThreshold, cfg.M8.BreakerReset),
	})
}
