// SPDX-License-Identifier: MIT

package config

import (
	"strings"
	"time"

	"github.com/fivegmag/awareapp/internal/validate"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the merged configuration and returns every problem found.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.OneOf("logLevel", strings.ToLower(cfg.LogLevel), logLevels)
	v.Directory("assetsDir", cfg.AssetsDir)
	v.NotEmpty("catalog.path", cfg.CatalogPath)

	v.NotEmpty("m8.documentName", cfg.M8.DocumentName)
	if strings.ContainsAny(cfg.M8.DocumentName, "/\\") {
		v.AddError("m8.documentName", "must be a bare file name", cfg.M8.DocumentName)
	}
	v.MinDuration("m8.timeout", cfg.M8.Timeout, 100*time.Millisecond)
	if cfg.M8.RateLimit <= 0 {
		v.AddError("m8.rateLimit", "must be greater than zero", cfg.M8.RateLimit)
	}
	v.Positive("m8.rateBurst", cfg.M8.RateBurst)
	if cfg.M8.CacheTTL < 0 {
		v.AddError("m8.cacheTTL", "must not be negative", cfg.M8.CacheTTL)
	}
	v.NonNegative("m8.breakerThreshold", cfg.M8.BreakerThreshold)
	if cfg.M8.BreakerThreshold > 0 {
		v.MinDuration("m8.breakerReset", cfg.M8.BreakerReset, time.Second)
	}

	v.NonNegative("cache.redisDB", cfg.RedisDB)

	v.ListenAddr("api.listenAddr", cfg.APIListenAddr)
	v.Positive("api.rateLimit", cfg.APIRateLimit)

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("telemetry.samplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	return v.Err()
}
