// SPDX-License-Identifier: MIT

package config

import "net/url"

// ToFileConfig converts the effective configuration back into the YAML file shape.
// Secrets are masked.
func ToFileConfig(cfg AppConfig) FileConfig {
	watch := cfg.CatalogWatch
	rateLimit := cfg.M8.RateLimit
	rateBurst := cfg.M8.RateBurst
	threshold := cfg.M8.BreakerThreshold
	redisDB := cfg.RedisDB
	apiLimit := cfg.APIRateLimit
	enabled := cfg.Telemetry.Enabled
	sampling := cfg.Telemetry.SamplingRate

	fc := FileConfig{
		LogLevel:   cfg.LogLevel,
		LogService: cfg.LogService,
		AssetsDir:  cfg.AssetsDir,
		Catalog: CatalogConfig{
			Path:       cfg.CatalogPath,
			Watch:      &watch,
			DefaultKey: cfg.CatalogDefaultKey,
		},
		M8: M8Config{
			DocumentName:     cfg.M8.DocumentName,
			Timeout:          cfg.M8.Timeout.String(),
			RateLimit:        &rateLimit,
			RateBurst:        &rateBurst,
			UserAgent:        cfg.M8.UserAgent,
			CacheTTL:         cfg.M8.CacheTTL.String(),
			BreakerThreshold: &threshold,
			BreakerReset:     cfg.M8.BreakerReset.String(),
		},
		Cache: CacheConfig{
			RedisAddr: cfg.RedisAddr,
			RedisDB:   &redisDB,
		},
		API: APIConfig{
			ListenAddr: cfg.APIListenAddr,
			RateLimit:  &apiLimit,
		},
		Telemetry: TelemetryConfig{
			Enabled:      &enabled,
			Exporter:     cfg.Telemetry.Exporter,
			Endpoint:     MaskURL(cfg.Telemetry.Endpoint),
			SamplingRate: &sampling,
			Environment:  cfg.Telemetry.Environment,
		},
	}
	if cfg.RedisPassword != "" {
		fc.Cache.RedisPassword = "***"
	}
	return fc
}

// MaskURL removes userinfo from a URL for logging. Values that do not parse
// as URLs with a host are returned unchanged.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if u.User != nil {
		u.User = url.User("redacted")
	}
	return u.String()
}
