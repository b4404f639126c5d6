// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for every configuration key.
const (
	DefaultLogLevel          = "info"
	DefaultLogService        = "awareapp"
	DefaultAssetsDir         = "assets"
	DefaultCatalogPath       = "config.properties.xml"
	DefaultM8DocumentName    = "m8.json"
	DefaultM8Timeout         = 10 * time.Second
	DefaultM8RateLimit       = 5.0
	DefaultM8RateBurst       = 5
	DefaultBreakerThreshold  = 5
	DefaultBreakerReset      = 30 * time.Second
	DefaultListenAddr        = ":8088"
	DefaultAPIRateLimit      = 600
	DefaultTelemetryExporter = "grpc"
	DefaultTelemetryEndpoint = "localhost:4317"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// Order is strict: parse file, apply env, resolve paths, validate.
func (l *Loader) Load() (AppConfig, error) {
	cfg := l.defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)

	if cfg.M8.UserAgent == "" {
		cfg.M8.UserAgent = DefaultUserAgent(l.version)
	}
	cfg.Version = l.version

	if abs, err := filepath.Abs(cfg.AssetsDir); err == nil {
		cfg.AssetsDir = abs
	}
	cfg.CatalogPath = ResolveCatalogPath(cfg.AssetsDir, cfg.CatalogPath)

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// DefaultUserAgent builds the User-Agent sent with remote M8 requests.
func DefaultUserAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return "awareapp/" + version
}

// ResolveCatalogPath returns path unchanged when absolute, otherwise joined onto assetsDir.
func ResolveCatalogPath(assetsDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(assetsDir, path)
}

func (l *Loader) defaults() AppConfig {
	return AppConfig{
		LogLevel:     DefaultLogLevel,
		LogService:   DefaultLogService,
		AssetsDir:    DefaultAssetsDir,
		CatalogPath:  DefaultCatalogPath,
		CatalogWatch: true,
		M8: M8Settings{
			DocumentName:     DefaultM8DocumentName,
			Timeout:          DefaultM8Timeout,
			RateLimit:        DefaultM8RateLimit,
			RateBurst:        DefaultM8RateBurst,
			BreakerThreshold: DefaultBreakerThreshold,
			BreakerReset:     DefaultBreakerReset,
		},
		APIListenAddr: DefaultListenAddr,
		APIRateLimit:  DefaultAPIRateLimit,
		Telemetry: TelemetrySettings{
			Exporter:     DefaultTelemetryExporter,
			Endpoint:     DefaultTelemetryEndpoint,
			SamplingRate: 1.0,
		},
	}
}

// loadFile parses a YAML configuration file. Unknown fields and multiple
// documents are rejected.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- path is operator supplied via --config
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &fileCfg, nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return nil, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); err == nil {
		return nil, fmt.Errorf("parse yaml: multiple documents are not supported")
	} else if !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	return &fileCfg, nil
}

func mergeFileConfig(dst *AppConfig, src *FileConfig) error {
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.LogService != "" {
		dst.LogService = src.LogService
	}
	if src.AssetsDir != "" {
		dst.AssetsDir = src.AssetsDir
	}

	if src.Catalog.Path != "" {
		dst.CatalogPath = src.Catalog.Path
	}
	if src.Catalog.Watch != nil {
		dst.CatalogWatch = *src.Catalog.Watch
	}
	if src.Catalog.DefaultKey != "" {
		dst.CatalogDefaultKey = src.Catalog.DefaultKey
	}

	m8 := src.M8
	if m8.DocumentName != "" {
		dst.M8.DocumentName = m8.DocumentName
	}
	if err := mergeDuration(&dst.M8.Timeout, m8.Timeout, "m8.timeout"); err != nil {
		return err
	}
	if err := mergeDuration(&dst.M8.CacheTTL, m8.CacheTTL, "m8.cacheTTL"); err != nil {
		return err
	}
	if err := mergeDuration(&dst.M8.BreakerReset, m8.BreakerReset, "m8.breakerReset"); err != nil {
		return err
	}
	if m8.RateLimit != nil {
		dst.M8.RateLimit = *m8.RateLimit
	}
	if m8.RateBurst != nil {
		dst.M8.RateBurst = *m8.RateBurst
	}
	if m8.UserAgent != "" {
		dst.M8.UserAgent = m8.UserAgent
	}
	if m8.BreakerThreshold != nil {
		dst.M8.BreakerThreshold = *m8.BreakerThreshold
	}

	if src.Cache.RedisAddr != "" {
		dst.RedisAddr = src.Cache.RedisAddr
	}
	if src.Cache.RedisPassword != "" {
		dst.RedisPassword = src.Cache.RedisPassword
	}
	if src.Cache.RedisDB != nil {
		dst.RedisDB = *src.Cache.RedisDB
	}

	if src.API.ListenAddr != "" {
		dst.APIListenAddr = src.API.ListenAddr
	}
	if src.API.RateLimit != nil {
		dst.APIRateLimit = *src.API.RateLimit
	}

	t := src.Telemetry
	if t.Enabled != nil {
		dst.Telemetry.Enabled = *t.Enabled
	}
	if t.Exporter != "" {
		dst.Telemetry.Exporter = t.Exporter
	}
	if t.Endpoint != "" {
		dst.Telemetry.Endpoint = t.Endpoint
	}
	if t.SamplingRate != nil {
		dst.Telemetry.SamplingRate = *t.SamplingRate
	}
	if t.Environment != "" {
		dst.Telemetry.Environment = t.Environment
	}
	return nil
}

func mergeDuration(dst *time.Duration, raw, field string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, raw, err)
	}
	*dst = d
	return nil
}

// mergeEnvConfig applies AWARE_* environment overrides on top of the current values.
func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.LogLevel = l.envString("AWARE_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = l.envString("AWARE_LOG_SERVICE", cfg.LogService)
	cfg.AssetsDir = l.envString("AWARE_ASSETS_DIR", cfg.AssetsDir)

	cfg.CatalogPath = l.envString("AWARE_CATALOG_PATH", cfg.CatalogPath)
	cfg.CatalogWatch = l.envBool("AWARE_CATALOG_WATCH", cfg.CatalogWatch)
	cfg.CatalogDefaultKey = l.envString("AWARE_CATALOG_DEFAULT_KEY", cfg.CatalogDefaultKey)

	cfg.M8.DocumentName = l.envString("AWARE_M8_DOCUMENT", cfg.M8.DocumentName)
	cfg.M8.Timeout = l.envDuration("AWARE_M8_TIMEOUT", cfg.M8.Timeout)
	cfg.M8.RateLimit = l.envFloat("AWARE_M8_RATE_LIMIT", cfg.M8.RateLimit)
	cfg.M8.RateBurst = l.envInt("AWARE_M8_RATE_BURST", cfg.M8.RateBurst)
	cfg.M8.UserAgent = l.envString("AWARE_M8_USER_AGENT", cfg.M8.UserAgent)
	cfg.M8.CacheTTL = l.envDuration("AWARE_M8_CACHE_TTL", cfg.M8.CacheTTL)
	cfg.M8.BreakerThreshold = l.envInt("AWARE_M8_BREAKER_THRESHOLD", cfg.M8.BreakerThreshold)
	cfg.M8.BreakerReset = l.envDuration("AWARE_M8_BREAKER_RESET", cfg.M8.BreakerReset)

	cfg.RedisAddr = l.envString("AWARE_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = l.envString("AWARE_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = l.envInt("AWARE_REDIS_DB", cfg.RedisDB)

	cfg.APIListenAddr = l.envString("AWARE_LISTEN", cfg.APIListenAddr)
	cfg.APIRateLimit = l.envInt("AWARE_API_RATE_LIMIT", cfg.APIRateLimit)

	cfg.Telemetry.Enabled = l.envBool("AWARE_OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString("AWARE_OTEL_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("AWARE_OTEL_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat("AWARE_OTEL_SAMPLING_RATE", cfg.Telemetry.SamplingRate)
	cfg.Telemetry.Environment = l.envString("AWARE_OTEL_ENVIRONMENT", cfg.Telemetry.Environment)
}
