// SPDX-License-Identifier: MIT

package config

import "time"

// AppConfig is the effective configuration after defaults, file and
// environment have been merged.
type AppConfig struct {
	Version string

	LogLevel   string
	LogService string

	// AssetsDir is the root for bundled assets (catalogue and M8 JSON files).
	AssetsDir string

	CatalogPath       string
	CatalogWatch      bool
	CatalogDefaultKey string

	M8 M8Settings

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	APIListenAddr string
	APIRateLimit  int

	Telemetry TelemetrySettings
}

// M8Settings configures the M8 resolver.
type M8Settings struct {
	DocumentName     string
	Timeout          time.Duration
	RateLimit        float64
	RateBurst        int
	UserAgent        string
	CacheTTL         time.Duration
	BreakerThreshold int
	BreakerReset     time.Duration
}

// TelemetrySettings configures OpenTelemetry tracing.
type TelemetrySettings struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	SamplingRate float64
	Environment  string
}

// FileConfig is the on-disk YAML shape.
type FileConfig struct {
	LogLevel   string          `yaml:"logLevel,omitempty" json:"logLevel,omitempty"`
	LogService string          `yaml:"logService,omitempty" json:"logService,omitempty"`
	AssetsDir  string          `yaml:"assetsDir,omitempty" json:"assetsDir,omitempty"`
	Catalog    CatalogConfig   `yaml:"catalog,omitempty" json:"catalog,omitempty"`
	M8         M8Config        `yaml:"m8,omitempty" json:"m8,omitempty"`
	Cache      CacheConfig     `yaml:"cache,omitempty" json:"cache,omitempty"`
	API        APIConfig       `yaml:"api,omitempty" json:"api,omitempty"`
	Telemetry  TelemetryConfig `yaml:"telemetry,omitempty" json:"telemetry,omitempty"`
}

// CatalogConfig is the file shape of the source catalogue settings.
type CatalogConfig struct {
	Path       string `yaml:"path,omitempty" json:"path,omitempty"`
	Watch      *bool  `yaml:"watch,omitempty" json:"watch,omitempty"`
	DefaultKey string `yaml:"defaultKey,omitempty" json:"defaultKey,omitempty"`
}

// M8Config is the file shape of the resolver settings. Durations are Go duration strings.
type M8Config struct {
	DocumentName     string   `yaml:"documentName,omitempty" json:"documentName,omitempty"`
	Timeout          string   `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	RateLimit        *float64 `yaml:"rateLimit,omitempty" json:"rateLimit,omitempty"`
	RateBurst        *int     `yaml:"rateBurst,omitempty" json:"rateBurst,omitempty"`
	UserAgent        string   `yaml:"userAgent,omitempty" json:"userAgent,omitempty"`
	CacheTTL         string   `yaml:"cacheTTL,omitempty" json:"cacheTTL,omitempty"`
	BreakerThreshold *int     `yaml:"breakerThreshold,omitempty" json:"breakerThreshold,omitempty"`
	BreakerReset     string   `yaml:"breakerReset,omitempty" json:"breakerReset,omitempty"`
}

// CacheConfig selects the document cache backend.
type CacheConfig struct {
	RedisAddr     string `yaml:"redisAddr,omitempty" json:"redisAddr,omitempty"`
	RedisPassword string `yaml:"redisPassword,omitempty" json:"redisPassword,omitempty"`
	RedisDB       *int   `yaml:"redisDB,omitempty" json:"redisDB,omitempty"`
}

// APIConfig configures the HTTP control API.
type APIConfig struct {
	ListenAddr string `yaml:"listenAddr,omitempty" json:"listenAddr,omitempty"`
	RateLimit  *int   `yaml:"rateLimit,omitempty" json:"rateLimit,omitempty"`
}

// TelemetryConfig configures tracing export.
type TelemetryConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty" json:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty" json:"samplingRate,omitempty"`
	Environment  string   `yaml:"environment,omitempty" json:"environment,omitempty"`
}
