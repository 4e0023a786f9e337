package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultStorageBackend = "fs"
	DefaultStorageDir     = "data/registry"
	DefaultMinIOEndpoint  = "localhost:9000"

	DefaultCacheBackend = "memory"
	DefaultRedisAddr    = "localhost:6379"
	DefaultRedisTTL     = 15 * time.Minute
	DefaultRedisPrefix  = "fcmreg:record:"

	DefaultSourceCSV = "data/GB9685_2016.csv"

	DefaultPubChemBaseURL    = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"
	DefaultEnrichmentTimeout = 30 * time.Second
	DefaultEnrichmentRetries = 3

	DefaultWorkerDebounce   = 2 * time.Second
	DefaultWorkerHealthPort = 8081

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the registry
// default. Fields already set by the caller are left unchanged so explicit
// configuration always wins. It must run after unmarshalling and before
// Validate so optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// Server
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Storage
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = DefaultStorageDir
	}
	if cfg.Storage.MinIO.Endpoint == "" {
		cfg.Storage.MinIO.Endpoint = DefaultMinIOEndpoint
	}

	// Cache
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.Redis.Addr == "" {
		cfg.Cache.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Cache.Redis.TTL == 0 {
		cfg.Cache.Redis.TTL = DefaultRedisTTL
	}
	if cfg.Cache.Redis.Prefix == "" {
		cfg.Cache.Redis.Prefix = DefaultRedisPrefix
	}

	// Source
	if cfg.Source.CSVPath == "" {
		cfg.Source.CSVPath = DefaultSourceCSV
	}

	// Enrichment. Enabled is a bool, so "not set" is indistinguishable
	// from "off"; the shipped config file enables it explicitly.
	if cfg.Enrichment.BaseURL == "" {
		cfg.Enrichment.BaseURL = DefaultPubChemBaseURL
	}
	if cfg.Enrichment.Timeout == 0 {
		cfg.Enrichment.Timeout = DefaultEnrichmentTimeout
	}
	if cfg.Enrichment.RetryMax == 0 {
		cfg.Enrichment.RetryMax = DefaultEnrichmentRetries
	}

	// Worker. Interval stays as configured: 0 means no periodic rebuild.
	if cfg.Worker.Debounce == 0 {
		cfg.Worker.Debounce = DefaultWorkerDebounce
	}
	if cfg.Worker.HealthPort == 0 {
		cfg.Worker.HealthPort = DefaultWorkerHealthPort
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
