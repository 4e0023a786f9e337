// Package config defines all configuration structures for FCM-Registry.
// No I/O or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig selects and parameterises the document store backing the
// registry.
type StorageConfig struct {
	// Backend is "fs" for a plain directory or "minio" for S3-compatible
	// object storage.
	Backend string      `mapstructure:"backend"`
	Dir     string      `mapstructure:"dir"`
	MinIO   MinIOConfig `mapstructure:"minio"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
}

// CacheConfig selects and parameterises the record cache.
type CacheConfig struct {
	// Backend is "memory" for the in-process cache or "redis" for a
	// shared one.
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	TTL          time.Duration `mapstructure:"ttl"`
	Prefix       string        `mapstructure:"prefix"`
}

// SourceConfig locates the GB 9685-2016 appendix A source table.
type SourceConfig struct {
	CSVPath string `mapstructure:"csv_path"`
}

// EnrichmentConfig holds compound-database lookup parameters.
type EnrichmentConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	RetryMax int           `mapstructure:"retry_max"`
}

// WorkerConfig holds background rebuild parameters.
type WorkerConfig struct {
	// Interval between periodic full rebuilds; 0 disables the ticker.
	Interval time.Duration `mapstructure:"interval"`

	// Watch triggers a rebuild when the source table changes on disk.
	Watch bool `mapstructure:"watch"`

	// Debounce coalesces bursts of file events into one rebuild.
	Debounce time.Duration `mapstructure:"debounce"`

	// HealthPort is the worker's probe listener. Negative disables it.
	HealthPort int `mapstructure:"health_port"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled              bool `mapstructure:"enabled"`
	EnableGoMetrics      bool `mapstructure:"enable_go_metrics"`
	EnableProcessMetrics bool `mapstructure:"enable_process_metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the registry. Every
// component reads its settings from the relevant sub-struct.
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Storage    StorageConfig     `mapstructure:"storage"`
	Cache      CacheConfig       `mapstructure:"cache"`
	Source     SourceConfig      `mapstructure:"source"`
	Enrichment EnrichmentConfig  `mapstructure:"enrichment"`
	Worker     WorkerConfig      `mapstructure:"worker"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
	Log        logging.LogConfig `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}

	// Storage
	switch c.Storage.Backend {
	case "fs":
		if c.Storage.Dir == "" {
			return fmt.Errorf("config: storage.dir is required for the fs backend")
		}
	case "minio":
		if c.Storage.MinIO.Endpoint == "" {
			return fmt.Errorf("config: storage.minio.endpoint is required for the minio backend")
		}
		if c.Storage.MinIO.AccessKeyID == "" || c.Storage.MinIO.SecretAccessKey == "" {
			return fmt.Errorf("config: storage.minio credentials are required for the minio backend")
		}
	default:
		return fmt.Errorf("config: storage.backend %q is invalid; expected fs|minio", c.Storage.Backend)
	}

	// Cache
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("config: cache.redis.addr is required for the redis backend")
		}
		if c.Cache.Redis.DB < 0 {
			return fmt.Errorf("config: cache.redis.db must be ≥ 0, got %d", c.Cache.Redis.DB)
		}
	default:
		return fmt.Errorf("config: cache.backend %q is invalid; expected memory|redis", c.Cache.Backend)
	}

	// Source
	if c.Source.CSVPath == "" {
		return fmt.Errorf("config: source.csv_path is required")
	}

	// Enrichment
	if c.Enrichment.Enabled {
		if c.Enrichment.BaseURL == "" {
			return fmt.Errorf("config: enrichment.base_url is required when enrichment is enabled")
		}
		if c.Enrichment.RetryMax < 0 {
			return fmt.Errorf("config: enrichment.retry_max must be ≥ 0, got %d", c.Enrichment.RetryMax)
		}
	}

	// Worker
	if c.Worker.Interval < 0 {
		return fmt.Errorf("config: worker.interval must be ≥ 0, got %v", c.Worker.Interval)
	}
	if c.Worker.Debounce < 0 {
		return fmt.Errorf("config: worker.debounce must be ≥ 0, got %v", c.Worker.Debounce)
	}
	if c.Worker.HealthPort > 65535 {
		return fmt.Errorf("config: worker.health_port %d is out of range", c.Worker.HealthPort)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
