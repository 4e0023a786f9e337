package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all registry settings.
const envPrefix = "FCMREG"

// newViper builds a pre-configured Viper instance with the registry's
// standard settings: YAML file type, FCMREG_ env prefix, automatic env
// binding, and a key replacer that maps "." → "_" so that nested keys like
// "storage.backend" resolve to "FCMREG_STORAGE_BACKEND".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads the YAML file at configPath, merges any FCMREG_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result. It returns a fully-populated *Config or a descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// configKeys lists every settable key. Viper only consults the environment
// for keys it already knows, so LoadFromEnv binds the whole list up front.
var configKeys = []string{
	"server.port", "server.read_timeout", "server.write_timeout", "server.shutdown_timeout",
	"storage.backend", "storage.dir",
	"storage.minio.endpoint", "storage.minio.access_key_id", "storage.minio.secret_access_key",
	"storage.minio.use_ssl", "storage.minio.region", "storage.minio.bucket", "storage.minio.prefix",
	"cache.backend",
	"cache.redis.addr", "cache.redis.username", "cache.redis.password", "cache.redis.db",
	"cache.redis.pool_size", "cache.redis.dial_timeout", "cache.redis.read_timeout",
	"cache.redis.write_timeout", "cache.redis.ttl", "cache.redis.prefix",
	"source.csv_path",
	"enrichment.enabled", "enrichment.base_url", "enrichment.timeout", "enrichment.retry_max",
	"worker.interval", "worker.watch", "worker.debounce",
	"metrics.enabled", "metrics.enable_go_metrics", "metrics.enable_process_metrics",
	"log.level", "log.format", "log.output_paths", "log.error_output_paths",
}

// LoadFromEnv builds a Config entirely from FCMREG_* environment variables,
// with no config file required. This is the preferred loading strategy for
// containerised deployments.
//
// Environment variable naming convention:
//
//	FCMREG_<SECTION>_<FIELD>   e.g.  FCMREG_SOURCE_CSV_PATH, FCMREG_CACHE_REDIS_ADDR
func LoadFromEnv() (*Config, error) {
	v := newViper()
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the newly parsed
// Config whenever the file changes on disk. Intended for hot-reloading
// non-critical settings such as the log level; callers apply only the safe
// subset of changes at runtime.
//
// Watch is non-blocking; the watching goroutine is managed by viper. A
// change that fails to parse or validate is dropped without invoking
// onChange so the application never sees a broken configuration.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read; errors surface through Load, which callers run first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// Intended for main(), where a config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
