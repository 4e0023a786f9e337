// Package redis provides a shared record cache so several API servers in
// front of one object storage backend reuse each other's loads. Entries
// expire; the store stays the source of truth.
package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/FCM-Registry/internal/domain/substance"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FCM-Registry/pkg/errors"
)

// Config holds redis connection and cache settings.
type Config struct {
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

func applyDefaults(cfg *Config) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "fcmreg:record:"
	}
}

// Cache implements the registry's RecordCache over redis. Reads that fail
// for any reason other than a plain miss degrade to the loader, so a redis
// outage slows lookups down instead of breaking them.
type Cache struct {
	rdb    redis.UniversalClient
	logger logging.Logger
	prefix string
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache connects to redis and verifies the connection.
func NewCache(cfg *Config, log logging.Logger) (*Cache, error) {
	applyDefaults(cfg)
	if log == nil {
		log = logging.NewNopLogger()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "connect to redis")
	}

	log.Info("record cache connected", logging.String("addr", cfg.Addr))
	return &Cache{
		rdb:    rdb,
		logger: log.Named("redis"),
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}, nil
}

func (c *Cache) key(id substance.ID) string {
	return c.prefix + id.Code()
}

// jitterTTL spreads expiries +/- 10% so a rebuild does not line every key
// up on the same deadline.
func (c *Cache) jitterTTL() time.Duration {
	jitter := float64(c.ttl) * 0.1 * (rand.Float64()*2 - 1)
	return c.ttl + time.Duration(jitter)
}

// GetOrLoad returns the cached record, or loads it once per key under
// singleflight and caches the result.
func (c *Cache) GetOrLoad(ctx context.Context, id substance.ID, load func(context.Context) (*substance.Record, error)) (*substance.Record, error) {
	data, err := c.rdb.Get(ctx, c.key(id)).Bytes()
	if err == nil {
		var rec substance.Record
		if uerr := json.Unmarshal(data, &rec); uerr == nil {
			return &rec, nil
		}
		// A corrupt entry is dropped and reloaded from the store.
		c.logger.Warn("corrupt cache entry dropped", logging.String("key", c.key(id)))
		c.rdb.Del(ctx, c.key(id))
	} else if err != redis.Nil {
		c.logger.Warn("record cache read failed", logging.String("key", c.key(id)), logging.Err(err))
	}

	v, err, _ := c.group.Do(string(id), func() (interface{}, error) {
		rec, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if data, merr := json.Marshal(rec); merr == nil {
			if serr := c.rdb.Set(ctx, c.key(id), data, c.jitterTTL()).Err(); serr != nil {
				c.logger.Warn("record cache write failed", logging.String("key", c.key(id)), logging.Err(serr))
			}
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*substance.Record), nil
}

// Purge removes every cached record under the configured prefix.
func (c *Cache) Purge(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, c.prefix+"*", 100).Result()
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeCacheError, "scan record cache")
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return errors.Wrap(err, errors.ErrCodeCacheError, "purge record cache")
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}
