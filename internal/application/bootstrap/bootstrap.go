// Package bootstrap assembles the registry's infrastructure from its
// configuration: the document store, the record cache, the compound
// resolver, and the ingestion service. The API server, the worker, and the
// CLI all wire their stacks through it so backend selection lives in one
// place.
package bootstrap

import (
	"context"

	"github.com/turtacn/FCM-Registry/internal/application/ingestion"
	"github.com/turtacn/FCM-Registry/internal/application/registry"
	"github.com/turtacn/FCM-Registry/internal/config"
	"github.com/turtacn/FCM-Registry/internal/domain/substance"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/cache/memory"
	rediscache "github.com/turtacn/FCM-Registry/internal/infrastructure/cache/redis"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/enrichment/pubchem"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/storage"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/storage/fs"
	miniostore "github.com/turtacn/FCM-Registry/internal/infrastructure/storage/minio"
	"github.com/turtacn/FCM-Registry/pkg/errors"
)

// Stack bundles the wired components of one registry deployment. Redis and
// MinIO are only set when the corresponding backend is configured; health
// probes read them directly.
type Stack struct {
	Config  *config.Config
	Logger  logging.Logger
	Metrics *prometheus.AppMetrics

	Repository *storage.RecordStore
	Cache      registry.RecordCache
	Resolver   substance.Resolver
	Ingestion  *ingestion.Service

	Redis *rediscache.Cache
	MinIO *miniostore.Client

	closers []func() error
}

// Build wires the stack described by cfg. A nil logger discards output and
// nil metrics disable instrumentation. When Build fails, every component
// built so far is closed again before it returns.
func Build(cfg *config.Config, log logging.Logger, metrics *prometheus.AppMetrics) (*Stack, error) {
	if cfg == nil {
		return nil, errors.Validation("bootstrap: configuration is required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	s := &Stack{Config: cfg, Logger: log, Metrics: metrics}

	store, err := s.buildStore()
	if err != nil {
		return nil, err
	}
	s.Repository = storage.NewRecordStore(store, log)

	if err := s.buildCache(); err != nil {
		_ = s.Close()
		return nil, err
	}

	journal := s.buildResolver(store)

	svc, err := ingestion.NewService(ingestion.Config{
		Repository: s.Repository,
		Resolver:   s.Resolver,
		Journal:    journal,
		CSVPath:    cfg.Source.CSVPath,
		Logger:     log,
		Metrics:    metrics,
	})
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.Ingestion = svc

	return s, nil
}

// buildStore selects the document store backend.
func (s *Stack) buildStore() (storage.Store, error) {
	switch s.Config.Storage.Backend {
	case "fs":
		return fs.NewStore(s.Config.Storage.Dir, s.Logger)
	case "minio":
		mc := s.Config.Storage.MinIO
		client, err := miniostore.NewClient(&miniostore.Config{
			Endpoint:        mc.Endpoint,
			AccessKeyID:     mc.AccessKeyID,
			SecretAccessKey: mc.SecretAccessKey,
			UseSSL:          mc.UseSSL,
			Region:          mc.Region,
			Bucket:          mc.Bucket,
			Prefix:          mc.Prefix,
		}, s.Logger)
		if err != nil {
			return nil, err
		}
		s.MinIO = client
		s.closers = append(s.closers, client.Close)
		return miniostore.NewStore(client), nil
	default:
		return nil, errors.Newf(errors.ErrCodeValidation,
			"bootstrap: unknown storage backend %q", s.Config.Storage.Backend)
	}
}

// buildCache selects the record cache backend.
func (s *Stack) buildCache() error {
	switch s.Config.Cache.Backend {
	case "memory":
		s.Cache = memory.NewCache()
		return nil
	case "redis":
		rc := s.Config.Cache.Redis
		cache, err := rediscache.NewCache(&rediscache.Config{
			Addr:         rc.Addr,
			Username:     rc.Username,
			Password:     rc.Password,
			DB:           rc.DB,
			PoolSize:     rc.PoolSize,
			DialTimeout:  rc.DialTimeout,
			ReadTimeout:  rc.ReadTimeout,
			WriteTimeout: rc.WriteTimeout,
			TTL:          rc.TTL,
			Prefix:       rc.Prefix,
		}, s.Logger)
		if err != nil {
			return err
		}
		s.Redis = cache
		s.closers = append(s.closers, cache.Close)
		s.Cache = cache
		return nil
	default:
		return errors.Newf(errors.ErrCodeValidation,
			"bootstrap: unknown cache backend %q", s.Config.Cache.Backend)
	}
}

// buildResolver wires the compound resolver chain when enrichment is
// enabled and returns the journal that persists lookup misses across
// refreshes. Both stay nil when enrichment is off.
func (s *Stack) buildResolver(store storage.Store) ingestion.MissJournal {
	if !s.Config.Enrichment.Enabled {
		return nil
	}

	client := pubchem.NewClient(&pubchem.Config{
		BaseURL:  s.Config.Enrichment.BaseURL,
		Timeout:  s.Config.Enrichment.Timeout,
		RetryMax: s.Config.Enrichment.RetryMax,
	}, s.Logger)
	s.closers = append(s.closers, func() error {
		client.Close()
		return nil
	})

	miss := pubchem.NewMissCache(store, s.Logger)
	cached := pubchem.NewCachedResolver(client, miss, s.Logger)
	s.Resolver = cached
	return cached
}

// OpenRegistry opens the registry over the stack. When the store holds no
// index yet, the registry is built from the source table first.
func (s *Stack) OpenRegistry(ctx context.Context) (*registry.Registry, error) {
	return registry.Open(ctx, registry.Options{
		Repository: s.Repository,
		Refresher:  s.Ingestion,
		Resolver:   s.Resolver,
		Cache:      s.Cache,
		Logger:     s.Logger,
		Metrics:    s.Metrics,
	})
}

// Close releases every backend connection the stack holds, in reverse build
// order. The first error wins; later closers still run.
func (s *Stack) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}
