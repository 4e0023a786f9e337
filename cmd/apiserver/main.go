// Command apiserver serves the GB 9685-2016 positive-list registry over
// HTTP. It assembles the stack from configuration (document store, record
// cache, optional compound enrichment, ingestion pipeline) and opens the
// registry before the listener comes up, so a cold store runs its first
// full source refresh during startup.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/FCM-Registry/internal/application/bootstrap"
	"github.com/turtacn/FCM-Registry/internal/application/registry"
	"github.com/turtacn/FCM-Registry/internal/config"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/prometheus"
	httpapi "github.com/turtacn/FCM-Registry/internal/interfaces/http"
	"github.com/turtacn/FCM-Registry/internal/interfaces/http/handlers"
	"github.com/turtacn/FCM-Registry/internal/interfaces/http/middleware"
)

const defaultConfigPath = "configs/config.yaml"

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", defaultConfigPath, "path to the configuration file")
	flag.Parse()

	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})

	cfg, err := loadConfig(*configPath, explicit)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	logger = logger.Named("apiserver")
	logger.Info("starting registry API server",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port),
		logging.String("storage", cfg.Storage.Backend),
		logging.String("cache", cfg.Cache.Backend),
		logging.Bool("enrichment", cfg.Enrichment.Enabled),
	)

	var (
		collector prometheus.MetricsCollector
		metrics   *prometheus.AppMetrics
	)
	if cfg.Metrics.Enabled {
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            "fcmreg",
			EnableGoMetrics:      cfg.Metrics.EnableGoMetrics,
			EnableProcessMetrics: cfg.Metrics.EnableProcessMetrics,
		}, logger)
		if err != nil {
			return err
		}
		metrics = prometheus.NewAppMetrics(collector)
	}

	stack, err := bootstrap.Build(cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer stack.Close()

	// A signal during the cold first build cancels the refresh.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := stack.OpenRegistry(ctx)
	if err != nil {
		return err
	}

	srv := httpapi.NewServer(cfg.Server, newRouter(stack, reg, collector, logger), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}
	stop()

	// The signal context is already done; the drain gets a fresh one.
	return srv.Stop(context.Background())
}

func newRouter(stack *bootstrap.Stack, reg *registry.Registry, collector prometheus.MetricsCollector, logger logging.Logger) *chi.Mux {
	checkers := []handlers.HealthChecker{
		handlers.NewChecker("storage", stack.Repository.Ping),
	}
	if stack.Redis != nil {
		checkers = append(checkers, handlers.NewChecker("cache", stack.Redis.Ping))
	}
	if stack.MinIO != nil {
		mc := stack.MinIO
		checkers = append(checkers, handlers.NewChecker("objectstore", func(ctx context.Context) error {
			status, err := mc.HealthCheck(ctx)
			if err != nil {
				return err
			}
			if !status.Healthy {
				return fmt.Errorf("minio: %s", status.Error)
			}
			return nil
		}))
	}

	return httpapi.NewRouter(httpapi.RouterConfig{
		Substances:       handlers.NewSubstanceHandler(reg, logger),
		Health:           handlers.NewHealthHandler(version, stack.Metrics, checkers...),
		CORS:             middleware.NewCORSMiddleware(middleware.DefaultCORSConfig()),
		Logger:           logger,
		Metrics:          stack.Metrics,
		MetricsCollector: collector,
	})
}

// loadConfig reads the YAML file at path. When the default path does not
// exist the environment supplies the configuration instead; a path the
// operator named explicitly must exist.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return config.LoadFromEnv()
		}
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return config.Load(path)
}
