// Command worker keeps the persisted registry current. It rebuilds the
// record documents and the global index when the source table changes on
// disk (debounced, rename-safe) and, optionally, on a fixed interval.
// SIGHUP forces an immediate rebuild. With neither watch nor interval
// configured the worker refreshes once and exits, which suits cron
// scheduling.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/turtacn/FCM-Registry/internal/application/bootstrap"
	"github.com/turtacn/FCM-Registry/internal/application/registry"
	"github.com/turtacn/FCM-Registry/internal/config"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FCM-Registry/pkg/errors"
)

const defaultConfigPath = "configs/config.yaml"

// rebuildOps are the file operations that signal new source table content.
// Atomic writers create a temporary file and rename it over the target.
const rebuildOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", defaultConfigPath, "path to the configuration file")
	once := flag.Bool("once", false, "refresh once and exit (implied when neither watch nor interval is configured)")
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
	logger = logger.Named("worker")

	var (
		collector prometheus.MetricsCollector
		metrics   *prometheus.AppMetrics
	)
	if cfg.Metrics.Enabled {
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            "fcmreg",
			Subsystem:            "worker",
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once || (!cfg.Worker.Watch && cfg.Worker.Interval <= 0) {
		return refreshOnce(ctx, stack, logger)
	}

	reg, err := stack.OpenRegistry(ctx)
	if err != nil {
		return err
	}

	if srv := startHealthServer(cfg, collector, logger); srv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("worker started",
		logging.String("source", cfg.Source.CSVPath),
		logging.Bool("watch", cfg.Worker.Watch),
		logging.Duration("interval", cfg.Worker.Interval),
	)
	return watchLoop(ctx, cfg, reg, logger)
}

// refreshOnce runs a single ingest and purges the shared record cache so
// colocated readers stop serving the replaced documents.
func refreshOnce(ctx context.Context, stack *bootstrap.Stack, logger logging.Logger) error {
	result, err := stack.Ingestion.Refresh(ctx)
	if err != nil {
		return err
	}
	if err := stack.Cache.Purge(ctx); err != nil {
		logger.Warn("failed to purge record cache", logging.Err(err))
	}
	logger.Info("refresh complete",
		logging.Int("records", result.Index.Len()),
		logging.Int("rows", result.Rows),
		logging.Int("skipped", result.Skipped),
		logging.Duration("duration", result.Duration),
	)
	return nil
}

func watchLoop(ctx context.Context, cfg *config.Config, reg *registry.Registry, logger logging.Logger) error {
	source := filepath.Clean(cfg.Source.CSVPath)

	var (
		events    <-chan fsnotify.Event
		watchErrs <-chan error
	)
	if cfg.Worker.Watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "create source watcher")
		}
		defer watcher.Close()
		// Watch the parent directory: editors and atomic writers replace
		// the file by rename, which detaches a watch on the file itself.
		if err := watcher.Add(filepath.Dir(source)); err != nil {
			return errors.Wrapf(err, errors.ErrCodeInternal, "watch %s", filepath.Dir(source))
		}
		events = watcher.Events
		watchErrs = watcher.Errors
		logger.Info("watching source table",
			logging.String("path", source),
			logging.Duration("debounce", cfg.Worker.Debounce),
		)
	}

	var tick <-chan time.Time
	if cfg.Worker.Interval > 0 {
		ticker := time.NewTicker(cfg.Worker.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	// Each source event re-arms the debounce timer, so a burst of writes
	// becomes one rebuild after the quiet period.
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker stopping")
			return nil

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) != source || ev.Op&rebuildOps == 0 {
				continue
			}
			logger.Debug("source table event", logging.String("op", ev.Op.String()))
			pending = time.After(cfg.Worker.Debounce)

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			logger.Warn("source watcher error", logging.Err(err))

		case <-pending:
			pending = nil
			rebuild(ctx, reg, logger, "source table changed")

		case <-tick:
			rebuild(ctx, reg, logger, "interval elapsed")

		case <-hup:
			rebuild(ctx, reg, logger, "SIGHUP")
		}
	}
}

// rebuild runs one full refresh. A failed rebuild is logged and the
// registry keeps serving its previous index.
func rebuild(ctx context.Context, reg *registry.Registry, logger logging.Logger, reason string) {
	logger.Info("rebuilding registry", logging.String("reason", reason))
	if _, err := reg.Rebuild(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Error("rebuild failed", logging.Err(err))
	}
}

// startHealthServer exposes /healthz and, when metrics are enabled,
// /metrics on the worker health port. Disabled with a negative port.
func startHealthServer(cfg *config.Config, collector prometheus.MetricsCollector, logger logging.Logger) *http.Server {
	if cfg.Worker.HealthPort <= 0 {
		return nil
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	if collector != nil {
		mux.Handle("/metrics", collector.Handler())
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Worker.HealthPort),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("worker health listener up", logging.Int("port", cfg.Worker.HealthPort))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.Error("health listener failed", logging.Err(err))
		}
	}()
	return srv
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
