// Package main runs the live watcher: it consumes the launch feed,
// maintains wallet profiles, scores every event and emits alerts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"anubis-watch/internal/aggregator"
	"anubis-watch/internal/alerting"
	"anubis-watch/internal/config"
	"anubis-watch/internal/feed"
	"anubis-watch/internal/notify"
	"anubis-watch/internal/observability"
	"anubis-watch/internal/pipeline"
	"anubis-watch/internal/scoring"
	"anubis-watch/internal/storage"
	"anubis-watch/internal/storage/clickhouse"
	"anubis-watch/internal/storage/memory"
	"anubis-watch/internal/storage/migrations"
	"anubis-watch/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (defaults apply when empty)")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.Log.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("watcher failed", zap.Error(err))
	}
	logger.Info("watcher stopped")
}

func loadConfig(path string) (*config.Config, error) {
	cfg := config.DefaultConfig
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	// Secrets come from the environment, not the config file.
	if dsn := os.Getenv("ANUBIS_POSTGRES_DSN"); dsn != "" {
		cfg.Store.PostgresDSN = dsn
	}
	if dsn := os.Getenv("ANUBIS_CLICKHOUSE_DSN"); dsn != "" {
		cfg.Store.ClickhouseDSN = dsn
	}
	if url := os.Getenv("ANUBIS_WEBHOOK_URL"); url != "" {
		cfg.Notifier.WebhookURL = url
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	stores, cleanup, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	source, err := buildSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer source.Close()

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notifier.WebhookURL != "" {
		notifier = notify.NewWebhook(cfg.Notifier, logger.Named("webhook"))
	}

	agg := aggregator.New(aggregator.Options{
		Profiles: stores.profiles,
		Launches: stores.launches,
		Config:   cfg.Aggregator,
		Logger:   logger.Named("aggregator"),
	})
	engine := scoring.New(scoring.Options{Config: cfg.Scoring})
	alerter := alerting.New(alerting.Options{
		Policy:   alerting.NewPolicy(cfg.Alerts),
		Alerts:   stores.alerts,
		Notifier: notifier,
		Logger:   logger.Named("alerting"),
	})

	runner := pipeline.New(pipeline.Options{
		Source:     source,
		Aggregator: agg,
		Engine:     engine,
		Alerter:    alerter,
		Profiles:   stores.profiles,
		Snapshots:  stores.snapshots,
		Archive:    stores.archive,
		Config:     cfg.Pipeline,
		Logger:     logger.Named("pipeline"),
	})

	if cfg.Metrics.Enabled {
		go serveMetrics(ctx, cfg.Metrics.ListenAddr, logger)
	}

	logger.Info("watcher started",
		zap.String("feed", cfg.Feed.Mode),
		zap.String("store", cfg.Store.Backend),
		zap.Int("workers", cfg.Pipeline.Workers))
	return runner.Run(ctx)
}

// storeSet bundles the selected storage backends.
type storeSet struct {
	profiles  storage.ProfileStore
	launches  storage.LaunchStore
	snapshots storage.SnapshotStore
	alerts    storage.AlertStore
	archive   storage.SnapshotArchive
}

func buildStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storeSet, func(), error) {
	cleanup := func() {}
	set := &storeSet{}

	switch cfg.Store.Backend {
	case "memory":
		set.profiles = memory.NewProfileStore()
		set.launches = memory.NewLaunchStore()
		set.snapshots = memory.NewSnapshotStore()
		set.alerts = memory.NewAlertStore()

	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		set.profiles = postgres.NewProfileStore(pool)
		set.launches = postgres.NewLaunchStore(pool)
		set.snapshots = postgres.NewSnapshotStore(pool)
		set.alerts = postgres.NewAlertStore(pool)
		cleanup = pool.Close

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if cfg.Store.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Store.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		set.archive = clickhouse.NewSnapshotArchive(conn)
		prev := cleanup
		cleanup = func() {
			conn.Close()
			prev()
		}
		logger.Info("snapshot archive enabled")
	}

	return set, cleanup, nil
}

func buildSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (feed.Source, error) {
	switch cfg.Feed.Mode {
	case "ws":
		return feed.NewWSSource(ctx, cfg.Feed.WS, logger.Named("feed"))
	case "kafka":
		return feed.NewKafkaSource(cfg.Feed.Kafka, logger.Named("feed")), nil
	case "stub":
		return feed.NewStubSource(), nil
	default:
		return nil, fmt.Errorf("unknown feed mode %q", cfg.Feed.Mode)
	}
}

func serveMetrics(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", zap.Error(err))
	}
}
