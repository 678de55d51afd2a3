package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"pricescanner/infrastructure/activity"
	"pricescanner/infrastructure/cache"
	"pricescanner/infrastructure/cartstore"
	"pricescanner/infrastructure/config"
	httpserver "pricescanner/infrastructure/http"
	"pricescanner/infrastructure/logger"
	"pricescanner/infrastructure/metrics"
	"pricescanner/infrastructure/monitor"
	"pricescanner/infrastructure/priceapi"
	"pricescanner/infrastructure/redis"
	"pricescanner/infrastructure/sqlite"
)

func main() {
	// A missing .env is fine; the environment may already carry everything.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg := logger.New(logger.Options{
		ServiceName: "pricescanner",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Error(ctx, "pricescanner.failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, lg *logger.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	upstreamMetrics := metrics.NewUpstreamMetrics(reg)
	cartMetrics := metrics.NewCartMetrics(reg)

	activityLog := activity.NewLog(activity.DefaultMaxEntries)
	activityLog.OnEntry(mirrorActivity(lg.Component("activity")))

	storage, probe, closeStorage, err := openStorage(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer closeStorage()

	api, err := priceapi.NewClient(cfg.APIBaseURL,
		priceapi.WithTimeout(cfg.APITimeout),
		priceapi.WithMetrics(upstreamMetrics),
		priceapi.WithLogger(lg.Component("priceapi")),
	)
	if err != nil {
		return fmt.Errorf("price api client: %w", err)
	}

	mon := monitor.New(api, cfg.HealthInterval, activityLog, upstreamMetrics, lg.Component("monitor"))

	carts := cartstore.NewOpener(storage,
		cartstore.WithRecorder(activity.NewRecorder(activityLog, cartMetrics)),
	)

	server := httpserver.NewServer(httpserver.Options{
		Addr:          cfg.Addr,
		ShopName:      cfg.ShopName,
		SecureCookies: cfg.SecureCookies,
		Log:           lg,
		Carts:         carts,
		API:           api,
		AuthCache:     cache.NewAuthSessionCache(cfg.AuthCacheTTL),
		Products:      cache.NewProductCache(cfg.ProductCacheTTL),
		Activity:      activityLog,
		Monitor:       mon,
		Gatherer:      reg,
		Storage:       probe,
	})
	if err := server.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	activityLog.Success("Server started on " + server.URL())
	zl := lg.Zerolog()
	zl.Info().
		Str("addr", server.URL()).
		Str("storage", cfg.StorageDriver).
		Str("upstream", cfg.APIBaseURL).
		Msg("pricescanner.listening")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mon.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		activityLog.Info("Server stopping")
		return server.Stop()
	})
	return g.Wait()
}

// openStorage picks the cart backend named by the config. The returned probe
// backs /api/local-health and may be nil for the in-memory backend.
func openStorage(ctx context.Context, cfg *config.Config, lg *logger.Logger) (cartstore.Storage, httpserver.StorageProbe, func(), error) {
	switch cfg.StorageDriver {
	case config.StorageSQLite:
		db, err := sqlite.OpenDB(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open db: %w", err)
		}
		if cfg.MigrationsDir != "" {
			err = sqlite.ApplyMigrations(ctx, db, cfg.MigrationsDir)
		} else {
			err = sqlite.ApplyEmbeddedMigrations(ctx, db)
		}
		if err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		storage := sqlite.NewCartStorage(db,
			sqlite.WithWatchInterval(cfg.WatchInterval),
			sqlite.WithStorageLogger(lg.Component("sqlite")),
		)
		return storage, db.Ping, func() { _ = db.Close() }, nil

	case config.StorageRedis:
		storage, err := redis.New(ctx, cfg.RedisURL, lg.Component("redis"))
		if err != nil {
			return nil, nil, nil, err
		}
		return storage, storage.Ping, func() { _ = storage.Close() }, nil

	default:
		zl := lg.Zerolog()
		zl.Warn().Msg("storage.memory: carts will not survive a restart")
		return cartstore.NewMemoryStorage(), nil, func() {}, nil
	}
}

func mirrorActivity(log zerolog.Logger) activity.Callback {
	return func(e activity.Entry) {
		ev := log.Info()
		if e.Level == activity.LevelError {
			ev = log.Warn()
		}
		ev.Str("level_name", string(e.Level)).Msg(e.Message)
	}
}
