package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/foodbridge-backend/internal/cron"
	"github.com/angelmondragon/foodbridge-backend/internal/listings"
	"github.com/angelmondragon/foodbridge-backend/internal/profiles"
	"github.com/angelmondragon/foodbridge-backend/internal/requests"
	"github.com/angelmondragon/foodbridge-backend/pkg/cache"
	"github.com/angelmondragon/foodbridge-backend/pkg/config"
	"github.com/angelmondragon/foodbridge-backend/pkg/db"
	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
	"github.com/angelmondragon/foodbridge-backend/pkg/metrics"
	"github.com/angelmondragon/foodbridge-backend/pkg/migrate"
	"github.com/angelmondragon/foodbridge-backend/pkg/outbox"
	"github.com/angelmondragon/foodbridge-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	localLock := flag.Bool("local-lock", false, "use an in-process lock (single instance only)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	reg := prometheus.DefaultRegisterer
	cronMetrics := metrics.NewCronJobMetrics(reg)
	lifecycle := metrics.NewLifecycleMetrics(reg)

	// Transitions made here must drop the same cache keys as API writes.
	dispatcher, err := cache.FromConfig(cfg.Cache, redisClient, logg, metrics.NewCacheMetrics(reg))
	if err != nil {
		logg.Error(context.Background(), "failed to build query cache", err)
		os.Exit(1)
	}

	outboxRepo := outbox.NewRepository(dbClient.DB())
	emitter := outbox.NewService(outboxRepo, logg)
	profileRepo := profiles.NewRepository(dbClient.DB())
	listingRepo := listings.NewRepository(dbClient.DB())

	listingService, err := listings.NewService(listings.ServiceParams{
		Repo:     listingRepo,
		Profiles: profileRepo,
		Tx:       dbClient,
		Outbox:   emitter,
		Cache:    dispatcher,
		Metrics:  lifecycle,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create listings service", err)
		os.Exit(1)
	}
	requestService, err := requests.NewService(requests.ServiceParams{
		Repo:     requests.NewRepository(dbClient.DB()),
		Listings: listingRepo,
		Profiles: profileRepo,
		Tx:       dbClient,
		Outbox:   emitter,
		Cache:    dispatcher,
		Metrics:  lifecycle,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create requests service", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(cfg, logg, cronMetrics, dbClient, outboxRepo, listingService, requestService)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	var lock cron.Lock = &cron.LocalLock{}
	if !*localLock {
		redisLock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron", cfg.App.Env), cfg.Cron.LockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
		lock = redisLock
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"jobs":        registry.Names(),
	})

	if *once {
		ran, err := service.RunOnce(ctx)
		if err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		logg.Info(logg.WithField(ctx, "ran", ran), "cron cycle finished")
		return
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildRegistry(
	cfg *config.Config,
	logg *logger.Logger,
	m *metrics.CronJobMetrics,
	dbClient *db.Client,
	outboxRepo *outbox.Repository,
	listingService listings.Service,
	requestService requests.Service,
) (*cron.Registry, error) {
	expiry, err := cron.NewListingExpiryJob(cron.ListingExpiryJobParams{
		Logger:    logg,
		Listings:  listingService,
		Metrics:   m,
		BatchSize: cfg.Cron.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	stale, err := cron.NewStaleRequestsJob(cron.StaleRequestsJobParams{
		Logger:    logg,
		Requests:  requestService,
		Metrics:   m,
		BatchSize: cfg.Cron.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
		Metrics:    m,
		Retention:  cfg.Cron.OutboxRetention,
	})
	if err != nil {
		return nil, err
	}

	registry := cron.NewRegistry()
	for _, job := range []cron.Job{expiry, stale, retention} {
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
