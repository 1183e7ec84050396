package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/foodbridge-backend/api/controllers"
	"github.com/angelmondragon/foodbridge-backend/api/routes"
	"github.com/angelmondragon/foodbridge-backend/internal/auth"
	"github.com/angelmondragon/foodbridge-backend/internal/chat"
	"github.com/angelmondragon/foodbridge-backend/internal/foodai"
	"github.com/angelmondragon/foodbridge-backend/internal/listings"
	"github.com/angelmondragon/foodbridge-backend/internal/profiles"
	"github.com/angelmondragon/foodbridge-backend/internal/requests"
	"github.com/angelmondragon/foodbridge-backend/internal/users"
	pkgAuth "github.com/angelmondragon/foodbridge-backend/pkg/auth"
	"github.com/angelmondragon/foodbridge-backend/pkg/auth/session"
	"github.com/angelmondragon/foodbridge-backend/pkg/cache"
	"github.com/angelmondragon/foodbridge-backend/pkg/config"
	"github.com/angelmondragon/foodbridge-backend/pkg/db"
	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
	"github.com/angelmondragon/foodbridge-backend/pkg/metrics"
	"github.com/angelmondragon/foodbridge-backend/pkg/migrate"
	"github.com/angelmondragon/foodbridge-backend/pkg/openai"
	"github.com/angelmondragon/foodbridge-backend/pkg/outbox"
	"github.com/angelmondragon/foodbridge-backend/pkg/redis"
	"github.com/angelmondragon/foodbridge-backend/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	lifecycle := metrics.NewLifecycleMetrics(registry)

	dispatcher, err := cache.FromConfig(cfg.Cache, redisClient, logg, metrics.NewCacheMetrics(registry))
	if err != nil {
		logg.Error(context.Background(), "failed to build query cache", err)
		os.Exit(1)
	}

	issuer, err := pkgAuth.NewIssuer(cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create token issuer", err)
		os.Exit(1)
	}
	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	emitter := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	profileRepo := profiles.NewRepository(dbClient.DB())
	listingRepo := listings.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		Tx:       dbClient,
		Users:    users.NewRepository(dbClient.DB()),
		Profiles: profileRepo,
		Issuer:   issuer,
		Sessions: sessionManager,
		Hasher:   security.NewHasher(cfg.Password),
		Logger:   logg,
	})
	exitOnErr(logg, "failed to create auth service", err)

	profileService, err := profiles.NewService(profileRepo)
	exitOnErr(logg, "failed to create profiles service", err)

	listingService, err := listings.NewService(listings.ServiceParams{
		Repo:     listingRepo,
		Profiles: profileRepo,
		Tx:       dbClient,
		Outbox:   emitter,
		Cache:    dispatcher,
		Metrics:  lifecycle,
		Logger:   logg,
	})
	exitOnErr(logg, "failed to create listings service", err)

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
	exitOnErr(logg, "failed to create requests service", err)

	chatService, err := chat.NewService(chat.ServiceParams{
		Repo:     chat.NewRepository(dbClient.DB()),
		Listings: listingRepo,
		Profiles: profileRepo,
		Tx:       dbClient,
		Logger:   logg,
	})
	exitOnErr(logg, "failed to create chat service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"cache_backend": cfg.Cache.Backend,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config: cfg,
			Logger: logg,
			Checks: []controllers.Check{
				{Name: "database", Pinger: dbClient},
				{Name: "redis", Pinger: redisClient},
			},
			Gatherer:    registry,
			Issuer:      issuer,
			Sessions:    sessionManager,
			RateLimiter: redisClient,
			Auth:        authService,
			Profiles:    profileService,
			Listings:    listingService,
			Requests:    requestService,
			Chat:        chatService,
			FoodAI:      newFoodAI(ctx, cfg.OpenAI, logg),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	errs := multierr.Combine(
		server.Shutdown(shutdownCtx),
		redisClient.Close(),
		dbClient.Close(),
	)
	if errs != nil {
		logg.Error(ctx, "error during shutdown", errs)
		exitCode = 1
	}
	logg.Info(ctx, "api server stopped")
	os.Exit(exitCode)
}

// newFoodAI leaves image analysis unconfigured when no API key is set.
func newFoodAI(ctx context.Context, cfg config.OpenAIConfig, logg *logger.Logger) foodai.Service {
	client, err := openai.NewClient(cfg.APIKey,
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "reason", err.Error()), "food image analysis disabled")
		return foodai.NewService(nil)
	}
	return foodai.NewService(client)
}

func exitOnErr(logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
