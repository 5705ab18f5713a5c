package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sony/gobreaker"

	"github.com/healthassist/backend/internal/adapters/cache"
	"github.com/healthassist/backend/internal/adapters/database"
	"github.com/healthassist/backend/internal/adapters/providers/directory"
	"github.com/healthassist/backend/internal/api/handlers"
	"github.com/healthassist/backend/internal/api/routes"
	"github.com/healthassist/backend/internal/application/services"
	"github.com/healthassist/backend/internal/domain/providers"
	"github.com/healthassist/backend/internal/infrastructure/clients/postgres"
	"github.com/healthassist/backend/internal/infrastructure/clients/redis"
	"github.com/healthassist/backend/internal/infrastructure/observability"
	"github.com/healthassist/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	healthChecks := map[string]handlers.Pinger{}

	// Redis is optional: without it directory lookups are not cached.
	var cacheProvider providers.CacheProvider
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, directory cache disabled")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			healthChecks["redis"] = redisClient
			logger.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("redis client initialized")
		}
	}

	var providerDirectory providers.ProviderDirectory
	if cfg.Places.APIKey == "" {
		logger.Warn().Msg("PLACES_API_KEY is not set; using mock provider directory")
		providerDirectory = directory.NewMockDirectory()
	} else {
		var breaker *gobreaker.CircuitBreaker
		if cfg.Breaker.Enabled {
			breaker = directory.NewBreaker(cfg.Breaker.ConsecutiveFailures, cfg.Breaker.OpenTimeout)
		}
		providerDirectory = directory.NewGooglePlacesDirectory(cfg.Places.APIKey, directory.Options{
			BaseURL:    cfg.Places.BaseURL,
			HTTPClient: &http.Client{Timeout: cfg.Places.Timeout},
			Cache:      cacheProvider,
			CacheTTL:   time.Duration(cfg.Places.CacheTTLSeconds) * time.Second,
			Breaker:    breaker,
			Metrics:    metrics,
		})
	}

	locator := services.NewProviderLocator(providerDirectory, services.LocatorConfig{
		RadiusMeters:     cfg.Search.RadiusMeters,
		Category:         cfg.Search.Category,
		MaxDistanceMiles: cfg.Search.MaxDistanceMiles,
	})
	locator.SetMetrics(metrics)

	var analyticsHandler *handlers.AnalyticsHandler
	if cfg.Analytics.Enabled {
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			logger.Warn().Err(err).Msg("postgres unavailable, search analytics disabled")
		} else {
			defer pgClient.Close()
			healthChecks["postgres"] = pgClient

			analyticsAdapter := database.NewSearchAnalyticsAdapter(pgClient)
			analyticsAdapter.SetMetrics(metrics)
			if err := analyticsAdapter.EnsureSchema(ctx); err != nil {
				logger.Fatal().Err(err).Msg("failed to prepare search analytics schema")
			}

			analyticsService := services.NewSearchAnalyticsService(analyticsAdapter)
			locator.SetTracker(analyticsService)
			analyticsHandler = handlers.NewAnalyticsHandler(analyticsService)
			logger.Info().Msg("search analytics enabled")
		}
	}

	router := routes.NewRouter(
		handlers.NewProviderSearchHandler(locator),
		analyticsHandler,
		handlers.NewHealthHandler(healthChecks),
		cfg.Server.AllowedOrigins,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	logger.Info().Msg("server stopped")
}
