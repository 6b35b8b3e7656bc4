package main

import (
	"context"
	"net/http"
	"os"

	"github.com/angelmondragon/shipbridge-backend/api/routes"
	"github.com/angelmondragon/shipbridge-backend/internal/appconfig"
	"github.com/angelmondragon/shipbridge-backend/internal/authstore"
	"github.com/angelmondragon/shipbridge-backend/internal/labels"
	"github.com/angelmondragon/shipbridge-backend/internal/quotes"
	"github.com/angelmondragon/shipbridge-backend/internal/webhooks/fulfillment"
	"github.com/angelmondragon/shipbridge-backend/pkg/config"
	"github.com/angelmondragon/shipbridge-backend/pkg/db"
	"github.com/angelmondragon/shipbridge-backend/pkg/kangu"
	"github.com/angelmondragon/shipbridge-backend/pkg/logger"
	"github.com/angelmondragon/shipbridge-backend/pkg/metrics"
	"github.com/angelmondragon/shipbridge-backend/pkg/migrate"
	"github.com/angelmondragon/shipbridge-backend/pkg/platform"
	"github.com/angelmondragon/shipbridge-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	carrierMetrics := metrics.NewCarrierMetrics(registry)

	kanguClient, err := kangu.NewClient(cfg.Kangu, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create carrier client", err)
		os.Exit(1)
	}

	platformClient, err := platform.NewClient(cfg.Platform, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create platform client", err)
		os.Exit(1)
	}

	configService, err := appconfig.NewService(appconfig.NewRepository(dbClient.DB()), redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create app config service", err)
		os.Exit(1)
	}

	credentialsRepo := authstore.NewRepository(dbClient.DB())

	quoteService, err := quotes.NewService(kanguClient, logg, carrierMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create quote service", err)
		os.Exit(1)
	}

	labelService, err := labels.NewService(kanguClient, platformClient, logg, carrierMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create label service", err)
		os.Exit(1)
	}

	deliveryGuard, err := fulfillment.NewIdempotencyGuard(redisClient, cfg.Webhook.IdempotencyTTL, "webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	triggerService, err := fulfillment.NewService(fulfillment.ServiceParams{
		Configs:     configService,
		Credentials: credentialsRepo,
		Orders:      platformClient,
		Labels:      labelService,
		Guard:       deliveryGuard,
		Log:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create trigger service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			Quotes:         quoteService,
			Triggers:       triggerService,
			Configs:        configService,
			Credentials:    credentialsRepo,
			MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
