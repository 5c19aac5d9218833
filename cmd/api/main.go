package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aramunz/bazar-backend/api/routes"
	"github.com/aramunz/bazar-backend/internal/customers"
	"github.com/aramunz/bazar-backend/internal/inventory"
	"github.com/aramunz/bazar-backend/internal/products"
	"github.com/aramunz/bazar-backend/internal/reports"
	"github.com/aramunz/bazar-backend/internal/reservations"
	"github.com/aramunz/bazar-backend/internal/sales"
	"github.com/aramunz/bazar-backend/internal/sitecontent"
	"github.com/aramunz/bazar-backend/pkg/config"
	"github.com/aramunz/bazar-backend/pkg/db"
	"github.com/aramunz/bazar-backend/pkg/logger"
	"github.com/aramunz/bazar-backend/pkg/metrics"
	"github.com/aramunz/bazar-backend/pkg/migrate"
	"github.com/aramunz/bazar-backend/pkg/outbox"
	"github.com/aramunz/bazar-backend/pkg/redis"
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

	ledger := inventory.NewService()
	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	productService, err := products.NewService(products.NewRepository(dbClient.DB()), dbClient, ledger, outboxSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	customerService, err := customers.NewService(customers.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create customer service", err)
		os.Exit(1)
	}

	saleRepo := sales.NewRepository(dbClient.DB())
	saleService, err := sales.NewService(saleRepo, dbClient, ledger, outboxSvc, customers.NewRepository(dbClient.DB()), logg, cfg.OfferedGate.SecretHash)
	if err != nil {
		logg.Error(context.Background(), "failed to create sale service", err)
		os.Exit(1)
	}

	reservationService, err := reservations.NewService(saleRepo, saleService, dbClient, ledger, outboxSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reservation service", err)
		os.Exit(1)
	}

	reportService, err := reports.NewService(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create report service", err)
		os.Exit(1)
	}

	contentService, err := sitecontent.NewService(dbClient.DB(), redisClient, cfg.SiteContent.CacheTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create site content service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

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
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			DB:           dbClient,
			Redis:        redisClient,
			Products:     productService,
			Customers:    customerService,
			Sales:        saleService,
			Reservations: reservationService,
			Reports:      reportService,
			SiteContent:  contentService,
			HTTPMetrics:  httpMetrics,
			Registry:     registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
