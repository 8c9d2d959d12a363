// backend-go/cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andresuchdata/restock/backend-go/internal/api"
	"github.com/andresuchdata/restock/backend-go/internal/cache"
	"github.com/andresuchdata/restock/backend-go/internal/config"
	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/economics"
	"github.com/andresuchdata/restock/backend-go/internal/repository"
	"github.com/andresuchdata/restock/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/restock/backend-go/internal/service"
	"github.com/andresuchdata/restock/backend-go/internal/storage"
	"github.com/andresuchdata/restock/backend-go/pkg/logger"
	"github.com/andresuchdata/restock/backend-go/pkg/metrics"
)

func main() {
	cfg := config.Load()

	logger.Setup(os.Stdout, cfg.LogJSON)
	logger.SetLevel(cfg.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := cfg.Validate(); err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid configuration")
	}
	loc, _ := cfg.Planning.Location()

	repo, closeRepo, err := openRepository(cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to open inventory store")
	}
	defer closeRepo()

	planCache, err := cache.NewPlanCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Plan cache unavailable, continuing without cache")
		planCache = cache.NewNoopPlanCache()
	}

	var objects storage.ObjectStorage
	if cfg.Storage.Configured() {
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Object storage unavailable, publishing disabled")
		} else {
			objects = client
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	plannerMetrics := metrics.NewPlannerMetrics(registry)

	services := &api.Services{
		InventoryService:     service.NewInventoryService(repo, planCache, economics.NewCalculator(cfg.Economics.ExchangeRate), loc),
		ReplenishmentService: service.NewReplenishmentService(repo, planCache, plannerMetrics, objects),
		ForecastService:      service.NewForecastService(repo, cfg.Planning.HorizonDays, loc),
	}

	router := api.NewRouter(services, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		PlanDefaults: domain.PlanPolicy{
			BaseTargetDays:    cfg.Planning.BaseTargetDays,
			UseSmartLifecycle: cfg.Planning.SmartLifecycle,
		},
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().
			Str("port", cfg.Server.Port).
			Str("store", cfg.Database.Driver).
			Float64("exchange_rate", cfg.Economics.ExchangeRate).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func openRepository(cfg *config.Config) (repository.InventoryRepository, func(), error) {
	if cfg.Database.Driver == config.StoreDriverMemory {
		logger.Log.Warn().Msg("Using in-memory inventory store; data is lost on restart")
		return repository.NewMemoryInventoryRepository(), func() {}, nil
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(context.Background(), db.DB.DB, "up"); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return postgres.NewInventoryRepository(db), func() { _ = db.Close() }, nil
}
