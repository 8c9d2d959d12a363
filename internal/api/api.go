// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/restock/backend-go/internal/api/handlers"
	"github.com/andresuchdata/restock/backend-go/internal/api/middleware"
	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/service"
)

const maxUploadBytes = 32 << 20

type Services struct {
	InventoryService     *service.InventoryService
	ReplenishmentService *service.ReplenishmentService
	ForecastService      *service.ForecastService
}

type Options struct {
	AllowedOrigins []string
	// PlanDefaults apply when a request omits policy parameters.
	PlanDefaults domain.PlanPolicy
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func NewRouter(services *Services, opts Options) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = maxUploadBytes

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(cors.New(corsConfig(opts.AllowedOrigins)))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.InventoryService != nil {
			inventoryHandler := handlers.NewInventoryHandler(services.InventoryService)
			inventoryGroup := apiGroup.Group("/inventory")
			{
				inventoryGroup.GET("", inventoryHandler.List)
				inventoryGroup.POST("/import", inventoryHandler.Import)
				inventoryGroup.GET("/:sku", inventoryHandler.Get)
				inventoryGroup.PUT("/:sku", inventoryHandler.Upsert)
				inventoryGroup.DELETE("/:sku", inventoryHandler.Delete)
			}
		}

		if services.ReplenishmentService != nil {
			replenishmentHandler := handlers.NewReplenishmentHandler(services.ReplenishmentService, opts.PlanDefaults)
			replenishmentGroup := apiGroup.Group("/replenishment")
			{
				replenishmentGroup.GET("/plan", replenishmentHandler.GetPlan)
				replenishmentGroup.GET("/export", replenishmentHandler.Export)
				replenishmentGroup.POST("/publish", replenishmentHandler.Publish)
			}
		}

		if services.ForecastService != nil {
			forecastHandler := handlers.NewForecastHandler(services.ForecastService)
			apiGroup.GET("/forecast/stockouts", forecastHandler.GetStockouts)
		}
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	cfg := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			cfg.AllowOrigins = nil
			cfg.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			cfg.AllowOrigins = normalizedOrigins
		}
	}
	return cfg
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
