// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stocktake/internal/domain/catalogs/location"
	"stocktake/internal/domain/catalogs/product"
	"stocktake/internal/domain/counting"
	"stocktake/internal/infrastructure/http/v1/handlers"
	"stocktake/internal/infrastructure/http/v1/middleware"
	"stocktake/internal/infrastructure/storage/postgres"
	"stocktake/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool *postgres.Pool

	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	CountingService *counting.Service
	ProductService  *product.Service
	LocationService *location.Service
	AuditService    *postgres.AuditService
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	countHandler := handlers.NewCountHandler(cfg.CountingService)
	productHandler := handlers.NewProductHandler(cfg.ProductService)
	locationHandler := handlers.NewLocationHandler(cfg.LocationService, cfg.ProductService)
	auditHandler := handlers.NewAuditHandler(cfg.AuditService)

	// API v1 (all endpoints require auth)
	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator))
	{
		sessions := api.Group("/count-sessions")
		{
			sessions.POST("", countHandler.Create)
			sessions.GET("", countHandler.List)
			sessions.GET("/:id", countHandler.Get)
			sessions.POST("/:id/start", countHandler.Start)
			sessions.POST("/:id/approve", middleware.RequireRole("manager", "admin"), countHandler.Approve)
			sessions.GET("/:id/current-area", countHandler.CurrentArea)
			sessions.GET("/:id/variance", countHandler.Variance)

			sessions.PUT("/:id/areas/:areaId/items", countHandler.RecordItem)
			sessions.POST("/:id/areas/:areaId/complete", countHandler.CompleteArea)
			sessions.POST("/:id/areas/:areaId/reopen", countHandler.ReopenArea)
			sessions.GET("/:id/areas/:areaId/remaining-expected/:productId", countHandler.RemainingExpected)
		}

		products := api.Group("/products")
		{
			products.POST("", productHandler.Create)
			products.GET("", productHandler.List)
			products.GET("/:id", productHandler.Get)
			products.PUT("/:id", productHandler.Update)
			products.POST("/:id/deletion-mark", productHandler.SetDeletionMark)
			products.PUT("/:id/par-levels", productHandler.SetParLevel)
			products.DELETE("/:id/par-levels/:locationId", productHandler.RemoveParLevel)
		}

		locations := api.Group("/locations")
		{
			locations.POST("", locationHandler.Create)
			locations.GET("", locationHandler.List)
			locations.GET("/:id", locationHandler.Get)
			locations.PUT("/:id", locationHandler.Update)
			locations.POST("/:id/deletion-mark", locationHandler.SetDeletionMark)
			locations.PUT("/:id/areas", locationHandler.SetAreaTemplates)
			locations.GET("/:id/par-levels", locationHandler.ListParLevels)
		}

		api.GET("/audit/:entityType/:id", auditHandler.EntityHistory)
	}

	return router
}
