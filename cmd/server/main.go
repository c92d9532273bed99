// Package main is the entry point for the stocktake API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"

	"stocktake/internal/domain/alerts"
	"stocktake/internal/domain/auth"
	"stocktake/internal/domain/catalogs/location"
	"stocktake/internal/domain/catalogs/product"
	"stocktake/internal/domain/counting"
	"stocktake/internal/domain/registers/adjustment"
	v1 "stocktake/internal/infrastructure/http/v1"
	"stocktake/internal/infrastructure/storage/postgres"
	"stocktake/internal/infrastructure/storage/postgres/catalog_repo"
	"stocktake/internal/infrastructure/storage/postgres/counting_repo"
	"stocktake/internal/infrastructure/storage/postgres/register_repo"
	"stocktake/pkg/logger"
	"stocktake/pkg/numerator"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting stocktake server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Audit ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Numerator ---
	// Routed through the TxManager so numbering joins the caller's
	// transaction.
	numeratorService := numerator.New(txQuerier{txManager})
	numeratorService.Register(counting.DocumentType, numerator.DefaultConfig("CNT"))
	numeratorService.Register("Product", numerator.Config{Prefix: "PRD", PadWidth: 5, ResetPeriod: "never"})
	numeratorService.Register("Location", numerator.Config{Prefix: "LOC", PadWidth: 3, ResetPeriod: "never"})

	// --- Repositories ---
	productRepo := catalog_repo.NewProductRepo(txManager)
	locationRepo := catalog_repo.NewLocationRepo(txManager)
	sessionRepo := counting_repo.NewSessionRepo(txManager)
	adjustmentRepo := register_repo.NewAdjustmentRepo(txManager)

	// --- Services ---
	productService := product.NewService(productRepo, txManager, numeratorService)
	locationService := location.NewService(locationRepo, txManager, numeratorService)
	adjustmentService := adjustment.NewService(adjustmentRepo)

	countingService := counting.NewService(
		sessionRepo,
		txManager,
		productService,
		locationService,
		adjustmentService,
		numeratorService,
		auditService,
	)

	// --- Variance alerts ---
	evaluator, err := alerts.NewEvaluator()
	if err != nil {
		log.Fatalw("failed to initialize alert evaluator", "error", err)
	}
	threshold := getEnvFloat("ALERT_VARIANCE_PERCENT", 5)
	if _, err := evaluator.AddRule(
		"session variance over threshold",
		fmt.Sprintf("variancePercent > %s", strconv.FormatFloat(threshold, 'f', 1, 64)),
		alerts.SeverityWarning,
	); err != nil {
		log.Fatalw("failed to register alert rule", "error", err)
	}
	if _, err := evaluator.AddRule(
		"product fully missing",
		"expectedQty > 0.0 && actualQty == 0.0",
		alerts.SeverityCritical,
	); err != nil {
		log.Fatalw("failed to register alert rule", "error", err)
	}
	countingService.AddObserver(evaluator)

	// --- JWT ---
	jwtSecret := getEnv("JWT_SECRET", "dev-secret-change-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:            pool,
		Logger:          log,
		JWTValidator:    jwtService,
		CountingService: countingService,
		ProductService:  productService,
		LocationService: locationService,
		AuditService:    auditService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// txQuerier routes numerator queries through the transaction manager so a
// number allocated during document creation commits or rolls back with it.
type txQuerier struct {
	txManager *postgres.TxManager
}

func (q txQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return q.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
