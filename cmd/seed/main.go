// Package main provides a CLI tool for seeding the database with demo data:
// a bar location with counting areas, a product catalog with par levels, and
// an optional draft count session.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"

	appctx "stocktake/internal/core/context"
	"stocktake/internal/core/types"
	"stocktake/internal/domain/catalogs/location"
	"stocktake/internal/domain/catalogs/product"
	"stocktake/internal/domain/counting"
	"stocktake/internal/domain/registers/adjustment"
	"stocktake/internal/infrastructure/storage/postgres"
	"stocktake/internal/infrastructure/storage/postgres/catalog_repo"
	"stocktake/internal/infrastructure/storage/postgres/counting_repo"
	"stocktake/internal/infrastructure/storage/postgres/register_repo"
	"stocktake/pkg/logger"
	"stocktake/pkg/numerator"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "seed", Name: "Seeder"})

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)

	numeratorService := numerator.New(txQuerier{txManager})
	numeratorService.Register(counting.DocumentType, numerator.DefaultConfig("CNT"))
	numeratorService.Register("Product", numerator.Config{Prefix: "PRD", PadWidth: 5, ResetPeriod: "never"})
	numeratorService.Register("Location", numerator.Config{Prefix: "LOC", PadWidth: 3, ResetPeriod: "never"})

	productService := product.NewService(catalog_repo.NewProductRepo(txManager), txManager, numeratorService)
	locationService := location.NewService(catalog_repo.NewLocationRepo(txManager), txManager, numeratorService)

	loc, err := seedLocation(ctx, locationService, log)
	if err != nil {
		log.Fatalw("failed to seed location", "error", err)
	}

	products, err := seedProducts(ctx, productService, log)
	if err != nil {
		log.Fatalw("failed to seed products", "error", err)
	}

	if err := seedParLevels(ctx, productService, loc, products, log); err != nil {
		log.Fatalw("failed to seed par levels", "error", err)
	}

	if os.Getenv("SEED_DEMO_SESSION") == "true" {
		countingService := counting.NewService(
			counting_repo.NewSessionRepo(txManager),
			txManager,
			productService,
			locationService,
			adjustment.NewService(register_repo.NewAdjustmentRepo(txManager)),
			numeratorService,
			nil,
		)
		session, err := countingService.Create(ctx, loc.ID, "Opening stock take", counting.CountFull)
		if err != nil {
			log.Fatalw("failed to seed demo session", "error", err)
		}
		log.Infow("demo session created", "id", session.ID, "number", session.Number)
	}

	log.Info("seeding completed successfully")
}

func seedLocation(ctx context.Context, svc *location.Service, log *logger.Logger) (*location.Location, error) {
	if existing, err := svc.GetByCode(ctx, "BAR-01"); err == nil {
		log.Infow("location already seeded", "id", existing.ID)
		return existing, nil
	}

	loc := location.NewLocation("BAR-01", "Harbor Bar")
	loc.Timezone = "Europe/London"
	if err := svc.Create(ctx, loc); err != nil {
		return nil, err
	}
	areas := []string{"Main Bar", "Back Bar", "Cellar", "Dry Storage"}
	if err := svc.SetAreaTemplates(ctx, loc.ID, areas); err != nil {
		return nil, err
	}
	log.Infow("location seeded", "id", loc.ID, "areas", len(areas))
	return loc, nil
}

func seedProducts(ctx context.Context, svc *product.Service, log *logger.Logger) ([]*product.Product, error) {
	rows := []struct {
		code, name string
		unit       product.Unit
		cost       string
		category   string
	}{
		{"VODKA-01", "House Vodka 70cl", product.UnitBottle, "14.50", "spirits"},
		{"GIN-01", "London Dry Gin 70cl", product.UnitBottle, "16.20", "spirits"},
		{"WHISKY-01", "Blended Scotch 70cl", product.UnitBottle, "19.80", "spirits"},
		{"WINE-RED-01", "House Red 75cl", product.UnitBottle, "6.40", "wine"},
		{"WINE-WHT-01", "House White 75cl", product.UnitBottle, "6.10", "wine"},
		{"LAGER-KEG-01", "Lager Keg 50L", product.UnitKeg, "92.00", "beer"},
		{"TONIC-01", "Tonic Water Case", product.UnitCase, "11.30", "softs"},
	}

	products := make([]*product.Product, 0, len(rows))
	for _, row := range rows {
		if existing, err := svc.GetByCode(ctx, row.code); err == nil {
			products = append(products, existing)
			continue
		}

		p := product.NewProduct(row.code, row.name, row.unit, types.MustMoney(row.cost))
		p.Category = row.category
		if err := svc.Create(ctx, p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	log.Infow("products seeded", "count", len(products))
	return products, nil
}

func seedParLevels(ctx context.Context, svc *product.Service, loc *location.Location, products []*product.Product, log *logger.Logger) error {
	// Modest default: five units of everything except kegs.
	for _, p := range products {
		par := types.NewQuantityFromInt(5)
		if p.Unit == product.UnitKeg {
			par = types.NewQuantityFromInt(2)
		}
		level := &product.ParLevel{
			ProductID:  p.ID,
			LocationID: loc.ID,
			Quantity:   par,
		}
		if err := svc.SetParLevel(ctx, level); err != nil {
			return err
		}
	}
	log.Infow("par levels seeded", "location_id", loc.ID, "products", len(products))
	return nil
}

type txQuerier struct {
	txManager *postgres.TxManager
}

func (q txQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return q.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...)
}
