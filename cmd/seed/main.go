package main

import (
	"context"
	"log"
	"os"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/hooks"
	productrepo "storefront/internal/repository/product"
	synceventrepo "storefront/internal/repository/syncevent"
	"storefront/internal/seed"
	productsvc "storefront/internal/service/product"
)

func main() {
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	// Seeded products carry skipSync, so no catalog hooks are registered.
	dispatcher := hooks.New[domain.Product](synceventrepo.NewPostgres(pool, logger), logger)
	products := productsvc.New(productrepo.NewPostgres(pool, logger), dispatcher, logger)

	if err := seed.Apply(ctx, products, logger); err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Println("seed applied")
}
