package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/hooks"
	"storefront/internal/httpserver"
	"storefront/internal/payment"
	cartrepo "storefront/internal/repository/cart"
	productrepo "storefront/internal/repository/product"
	purchaserepo "storefront/internal/repository/purchase"
	synceventrepo "storefront/internal/repository/syncevent"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/catalogsync"
	productsvc "storefront/internal/service/product"
	"storefront/internal/storefront"
)

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	if cfg.StripeSecretKey == "" {
		logger.Printf("STRIPE_SECRET_KEY is empty; catalog sync calls will fail and be recorded")
	}
	if cfg.AdminToken == "" {
		logger.Printf("ADMIN_TOKEN is empty; admin endpoints will reject every request")
	}

	productRepo := productrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool, logger)
	purchaseRepo := purchaserepo.NewPostgres(dbpool, logger)
	syncRepo := synceventrepo.NewPostgres(dbpool, logger)

	catalog := payment.NewStripe(cfg.StripeSecretKey, logger)
	syncService := catalogsync.New(catalog, cartRepo, cfg.CatalogCurrency, logger)

	dispatcher := hooks.New[domain.Product](syncRepo, logger)
	dispatcher.OnBeforeWrite(syncService.BeforeWrite)
	dispatcher.OnAfterDelete(syncService.AfterDelete)
	dispatcher.OnAfterChange(storefront.RevalidateHook(logger))

	productService := productsvc.New(productRepo, dispatcher, logger)
	cartService := cartsvc.New(cartRepo, productService)
	renderer := storefront.NewRenderer(productService, purchaseRepo, cfg.SiteName, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Catalog:        catalog,
		Products:       productService,
		Carts:          cartService,
		Purchases:      purchaseRepo,
		SyncEvents:     syncRepo,
		Pages:          renderer,
		Currency:       cfg.CatalogCurrency,
		AdminToken:     cfg.AdminToken,
		DraftSecret:    cfg.DraftSecret,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s url=%s", cfg.HTTPAddr, cfg.ServerURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
