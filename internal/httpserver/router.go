package httpserver

import (
	"context"
	"io"
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
	"storefront/internal/payment"
	cartsvc "storefront/internal/service/cart"
	productsvc "storefront/internal/service/product"
	"storefront/internal/storefront"
)

type catalogAdmin interface {
	CreateProduct(ctx context.Context, in payment.ProductInput) (*payment.Product, error)
	CreatePrice(ctx context.Context, in payment.PriceInput) (*payment.Price, error)
	UpdateProduct(ctx context.Context, id string, in payment.ProductInput) (*payment.Product, error)
	DeleteProduct(ctx context.Context, id string) (*payment.Product, error)
}

type productService interface {
	List(ctx context.Context, opts domain.FetchOptions) ([]domain.Product, error)
	Get(ctx context.Context, id string, opts domain.FetchOptions) (*domain.Product, error)
	Create(ctx context.Context, in domain.Product) (*productsvc.WriteResult, error)
	Update(ctx context.Context, id string, in domain.Product) (*productsvc.WriteResult, error)
	Delete(ctx context.Context, id string) (*productsvc.WriteResult, error)
}

type cartService interface {
	Create(ctx context.Context, in cartsvc.CreateInput) (*domain.Cart, error)
	Get(ctx context.Context, id string) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID string, in cartsvc.AddItemInput) (*domain.Cart, error)
}

type purchaseStore interface {
	Grant(ctx context.Context, customerID, productID string) error
	HasPurchased(ctx context.Context, customerID, productID string) (bool, error)
}

type syncEventLister interface {
	ListByProduct(ctx context.Context, productID string, limit int) ([]domain.SyncResult, error)
}

type pageRenderer interface {
	Page(ctx context.Context, req storefront.PageRequest) (*storefront.Page, error)
}

// Deps carries the services behind the routes plus request-level settings.
type Deps struct {
	Catalog    catalogAdmin
	Products   productService
	Carts      cartService
	Purchases  purchaseStore
	SyncEvents syncEventLister
	Pages      pageRenderer

	Currency       string
	AdminToken     string
	DraftSecret    string
	AllowedOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	tmpl, err := storefront.Templates()
	if err != nil {
		return nil, err
	}
	if deps.Currency == "" {
		deps.Currency = "usd"
	}

	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(logger, deps.AllowedOrigins)))
	router.SetHTMLTemplate(tmpl)

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	admin := router.Group("/products", adminMiddleware(deps.AdminToken))
	admin.POST("", createUpstreamProductHandler(logger, deps.Catalog, deps.Currency))
	admin.PATCH("/:id", updateUpstreamProductHandler(logger, deps.Catalog))
	admin.DELETE("/:id", deleteUpstreamProductHandler(logger, deps.Catalog))

	router.GET("/products/:slug", productPageHandler(deps.Pages, deps.DraftSecret))

	api := router.Group("/api")
	api.GET("/products", listProductsHandler(logger, deps))
	api.GET("/products/:id", getProductHandler(logger, deps))

	editor := api.Group("", adminMiddleware(deps.AdminToken))
	editor.POST("/products", createProductHandler(logger, deps.Products))
	editor.PUT("/products/:id", updateProductHandler(logger, deps.Products))
	editor.DELETE("/products/:id", deleteProductHandler(logger, deps.Products))
	editor.POST("/products/:id/purchases", grantPurchaseHandler(logger, deps))
	editor.GET("/products/:id/sync-events", listSyncEventsHandler(logger, deps.SyncEvents))

	api.POST("/carts", createCartHandler(logger, deps.Carts))
	api.GET("/carts/:id", getCartHandler(logger, deps.Carts))
	api.POST("/carts/:id/items", addCartItemHandler(logger, deps.Carts))

	return router, nil
}

func corsConfig(logger *log.Logger, origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", customerHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowOrigins = nil
			return cfg
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			logger.Printf("httpserver: ignoring cors origin=%q", origin)
			continue
		}
		cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
	}
	return cfg
}
