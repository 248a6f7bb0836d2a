package httpserver

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type listResponse struct {
	Docs      []domain.Product `json:"docs"`
	TotalDocs int              `json:"totalDocs"`
}

type purchaseRequest struct {
	CustomerID string `json:"customerId"`
}

// fetchOptions reads ?depth= and ?draft=. Drafts are only served to admins.
func fetchOptions(c *gin.Context, adminToken string) domain.FetchOptions {
	return domain.FetchOptions{
		Draft: queryBool(c, "draft") && isAdmin(c, adminToken),
		Depth: queryInt(c, "depth", 0),
	}
}

func listProductsHandler(logger *log.Logger, deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		opts := fetchOptions(c, deps.AdminToken)
		products, err := deps.Products.List(c.Request.Context(), opts)
		if err != nil {
			writeError(c, logger, "list products", err)
			return
		}
		if products == nil {
			products = []domain.Product{}
		}
		if !isAdmin(c, deps.AdminToken) {
			for i := range products {
				redactPaywall(c.Request.Context(), logger, deps.Purchases, customerID(c), &products[i])
			}
		}
		c.JSON(http.StatusOK, listResponse{Docs: products, TotalDocs: len(products)})
	}
}

func getProductHandler(logger *log.Logger, deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		opts := fetchOptions(c, deps.AdminToken)
		product, err := deps.Products.Get(c.Request.Context(), c.Param("id"), opts)
		if err != nil {
			writeError(c, logger, "get product", err)
			return
		}
		if !isAdmin(c, deps.AdminToken) {
			redactPaywall(c.Request.Context(), logger, deps.Purchases, customerID(c), product)
		}
		c.JSON(http.StatusOK, product)
	}
}

// redactPaywall clears paywall blocks the caller has not bought. Related
// products never carry their paywall.
func redactPaywall(ctx context.Context, logger *log.Logger, purchases purchaseStore, customer string, p *domain.Product) {
	for i := range p.RelatedProducts {
		p.RelatedProducts[i].Paywall = nil
	}
	if len(p.Paywall) == 0 {
		return
	}
	if p.EnablePaywall && customer != "" && purchases != nil {
		ok, err := purchases.HasPurchased(ctx, customer, p.ID)
		if err != nil {
			logger.Printf("httpserver: paywall check customer_id=%s product_id=%s error=%v", customer, p.ID, err)
		}
		if ok {
			return
		}
	}
	p.Paywall = nil
}

func createProductHandler(logger *log.Logger, products productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in domain.Product
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		res, err := products.Create(c.Request.Context(), in)
		if err != nil {
			writeError(c, logger, "create product", err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}

func updateProductHandler(logger *log.Logger, products productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in domain.Product
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		res, err := products.Update(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			writeError(c, logger, "update product", err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func deleteProductHandler(logger *log.Logger, products productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := products.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, logger, "delete product", err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func grantPurchaseHandler(logger *log.Logger, deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req purchaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		customer := strings.TrimSpace(req.CustomerID)
		if customer == "" {
			writeError(c, logger, "grant purchase", domain.Invalid("customerId", "required"))
			return
		}
		ctx := c.Request.Context()
		product, err := deps.Products.Get(ctx, c.Param("id"), domain.FetchOptions{Draft: true})
		if err != nil {
			writeError(c, logger, "grant purchase", err)
			return
		}
		if err := deps.Purchases.Grant(ctx, customer, product.ID); err != nil {
			writeError(c, logger, "grant purchase", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"customerId": customer, "productId": product.ID})
	}
}

func listSyncEventsHandler(logger *log.Logger, events syncEventLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := events.ListByProduct(c.Request.Context(), c.Param("id"), queryInt(c, "limit", 20))
		if err != nil {
			writeError(c, logger, "list sync events", err)
			return
		}
		if results == nil {
			results = []domain.SyncResult{}
		}
		c.JSON(http.StatusOK, gin.H{"docs": results})
	}
}
