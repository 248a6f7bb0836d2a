package httpserver

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/payment"
)

type upstreamProductRequest struct {
	Name                   string `json:"name"`
	Description            string `json:"description"`
	Price                  int64  `json:"price"`
	BillingType            string `json:"billingType"`
	RecurringInterval      string `json:"recurringInterval"`
	RecurringIntervalCount int64  `json:"recurringIntervalCount"`
	Image                  string `json:"image"`
}

type upstreamUpdateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r upstreamProductRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return domain.Invalid("name", "required")
	}
	if r.BillingType == "" {
		return domain.Invalid("billingType", "required")
	}
	return domain.ValidateBilling(r.Price, r.BillingType, r.RecurringInterval, r.RecurringIntervalCount)
}

func (r upstreamProductRequest) images() []string {
	if strings.TrimSpace(r.Image) == "" {
		return []string{}
	}
	return []string{strings.TrimSpace(r.Image)}
}

// createUpstreamProductHandler creates a product and its first price in the
// payment catalog without touching the collection.
func createUpstreamProductHandler(logger *log.Logger, catalog catalogAdmin, currency string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req upstreamProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		product, err := catalog.CreateProduct(ctx, payment.ProductInput{
			Name:        strings.TrimSpace(req.Name),
			Description: req.Description,
			Images:      req.images(),
		})
		if err != nil {
			writeUpstreamError(c, logger, "create product", err)
			return
		}
		price, err := catalog.CreatePrice(ctx, payment.NewPriceInput(
			product.ID, req.Price, currency, req.BillingType, req.RecurringInterval, req.RecurringIntervalCount,
		))
		if err != nil {
			logger.Printf("httpserver: upstream product=%s left without price", product.ID)
			writeUpstreamError(c, logger, "create price", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"product": product, "price": price})
	}
}

func updateUpstreamProductHandler(logger *log.Logger, catalog catalogAdmin) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req upstreamUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": domain.Invalid("name", "required").Error()})
			return
		}
		product, err := catalog.UpdateProduct(c.Request.Context(), c.Param("id"), payment.ProductInput{
			Name:        strings.TrimSpace(req.Name),
			Description: req.Description,
		})
		if err != nil {
			writeUpstreamError(c, logger, "update product", err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func deleteUpstreamProductHandler(logger *log.Logger, catalog catalogAdmin) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := catalog.DeleteProduct(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeUpstreamError(c, logger, "delete product", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": product})
	}
}

// writeUpstreamError reports every catalog failure as a 500 carrying the
// provider's message, missing upstream resources included.
func writeUpstreamError(c *gin.Context, logger *log.Logger, op string, err error) {
	if errors.Is(err, domain.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logger.Printf("httpserver: upstream %s error=%v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
