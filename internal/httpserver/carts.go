package httpserver

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/storefront"
)

type cartResponse struct {
	ID                    string             `json:"id"`
	CustomerID            string             `json:"customerId,omitempty"`
	CartState             string             `json:"cartState"`
	LineItems             []lineItemResponse `json:"lineItems"`
	TotalPrice            money              `json:"totalPrice"`
	TotalLineItemQuantity int                `json:"totalLineItemQuantity"`
	CreatedAt             time.Time          `json:"createdAt"`
}

type lineItemResponse struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"productId"`
	ProductSlug string    `json:"productSlug,omitempty"`
	Name        string    `json:"name"`
	SKU         string    `json:"sku,omitempty"`
	Image       string    `json:"image,omitempty"`
	Quantity    int       `json:"quantity"`
	Price       money     `json:"price"`
	TotalPrice  money     `json:"totalPrice"`
	AddedAt     time.Time `json:"addedAt"`
}

type money struct {
	CurrencyCode string `json:"currencyCode"`
	CentAmount   int64  `json:"centAmount"`
	Formatted    string `json:"formatted"`
}

type cartLineSnapshot struct {
	ProductTitle string
	ProductSlug  string
	SKU          string
	Image        string
	PriceCents   int64
}

func newMoney(currency string, cents int64) money {
	return money{CurrencyCode: strings.ToUpper(currency), CentAmount: cents, Formatted: storefront.FormatCents(cents)}
}

func toCartResponse(cart domain.Cart) cartResponse {
	state := strings.TrimSpace(cart.State)
	switch {
	case state == "", strings.EqualFold(state, "active"):
		state = "Active"
	case strings.EqualFold(state, "ordered"):
		state = "Ordered"
	}

	customerID := ""
	if cart.CustomerID != nil {
		customerID = *cart.CustomerID
	}

	lineItems := make([]lineItemResponse, 0, len(cart.Lines))
	totalQty := 0
	for _, line := range cart.Lines {
		snap := parseLineSnapshot(line.Snapshot)
		name := snap.ProductTitle
		if name == "" {
			name = line.ProductID
		}
		sku := line.SKU
		if sku == "" {
			sku = snap.SKU
		}
		price := line.UnitPriceCents
		if price == 0 {
			price = snap.PriceCents
		}
		lineItems = append(lineItems, lineItemResponse{
			ID:          line.ID,
			ProductID:   line.ProductID,
			ProductSlug: snap.ProductSlug,
			Name:        name,
			SKU:         sku,
			Image:       snap.Image,
			Quantity:    line.Quantity,
			Price:       newMoney(cart.Currency, price),
			TotalPrice:  newMoney(cart.Currency, line.TotalCents),
			AddedAt:     line.CreatedAt,
		})
		totalQty += line.Quantity
	}

	return cartResponse{
		ID:                    cart.ID,
		CustomerID:            customerID,
		CartState:             state,
		LineItems:             lineItems,
		TotalPrice:            newMoney(cart.Currency, cart.TotalCents),
		TotalLineItemQuantity: totalQty,
		CreatedAt:             cart.CreatedAt,
	}
}

func parseLineSnapshot(raw map[string]interface{}) cartLineSnapshot {
	var out cartLineSnapshot
	if raw == nil {
		return out
	}
	if v, ok := raw["productTitle"].(string); ok {
		out.ProductTitle = v
	}
	if v, ok := raw["productSlug"].(string); ok {
		out.ProductSlug = v
	}
	if v, ok := raw["sku"].(string); ok {
		out.SKU = v
	}
	if v, ok := raw["image"].(string); ok {
		out.Image = v
	}
	switch v := raw["priceCents"].(type) {
	case int64:
		out.PriceCents = v
	case int:
		out.PriceCents = int64(v)
	case float64:
		out.PriceCents = int64(v)
	case string:
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			out.PriceCents = parsed
		}
	}
	return out
}

func createCartHandler(logger *log.Logger, carts cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in cartsvc.CreateInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if in.CustomerID == nil {
			if id := customerID(c); id != "" {
				in.CustomerID = &id
			}
		}
		cart, err := carts.Create(c.Request.Context(), in)
		if err != nil {
			writeError(c, logger, "create cart", err)
			return
		}
		c.JSON(http.StatusCreated, toCartResponse(*cart))
	}
}

func getCartHandler(logger *log.Logger, carts cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := carts.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, logger, "get cart", err)
			return
		}
		c.JSON(http.StatusOK, toCartResponse(*cart))
	}
}

func addCartItemHandler(logger *log.Logger, carts cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in cartsvc.AddItemInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		cart, err := carts.AddItem(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			writeError(c, logger, "add cart item", err)
			return
		}
		c.JSON(http.StatusOK, toCartResponse(*cart))
	}
}
