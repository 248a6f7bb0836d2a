package cart

import (
	"context"

	"storefront/internal/domain"
)

type CreateCartInput struct {
	CustomerID *string
	Currency   string
}

// LineInput adds quantity of a product (optionally a variant SKU) at a
// fixed unit price.
type LineInput struct {
	ProductID      string
	SKU            string
	Quantity       int
	UnitPriceCents int64
	Snapshot       map[string]interface{}
}

type Repository interface {
	Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	AddLineItem(ctx context.Context, cartID string, in LineInput) error
	// RemoveProduct deletes every line referencing productID and returns
	// the number of carts that changed.
	RemoveProduct(ctx context.Context, productID string) (int64, error)
}
