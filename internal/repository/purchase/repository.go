package purchase

import "context"

// Repository answers whether a customer may read a product's paywall.
type Repository interface {
	Grant(ctx context.Context, customerID, productID string) error
	HasPurchased(ctx context.Context, customerID, productID string) (bool, error)
}
