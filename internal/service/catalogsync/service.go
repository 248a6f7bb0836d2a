// Package catalogsync mirrors product collection writes into the payment
// provider's catalog.
//
// A product is Unsynced until both its external product and its first
// price have been created; from then on ExternalProductID is the join key
// back to the provider. Prices are immutable upstream, so every update
// mints a new price and previous prices are left untouched.
package catalogsync

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"storefront/internal/domain"
	"storefront/internal/payment"
)

const (
	HookBeforeWrite = "catalog.beforeWrite"
	HookAfterDelete = "catalog.afterDelete"
)

type catalog interface {
	CreateProduct(ctx context.Context, in payment.ProductInput) (*payment.Product, error)
	CreatePrice(ctx context.Context, in payment.PriceInput) (*payment.Price, error)
	UpdateProduct(ctx context.Context, id string, in payment.ProductInput) (*payment.Product, error)
	DeleteProduct(ctx context.Context, id string) (*payment.Product, error)
}

type cartPruner interface {
	RemoveProduct(ctx context.Context, productID string) (int64, error)
}

type Service struct {
	catalog  catalog
	carts    cartPruner
	currency string
	logger   *log.Logger
	now      func() time.Time
}

func New(catalog catalog, carts cartPruner, currency string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		catalog:  catalog,
		carts:    carts,
		currency: currency,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// BeforeWrite runs before a product is persisted. It annotates p with the
// external ids on success; on failure p is returned unchanged apart from
// what already succeeded, and the local write still goes ahead.
func (s *Service) BeforeWrite(ctx context.Context, p domain.Product, op domain.Operation) (domain.Product, domain.SyncResult) {
	res := s.result(HookBeforeWrite, p, op)
	if p.SkipSync {
		res.Status = domain.SyncSkipped
		res.Reason = "skipSync set"
		return p, res
	}

	switch {
	case op == domain.OpCreate || !p.Synced():
		return s.create(ctx, p, res)
	case op == domain.OpUpdate:
		return s.update(ctx, p, res)
	default:
		res.Status = domain.SyncSkipped
		res.Reason = fmt.Sprintf("operation %q not synced before write", op)
		return p, res
	}
}

func (s *Service) create(ctx context.Context, p domain.Product, res domain.SyncResult) (domain.Product, domain.SyncResult) {
	ext, err := s.catalog.CreateProduct(ctx, productInput(p))
	if err != nil {
		return p, s.fail(res, "create product", err)
	}
	price, err := s.catalog.CreatePrice(ctx, s.priceInput(ext.ID, p))
	if err != nil {
		// The upstream product now exists without a local reference.
		s.logger.Printf("catalog sync: orphaned external product id=%s slug=%s", ext.ID, p.Slug)
		res.ExternalProductID = ext.ID
		return p, s.fail(res, "create price", err)
	}

	p.ExternalProductID = ext.ID
	p.ExternalPriceID = price.ID
	res.Status = domain.SyncOK
	res.ExternalProductID = ext.ID
	res.ExternalPriceID = price.ID
	s.logger.Printf("catalog sync: created slug=%s product=%s price=%s", p.Slug, ext.ID, price.ID)
	return p, res
}

func (s *Service) update(ctx context.Context, p domain.Product, res domain.SyncResult) (domain.Product, domain.SyncResult) {
	res.ExternalProductID = p.ExternalProductID
	if _, err := s.catalog.UpdateProduct(ctx, p.ExternalProductID, productInput(p)); err != nil {
		return p, s.fail(res, "update product", err)
	}
	// Always mint a new price. Older prices stay active upstream.
	price, err := s.catalog.CreatePrice(ctx, s.priceInput(p.ExternalProductID, p))
	if err != nil {
		return p, s.fail(res, "create price", err)
	}

	p.ExternalPriceID = price.ID
	res.Status = domain.SyncOK
	res.ExternalPriceID = price.ID
	s.logger.Printf("catalog sync: updated slug=%s product=%s price=%s", p.Slug, p.ExternalProductID, price.ID)
	return p, res
}

// AfterDelete deletes the external product and then removes the product
// from every cart, whatever the upstream outcome was.
func (s *Service) AfterDelete(ctx context.Context, p domain.Product) domain.SyncResult {
	res := s.result(HookAfterDelete, p, domain.OpDelete)
	res.ExternalProductID = p.ExternalProductID

	var upstreamErr error
	if p.Synced() && !p.SkipSync {
		_, upstreamErr = s.catalog.DeleteProduct(ctx, p.ExternalProductID)
	}

	n, cartErr := s.carts.RemoveProduct(ctx, p.ID)
	res.CartsUpdated = n

	switch {
	case upstreamErr != nil:
		return s.fail(res, "delete product", upstreamErr)
	case cartErr != nil:
		return s.fail(res, "remove from carts", cartErr)
	}
	res.Status = domain.SyncOK
	s.logger.Printf("catalog sync: deleted product_id=%s external=%s carts=%d", p.ID, p.ExternalProductID, n)
	return res
}

func (s *Service) result(hook string, p domain.Product, op domain.Operation) domain.SyncResult {
	return domain.SyncResult{
		Hook:      hook,
		ProductID: p.ID,
		Operation: op,
		At:        s.now(),
	}
}

func (s *Service) fail(res domain.SyncResult, step string, err error) domain.SyncResult {
	res.Status = domain.SyncFailed
	res.Reason = fmt.Sprintf("%s: %v", step, err)
	s.logger.Printf("catalog sync: %s product_id=%s error=%v", step, res.ProductID, err)
	return res
}

func (s *Service) priceInput(externalID string, p domain.Product) payment.PriceInput {
	return payment.NewPriceInput(externalID, p.PriceCents, s.currency, p.BillingType, p.RecurringInterval, p.RecurringIntervalCount)
}

func productInput(p domain.Product) payment.ProductInput {
	return payment.ProductInput{
		Name:        p.Title,
		Description: p.Description,
		Images:      p.Images(),
	}
}
