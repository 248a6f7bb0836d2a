package cart

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

type Service struct {
	repo     cartRepo
	products productFetcher
}

type cartRepo interface {
	Create(ctx context.Context, in cartrepo.CreateCartInput) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	AddLineItem(ctx context.Context, cartID string, in cartrepo.LineInput) error
}

type productFetcher interface {
	Get(ctx context.Context, id string, opts domain.FetchOptions) (*domain.Product, error)
}

func New(repo cartrepo.Repository, products productFetcher) *Service {
	return &Service{repo: repo, products: products}
}

type CreateInput struct {
	CustomerID *string `json:"customerId,omitempty"`
	Currency   string  `json:"currency"`
}

// AddItemInput puts a published product in a cart. SKU selects one of the
// product's variant combinations; the variant price then replaces the
// product price.
type AddItemInput struct {
	ProductID string `json:"productId"`
	SKU       string `json:"sku,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Cart, error) {
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		return nil, domain.Invalid("currency", "required")
	}
	return s.repo.Create(ctx, cartrepo.CreateCartInput{
		CustomerID: in.CustomerID,
		Currency:   currency,
	})
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Cart, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) AddItem(ctx context.Context, cartID string, in AddItemInput) (*domain.Cart, error) {
	productID := strings.TrimSpace(in.ProductID)
	if productID == "" {
		return nil, domain.Invalid("productId", "required")
	}
	if in.Quantity <= 0 {
		return nil, domain.Invalid("quantity", "must be positive")
	}
	if s.products == nil {
		return nil, errors.New("product service unavailable")
	}
	if _, err := s.repo.GetByID(ctx, cartID); err != nil {
		return nil, err
	}

	product, err := s.products.Get(ctx, productID, domain.FetchOptions{})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("productId", "product not found")
		}
		return nil, err
	}

	line := cartrepo.LineInput{
		ProductID:      product.ID,
		Quantity:       in.Quantity,
		UnitPriceCents: product.PriceCents,
	}
	if sku := strings.TrimSpace(in.SKU); sku != "" {
		combo, ok := findCombination(*product, sku)
		if !ok {
			return nil, domain.Invalid("sku", "unknown variant")
		}
		line.SKU = combo.SKU
		line.UnitPriceCents = combo.Price.Shift(2).Round(0).IntPart()
	}
	line.Snapshot = snapshotFromProduct(*product, line)

	if err := s.repo.AddLineItem(ctx, cartID, line); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, cartID)
}

func findCombination(p domain.Product, sku string) (domain.VariantCombination, bool) {
	for _, c := range p.VariantCombinations {
		if c.SKU == sku {
			return c, true
		}
	}
	return domain.VariantCombination{}, false
}

func snapshotFromProduct(p domain.Product, line cartrepo.LineInput) map[string]interface{} {
	snap := map[string]interface{}{
		"productTitle": p.Title,
		"productSlug":  p.Slug,
		"priceCents":   line.UnitPriceCents,
		"billingType":  p.BillingType,
	}
	if line.SKU != "" {
		snap["sku"] = line.SKU
	}
	if p.ImageURL != "" {
		snap["image"] = p.ImageURL
	}
	return snap
}
