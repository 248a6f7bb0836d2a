// Package storefront builds product pages for the shop front.
package storefront

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"storefront/internal/domain"
)

// PageDepth resolves related products on product pages.
const PageDepth = 1

type productFetcher interface {
	GetBySlug(ctx context.Context, slug string, opts domain.FetchOptions) (*domain.Product, error)
}

type accessChecker interface {
	HasPurchased(ctx context.Context, customerID, productID string) (bool, error)
}

type PageRequest struct {
	Slug       string
	Draft      bool
	CustomerID string
}

// Page is the view model handed to the product template.
type Page struct {
	Meta     Meta
	Product  domain.Product
	Variants []VariantOption
	Layout   []domain.Block
	Paywall  *PaywallSection
	Related  []RelatedProduct
	Draft    bool
}

type Meta struct {
	Title       string
	Description string
	Image       string
}

// VariantOption is one entry of the variant selector.
type VariantOption struct {
	Value string
	Label string
}

// PaywallSection is only present when the product enables its paywall.
// Blocks is empty unless the viewer has purchased the product.
type PaywallSection struct {
	Unlocked bool
	Blocks   []domain.Block
}

type RelatedProduct struct {
	Title string
	Slug  string
	Price string
}

type Renderer struct {
	products productFetcher
	access   accessChecker
	siteName string
	logger   *log.Logger
}

func NewRenderer(products productFetcher, access accessChecker, siteName string, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Renderer{products: products, access: access, siteName: siteName, logger: logger}
}

// Page fetches the product for req and builds its page. Any fetch failure
// is reported as domain.ErrNotFound.
func (r *Renderer) Page(ctx context.Context, req PageRequest) (*Page, error) {
	p, err := r.products.GetBySlug(ctx, req.Slug, domain.FetchOptions{Draft: req.Draft, Depth: PageDepth})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Printf("storefront: fetch slug=%s draft=%t error=%v", req.Slug, req.Draft, err)
		}
		return nil, domain.ErrNotFound
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}

	page := &Page{
		Meta:     r.meta(*p),
		Product:  *p,
		Variants: VariantOptions(p.VariantCombinations),
		Layout:   p.Layout,
		Related:  relatedProducts(p.RelatedProducts),
		Draft:    req.Draft,
	}
	if p.EnablePaywall {
		page.Paywall = &PaywallSection{}
		if r.canReadPaywall(ctx, req.CustomerID, p.ID) {
			page.Paywall.Unlocked = true
			page.Paywall.Blocks = p.Paywall
		}
	}
	return page, nil
}

func (r *Renderer) canReadPaywall(ctx context.Context, customerID, productID string) bool {
	if customerID == "" || r.access == nil {
		return false
	}
	ok, err := r.access.HasPurchased(ctx, customerID, productID)
	if err != nil {
		r.logger.Printf("storefront: access check customer_id=%s product_id=%s error=%v", customerID, productID, err)
		return false
	}
	return ok
}

func (r *Renderer) meta(p domain.Product) Meta {
	title := p.Title
	if r.siteName != "" {
		title = p.Title + " | " + r.siteName
	}
	return Meta{Title: title, Description: p.Description, Image: p.ImageURL}
}

// VariantOptions builds one selector entry per combination, labelled
// "<group>: <variant> - $<price>". Multi-part combinations join their
// parts with ", ".
func VariantOptions(combos []domain.VariantCombination) []VariantOption {
	options := make([]VariantOption, 0, len(combos))
	for _, c := range combos {
		parts := make([]string, 0, len(c.Combination))
		for _, part := range c.Combination {
			parts = append(parts, part.GroupName+": "+part.VariantName)
		}
		label := strings.Join(parts, ", ")
		if label == "" {
			label = c.SKU
		}
		options = append(options, VariantOption{
			Value: c.SKU,
			Label: label + " - $" + c.Price.String(),
		})
	}
	return options
}

func relatedProducts(products []domain.Product) []RelatedProduct {
	out := make([]RelatedProduct, 0, len(products))
	for _, p := range products {
		out = append(out, RelatedProduct{Title: p.Title, Slug: p.Slug, Price: FormatCents(p.PriceCents)})
	}
	return out
}
