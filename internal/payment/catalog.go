package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"storefront/internal/domain"
)

// ProductInput is the metadata mirrored to the external catalog.
type ProductInput struct {
	Name        string
	Description string
	Images      []string
}

// Recurring holds subscription billing for a price.
type Recurring struct {
	Interval      string `json:"interval"`
	IntervalCount int64  `json:"interval_count"`
}

// PriceInput describes a new immutable price.
type PriceInput struct {
	ProductID  string
	UnitAmount int64
	Currency   string
	Recurring  *Recurring
}

// NewPriceInput builds a price for billingType. Recurring is left nil for
// one-off billing and the interval count defaults to 1.
func NewPriceInput(productID string, unitAmount int64, currency, billingType, interval string, intervalCount int64) PriceInput {
	in := PriceInput{
		ProductID:  productID,
		UnitAmount: unitAmount,
		Currency:   currency,
	}
	if billingType == domain.BillingRecurring {
		if intervalCount <= 0 {
			intervalCount = 1
		}
		in.Recurring = &Recurring{Interval: interval, IntervalCount: intervalCount}
	}
	return in
}

// Product is the upstream product payload returned to callers.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Images      []string `json:"images"`
	Active      bool     `json:"active"`
	Deleted     bool     `json:"deleted,omitempty"`
}

// Price is the upstream price payload returned to callers.
type Price struct {
	ID         string     `json:"id"`
	ProductID  string     `json:"product"`
	UnitAmount int64      `json:"unit_amount"`
	Currency   string     `json:"currency"`
	Recurring  *Recurring `json:"recurring,omitempty"`
	Active     bool       `json:"active"`
}

type productAPI interface {
	New(params *stripe.ProductParams) (*stripe.Product, error)
	Update(id string, params *stripe.ProductParams) (*stripe.Product, error)
	Del(id string, params *stripe.ProductParams) (*stripe.Product, error)
}

type priceAPI interface {
	New(params *stripe.PriceParams) (*stripe.Price, error)
}

// Catalog adapts the Stripe product and price endpoints. It holds no
// local state.
type Catalog struct {
	products productAPI
	prices   priceAPI
	logger   *log.Logger
}

// NewStripe builds a Catalog authenticated with secretKey.
func NewStripe(secretKey string, logger *log.Logger) *Catalog {
	sc := client.New(secretKey, nil)
	return newCatalog(sc.Products, sc.Prices, logger)
}

func newCatalog(products productAPI, prices priceAPI, logger *log.Logger) *Catalog {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Catalog{products: products, prices: prices, logger: logger}
}

func (c *Catalog) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	params := &stripe.ProductParams{
		Name:        stripe.String(in.Name),
		Description: optionalString(in.Description),
		Images:      stripe.StringSlice(nonNil(in.Images)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())

	sp, err := c.products.New(params)
	if err != nil {
		c.logger.Printf("payment catalog: create product name=%q error=%v", in.Name, err)
		return nil, mapError("create product", "", err)
	}
	c.logger.Printf("payment catalog: created product id=%s", sp.ID)
	return toProduct(sp), nil
}

func (c *Catalog) CreatePrice(ctx context.Context, in PriceInput) (*Price, error) {
	params := &stripe.PriceParams{
		Product:    stripe.String(in.ProductID),
		UnitAmount: stripe.Int64(in.UnitAmount),
		Currency:   stripe.String(in.Currency),
	}
	if in.Recurring != nil {
		params.Recurring = &stripe.PriceRecurringParams{
			Interval:      stripe.String(in.Recurring.Interval),
			IntervalCount: stripe.Int64(in.Recurring.IntervalCount),
		}
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())

	sp, err := c.prices.New(params)
	if err != nil {
		c.logger.Printf("payment catalog: create price product=%s error=%v", in.ProductID, err)
		return nil, mapError("create price", in.ProductID, err)
	}
	c.logger.Printf("payment catalog: created price id=%s product=%s amount=%d", sp.ID, in.ProductID, in.UnitAmount)
	return toPrice(sp, in), nil
}

func (c *Catalog) UpdateProduct(ctx context.Context, id string, in ProductInput) (*Product, error) {
	params := &stripe.ProductParams{
		Name:        stripe.String(in.Name),
		Description: optionalString(in.Description),
	}
	if in.Images != nil {
		params.Images = stripe.StringSlice(in.Images)
	}
	params.Context = ctx

	sp, err := c.products.Update(id, params)
	if err != nil {
		c.logger.Printf("payment catalog: update product id=%s error=%v", id, err)
		return nil, mapError("update product", id, err)
	}
	c.logger.Printf("payment catalog: updated product id=%s", id)
	return toProduct(sp), nil
}

// DeleteProduct is not idempotent: deleting an already deleted product
// yields domain.ErrNotFound.
func (c *Catalog) DeleteProduct(ctx context.Context, id string) (*Product, error) {
	params := &stripe.ProductParams{}
	params.Context = ctx

	sp, err := c.products.Del(id, params)
	if err != nil {
		c.logger.Printf("payment catalog: delete product id=%s error=%v", id, err)
		return nil, mapError("delete product", id, err)
	}
	c.logger.Printf("payment catalog: deleted product id=%s", id)
	return toProduct(sp), nil
}

func mapError(op, id string, err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		if serr.HTTPStatusCode == http.StatusNotFound || serr.Code == stripe.ErrorCodeResourceMissing {
			return fmt.Errorf("%s %s: %w", op, id, domain.ErrNotFound)
		}
		return &domain.UpstreamError{
			Op:         op,
			StatusCode: serr.HTTPStatusCode,
			Code:       string(serr.Code),
			Message:    serr.Msg,
			Err:        err,
		}
	}
	return &domain.UpstreamError{Op: op, Err: err}
}

func toProduct(sp *stripe.Product) *Product {
	if sp == nil {
		return &Product{}
	}
	return &Product{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		Images:      nonNil(sp.Images),
		Active:      sp.Active,
		Deleted:     sp.Deleted,
	}
}

func toPrice(sp *stripe.Price, in PriceInput) *Price {
	p := &Price{
		ProductID:  in.ProductID,
		UnitAmount: in.UnitAmount,
		Currency:   in.Currency,
		Recurring:  in.Recurring,
	}
	if sp == nil {
		return p
	}
	p.ID = sp.ID
	p.Active = sp.Active
	if sp.UnitAmount != 0 {
		p.UnitAmount = sp.UnitAmount
	}
	if sp.Currency != "" {
		p.Currency = string(sp.Currency)
	}
	if sp.Recurring != nil {
		p.Recurring = &Recurring{
			Interval:      string(sp.Recurring.Interval),
			IntervalCount: sp.Recurring.IntervalCount,
		}
	}
	return p
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return stripe.String(s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
