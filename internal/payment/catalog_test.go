package payment

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"storefront/internal/domain"
)

type fakeProducts struct {
	created []*stripe.ProductParams
	updated map[string]*stripe.ProductParams
	deleted map[string]bool
	newErr  error
	nextID  string
}

func (f *fakeProducts) New(params *stripe.ProductParams) (*stripe.Product, error) {
	if f.newErr != nil {
		return nil, f.newErr
	}
	f.created = append(f.created, params)
	return &stripe.Product{ID: f.nextID, Name: stripe.StringValue(params.Name), Active: true}, nil
}

func (f *fakeProducts) Update(id string, params *stripe.ProductParams) (*stripe.Product, error) {
	if f.deleted[id] {
		return nil, &stripe.Error{HTTPStatusCode: http.StatusNotFound, Code: stripe.ErrorCodeResourceMissing, Msg: "No such product"}
	}
	if f.updated == nil {
		f.updated = map[string]*stripe.ProductParams{}
	}
	f.updated[id] = params
	return &stripe.Product{ID: id, Name: stripe.StringValue(params.Name)}, nil
}

func (f *fakeProducts) Del(id string, _ *stripe.ProductParams) (*stripe.Product, error) {
	if f.deleted == nil {
		f.deleted = map[string]bool{}
	}
	if f.deleted[id] {
		return nil, &stripe.Error{HTTPStatusCode: http.StatusNotFound, Code: stripe.ErrorCodeResourceMissing, Msg: "No such product"}
	}
	f.deleted[id] = true
	return &stripe.Product{ID: id, Deleted: true}, nil
}

type fakePrices struct {
	created []*stripe.PriceParams
	err     error
}

func (f *fakePrices) New(params *stripe.PriceParams) (*stripe.Price, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, params)
	return &stripe.Price{ID: "price_1", UnitAmount: stripe.Int64Value(params.UnitAmount), Active: true}, nil
}

func TestNewPriceInput(t *testing.T) {
	t.Run("one-off has no recurring", func(t *testing.T) {
		in := NewPriceInput("prod_1", 1500, "usd", domain.BillingOneOff, "", 0)
		assert.Nil(t, in.Recurring)
		assert.Equal(t, int64(1500), in.UnitAmount)
	})

	t.Run("recurring interval count defaults to 1", func(t *testing.T) {
		in := NewPriceInput("prod_1", 900, "usd", domain.BillingRecurring, "month", 0)
		require.NotNil(t, in.Recurring)
		assert.Equal(t, "month", in.Recurring.Interval)
		assert.Equal(t, int64(1), in.Recurring.IntervalCount)
	})

	t.Run("explicit interval count kept", func(t *testing.T) {
		in := NewPriceInput("prod_1", 900, "usd", domain.BillingRecurring, "week", 2)
		require.NotNil(t, in.Recurring)
		assert.Equal(t, int64(2), in.Recurring.IntervalCount)
	})
}

func TestCatalog_CreateProductAndPrice(t *testing.T) {
	products := &fakeProducts{nextID: "prod_1"}
	prices := &fakePrices{}
	c := newCatalog(products, prices, nil)
	ctx := context.Background()

	p, err := c.CreateProduct(ctx, ProductInput{Name: "Tee", Description: "Cotton", Images: []string{"https://cdn/x.png"}})
	require.NoError(t, err)
	assert.Equal(t, "prod_1", p.ID)
	require.Len(t, products.created, 1)
	assert.Equal(t, "Tee", stripe.StringValue(products.created[0].Name))
	assert.NotNil(t, products.created[0].IdempotencyKey)

	price, err := c.CreatePrice(ctx, NewPriceInput(p.ID, 2500, "usd", domain.BillingOneOff, "", 0))
	require.NoError(t, err)
	assert.Equal(t, "price_1", price.ID)
	require.Len(t, prices.created, 1)
	assert.Nil(t, prices.created[0].Recurring)
	assert.Equal(t, "prod_1", stripe.StringValue(prices.created[0].Product))
}

func TestCatalog_CreatePriceRecurring(t *testing.T) {
	prices := &fakePrices{}
	c := newCatalog(&fakeProducts{}, prices, nil)

	_, err := c.CreatePrice(context.Background(), NewPriceInput("prod_1", 500, "usd", domain.BillingRecurring, "month", 0))
	require.NoError(t, err)
	require.NotNil(t, prices.created[0].Recurring)
	assert.Equal(t, "month", stripe.StringValue(prices.created[0].Recurring.Interval))
	assert.Equal(t, int64(1), stripe.Int64Value(prices.created[0].Recurring.IntervalCount))
}

func TestCatalog_UpstreamErrors(t *testing.T) {
	products := &fakeProducts{newErr: &stripe.Error{HTTPStatusCode: http.StatusBadRequest, Code: "parameter_missing", Msg: "Missing required param: name."}}
	c := newCatalog(products, &fakePrices{}, nil)

	_, err := c.CreateProduct(context.Background(), ProductInput{})
	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadRequest, upstream.StatusCode)
	assert.Contains(t, upstream.Error(), "Missing required param")
}

func TestCatalog_NonStripeErrorIsUpstream(t *testing.T) {
	c := newCatalog(&fakeProducts{}, &fakePrices{err: errors.New("connection reset")}, nil)

	_, err := c.CreatePrice(context.Background(), PriceInput{ProductID: "prod_1", UnitAmount: 1, Currency: "usd"})
	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "create price: connection reset", upstream.Error())
}

func TestCatalog_DeleteTwiceIsNotFound(t *testing.T) {
	products := &fakeProducts{}
	c := newCatalog(products, &fakePrices{}, nil)
	ctx := context.Background()

	deleted, err := c.DeleteProduct(ctx, "prod_1")
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)

	_, err = c.DeleteProduct(ctx, "prod_1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.UpdateProduct(ctx, "prod_1", ProductInput{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
