package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/testutil"
)

func TestPostgres_AddLineItemMergesQuantity(t *testing.T) {
	ctx := context.Background()
	pool := testutil.Pool(t)
	repo := NewPostgres(pool, nil)

	customer := "cust-1"
	cart, err := repo.Create(ctx, CreateCartInput{CustomerID: &customer, Currency: "USD"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	productID := uuid.NewString()

	for i := 0; i < 2; i++ {
		if err := repo.AddLineItem(ctx, cart.ID, LineInput{ProductID: productID, SKU: "TEE-S", Quantity: 1, UnitPriceCents: 1850}); err != nil {
			t.Fatalf("AddLineItem: %v", err)
		}
	}
	if err := repo.AddLineItem(ctx, cart.ID, LineInput{ProductID: productID, Quantity: 1, UnitPriceCents: 2000}); err != nil {
		t.Fatalf("AddLineItem: %v", err)
	}

	got, err := repo.GetByID(ctx, cart.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got.Lines))
	}
	if got.Lines[0].Quantity != 2 || got.Lines[0].TotalCents != 3700 {
		t.Fatalf("unexpected merged line %+v", got.Lines[0])
	}
	if got.TotalCents != 5700 {
		t.Fatalf("expected total 5700, got %d", got.TotalCents)
	}
}

func TestPostgres_RemoveProduct(t *testing.T) {
	ctx := context.Background()
	pool := testutil.Pool(t)
	repo := NewPostgres(pool, nil)

	doomed := uuid.NewString()
	kept := uuid.NewString()
	var carts []string
	for i := 0; i < 2; i++ {
		c, err := repo.Create(ctx, CreateCartInput{Currency: "USD"})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := repo.AddLineItem(ctx, c.ID, LineInput{ProductID: doomed, Quantity: 1, UnitPriceCents: 1000}); err != nil {
			t.Fatalf("AddLineItem: %v", err)
		}
		if err := repo.AddLineItem(ctx, c.ID, LineInput{ProductID: kept, Quantity: 1, UnitPriceCents: 500}); err != nil {
			t.Fatalf("AddLineItem: %v", err)
		}
		carts = append(carts, c.ID)
	}
	untouched, err := repo.Create(ctx, CreateCartInput{Currency: "USD"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := repo.RemoveProduct(ctx, doomed)
	if err != nil {
		t.Fatalf("RemoveProduct: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 carts updated, got %d", n)
	}
	for _, id := range carts {
		c, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if len(c.Lines) != 1 || c.Lines[0].ProductID != kept || c.TotalCents != 500 {
			t.Fatalf("unexpected cart after removal %+v", c)
		}
	}
	if c, _ := repo.GetByID(ctx, untouched.ID); c.TotalCents != 0 {
		t.Fatalf("unexpected untouched cart %+v", c)
	}

	n, err = repo.RemoveProduct(ctx, doomed)
	if err != nil || n != 0 {
		t.Fatalf("expected no-op second removal, got n=%d err=%v", n, err)
	}
}

func TestPostgres_GetByIDNotFound(t *testing.T) {
	ctx := context.Background()
	pool := testutil.Pool(t)
	repo := NewPostgres(pool, nil)

	if _, err := repo.GetByID(ctx, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := repo.GetByID(ctx, "bogus"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for malformed id, got %v", err)
	}
}
