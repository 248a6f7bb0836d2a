package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

type stubRepo struct {
	createCart   *domain.Cart
	createErr    error
	lastCreate   cartrepo.CreateCartInput
	cart         *domain.Cart
	getByIDErr   error
	addErr       error
	lastAddCart  string
	lastAddInput cartrepo.LineInput
	addCalls     int
}

func (s *stubRepo) Create(_ context.Context, in cartrepo.CreateCartInput) (*domain.Cart, error) {
	s.lastCreate = in
	return s.createCart, s.createErr
}

func (s *stubRepo) GetByID(_ context.Context, _ string) (*domain.Cart, error) {
	if s.getByIDErr != nil {
		return nil, s.getByIDErr
	}
	return s.cart, nil
}

func (s *stubRepo) AddLineItem(_ context.Context, cartID string, in cartrepo.LineInput) error {
	s.addCalls++
	s.lastAddCart = cartID
	s.lastAddInput = in
	return s.addErr
}

type stubProducts struct {
	product *domain.Product
	err     error
	lastID  string
}

func (s *stubProducts) Get(_ context.Context, id string, _ domain.FetchOptions) (*domain.Product, error) {
	s.lastID = id
	return s.product, s.err
}

func tee() *domain.Product {
	return &domain.Product{
		ID:          "p1",
		Title:       "Tee",
		Slug:        "tee",
		PriceCents:  2000,
		BillingType: domain.BillingOneOff,
		VariantCombinations: []domain.VariantCombination{
			{SKU: "TEE-S", Price: decimal.RequireFromString("18.50")},
		},
	}
}

func TestServiceCreateValidation(t *testing.T) {
	svc := &Service{repo: &stubRepo{}}
	_, err := svc.Create(context.Background(), CreateInput{Currency: "   "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected currency validation error, got %v", err)
	}
}

func TestServiceCreateNormalizesCurrency(t *testing.T) {
	expected := &domain.Cart{ID: "c1", Currency: "USD"}
	repo := &stubRepo{createCart: expected}
	svc := &Service{repo: repo}
	got, err := svc.Create(context.Background(), CreateInput{Currency: " usd "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != expected {
		t.Fatalf("unexpected cart: %+v", got)
	}
	if repo.lastCreate.Currency != "USD" {
		t.Fatalf("expected USD, got %q", repo.lastCreate.Currency)
	}
}

func TestServiceCreateRepoError(t *testing.T) {
	svc := &Service{repo: &stubRepo{createErr: errors.New("boom")}}
	_, err := svc.Create(context.Background(), CreateInput{Currency: "USD"})
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected repo error, got %v", err)
	}
}

func TestServiceAddItemValidation(t *testing.T) {
	svc := &Service{repo: &stubRepo{cart: &domain.Cart{ID: "cart"}}, products: &stubProducts{product: tee()}}

	cases := map[string]AddItemInput{
		"productId": {Quantity: 1},
		"quantity":  {ProductID: "p1"},
		"sku":       {ProductID: "p1", SKU: "TEE-XXL", Quantity: 1},
	}
	for field, in := range cases {
		_, err := svc.AddItem(context.Background(), "cart", in)
		var verr *domain.ValidationError
		if !errors.As(err, &verr) || verr.Field != field {
			t.Fatalf("expected %s validation error, got %v", field, err)
		}
	}
}

func TestServiceAddItemProductNotFound(t *testing.T) {
	repo := &stubRepo{cart: &domain.Cart{ID: "cart"}}
	svc := &Service{repo: repo, products: &stubProducts{err: domain.ErrNotFound}}
	_, err := svc.AddItem(context.Background(), "cart", AddItemInput{ProductID: "p1", Quantity: 1})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.addCalls != 0 {
		t.Fatalf("expected no line added")
	}
}

func TestServiceAddItemCartNotFound(t *testing.T) {
	svc := &Service{repo: &stubRepo{getByIDErr: domain.ErrNotFound}, products: &stubProducts{product: tee()}}
	_, err := svc.AddItem(context.Background(), "missing", AddItemInput{ProductID: "p1", Quantity: 1})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceAddItemUsesProductPrice(t *testing.T) {
	repo := &stubRepo{cart: &domain.Cart{ID: "cart"}}
	svc := &Service{repo: repo, products: &stubProducts{product: tee()}}
	if _, err := svc.AddItem(context.Background(), "cart", AddItemInput{ProductID: "p1", Quantity: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastAddCart != "cart" || repo.lastAddInput.Quantity != 2 {
		t.Fatalf("unexpected add call: %+v", repo.lastAddInput)
	}
	if repo.lastAddInput.UnitPriceCents != 2000 || repo.lastAddInput.SKU != "" {
		t.Fatalf("expected product price without sku, got %+v", repo.lastAddInput)
	}
	if repo.lastAddInput.Snapshot["productSlug"] != "tee" {
		t.Fatalf("unexpected snapshot: %+v", repo.lastAddInput.Snapshot)
	}
}

func TestServiceAddItemUsesVariantPrice(t *testing.T) {
	repo := &stubRepo{cart: &domain.Cart{ID: "cart"}}
	svc := &Service{repo: repo, products: &stubProducts{product: tee()}}
	if _, err := svc.AddItem(context.Background(), "cart", AddItemInput{ProductID: "p1", SKU: "TEE-S", Quantity: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastAddInput.UnitPriceCents != 1850 {
		t.Fatalf("expected 1850, got %d", repo.lastAddInput.UnitPriceCents)
	}
	if repo.lastAddInput.Snapshot["sku"] != "TEE-S" {
		t.Fatalf("unexpected snapshot: %+v", repo.lastAddInput.Snapshot)
	}
}

func TestServiceAddItemRepoError(t *testing.T) {
	repo := &stubRepo{cart: &domain.Cart{ID: "cart"}, addErr: errors.New("boom")}
	svc := &Service{repo: repo, products: &stubProducts{product: tee()}}
	_, err := svc.AddItem(context.Background(), "cart", AddItemInput{ProductID: "p1", Quantity: 1})
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected repo error, got %v", err)
	}
}
