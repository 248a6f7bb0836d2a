package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/testutil"
)

func newProduct(slug, status string) domain.Product {
	return domain.Product{
		ID:          uuid.NewString(),
		Title:       slug,
		Slug:        slug,
		PriceCents:  1999,
		BillingType: domain.BillingOneOff,
		Status:      status,
	}
}

func TestPostgres_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pool := testutil.Pool(t)
	repo := NewPostgres(pool, nil)

	published := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	in := newProduct("tee", domain.StatusPublished)
	in.PublishedOn = &published
	in.Layout = []domain.Block{{BlockType: "content", Body: "hello"}}
	in.EnablePaywall = true
	in.Paywall = []domain.Block{{BlockType: "content", Body: "members"}}
	in.VariantGroups = []domain.VariantGroup{{GroupName: "Size", Variants: []domain.VariantOption{{VariantName: "S"}}}}
	in.VariantCombinations = []domain.VariantCombination{{
		SKU:         "TEE-S",
		Price:       decimal.RequireFromString("18.50"),
		Quantity:    3,
		Combination: []domain.CombinationPart{{GroupName: "Size", VariantName: "S"}},
	}}
	in.Categories = []string{"apparel"}

	created, err := repo.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != in.ID || created.CreatedAt.IsZero() {
		t.Fatalf("unexpected product %+v", created)
	}

	got, err := repo.GetByID(ctx, in.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.VariantCombinations) != 1 || !got.VariantCombinations[0].Price.Equal(decimal.RequireFromString("18.5")) {
		t.Fatalf("unexpected combinations %+v", got.VariantCombinations)
	}
	if len(got.Paywall) != 1 || !got.EnablePaywall || got.Layout[0].Body != "hello" {
		t.Fatalf("unexpected blocks %+v", got)
	}
	if got.PublishedOn == nil || !got.PublishedOn.Equal(published) {
		t.Fatalf("unexpected published on %v", got.PublishedOn)
	}
	if got.Synced() {
		t.Fatalf("expected unsynced product")
	}
}

func TestPostgres_DuplicateSlug(t *testing.T) {
	ctx := context.Background()
	pool := testutil.Pool(t)
	repo := NewPostgres(pool, nil)

	if _, err := repo.Create(ctx, newProduct("tee", domain.StatusDraft)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := repo.Create(ctx, newProduct("tee", domain.StatusDraft))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPostgres_DraftVisibility(t *testing.T) {
	ctx := context.Background()
	pool := testutil.Pool(t)
	repo := NewPostgres(pool, nil)

	live := newProduct("live", domain.StatusPublished)
	draft := newProduct("draft", domain.StatusDraft)
	for _, p := range []domain.Product{live, draft} {
		if _, err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list, err := repo.List(ctx, domain.FetchOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Slug != "live" {
		t.Fatalf("expected only published, got %+v", list)
	}
	list, err = repo.List(ctx, domain.FetchOptions{Draft: true})
	if err != nil {
		t.Fatalf("List draft: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 products in draft view, got %d", len(list))
	}

	if _, err := repo.GetBySlug(ctx, "draft", domain.FetchOptions{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for draft, got %v", err)
	}
	if _, err := repo.GetBySlug(ctx, "draft", domain.FetchOptions{Draft: true}); err != nil {
		t.Fatalf("GetBySlug draft: %v", err)
	}

	related, err := repo.ListByIDs(ctx, []string{draft.ID, live.ID}, domain.FetchOptions{})
	if err != nil {
		t.Fatalf("ListByIDs: %v", err)
	}
	if len(related) != 1 || related[0].ID != live.ID {
		t.Fatalf("unexpected related %+v", related)
	}
}

func TestPostgres_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	pool := testutil.Pool(t)
	repo := NewPostgres(pool, nil)

	p := newProduct("tee", domain.StatusDraft)
	if _, err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	p.Title = "Tee v2"
	p.ExternalProductID = "prod_1"
	p.ExternalPriceID = "price_2"
	updated, err := repo.Update(ctx, p)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Tee v2" || updated.ExternalPriceID != "price_2" || !updated.Synced() {
		t.Fatalf("unexpected update %+v", updated)
	}

	missing := newProduct("ghost", domain.StatusDraft)
	if _, err := repo.Update(ctx, missing); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if _, err := repo.GetByID(ctx, "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for malformed id, got %v", err)
	}
}
