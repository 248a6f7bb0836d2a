package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/hooks"
	"storefront/internal/payment"
	cartrepo "storefront/internal/repository/cart"
	productrepo "storefront/internal/repository/product"
	purchaserepo "storefront/internal/repository/purchase"
	synceventrepo "storefront/internal/repository/syncevent"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/catalogsync"
	productsvc "storefront/internal/service/product"
	"storefront/internal/storefront"
	"storefront/internal/testutil"
)

func TestStorefront_IntegrationProductLifecycle(t *testing.T) {
	pool := testutil.Pool(t)
	logger := logDiscard()

	productRepo := productrepo.NewPostgres(pool, logger)
	cartRepo := cartrepo.NewPostgres(pool, logger)
	purchaseRepo := purchaserepo.NewPostgres(pool, logger)
	syncRepo := synceventrepo.NewPostgres(pool, logger)

	catalog := &stubCatalog{
		product: &payment.Product{ID: "prod_123", Name: "Field Guide", Active: true},
		price:   &payment.Price{ID: "price_123", ProductID: "prod_123", UnitAmount: 1500, Currency: "usd", Active: true},
	}
	sync := catalogsync.New(catalog, cartRepo, "usd", logger)
	dispatcher := hooks.New[domain.Product](syncRepo, logger)
	dispatcher.OnBeforeWrite(sync.BeforeWrite)
	dispatcher.OnAfterDelete(sync.AfterDelete)
	products := productsvc.New(productRepo, dispatcher, logger)

	router := newTestRouter(t, Deps{
		Catalog:    catalog,
		Products:   products,
		Carts:      cartsvc.New(cartRepo, products),
		Purchases:  purchaseRepo,
		SyncEvents: syncRepo,
		Pages:      storefront.NewRenderer(products, purchaseRepo, "Shop", logger),
		Currency:   "usd",
	})

	body := `{"title":"Field Guide","price":1500,"billingType":"oneoff","_status":"published",
		"layout":[{"blockType":"content","body":"Public intro"}],
		"enablePaywall":true,"paywall":[{"blockType":"content","body":"Members only chapter"}]}`
	rec := doRequest(router, http.MethodPost, "/api/products", body, adminHeaders())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var created productsvc.WriteResult
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal create: %v", err)
	}
	if created.Product.ExternalProductID != "prod_123" || created.Product.ExternalPriceID != "price_123" {
		t.Fatalf("expected external ids on created product, got %+v", created.Product)
	}
	productID := created.Product.ID

	rec = doRequest(router, http.MethodGet, "/api/products/"+productID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "Members only chapter") {
		t.Fatalf("paywall leaked to anonymous reader: %s", rec.Body.String())
	}

	rec = doRequest(router, http.MethodGet, "/products/field-guide", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Public intro") {
		t.Fatalf("page: expected rendered product, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doRequest(router, http.MethodPost, "/api/products/"+productID+"/purchases", `{"customerId":"cust-1"}`, adminHeaders())
	if rec.Code != http.StatusCreated {
		t.Fatalf("grant: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	rec = doRequest(router, http.MethodGet, "/products/field-guide", "", map[string]string{customerHeader: "cust-1"})
	if !strings.Contains(rec.Body.String(), "Members only chapter") {
		t.Fatalf("purchaser should see paywall: %s", rec.Body.String())
	}

	rec = doRequest(router, http.MethodPost, "/api/carts", `{"currency":"usd"}`, map[string]string{customerHeader: "cust-1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create cart: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var cart cartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &cart); err != nil {
		t.Fatalf("unmarshal cart: %v", err)
	}

	rec = doRequest(router, http.MethodPost, "/api/carts/"+cart.ID+"/items", `{"productId":"`+productID+`","quantity":2}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("add item: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &cart); err != nil {
		t.Fatalf("unmarshal cart: %v", err)
	}
	if len(cart.LineItems) != 1 || cart.TotalPrice.CentAmount != 3000 {
		t.Fatalf("unexpected cart after add %+v", cart)
	}

	rec = doRequest(router, http.MethodDelete, "/api/products/"+productID, "", adminHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if catalog.lastDeleteID != "prod_123" {
		t.Fatalf("expected upstream delete of prod_123, got %q", catalog.lastDeleteID)
	}

	rec = doRequest(router, http.MethodGet, "/api/carts/"+cart.ID, "", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &cart); err != nil {
		t.Fatalf("unmarshal cart: %v", err)
	}
	if len(cart.LineItems) != 0 {
		t.Fatalf("expected deleted product pruned from cart, got %+v", cart.LineItems)
	}

	rec = doRequest(router, http.MethodGet, "/api/products/"+productID+"/sync-events", "", adminHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("sync events: expected 200, got %d", rec.Code)
	}
	var events struct {
		Docs []domain.SyncResult `json:"docs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if len(events.Docs) < 2 {
		t.Fatalf("expected create and delete sync events, got %+v", events.Docs)
	}
}
