// Package product is the products collection: it validates documents,
// runs the lifecycle hooks around every write and resolves relationships
// on read.
package product

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/hooks"
	productrepo "storefront/internal/repository/product"
)

type Service struct {
	repo   productrepo.Repository
	hooks  *hooks.Dispatcher[domain.Product]
	logger *log.Logger
	now    func() time.Time
}

func New(repo productrepo.Repository, dispatcher *hooks.Dispatcher[domain.Product], logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if dispatcher == nil {
		dispatcher = hooks.New[domain.Product](nil, logger)
	}
	return &Service{
		repo:   repo,
		hooks:  dispatcher,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WriteResult is a persisted document plus what its hooks reported.
type WriteResult struct {
	Product *domain.Product     `json:"doc"`
	Sync    []domain.SyncResult `json:"sync,omitempty"`
}

func (s *Service) List(ctx context.Context, opts domain.FetchOptions) ([]domain.Product, error) {
	products, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if err := s.resolve(ctx, &products[i], opts); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id string, opts domain.FetchOptions) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !opts.Draft && p.Status != domain.StatusPublished {
		return nil, domain.ErrNotFound
	}
	if err := s.resolve(ctx, p, opts); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string, opts domain.FetchOptions) (*domain.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, domain.ErrNotFound
	}
	p, err := s.repo.GetBySlug(ctx, slug, opts)
	if err != nil {
		return nil, err
	}
	if err := s.resolve(ctx, p, opts); err != nil {
		return nil, err
	}
	return p, nil
}

// Create validates and writes a new document. The before-write hooks may
// annotate it (external ids) before it is persisted.
func (s *Service) Create(ctx context.Context, in domain.Product) (*WriteResult, error) {
	p := in
	p.ID = uuid.NewString()
	p.ExternalProductID = ""
	p.ExternalPriceID = ""
	s.prepare(&p, nil)
	if err := domain.ValidateProduct(p); err != nil {
		return nil, err
	}
	if err := s.checkSlug(ctx, p); err != nil {
		return nil, err
	}

	p, results := s.hooks.BeforeWrite(ctx, p, domain.OpCreate)
	saved, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	results = append(results, s.hooks.AfterChange(ctx, *saved, domain.OpCreate)...)
	s.logger.Printf("product service: created id=%s slug=%s synced=%t", saved.ID, saved.Slug, saved.Synced())
	return &WriteResult{Product: saved, Sync: results}, nil
}

// Update replaces the editable fields of document id. External ids and
// SkipSync are system managed and always carried over from the stored
// document.
func (s *Service) Update(ctx context.Context, id string, in domain.Product) (*WriteResult, error) {
	return s.update(ctx, id, in, false)
}

func (s *Service) update(ctx context.Context, id string, in domain.Product, system bool) (*WriteResult, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := in
	p.ID = existing.ID
	p.ExternalProductID = existing.ExternalProductID
	p.ExternalPriceID = existing.ExternalPriceID
	p.CreatedAt = existing.CreatedAt
	if !system {
		p.SkipSync = existing.SkipSync
	}
	s.prepare(&p, existing)
	if err := domain.ValidateProduct(p); err != nil {
		return nil, err
	}
	if err := s.checkSlug(ctx, p); err != nil {
		return nil, err
	}

	p, results := s.hooks.BeforeWrite(ctx, p, domain.OpUpdate)
	saved, err := s.repo.Update(ctx, p)
	if err != nil {
		return nil, err
	}
	results = append(results, s.hooks.AfterChange(ctx, *saved, domain.OpUpdate)...)
	s.logger.Printf("product service: updated id=%s slug=%s synced=%t", saved.ID, saved.Slug, saved.Synced())
	return &WriteResult{Product: saved, Sync: results}, nil
}

// Upsert updates the document with in.Slug, or creates it. It is the
// import path, so in.SkipSync is honoured on update too.
func (s *Service) Upsert(ctx context.Context, in domain.Product) (*WriteResult, error) {
	slug := in.Slug
	if strings.TrimSpace(slug) == "" {
		slug = domain.Slugify(in.Title)
	}
	existing, err := s.repo.GetBySlug(ctx, slug, domain.FetchOptions{Draft: true})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return s.Create(ctx, in)
	case err != nil:
		return nil, err
	}
	return s.update(ctx, existing.ID, in, true)
}

// Delete removes the document and then runs the after-delete hooks with
// the removed values.
func (s *Service) Delete(ctx context.Context, id string) (*WriteResult, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	results := s.hooks.AfterDelete(ctx, *existing)
	s.logger.Printf("product service: deleted id=%s slug=%s", existing.ID, existing.Slug)
	return &WriteResult{Product: existing, Sync: results}, nil
}

// checkSlug rejects a slug held by another document. It runs before the
// before-write hooks so a write the store would refuse never reaches the
// payment catalog.
func (s *Service) checkSlug(ctx context.Context, p domain.Product) error {
	other, err := s.repo.GetBySlug(ctx, p.Slug, domain.FetchOptions{Draft: true})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != p.ID:
		return domain.Invalid("slug", "already in use")
	}
	return nil
}

func (s *Service) prepare(p *domain.Product, existing *domain.Product) {
	p.Title = strings.TrimSpace(p.Title)
	p.Slug = strings.TrimSpace(p.Slug)
	if p.Slug == "" {
		p.Slug = domain.Slugify(p.Title)
	}
	if p.BillingType == "" {
		p.BillingType = domain.BillingOneOff
	}
	if p.Status == "" {
		p.Status = domain.StatusDraft
	}
	if p.BillingType == domain.BillingRecurring && p.RecurringIntervalCount <= 0 {
		p.RecurringIntervalCount = 1
	}
	if p.PublishedOn == nil && existing != nil {
		p.PublishedOn = existing.PublishedOn
	}
	if p.Status == domain.StatusPublished && p.PublishedOn == nil {
		now := s.now()
		p.PublishedOn = &now
	}
	p.RelatedProductIDs = withoutID(p.RelatedProductIDs, p.ID)
	p.RelatedProducts = nil
}

func (s *Service) resolve(ctx context.Context, p *domain.Product, opts domain.FetchOptions) error {
	if opts.Depth < 1 || len(p.RelatedProductIDs) == 0 {
		return nil
	}
	related, err := s.repo.ListByIDs(ctx, withoutID(p.RelatedProductIDs, p.ID), domain.FetchOptions{Draft: opts.Draft})
	if err != nil {
		s.logger.Printf("product service: resolve related id=%s error=%v", p.ID, err)
		return err
	}
	p.RelatedProducts = related
	return nil
}

func withoutID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, v := range ids {
		v = strings.TrimSpace(v)
		if v == "" || v == id || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
