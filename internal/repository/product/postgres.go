package product

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

const productColumns = `
id::text, slug, title, COALESCE(description, ''), price_cents, billing_type,
COALESCE(recurring_interval, ''), recurring_interval_count, COALESCE(image_url, ''),
COALESCE(stripe_product_id, ''), COALESCE(stripe_price_id, ''), layout, enable_paywall, paywall,
variant_groups, variant_combinations, categories, related_product_ids, status, published_on,
skip_sync, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) List(ctx context.Context, opts domain.FetchOptions) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + `
FROM products
WHERE ($1 OR status = 'published')
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q, opts.Draft)
	if err != nil {
		r.logger.Printf("product repo: list draft=%t error=%v", opts.Draft, err)
		return nil, err
	}
	result, err := collect(rows)
	if err != nil {
		r.logger.Printf("product repo: list rows error=%v", err)
		return nil, err
	}
	r.logger.Printf("product repo: list draft=%t count=%d", opts.Draft, len(result))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + `
FROM products
WHERE id = $1::uuid
`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if isNotFound(err) {
			r.logger.Printf("product repo: get id=%s not found", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string, opts domain.FetchOptions) (*domain.Product, error) {
	q := `SELECT ` + productColumns + `
FROM products
WHERE slug = $1 AND ($2 OR status = 'published')
`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, slug, opts.Draft))
	if err != nil {
		if isNotFound(err) {
			r.logger.Printf("product repo: get slug=%s draft=%t not found", slug, opts.Draft)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get slug=%s error=%v", slug, err)
		return nil, err
	}
	r.logger.Printf("product repo: get slug=%s id=%s", slug, p.ID)
	return p, nil
}

func (r *postgresRepo) ListByIDs(ctx context.Context, ids []string, opts domain.FetchOptions) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	q := `SELECT ` + productColumns + `
FROM products
WHERE id::text = ANY($1) AND ($2 OR status = 'published')
ORDER BY array_position($1, id::text)
`
	rows, err := r.pool.Query(ctx, q, ids, opts.Draft)
	if err != nil {
		r.logger.Printf("product repo: list by ids count=%d error=%v", len(ids), err)
		return nil, err
	}
	return collect(rows)
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
INSERT INTO products (
    id, slug, title, description, price_cents, billing_type, recurring_interval, recurring_interval_count,
    image_url, stripe_product_id, stripe_price_id, layout, enable_paywall, paywall,
    variant_groups, variant_combinations, categories, related_product_ids, status, published_on, skip_sync
)
VALUES (
    COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, NULLIF($4, ''), $5, $6, NULLIF($7, ''), $8,
    NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), $12, $13, $14,
    $15, $16, $17, $18, $19, $20, $21
)
RETURNING ` + productColumns
	normalize(&p)
	res, err := scanProduct(r.pool.QueryRow(ctx, q, writeArgs(p)...))
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Printf("product repo: create slug=%s duplicate", p.Slug)
			return nil, domain.Invalid("slug", "already in use")
		}
		r.logger.Printf("product repo: create slug=%s error=%v", p.Slug, err)
		return nil, err
	}
	r.logger.Printf("product repo: created slug=%s id=%s", res.Slug, res.ID)
	return res, nil
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
UPDATE products SET
    slug = $2,
    title = $3,
    description = NULLIF($4, ''),
    price_cents = $5,
    billing_type = $6,
    recurring_interval = NULLIF($7, ''),
    recurring_interval_count = $8,
    image_url = NULLIF($9, ''),
    stripe_product_id = NULLIF($10, ''),
    stripe_price_id = NULLIF($11, ''),
    layout = $12,
    enable_paywall = $13,
    paywall = $14,
    variant_groups = $15,
    variant_combinations = $16,
    categories = $17,
    related_product_ids = $18,
    status = $19,
    published_on = $20,
    skip_sync = $21,
    updated_at = NOW()
WHERE id = $1::uuid
RETURNING ` + productColumns
	normalize(&p)
	res, err := scanProduct(r.pool.QueryRow(ctx, q, writeArgs(p)...))
	if err != nil {
		switch {
		case isNotFound(err):
			return nil, domain.ErrNotFound
		case isUniqueViolation(err):
			return nil, domain.Invalid("slug", "already in use")
		}
		r.logger.Printf("product repo: update id=%s error=%v", p.ID, err)
		return nil, err
	}
	r.logger.Printf("product repo: updated slug=%s id=%s", res.Slug, res.ID)
	return res, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1::uuid`, id)
	if err != nil {
		if isNotFound(err) {
			return domain.ErrNotFound
		}
		r.logger.Printf("product repo: delete id=%s error=%v", id, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("product repo: deleted id=%s", id)
	return nil
}

func writeArgs(p domain.Product) []interface{} {
	return []interface{}{
		p.ID,
		p.Slug,
		p.Title,
		p.Description,
		p.PriceCents,
		p.BillingType,
		p.RecurringInterval,
		p.RecurringIntervalCount,
		p.ImageURL,
		p.ExternalProductID,
		p.ExternalPriceID,
		p.Layout,
		p.EnablePaywall,
		p.Paywall,
		p.VariantGroups,
		p.VariantCombinations,
		p.Categories,
		p.RelatedProductIDs,
		p.Status,
		p.PublishedOn,
		p.SkipSync,
	}
}

// normalize keeps JSON columns as arrays rather than null.
func normalize(p *domain.Product) {
	if p.Layout == nil {
		p.Layout = []domain.Block{}
	}
	if p.Paywall == nil {
		p.Paywall = []domain.Block{}
	}
	if p.VariantGroups == nil {
		p.VariantGroups = []domain.VariantGroup{}
	}
	if p.VariantCombinations == nil {
		p.VariantCombinations = []domain.VariantCombination{}
	}
	if p.Categories == nil {
		p.Categories = []string{}
	}
	if p.RelatedProductIDs == nil {
		p.RelatedProductIDs = []string{}
	}
}

func collect(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()
	result := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID,
		&p.Slug,
		&p.Title,
		&p.Description,
		&p.PriceCents,
		&p.BillingType,
		&p.RecurringInterval,
		&p.RecurringIntervalCount,
		&p.ImageURL,
		&p.ExternalProductID,
		&p.ExternalPriceID,
		&p.Layout,
		&p.EnablePaywall,
		&p.Paywall,
		&p.VariantGroups,
		&p.VariantCombinations,
		&p.Categories,
		&p.RelatedProductIDs,
		&p.Status,
		&p.PublishedOn,
		&p.SkipSync,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// isNotFound also treats malformed uuids as missing documents.
func isNotFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
