// Package syncevent stores hook results so catalog drift can be found
// without trawling logs.
package syncevent

import (
	"context"
	"io"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

type Repository struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Repository{pool: pool, logger: logger}
}

// Record implements hooks.Monitor.
func (r *Repository) Record(ctx context.Context, res domain.SyncResult) error {
	const q = `
INSERT INTO sync_events (id, hook, product_id, operation, status, reason, external_product_id, external_price_id, carts_updated, created_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, COALESCE($10, NOW()))
`
	var at interface{}
	if !res.At.IsZero() {
		at = res.At
	}
	_, err := r.pool.Exec(ctx, q,
		uuid.NewString(),
		res.Hook,
		res.ProductID,
		string(res.Operation),
		string(res.Status),
		res.Reason,
		res.ExternalProductID,
		res.ExternalPriceID,
		res.CartsUpdated,
		at,
	)
	if err != nil {
		r.logger.Printf("sync event repo: record hook=%s product_id=%s error=%v", res.Hook, res.ProductID, err)
	}
	return err
}

// ListByProduct returns the most recent results for productID, newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID string, limit int) ([]domain.SyncResult, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT hook, COALESCE(product_id, ''), operation, status, COALESCE(reason, ''),
       COALESCE(external_product_id, ''), COALESCE(external_price_id, ''), carts_updated, created_at
FROM sync_events
WHERE product_id = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.pool.Query(ctx, q, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.SyncResult{}
	for rows.Next() {
		var (
			res       domain.SyncResult
			operation string
			status    string
		)
		if err := rows.Scan(&res.Hook, &res.ProductID, &operation, &status, &res.Reason,
			&res.ExternalProductID, &res.ExternalPriceID, &res.CartsUpdated, &res.At); err != nil {
			return nil, err
		}
		res.Operation = domain.Operation(operation)
		res.Status = domain.SyncStatus(status)
		result = append(result, res)
	}
	return result, rows.Err()
}
