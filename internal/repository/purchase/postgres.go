package purchase

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

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

func (r *postgresRepo) Grant(ctx context.Context, customerID, productID string) error {
	const q = `
INSERT INTO purchases (customer_id, product_id)
VALUES ($1, $2::uuid)
ON CONFLICT (customer_id, product_id) DO NOTHING
`
	if _, err := r.pool.Exec(ctx, q, customerID, productID); err != nil {
		r.logger.Printf("purchase repo: grant customer_id=%s product_id=%s error=%v", customerID, productID, err)
		return err
	}
	r.logger.Printf("purchase repo: granted customer_id=%s product_id=%s", customerID, productID)
	return nil
}

func (r *postgresRepo) HasPurchased(ctx context.Context, customerID, productID string) (bool, error) {
	if customerID == "" {
		return false, nil
	}
	const q = `
SELECT EXISTS (
    SELECT 1 FROM purchases WHERE customer_id = $1 AND product_id = $2::uuid
)
`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, customerID, productID).Scan(&ok); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}
