package cart

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

func (r *postgresRepo) Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error) {
	const q = `
INSERT INTO carts (customer_id, currency, total_cents, state)
VALUES ($1, $2, 0, 'active')
RETURNING id::text, customer_id, currency, total_cents, state, created_at
`
	var cart domain.Cart
	if err := r.pool.QueryRow(ctx, q, in.CustomerID, in.Currency).Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.Currency,
		&cart.TotalCents,
		&cart.State,
		&cart.CreatedAt,
	); err != nil {
		r.logger.Printf("cart repo: create error=%v", err)
		return nil, err
	}
	return &cart, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Cart, error) {
	const cartQuery = `
SELECT id::text, customer_id, currency, total_cents, state, created_at
FROM carts
WHERE id = $1::uuid
`
	var cart domain.Cart
	err := r.pool.QueryRow(ctx, cartQuery, id).Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.Currency,
		&cart.TotalCents,
		&cart.State,
		&cart.CreatedAt,
	)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const linesQuery = `
SELECT id::text, cart_id::text, product_id::text, sku, quantity, unit_price_cents, total_cents, snapshot, created_at
FROM cart_lines
WHERE cart_id = $1::uuid
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(
			&line.ID,
			&line.CartID,
			&line.ProductID,
			&line.SKU,
			&line.Quantity,
			&line.UnitPriceCents,
			&line.TotalCents,
			&line.Snapshot,
			&line.CreatedAt,
		); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &cart, nil
}

func (r *postgresRepo) AddLineItem(ctx context.Context, cartID string, in LineInput) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var lineID string
	var existingQty int
	var unitPrice int64
	err = tx.QueryRow(ctx, `
SELECT id::text, quantity, unit_price_cents
FROM cart_lines
WHERE cart_id = $1::uuid AND product_id = $2::uuid AND sku = $3
`, cartID, in.ProductID, in.SKU).Scan(&lineID, &existingQty, &unitPrice)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if err == nil {
		newQty := existingQty + in.Quantity
		if _, err := tx.Exec(ctx, `
UPDATE cart_lines
SET quantity = $1, total_cents = $2
WHERE id = $3::uuid
`, newQty, unitPrice*int64(newQty), lineID); err != nil {
			return err
		}
	} else {
		snapshot := in.Snapshot
		if snapshot == nil {
			snapshot = map[string]interface{}{}
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO cart_lines (cart_id, product_id, sku, quantity, unit_price_cents, total_cents, snapshot)
VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7)
`, cartID, in.ProductID, in.SKU, in.Quantity, in.UnitPriceCents, in.UnitPriceCents*int64(in.Quantity), snapshot); err != nil {
			return err
		}
	}

	if err := updateCartTotal(ctx, tx, cartID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) RemoveProduct(ctx context.Context, productID string) (int64, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
DELETE FROM cart_lines
WHERE product_id = $1::uuid
RETURNING cart_id::text
`, productID)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		r.logger.Printf("cart repo: remove product_id=%s error=%v", productID, err)
		return 0, err
	}
	touched := map[string]struct{}{}
	for rows.Next() {
		var cartID string
		if err := rows.Scan(&cartID); err != nil {
			rows.Close()
			return 0, err
		}
		touched[cartID] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for cartID := range touched {
		if err := updateCartTotal(ctx, tx, cartID); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	r.logger.Printf("cart repo: removed product_id=%s carts=%d", productID, len(touched))
	return int64(len(touched)), nil
}

func updateCartTotal(ctx context.Context, tx pgx.Tx, cartID string) error {
	_, err := tx.Exec(ctx, `
UPDATE carts
SET total_cents = COALESCE((
	SELECT SUM(total_cents)
	FROM cart_lines
	WHERE cart_id = $1::uuid
), 0)
WHERE id = $1::uuid
`, cartID)
	return err
}

func isNotFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
