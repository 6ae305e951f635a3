package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) FindByOwner(ctx context.Context, ownerID string) (*Cart, error) {
	var c Cart
	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_id, version, updated_at FROM carts WHERE owner_id = $1`, ownerID,
	).Scan(&c.ID, &c.OwnerID, &c.Version, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("select cart: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT product_id, product_name, quantity FROM cart_items WHERE cart_id = $1 ORDER BY position`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("select cart items: %w", err)
	}
	defer rows.Close()

	c.Items = []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		c.Items = append(c.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return &c, nil
}

// Create inserts an empty cart. A second cart for the same owner is rejected
// by the unique owner_id constraint.
func (r *PostgresRepository) Create(ctx context.Context, c *Cart) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO carts (id, owner_id, version, updated_at)
		VALUES ($1, $2, 1, now())
		ON CONFLICT (owner_id) DO NOTHING
		RETURNING version, updated_at
	`, c.ID, c.OwnerID).Scan(&c.Version, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCartExists
		}
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

// Save replaces the cart's items if c.Version is still current.
func (r *PostgresRepository) Save(ctx context.Context, c *Cart) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var (
		version   int64
		updatedAt time.Time
	)
	err = tx.QueryRow(ctx, `
		UPDATE carts SET version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at
	`, c.ID, c.Version).Scan(&version, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrStaleCart
			return err
		}
		return fmt.Errorf("bump cart version: %w", err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, c.ID); err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}

	for pos, it := range c.Items {
		if _, err = tx.Exec(ctx, `
			INSERT INTO cart_items (cart_id, product_id, product_name, quantity, position)
			VALUES ($1, $2, $3, $4, $5)
		`, c.ID, it.ProductID, it.ProductName, it.Quantity, pos); err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	c.Version = version
	c.UpdatedAt = updatedAt
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Cart, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.owner_id, c.version, c.updated_at, i.product_id, i.product_name, i.quantity
		FROM carts c
		LEFT JOIN cart_items i ON i.cart_id = c.id
		ORDER BY c.updated_at, c.id, i.position
	`)
	if err != nil {
		return nil, fmt.Errorf("select carts: %w", err)
	}
	defer rows.Close()

	carts := []Cart{}
	for rows.Next() {
		var (
			c           Cart
			productID   *string
			productName *string
			quantity    *int
		)
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Version, &c.UpdatedAt, &productID, &productName, &quantity); err != nil {
			return nil, fmt.Errorf("scan cart: %w", err)
		}
		if n := len(carts); n == 0 || carts[n-1].ID != c.ID {
			c.Items = []Item{}
			carts = append(carts, c)
		}
		if productID != nil {
			last := &carts[len(carts)-1]
			last.Items = append(last.Items, Item{
				ProductID:   *productID,
				ProductName: deref(productName),
				Quantity:    derefInt(quantity),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return carts, nil
}

func (r *PostgresRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE owner_id = $1`, ownerID)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCartNotFound
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
