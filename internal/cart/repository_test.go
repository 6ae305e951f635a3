package cart

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepository_FindByOwner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM carts WHERE owner_id = $1`)).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "owner_id", "version", "updated_at"}).AddRow("c1", "u1", int64(3), now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM cart_items WHERE cart_id = $1 ORDER BY position`)).
		WithArgs("c1").
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "product_name", "quantity"}).
			AddRow("p1", "Widget", 2).
			AddRow("p2", "Gadget", 1))

	c, err := repo.FindByOwner(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, int64(3), c.Version)
	require.Equal(t, []Item{
		{ProductID: "p1", ProductName: "Widget", Quantity: 2},
		{ProductID: "p2", ProductName: "Gadget", Quantity: 1},
	}, c.Items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_FindByOwnerMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM carts WHERE owner_id = $1`)).
		WithArgs("u1").
		WillReturnError(pgx.ErrNoRows)

	_, err = NewPostgresRepository(mock).FindByOwner(context.Background(), "u1")
	require.ErrorIs(t, err, ErrCartNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_CreateConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO carts`)).
		WithArgs("c1", "u1").
		WillReturnRows(pgxmock.NewRows([]string{"version", "updated_at"}).AddRow(int64(1), now))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO carts`)).
		WithArgs("c2", "u1").
		WillReturnError(pgx.ErrNoRows)

	c := &Cart{ID: "c1", OwnerID: "u1"}
	require.NoError(t, repo.Create(context.Background(), c))
	require.Equal(t, int64(1), c.Version)

	err = repo.Create(context.Background(), &Cart{ID: "c2", OwnerID: "u1"})
	require.ErrorIs(t, err, ErrCartExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	now := time.Now()

	c := &Cart{ID: "c1", OwnerID: "u1", Version: 2, Items: []Item{
		{ProductID: "p1", ProductName: "Widget", Quantity: 5},
		{ProductID: "p2", ProductName: "Gadget", Quantity: 1},
	}}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE carts SET version = version + 1`)).
		WithArgs("c1", int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"version", "updated_at"}).AddRow(int64(3), now))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM cart_items WHERE cart_id = $1`)).
		WithArgs("c1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO cart_items`)).
		WithArgs("c1", "p1", "Widget", 5, 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO cart_items`)).
		WithArgs("c1", "p2", "Gadget", 1, 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), c))
	require.Equal(t, int64(3), c.Version)
	require.Equal(t, now, c.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_SaveStale(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE carts SET version = version + 1`)).
		WithArgs("c1", int64(1)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	c := &Cart{ID: "c1", OwnerID: "u1", Version: 1}
	err = NewPostgresRepository(mock).Save(context.Background(), c)
	require.ErrorIs(t, err, ErrStaleCart)
	require.Equal(t, int64(1), c.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_SaveItemFailureRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE carts SET version = version + 1`)).
		WithArgs("c1", int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"version", "updated_at"}).AddRow(int64(2), time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM cart_items WHERE cart_id = $1`)).
		WithArgs("c1").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	c := &Cart{ID: "c1", OwnerID: "u1", Version: 1}
	err = NewPostgresRepository(mock).Save(context.Background(), c)
	require.Error(t, err)
	require.Equal(t, int64(1), c.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	p1, n1, q1 := "p1", "Widget", 2
	p2, n2, q2 := "p2", "Gadget", 1

	mock.ExpectQuery(regexp.QuoteMeta(`LEFT JOIN cart_items`)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "owner_id", "version", "updated_at", "product_id", "product_name", "quantity"}).
			AddRow("c1", "u1", int64(1), now, &p1, &n1, &q1).
			AddRow("c1", "u1", int64(1), now, &p2, &n2, &q2).
			AddRow("c2", "u2", int64(1), now, (*string)(nil), (*string)(nil), (*int)(nil)))

	carts, err := NewPostgresRepository(mock).List(context.Background())
	require.NoError(t, err)
	require.Len(t, carts, 2)
	require.Len(t, carts[0].Items, 2)
	require.Equal(t, 3, carts[0].TotalItems())
	require.Empty(t, carts[1].Items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_DeleteByOwner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM carts WHERE owner_id = $1`)).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err = NewPostgresRepository(mock).DeleteByOwner(context.Background(), "u1")
	require.ErrorIs(t, err, ErrCartNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
