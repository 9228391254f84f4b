package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "postgres")), mock
}

var (
	from = time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
)

func TestTotals(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_amount\), 0\) AS revenue`).
		WithArgs("b1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"revenue", "cost", "count", "items_sold"}).
			AddRow("310.50", "200.00", 3, 7))

	totals, err := repo.Totals(context.Background(), "b1", from, to)
	require.NoError(t, err)
	assert.Equal(t, "310.5", totals.Revenue.String())
	assert.Equal(t, 3, totals.Count)
	assert.Equal(t, 7, totals.ItemsSold)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopProducts(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`array_agg\(ti\.product_name ORDER BY t\.created_at DESC\).+ ` +
		`GROUP BY ti\.product_id, CASE WHEN ti\.product_id IS NULL THEN ti\.product_name END`).
		WithArgs("b1", from, to, 5).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "product_name", "quantity", "revenue"}).
			AddRow("p1", "Soap", 6, "120.00").
			AddRow(nil, "Deleted item", 2, "40.00"))

	top, err := repo.TopProducts(context.Background(), "b1", from, to, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Soap", top[0].ProductName)
	assert.Nil(t, top[1].ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeries(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`SELECT date_trunc\(\$4, created_at AT TIME ZONE \$5\) AS bucket`).
		WithArgs("b1", from, to, "day", "Africa/Nairobi").
		WillReturnRows(sqlmock.NewRows([]string{"bucket", "revenue", "cost", "count"}).
			AddRow(from, "100.00", "60.00", 2))

	series, err := repo.Series(context.Background(), "b1", from, to, "day", "Africa/Nairobi")
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 2, series[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
