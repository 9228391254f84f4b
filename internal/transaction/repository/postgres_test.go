package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/stockinator-service/internal/apperror"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productColumns = []string{
	"id", "business_id", "name", "description", "price", "cost_price", "quantity",
	"low_stock_threshold", "image_url", "image_path", "created_by", "created_at", "updated_at",
}

var itemColumns = []string{
	"id", "transaction_id", "product_id", "product_name", "quantity", "unit_price", "unit_cost", "subtotal",
}

var transactionColumns = []string{
	"id", "business_id", "created_by", "total_amount", "total_cost", "item_count", "note", "created_at",
}

func newMock(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "postgres")), mock
}

func strPtr(s string) *string { return &s }

func sale() *model.Transaction {
	return &model.Transaction{
		ID:         "t1",
		BusinessID: "b1",
		CreatedBy:  "u1",
		CreatedAt:  time.Now(),
		Items: []model.TransactionItem{
			{ID: "i1", ProductID: strPtr("p1"), Quantity: 2},
			{ID: "i2", ProductID: strPtr("p2"), Quantity: 1},
		},
	}
}

func TestCreateSale(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM products WHERE business_id = \$1 AND id = ANY\(\$2\) ORDER BY id FOR UPDATE`).
		WithArgs("b1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow("p1", "b1", "Soap", nil, "12.50", "8.00", 10, 5, nil, nil, nil, now, now).
			AddRow("p2", "b1", "Rice", nil, "100.00", "70.00", 1, 5, nil, nil, nil, now, now))
	mock.ExpectQuery(`UPDATE products SET quantity = quantity - \$1`).
		WithArgs(2, "p1").
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow("p1", "b1", "Soap", nil, "12.50", "8.00", 8, 5, nil, nil, nil, now, now))
	mock.ExpectQuery(`UPDATE products SET quantity = quantity - \$1`).
		WithArgs(1, "p2").
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow("p2", "b1", "Rice", nil, "100.00", "70.00", 0, 5, nil, nil, nil, now, now))
	mock.ExpectExec(`INSERT INTO transactions`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO transaction_items`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO transaction_items`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx := sale()
	updated, err := repo.CreateSale(context.Background(), tx)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "125", tx.TotalAmount.String())
	assert.Equal(t, "86", tx.TotalCost.String())
	assert.Equal(t, 3, tx.ItemCount)
	assert.Equal(t, "Soap", tx.Items[0].ProductName)
	assert.Equal(t, "25", tx.Items[0].Subtotal.String())
	assert.Equal(t, "t1", tx.Items[1].TransactionID)
	require.Len(t, updated, 2)
	assert.Equal(t, 8, updated[0].Quantity)
	assert.Equal(t, 0, updated[1].Quantity)
}

func TestCreateSale_InsufficientStockAbortsEverything(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow("p1", "b1", "Soap", nil, "12.50", "8.00", 10, 5, nil, nil, nil, now, now).
			AddRow("p2", "b1", "Rice", nil, "100.00", "70.00", 0, 5, nil, nil, nil, now, now))
	mock.ExpectQuery(`UPDATE products SET quantity = quantity - \$1`).
		WithArgs(2, "p1").
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow("p1", "b1", "Soap", nil, "12.50", "8.00", 8, 5, nil, nil, nil, now, now))
	mock.ExpectRollback()

	_, err := repo.CreateSale(context.Background(), sale())
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSale_GuardedDecrementLosesRace(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	tx := sale()
	tx.Items = tx.Items[:1]

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow("p1", "b1", "Soap", nil, "12.50", "8.00", 10, 5, nil, nil, nil, now, now))
	mock.ExpectQuery(`UPDATE products SET quantity = quantity - \$1`).
		WillReturnRows(sqlmock.NewRows(productColumns))
	mock.ExpectRollback()

	_, err := repo.CreateSale(context.Background(), tx)
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSale_UnknownProduct(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows(productColumns))
	mock.ExpectRollback()

	_, err := repo.CreateSale(context.Background(), sale())
	assert.ErrorIs(t, err, apperror.ErrProductNotFound)
}

func TestDeleteWithRestock(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM transactions WHERE id = \$1 AND business_id = \$2 FOR UPDATE`).
		WithArgs("t1", "b1").
		WillReturnRows(sqlmock.NewRows(transactionColumns).
			AddRow("t1", "b1", "u1", "125.00", "86.00", 3, nil, now))
	mock.ExpectQuery(`SELECT \* FROM transaction_items`).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(itemColumns).
			AddRow("i2", "t1", "p2", "Rice", 1, "100.00", "70.00", "100.00").
			AddRow("i3", "t1", nil, "Deleted thing", 4, "1.00", "0.50", "4.00").
			AddRow("i1", "t1", "p1", "Soap", 2, "12.50", "8.00", "25.00"))
	mock.ExpectQuery(`UPDATE products SET quantity = quantity \+ \$1`).
		WithArgs(2, "p1", "b1").
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow("p1", "b1", "Soap", nil, "12.50", "8.00", 10, 5, nil, nil, nil, now, now))
	mock.ExpectQuery(`UPDATE products SET quantity = quantity \+ \$1`).
		WithArgs(1, "p2", "b1").
		WillReturnRows(sqlmock.NewRows(productColumns))
	mock.ExpectExec(`DELETE FROM transactions WHERE id = \$1`).
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, restocked, err := repo.DeleteWithRestock(context.Background(), "b1", "t1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	require.NotNil(t, deleted)
	assert.Len(t, deleted.Items, 3)
	require.Len(t, restocked, 1)
	assert.Equal(t, 10, restocked[0].Quantity)
}

func TestDeleteWithRestock_NotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows(transactionColumns))
	mock.ExpectCommit()

	deleted, _, err := repo.DeleteWithRestock(context.Background(), "b1", "nope")
	require.NoError(t, err)
	assert.Nil(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
