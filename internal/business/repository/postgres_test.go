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

func newMock(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "postgres")), mock
}

func newBusiness() *model.Business {
	now := time.Now()
	return &model.Business{
		BaseModel: model.BaseModel{ID: "b1", CreatedAt: now, UpdatedAt: now},
		Name:      "Duka",
		OwnerID:   "u1",
		Currency:  "KES",
	}
}

func TestCreateWithOwner(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO businesses`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE profiles SET role = 'owner'`).
		WithArgs("b1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateWithOwner(context.Background(), newBusiness()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithOwner_AlreadyAssigned(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO businesses`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE profiles SET role = 'owner'`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.CreateWithOwner(context.Background(), newBusiness())
	assert.ErrorIs(t, err, apperror.ErrAlreadyInBusiness)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCascade(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT image_path FROM products`).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"image_path"}).AddRow("b1/a.png").AddRow("b1/b.jpg"))
	mock.ExpectExec(`DELETE FROM transaction_items`).WithArgs("b1").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`DELETE FROM transactions`).WithArgs("b1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM invites`).WithArgs("b1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM products`).WithArgs("b1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE profiles SET role = 'unassigned'`).WithArgs("b1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM businesses`).WithArgs("b1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	paths, err := repo.DeleteCascade(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1/a.png", "b1/b.jpg"}, paths)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCascade_RollsBackOnFailure(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT image_path FROM products`).WillReturnRows(sqlmock.NewRows([]string{"image_path"}))
	mock.ExpectExec(`DELETE FROM transaction_items`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.DeleteCascade(context.Background(), "b1")
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveVendor_NoMatch(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(`UPDATE profiles SET role = 'unassigned'`).
		WithArgs("u9", "b1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	p, err := repo.RemoveVendor(context.Background(), "b1", "u9")
	require.NoError(t, err)
	assert.Nil(t, p)
}
