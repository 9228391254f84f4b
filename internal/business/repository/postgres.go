package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/stockinator-service/internal/apperror"
	"github.com/fekuna/stockinator-service/internal/database/postgres"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateWithOwner(ctx context.Context, b *model.Business) error {
	return postgres.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO businesses (id, name, owner_id, address, phone, currency, created_at, updated_at)
            VALUES (:id, :name, :owner_id, :address, :phone, :currency, :created_at, :updated_at)
        `
		if _, err := tx.NamedExecContext(ctx, query, b); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
            UPDATE profiles SET role = 'owner', business_id = $1, updated_at = NOW()
            WHERE id = $2 AND business_id IS NULL`, b.ID, b.OwnerID)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperror.ErrAlreadyInBusiness
		}
		return nil
	})
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Business, error) {
	var b model.Business
	err := r.DB.GetContext(ctx, &b, `SELECT * FROM businesses WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGRepository) Update(ctx context.Context, b *model.Business) error {
	query := `
        UPDATE businesses
        SET name = :name,
            address = :address,
            phone = :phone,
            currency = :currency,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, b)
	return err
}

func (r *PGRepository) DeleteCascade(ctx context.Context, id string) ([]string, error) {
	var paths []string
	err := postgres.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		if err := tx.SelectContext(ctx, &paths,
			`SELECT image_path FROM products WHERE business_id = $1 AND image_path IS NOT NULL`, id); err != nil {
			return err
		}

		statements := []string{
			`DELETE FROM transaction_items WHERE transaction_id IN (SELECT id FROM transactions WHERE business_id = $1)`,
			`DELETE FROM transactions WHERE business_id = $1`,
			`DELETE FROM invites WHERE business_id = $1`,
			`DELETE FROM products WHERE business_id = $1`,
			`UPDATE profiles SET role = 'unassigned', business_id = NULL, updated_at = NOW() WHERE business_id = $1`,
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM businesses WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperror.ErrBusinessNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (r *PGRepository) ListMembers(ctx context.Context, businessID string) ([]model.Profile, error) {
	var members []model.Profile
	query := `
        SELECT * FROM profiles
        WHERE business_id = $1 AND role IN ('owner', 'vendor')
        ORDER BY CASE role WHEN 'owner' THEN 0 ELSE 1 END, created_at
    `
	if err := r.DB.SelectContext(ctx, &members, query, businessID); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PGRepository) RemoveVendor(ctx context.Context, businessID, vendorID string) (*model.Profile, error) {
	var p model.Profile
	query := `
        UPDATE profiles SET role = 'unassigned', business_id = NULL, updated_at = NOW()
        WHERE id = $1 AND business_id = $2 AND role = 'vendor'
        RETURNING *
    `
	err := r.DB.GetContext(ctx, &p, query, vendorID, businessID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
