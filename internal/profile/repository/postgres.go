package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Insert(ctx context.Context, p *model.Profile) error {
	query := `
        INSERT INTO profiles (id, email, full_name, role, business_id, created_at, updated_at)
        VALUES (:id, :email, :full_name, :role, :business_id, :created_at, :updated_at)
        ON CONFLICT (id) DO NOTHING
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	err := r.DB.GetContext(ctx, &p, `SELECT * FROM profiles WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) UpdateFullName(ctx context.Context, id, fullName string) (*model.Profile, error) {
	var p model.Profile
	query := `UPDATE profiles SET full_name = $1, updated_at = NOW() WHERE id = $2 RETURNING *`
	err := r.DB.GetContext(ctx, &p, query, fullName, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
