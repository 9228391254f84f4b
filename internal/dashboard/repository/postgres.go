package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fekuna/stockinator-service/internal/dashboard"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Totals(ctx context.Context, businessID string, from, to time.Time) (*dashboard.Totals, error) {
	var t dashboard.Totals
	err := r.DB.GetContext(ctx, &t, `
        SELECT COALESCE(SUM(total_amount), 0) AS revenue,
               COALESCE(SUM(total_cost), 0) AS cost,
               COUNT(*) AS count,
               COALESCE(SUM(item_count), 0) AS items_sold
        FROM transactions
        WHERE business_id = $1 AND created_at >= $2 AND created_at < $3`, businessID, from, to)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TopProducts groups sales by product so a renamed product stays one entry
// under its latest name. Items of deleted products have no id left and are
// grouped by their snapshot name instead.
func (r *PGRepository) TopProducts(ctx context.Context, businessID string, from, to time.Time, limit int) ([]model.TopProduct, error) {
	top := []model.TopProduct{}
	err := r.DB.SelectContext(ctx, &top, `
        SELECT ti.product_id,
               (array_agg(ti.product_name ORDER BY t.created_at DESC))[1] AS product_name,
               SUM(ti.quantity) AS quantity,
               SUM(ti.subtotal) AS revenue
        FROM transaction_items ti
        JOIN transactions t ON t.id = ti.transaction_id
        WHERE t.business_id = $1 AND t.created_at >= $2 AND t.created_at < $3
        GROUP BY ti.product_id, CASE WHEN ti.product_id IS NULL THEN ti.product_name END
        ORDER BY revenue DESC, quantity DESC, product_name
        LIMIT $4`, businessID, from, to, limit)
	return top, err
}

func (r *PGRepository) Series(ctx context.Context, businessID string, from, to time.Time, bucket, tz string) ([]model.DashboardBucket, error) {
	series := []model.DashboardBucket{}
	err := r.DB.SelectContext(ctx, &series, `
        SELECT date_trunc($4, created_at AT TIME ZONE $5) AS bucket,
               SUM(total_amount) AS revenue,
               SUM(total_cost) AS cost,
               COUNT(*) AS count
        FROM transactions
        WHERE business_id = $1 AND created_at >= $2 AND created_at < $3
        GROUP BY 1
        ORDER BY 1`, businessID, from, to, bucket, tz)
	return series, err
}

func (r *PGRepository) FindBusiness(ctx context.Context, businessID string) (*model.Business, error) {
	var b model.Business
	err := r.DB.GetContext(ctx, &b, `SELECT * FROM businesses WHERE id = $1 LIMIT 1`, businessID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

var _ dashboard.Repository = (*PGRepository)(nil)
