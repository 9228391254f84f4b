package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/fekuna/stockinator-service/internal/product/dto"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, business_id, name, description, price, cost_price, quantity,
            low_stock_threshold, image_url, image_path, created_by, created_at, updated_at
        )
        VALUES (
            :id, :business_id, :name, :description, :price, :cost_price, :quantity,
            :low_stock_threshold, :image_url, :image_path, :created_by, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, businessID, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE id = $1 AND business_id = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &product, query, id, businessID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	products := []model.Product{}
	var count int

	conditions := []string{"business_id = :business_id"}
	args := map[string]interface{}{"business_id": f.BusinessID}

	if f.SearchQuery != "" {
		conditions = append(conditions, "(name ILIKE :search OR description ILIKE :search)")
		args["search"] = "%" + escapeLike(f.SearchQuery) + "%"
	}
	if f.LowStock {
		conditions = append(conditions, "quantity <= low_stock_threshold")
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery := "SELECT count(*) FROM products" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			rows.Close()
			return nil, 0, err
		}
	}
	rows.Close()

	query := fmt.Sprintf("SELECT * FROM products%s ORDER BY %s", whereClause, orderBy(f))
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &products, args); err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

// orderBy whitelists sortable columns.
func orderBy(f *dto.ProductFilters) string {
	column := "created_at"
	switch f.SortBy {
	case "name":
		column = "name"
	case "price":
		column = "price"
	case "quantity":
		column = "quantity"
	}
	if strings.ToLower(f.SortOrder) == "asc" {
		return column + " ASC, id"
	}
	return column + " DESC, id"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *PGRepository) FindByIDs(ctx context.Context, businessID string, ids []string) ([]model.Product, error) {
	products := []model.Product{}
	if len(ids) == 0 {
		return products, nil
	}
	query := `SELECT * FROM products WHERE business_id = $1 AND id = ANY($2)`
	if err := r.DB.SelectContext(ctx, &products, query, businessID, pq.Array(ids)); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *PGRepository) FindLowStock(ctx context.Context, businessID string) ([]model.Product, error) {
	products := []model.Product{}
	query := `
        SELECT * FROM products
        WHERE business_id = $1 AND quantity <= low_stock_threshold
        ORDER BY quantity ASC, name
    `
	if err := r.DB.SelectContext(ctx, &products, query, businessID); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET name = :name,
            description = :description,
            price = :price,
            cost_price = :cost_price,
            quantity = :quantity,
            low_stock_threshold = :low_stock_threshold,
            image_url = :image_url,
            image_path = :image_path,
            updated_at = :updated_at
        WHERE id = :id AND business_id = :business_id
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, businessID, id string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id = $1 AND business_id = $2", id, businessID)
	return err
}
