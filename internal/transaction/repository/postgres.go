package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fekuna/stockinator-service/internal/apperror"
	"github.com/fekuna/stockinator-service/internal/database/postgres"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/fekuna/stockinator-service/internal/transaction/dto"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateSale(ctx context.Context, t *model.Transaction) ([]model.Product, error) {
	var updated []model.Product
	err := postgres.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		ids := make([]string, 0, len(t.Items))
		for _, it := range t.Items {
			ids = append(ids, *it.ProductID)
		}

		// Rows are locked in id order so concurrent sales cannot deadlock.
		var locked []model.Product
		lockQuery := `SELECT * FROM products WHERE business_id = $1 AND id = ANY($2) ORDER BY id FOR UPDATE`
		if err := tx.SelectContext(ctx, &locked, lockQuery, t.BusinessID, pq.Array(ids)); err != nil {
			return fmt.Errorf("lock products: %w", err)
		}
		byID := make(map[string]model.Product, len(locked))
		for _, p := range locked {
			byID[p.ID] = p
		}

		total, cost := decimal.Zero, decimal.Zero
		count := 0
		for i := range t.Items {
			it := &t.Items[i]
			p, ok := byID[*it.ProductID]
			if !ok {
				return apperror.ErrProductNotFound
			}
			if p.Quantity < it.Quantity {
				return insufficient(p, it.Quantity)
			}

			var after model.Product
			err := tx.GetContext(ctx, &after, `
                UPDATE products SET quantity = quantity - $1, updated_at = NOW()
                WHERE id = $2 AND quantity >= $1
                RETURNING *`, it.Quantity, p.ID)
			if errors.Is(err, sql.ErrNoRows) {
				return insufficient(p, it.Quantity)
			}
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			updated = append(updated, after)

			qty := decimal.NewFromInt(int64(it.Quantity))
			it.TransactionID = t.ID
			it.ProductName = p.Name
			it.UnitPrice = p.Price
			it.UnitCost = p.CostPrice
			it.Subtotal = p.Price.Mul(qty)

			total = total.Add(it.Subtotal)
			cost = cost.Add(p.CostPrice.Mul(qty))
			count += it.Quantity
		}
		t.TotalAmount, t.TotalCost, t.ItemCount = total, cost, count

		if _, err := tx.NamedExecContext(ctx, `
            INSERT INTO transactions (id, business_id, created_by, total_amount, total_cost, item_count, note, created_at)
            VALUES (:id, :business_id, :created_by, :total_amount, :total_cost, :item_count, :note, :created_at)
        `, t); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		for _, it := range t.Items {
			if _, err := tx.NamedExecContext(ctx, `
                INSERT INTO transaction_items (id, transaction_id, product_id, product_name, quantity, unit_price, unit_cost, subtotal)
                VALUES (:id, :transaction_id, :product_id, :product_name, :quantity, :unit_price, :unit_cost, :subtotal)
            `, it); err != nil {
				return fmt.Errorf("insert transaction item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func insufficient(p model.Product, requested int) error {
	return apperror.ErrInsufficientStock.WithData(map[string]interface{}{
		"Product":   p.Name,
		"Available": p.Quantity,
		"Requested": requested,
	})
}

func (r *PGRepository) FindByID(ctx context.Context, businessID, id string) (*model.Transaction, error) {
	var t model.Transaction
	err := r.DB.GetContext(ctx, &t, `SELECT * FROM transactions WHERE id = $1 AND business_id = $2 LIMIT 1`, id, businessID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	t.Items = []model.TransactionItem{}
	query := `SELECT * FROM transaction_items WHERE transaction_id = $1 ORDER BY product_name`
	if err := r.DB.SelectContext(ctx, &t.Items, query, t.ID); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.TransactionFilters) ([]model.Transaction, int, error) {
	transactions := []model.Transaction{}
	var count int

	conditions := []string{"business_id = :business_id"}
	args := map[string]interface{}{"business_id": f.BusinessID}

	if f.From != nil {
		conditions = append(conditions, "created_at >= :from")
		args["from"] = *f.From
	}
	if f.To != nil {
		// to is inclusive of the whole day
		conditions = append(conditions, "created_at < :to")
		args["to"] = f.To.AddDate(0, 0, 1)
	}
	if f.CreatedBy != "" {
		conditions = append(conditions, "created_by = :created_by")
		args["created_by"] = f.CreatedBy
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	rows, err := r.DB.NamedQueryContext(ctx, "SELECT count(*) FROM transactions"+whereClause, args)
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

	query := fmt.Sprintf("SELECT * FROM transactions%s ORDER BY created_at DESC, id", whereClause)
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

	if err := nstmt.SelectContext(ctx, &transactions, args); err != nil {
		return nil, 0, err
	}
	return transactions, count, nil
}

func (r *PGRepository) DeleteWithRestock(ctx context.Context, businessID, id string) (*model.Transaction, []model.Product, error) {
	var (
		deleted   *model.Transaction
		restocked []model.Product
	)
	err := postgres.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		var t model.Transaction
		err := tx.GetContext(ctx, &t,
			`SELECT * FROM transactions WHERE id = $1 AND business_id = $2 FOR UPDATE`, id, businessID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := tx.SelectContext(ctx, &t.Items,
			`SELECT * FROM transaction_items WHERE transaction_id = $1`, t.ID); err != nil {
			return err
		}
		items := make([]model.TransactionItem, 0, len(t.Items))
		for _, it := range t.Items {
			if it.ProductID != nil {
				items = append(items, it)
			}
		}
		sort.Slice(items, func(i, j int) bool { return *items[i].ProductID < *items[j].ProductID })

		for _, it := range items {
			var p model.Product
			err := tx.GetContext(ctx, &p, `
                UPDATE products SET quantity = quantity + $1, updated_at = NOW()
                WHERE id = $2 AND business_id = $3
                RETURNING *`, it.Quantity, *it.ProductID, businessID)
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				return fmt.Errorf("restock product: %w", err)
			}
			restocked = append(restocked, p)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, t.ID); err != nil {
			return err
		}
		deleted = &t
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return deleted, restocked, nil
}
