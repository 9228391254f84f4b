package transaction

import (
	"context"

	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/fekuna/stockinator-service/internal/transaction/dto"
)

type Repository interface {
	// CreateSale locks the sold products, decrements their stock and
	// inserts the transaction with its items in one database transaction.
	// Items arrive with ProductID and Quantity set; names, prices, costs
	// and totals are snapshotted from the locked rows. It returns the
	// products as they are after the sale.
	CreateSale(ctx context.Context, tx *model.Transaction) ([]model.Product, error)
	FindByID(ctx context.Context, businessID, id string) (*model.Transaction, error)
	FindAll(ctx context.Context, filters *dto.TransactionFilters) ([]model.Transaction, int, error)
	// DeleteWithRestock removes the transaction and puts the sold quantity
	// back on products that still exist. A nil transaction means not found.
	DeleteWithRestock(ctx context.Context, businessID, id string) (*model.Transaction, []model.Product, error)
}
