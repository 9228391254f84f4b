package transaction

import (
	"context"

	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/fekuna/stockinator-service/internal/transaction/dto"
)

type UseCase interface {
	CreateTransaction(ctx context.Context, input *dto.CreateTransactionInput) (*model.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.Transaction, int, error)
	DeleteTransaction(ctx context.Context, id string) error
}
