package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fekuna/stockinator-service/internal/apperror"
	"github.com/fekuna/stockinator-service/internal/auth"
	"github.com/fekuna/stockinator-service/internal/cache"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/fekuna/stockinator-service/internal/metrics"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/fekuna/stockinator-service/internal/realtime"
	"github.com/fekuna/stockinator-service/internal/transaction"
	"github.com/fekuna/stockinator-service/internal/transaction/dto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	idempotencyTTL = 24 * time.Hour
	pendingClaim   = `{"transaction_id":""}`
)

type DashboardInvalidator interface {
	InvalidateBusiness(ctx context.Context, businessID string) error
}

type idempotencyRecord struct {
	TransactionID string `json:"transaction_id"`
}

type transactionUseCase struct {
	repo            transaction.Repository
	store           cache.Store
	dashboard       DashboardInvalidator
	publisher       realtime.Publisher
	logger          logger.ZapLogger
	duplicateWindow time.Duration
}

func NewTransactionUseCase(
	repo transaction.Repository,
	store cache.Store,
	dashboard DashboardInvalidator,
	pub realtime.Publisher,
	duplicateWindow time.Duration,
	log logger.ZapLogger,
) transaction.UseCase {
	return &transactionUseCase{
		repo:            repo,
		store:           store,
		dashboard:       dashboard,
		publisher:       pub,
		logger:          log,
		duplicateWindow: duplicateWindow,
	}
}

// CreateTransaction records a sale. With an idempotency key a replay
// returns the sale created first; without one an identical basket from the
// same user inside the duplicate window is rejected.
func (uc *transactionUseCase) CreateTransaction(ctx context.Context, input *dto.CreateTransactionInput) (*model.Transaction, error) {
	user := auth.GetUser(ctx)
	if !user.IsMember() {
		return nil, apperror.ErrNoBusiness
	}
	items, err := mergeItems(input.Items)
	if err != nil {
		return nil, err
	}

	var claim string
	key := strings.TrimSpace(input.IdempotencyKey)
	if key != "" {
		claim = fmt.Sprintf("sale:idem:%s:%s", user.UserID, key)
		replay, err := uc.replay(ctx, user.BusinessID, claim)
		if err != nil || replay != nil {
			return replay, err
		}
		if !uc.claim(ctx, claim, pendingClaim, idempotencyTTL) {
			metrics.RecordTransaction("duplicate")
			return nil, apperror.ErrDuplicateSubmission
		}
	} else {
		claim = fmt.Sprintf("sale:dup:%s:%s", user.UserID, fingerprint(items))
		if !uc.claim(ctx, claim, "1", uc.duplicateWindow) {
			metrics.RecordTransaction("duplicate")
			return nil, apperror.ErrDuplicateSubmission
		}
	}

	t := &model.Transaction{
		ID:         uuid.New().String(),
		BusinessID: user.BusinessID,
		CreatedBy:  user.UserID,
		CreatedAt:  time.Now(),
	}
	if note := strings.TrimSpace(input.Note); note != "" {
		t.Note = &note
	}
	for _, it := range items {
		productID := it.ProductID
		t.Items = append(t.Items, model.TransactionItem{
			ID:        uuid.New().String(),
			ProductID: &productID,
			Quantity:  it.Quantity,
		})
	}

	updated, err := uc.repo.CreateSale(ctx, t)
	if err != nil {
		uc.release(claim)
		if errors.Is(err, apperror.ErrInsufficientStock) {
			metrics.RecordTransaction("insufficient_stock")
		} else {
			metrics.RecordTransaction("failed")
		}
		return nil, err
	}
	metrics.RecordTransaction("created")

	if key != "" {
		if err := uc.store.SetJSON(ctx, claim, idempotencyRecord{TransactionID: t.ID}, idempotencyTTL); err != nil {
			uc.logger.Warn("failed to record idempotency key", zap.Error(err))
		}
	}

	uc.logger.Info("transaction created",
		zap.String("transaction_id", t.ID),
		zap.String("business_id", t.BusinessID),
		zap.String("total", t.TotalAmount.String()))
	uc.afterWrite(ctx, realtime.EventInsert, t, nil, updated)
	return t, nil
}

// replay returns the stored sale for an idempotency key, or nil when the
// key is unused.
func (uc *transactionUseCase) replay(ctx context.Context, businessID, claim string) (*model.Transaction, error) {
	var rec idempotencyRecord
	err := uc.store.GetJSON(ctx, claim, &rec)
	if errors.Is(err, cache.ErrMiss) {
		return nil, nil
	}
	if err != nil {
		uc.logger.Warn("idempotency lookup failed", zap.Error(err))
		return nil, nil
	}
	if rec.TransactionID == "" {
		// Another request with the same key is still in flight.
		return nil, apperror.ErrDuplicateSubmission
	}

	t, err := uc.repo.FindByID(ctx, businessID, rec.TransactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperror.ErrDuplicateSubmission
	}
	metrics.RecordTransaction("replayed")
	return t, nil
}

// claim fails open: when the cache is unreachable the sale goes through
// unprotected rather than being refused.
func (uc *transactionUseCase) claim(ctx context.Context, key, value string, ttl time.Duration) bool {
	ok, err := uc.store.SetNX(ctx, key, value, ttl)
	if err != nil {
		uc.logger.Warn("duplicate guard unavailable", zap.Error(err))
		return true
	}
	return ok
}

func (uc *transactionUseCase) release(key string) {
	if err := uc.store.Delete(context.Background(), key); err != nil {
		uc.logger.Warn("failed to release sale claim", zap.Error(err))
	}
}

func (uc *transactionUseCase) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	user := auth.GetUser(ctx)
	if !user.IsMember() {
		return nil, apperror.ErrNoBusiness
	}
	t, err := uc.repo.FindByID(ctx, user.BusinessID, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperror.ErrTransactionNotFound
	}
	return t, nil
}

func (uc *transactionUseCase) ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.Transaction, int, error) {
	user := auth.GetUser(ctx)
	if !user.IsMember() {
		return nil, 0, apperror.ErrNoBusiness
	}
	filters.BusinessID = user.BusinessID
	if filters.From != nil && filters.To != nil && filters.To.Before(*filters.From) {
		return nil, 0, apperror.ErrInvalidRange
	}
	return uc.repo.FindAll(ctx, filters)
}

func (uc *transactionUseCase) DeleteTransaction(ctx context.Context, id string) error {
	user := auth.GetUser(ctx)
	if !user.IsMember() {
		return apperror.ErrNoBusiness
	}
	if !user.IsOwner() {
		return apperror.ErrOwnerOnly
	}

	deleted, restocked, err := uc.repo.DeleteWithRestock(ctx, user.BusinessID, id)
	if err != nil {
		return err
	}
	if deleted == nil {
		return apperror.ErrTransactionNotFound
	}

	uc.logger.Info("transaction deleted",
		zap.String("transaction_id", id),
		zap.Int("restocked_products", len(restocked)))
	uc.afterWrite(ctx, realtime.EventDelete, nil, deleted, restocked)
	return nil
}

func (uc *transactionUseCase) afterWrite(ctx context.Context, typ realtime.EventType, record, old *model.Transaction, products []model.Product) {
	businessID := ""
	if record != nil {
		businessID = record.BusinessID
	} else if old != nil {
		businessID = old.BusinessID
	}

	if uc.dashboard != nil {
		if err := uc.dashboard.InvalidateBusiness(ctx, businessID); err != nil {
			uc.logger.Warn("failed to invalidate dashboard cache", zap.String("business_id", businessID), zap.Error(err))
		}
	}

	var rec, prev interface{}
	if record != nil {
		rec = record
	}
	if old != nil {
		prev = old
	}
	realtime.PublishChange(ctx, uc.publisher, uc.logger, typ, realtime.TableTransactions, businessID, rec, prev)
	for i := range products {
		realtime.PublishChange(ctx, uc.publisher, uc.logger, realtime.EventUpdate, realtime.TableProducts, businessID, &products[i], nil)
	}
}

// mergeItems folds repeated products into one line, keeping first-seen
// order.
func mergeItems(in []dto.ItemInput) ([]dto.ItemInput, error) {
	if len(in) == 0 {
		return nil, apperror.ErrEmptyTransaction
	}
	index := make(map[string]int, len(in))
	out := make([]dto.ItemInput, 0, len(in))
	for _, it := range in {
		if it.ProductID == "" || it.Quantity < 1 {
			return nil, apperror.ErrInvalidInput
		}
		if i, ok := index[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out, nil
}

func fingerprint(items []dto.ItemInput) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s:%d", it.ProductID, it.Quantity))
	}
	sort.Strings(parts)
	sum := sha256.Sum256([]byte(strings.Join(parts, ",")))
	return hex.EncodeToString(sum[:])
}
