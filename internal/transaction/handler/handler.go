package handler

import (
	"net/http"

	"github.com/fekuna/stockinator-service/internal/httputil"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/fekuna/stockinator-service/internal/transaction"
	"github.com/fekuna/stockinator-service/internal/transaction/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyHeader lets clients retry a sale safely.
const IdempotencyHeader = "Idempotency-Key"

type TransactionHandler struct {
	uc     transaction.UseCase
	logger logger.ZapLogger
}

func NewTransactionHandler(uc transaction.UseCase, log logger.ZapLogger) *TransactionHandler {
	return &TransactionHandler{uc: uc, logger: log}
}

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var input dto.CreateTransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.BindError(c, err)
		return
	}
	input.IdempotencyKey = c.GetHeader(IdempotencyHeader)

	t, err := h.uc.CreateTransaction(c.Request.Context(), &input)
	if err != nil {
		h.logger.Debug("create transaction failed", zap.Error(err))
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	t, err := h.uc.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	var filters dto.TransactionFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.BindError(c, err)
		return
	}
	filters.Page, filters.PageSize = httputil.Pagination(c)

	items, total, err := h.uc.ListTransactions(c.Request.Context(), &filters)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.Page{
		Items:    items,
		Total:    total,
		Page:     filters.Page,
		PageSize: filters.PageSize,
	})
}

func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	if err := h.uc.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
		httputil.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
