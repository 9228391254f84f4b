package handler

import (
	"net/http"

	"github.com/fekuna/stockinator-service/internal/business"
	"github.com/fekuna/stockinator-service/internal/business/dto"
	"github.com/fekuna/stockinator-service/internal/httputil"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/gin-gonic/gin"
)

type BusinessHandler struct {
	uc     business.UseCase
	logger logger.ZapLogger
}

func NewBusinessHandler(uc business.UseCase, log logger.ZapLogger) *BusinessHandler {
	return &BusinessHandler{uc: uc, logger: log}
}

func (h *BusinessHandler) CreateBusiness(c *gin.Context) {
	var input dto.CreateBusinessInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.BindError(c, err)
		return
	}
	b, err := h.uc.CreateBusiness(c.Request.Context(), &input)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BusinessHandler) GetBusiness(c *gin.Context) {
	b, err := h.uc.GetBusiness(c.Request.Context())
	if err != nil {
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BusinessHandler) UpdateBusiness(c *gin.Context) {
	var input dto.UpdateBusinessInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.BindError(c, err)
		return
	}
	b, err := h.uc.UpdateBusiness(c.Request.Context(), &input)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BusinessHandler) DeleteBusiness(c *gin.Context) {
	if err := h.uc.DeleteBusiness(c.Request.Context()); err != nil {
		httputil.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BusinessHandler) ListMembers(c *gin.Context) {
	members, err := h.uc.ListMembers(c.Request.Context())
	if err != nil {
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": members})
}

func (h *BusinessHandler) RemoveVendor(c *gin.Context) {
	if err := h.uc.RemoveVendor(c.Request.Context(), c.Param("id")); err != nil {
		httputil.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
