package handler

import (
	"net/http"

	"github.com/fekuna/stockinator-service/internal/httputil"
	"github.com/fekuna/stockinator-service/internal/invite"
	"github.com/fekuna/stockinator-service/internal/invite/dto"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/gin-gonic/gin"
)

type InviteHandler struct {
	uc     invite.UseCase
	logger logger.ZapLogger
}

func NewInviteHandler(uc invite.UseCase, log logger.ZapLogger) *InviteHandler {
	return &InviteHandler{uc: uc, logger: log}
}

func (h *InviteHandler) CreateInvite(c *gin.Context) {
	var input dto.CreateInviteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.BindError(c, err)
		return
	}
	inv, err := h.uc.CreateInvite(c.Request.Context(), &input)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (h *InviteHandler) ListInvites(c *gin.Context) {
	invites, err := h.uc.ListForBusiness(c.Request.Context())
	if err != nil {
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": invites})
}

// ListNotifications returns the invites waiting on the caller.
func (h *InviteHandler) ListNotifications(c *gin.Context) {
	invites, err := h.uc.ListPendingForMe(c.Request.Context())
	if err != nil {
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": invites})
}

func (h *InviteHandler) AcceptInvite(c *gin.Context) {
	inv, err := h.uc.AcceptInvite(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *InviteHandler) DeclineInvite(c *gin.Context) {
	inv, err := h.uc.DeclineInvite(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *InviteHandler) CancelInvite(c *gin.Context) {
	if err := h.uc.CancelInvite(c.Request.Context(), c.Param("id")); err != nil {
		httputil.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
