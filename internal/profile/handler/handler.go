package handler

import (
	"net/http"

	"github.com/fekuna/stockinator-service/internal/httputil"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/fekuna/stockinator-service/internal/profile"
	"github.com/fekuna/stockinator-service/internal/profile/dto"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	uc     profile.UseCase
	logger logger.ZapLogger
}

func NewProfileHandler(uc profile.UseCase, log logger.ZapLogger) *ProfileHandler {
	return &ProfileHandler{uc: uc, logger: log}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	p, err := h.uc.GetProfile(c.Request.Context())
	if err != nil {
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var input dto.UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.BindError(c, err)
		return
	}
	p, err := h.uc.UpdateProfile(c.Request.Context(), &input)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
