package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fekuna/stockinator-service/internal/dashboard"
	"github.com/fekuna/stockinator-service/internal/dashboard/dto"
	"github.com/fekuna/stockinator-service/internal/httputil"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	uc     dashboard.UseCase
	logger logger.ZapLogger
}

func NewDashboardHandler(uc dashboard.UseCase, log logger.ZapLogger) *DashboardHandler {
	return &DashboardHandler{uc: uc, logger: log}
}

func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	var query dto.DashboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httputil.BindError(c, err)
		return
	}
	d, err := h.uc.GetDashboard(c.Request.Context(), &query)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DashboardHandler) Report(c *gin.Context) {
	var query dto.DashboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httputil.BindError(c, err)
		return
	}
	pdf, err := h.uc.Report(c.Request.Context(), &query)
	if err != nil {
		h.logger.Debug("dashboard report failed", zap.Error(err))
		httputil.Error(c, err)
		return
	}
	name := fmt.Sprintf("dashboard-%s.pdf", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
