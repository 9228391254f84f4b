package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fekuna/stockinator-service/internal/apperror"
	"github.com/fekuna/stockinator-service/internal/dashboard/dto"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUseCase struct {
	query *dto.DashboardQuery
}

func (f *fakeUseCase) GetDashboard(_ context.Context, q *dto.DashboardQuery) (*model.DashboardSummary, error) {
	f.query = q
	if q.Range == "bogus" {
		return nil, apperror.ErrInvalidRange
	}
	return &model.DashboardSummary{Range: q.Range, Period: q.Period}, nil
}

func (f *fakeUseCase) Report(context.Context, *dto.DashboardQuery) ([]byte, error) {
	return []byte("%PDF-1.3 fake"), nil
}

func newRouter(uc *fakeUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewDashboardHandler(uc, logger.NewNop())
	r := gin.New()
	r.GET("/api/dashboard", h.GetDashboard)
	r.GET("/api/dashboard/report", h.Report)
	return r
}

func TestGetDashboard(t *testing.T) {
	uc := &fakeUseCase{}
	r := newRouter(uc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard?range=custom&period=2026-03-01..2026-03-03", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "custom", uc.query.Range)
	assert.Equal(t, "2026-03-01..2026-03-03", uc.query.Period)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard?range=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReport(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(&fakeUseCase{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard/report?range=week", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=")
}
