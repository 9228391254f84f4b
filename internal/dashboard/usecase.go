package dashboard

import (
	"context"

	"github.com/fekuna/stockinator-service/internal/dashboard/dto"
	"github.com/fekuna/stockinator-service/internal/model"
)

type UseCase interface {
	GetDashboard(ctx context.Context, query *dto.DashboardQuery) (*model.DashboardSummary, error)
	// Report renders the dashboard of query as a PDF.
	Report(ctx context.Context, query *dto.DashboardQuery) ([]byte, error)
}
