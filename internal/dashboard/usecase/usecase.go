package usecase

import (
	"context"
	"time"

	"github.com/fekuna/stockinator-service/internal/apperror"
	"github.com/fekuna/stockinator-service/internal/auth"
	"github.com/fekuna/stockinator-service/internal/dashboard"
	"github.com/fekuna/stockinator-service/internal/dashboard/dto"
	"github.com/fekuna/stockinator-service/internal/dashboard/report"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/fekuna/stockinator-service/internal/metrics"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const topProductsLimit = 5

var hundred = decimal.NewFromInt(100)

type dashboardUseCase struct {
	repo   dashboard.Repository
	store  *dashboard.Store
	loc    *time.Location
	logger logger.ZapLogger
	now    func() time.Time
}

func NewDashboardUseCase(repo dashboard.Repository, store *dashboard.Store, loc *time.Location, log logger.ZapLogger) dashboard.UseCase {
	if loc == nil {
		loc = time.UTC
	}
	return &dashboardUseCase{
		repo:   repo,
		store:  store,
		loc:    loc,
		logger: log,
		now:    time.Now,
	}
}

func requireOwner(ctx context.Context) (*auth.UserContext, error) {
	user := auth.GetUser(ctx)
	if !user.IsMember() {
		return nil, apperror.ErrNoBusiness
	}
	if !user.IsOwner() {
		return nil, apperror.ErrOwnerOnly
	}
	return user, nil
}

// GetDashboard serves a cached result while it is fresh and recomputes it
// from the transactions otherwise.
func (uc *dashboardUseCase) GetDashboard(ctx context.Context, query *dto.DashboardQuery) (*model.DashboardSummary, error) {
	user, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	w, err := dashboard.ParseRange(query.Range, query.Period, uc.now(), uc.loc)
	if err != nil {
		return nil, err
	}
	key := w.Key(user.BusinessID)

	if uc.store != nil {
		cached, ok, err := uc.store.Get(ctx, key)
		if err != nil {
			uc.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			metrics.RecordDashboardCache(true)
			return cached, nil
		}
		metrics.RecordDashboardCache(false)
	}

	d, err := uc.compute(ctx, user.BusinessID, w)
	if err != nil {
		return nil, err
	}

	if uc.store != nil {
		if err := uc.store.Set(ctx, key, d); err != nil {
			uc.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return d, nil
}

func (uc *dashboardUseCase) compute(ctx context.Context, businessID string, w dashboard.Window) (*model.DashboardSummary, error) {
	totals, err := uc.repo.Totals(ctx, businessID, w.From, w.To)
	if err != nil {
		return nil, err
	}
	top, err := uc.repo.TopProducts(ctx, businessID, w.From, w.To, topProductsLimit)
	if err != nil {
		return nil, err
	}
	rows, err := uc.repo.Series(ctx, businessID, w.From, w.To, w.Bucket, uc.loc.String())
	if err != nil {
		return nil, err
	}

	d := &model.DashboardSummary{
		Range:            w.Range,
		Period:           w.Period,
		From:             w.From,
		To:               w.To,
		Bucket:           w.Bucket,
		Revenue:          totals.Revenue,
		Cost:             totals.Cost,
		Profit:           totals.Revenue.Sub(totals.Cost),
		TransactionCount: totals.Count,
		ItemsSold:        totals.ItemsSold,
		TopProducts:      top,
		Series:           fillSeries(w, rows),
		FetchedAt:        uc.now(),
	}
	d.Margin = margin(d.Profit, d.Revenue)
	if d.TopProducts == nil {
		d.TopProducts = []model.TopProduct{}
	}
	return d, nil
}

// margin is profit as a percentage of revenue, zero without revenue.
func margin(profit, revenue decimal.Decimal) decimal.Decimal {
	if revenue.IsZero() {
		return decimal.Zero
	}
	return profit.Mul(hundred).DivRound(revenue, 2)
}

// fillSeries returns one bucket per step of the window, zero where nothing
// was sold. Rows carry wall-clock bucket starts, so they are matched on
// their formatted fields rather than on instants.
func fillSeries(w dashboard.Window, rows []model.DashboardBucket) []model.DashboardBucket {
	const layout = "2006-01-02T15"
	byStart := make(map[string]model.DashboardBucket, len(rows))
	for _, r := range rows {
		byStart[r.Start.Format(layout)] = r
	}

	starts := w.Starts()
	out := make([]model.DashboardBucket, 0, len(starts))
	for _, start := range starts {
		b := model.DashboardBucket{Start: start, Revenue: decimal.Zero, Cost: decimal.Zero}
		if r, ok := byStart[start.Format(layout)]; ok {
			b.Revenue, b.Cost, b.Count = r.Revenue, r.Cost, r.Count
		}
		out = append(out, b)
	}
	return out
}

func (uc *dashboardUseCase) Report(ctx context.Context, query *dto.DashboardQuery) ([]byte, error) {
	d, err := uc.GetDashboard(ctx, query)
	if err != nil {
		return nil, err
	}
	businessID := auth.GetBusinessID(ctx)
	b, err := uc.repo.FindBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperror.ErrBusinessNotFound
	}
	return report.Render(b, d)
}
