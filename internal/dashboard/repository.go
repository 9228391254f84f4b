package dashboard

import (
	"context"
	"time"

	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/shopspring/decimal"
)

// Totals aggregates the transactions of a window.
type Totals struct {
	Revenue   decimal.Decimal `db:"revenue"`
	Cost      decimal.Decimal `db:"cost"`
	Count     int             `db:"count"`
	ItemsSold int             `db:"items_sold"`
}

type Repository interface {
	Totals(ctx context.Context, businessID string, from, to time.Time) (*Totals, error)
	TopProducts(ctx context.Context, businessID string, from, to time.Time, limit int) ([]model.TopProduct, error)
	// Series groups the window's transactions into buckets truncated in
	// timezone tz. Bucket starts come back as wall-clock times.
	Series(ctx context.Context, businessID string, from, to time.Time, bucket, tz string) ([]model.DashboardBucket, error)
	FindBusiness(ctx context.Context, businessID string) (*model.Business, error)
}
