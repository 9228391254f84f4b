package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/stockinator-service/internal/cache"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/fekuna/stockinator-service/internal/realtime"
)

// Store caches computed dashboards per business and window. Entries expire
// after the TTL and are dropped early whenever the business's sales
// change.
type Store struct {
	cache cache.Store
	ttl   time.Duration
}

func NewStore(c cache.Store, ttl time.Duration) *Store {
	return &Store{cache: c, ttl: ttl}
}

// Get reports a miss as ok=false.
func (s *Store) Get(ctx context.Context, key string) (*model.DashboardSummary, bool, error) {
	var d model.DashboardSummary
	err := s.cache.GetJSON(ctx, key, &d)
	if errors.Is(err, cache.ErrMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &d, true, nil
}

func (s *Store) Set(ctx context.Context, key string, d *model.DashboardSummary) error {
	return s.cache.SetJSON(ctx, key, d, s.ttl)
}

func (s *Store) InvalidateBusiness(ctx context.Context, businessID string) error {
	_, err := s.cache.DeleteByPrefix(ctx, KeyPrefix(businessID))
	return err
}

// HandleEvent drops a business's dashboards when its sales change or the
// business goes away.
func (s *Store) HandleEvent(ctx context.Context, ev realtime.Event) error {
	switch {
	case ev.Table == realtime.TableTransactions:
		return s.InvalidateBusiness(ctx, ev.BusinessID)
	case ev.Table == realtime.TableBusinesses && ev.Type == realtime.EventDelete:
		return s.InvalidateBusiness(ctx, ev.BusinessID)
	}
	return nil
}
