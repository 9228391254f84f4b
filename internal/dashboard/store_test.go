package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/stockinator-service/internal/cache"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/fekuna/stockinator-service/internal/realtime"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s := NewStore(cache.NewMemory(), time.Minute)

	_, ok, err := s.Get(ctx, "dashboard:b1:today")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "dashboard:b1:today", &model.DashboardSummary{Range: "today", Revenue: decimal.RequireFromString("125.50")}))

	d, ok, err := s.Get(ctx, "dashboard:b1:today")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "125.5", d.Revenue.String())
}

func TestStore_InvalidatesOnlyThatBusiness(t *testing.T) {
	ctx := context.Background()
	s := NewStore(cache.NewMemory(), time.Minute)
	for _, key := range []string{"dashboard:b1:today", "dashboard:b1:custom:2026-03-01..2026-03-03", "dashboard:b10:today"} {
		require.NoError(t, s.Set(ctx, key, &model.DashboardSummary{}))
	}

	require.NoError(t, s.HandleEvent(ctx, realtime.Event{Type: realtime.EventInsert, Table: realtime.TableTransactions, BusinessID: "b1"}))

	_, ok, _ := s.Get(ctx, "dashboard:b1:today")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "dashboard:b1:custom:2026-03-01..2026-03-03")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "dashboard:b10:today")
	assert.True(t, ok)
}

func TestStore_IgnoresProductEvents(t *testing.T) {
	ctx := context.Background()
	s := NewStore(cache.NewMemory(), time.Minute)
	require.NoError(t, s.Set(ctx, "dashboard:b1:today", &model.DashboardSummary{}))

	require.NoError(t, s.HandleEvent(ctx, realtime.Event{Type: realtime.EventUpdate, Table: realtime.TableProducts, BusinessID: "b1"}))
	_, ok, _ := s.Get(ctx, "dashboard:b1:today")
	assert.True(t, ok)

	require.NoError(t, s.HandleEvent(ctx, realtime.Event{Type: realtime.EventDelete, Table: realtime.TableBusinesses, BusinessID: "b1"}))
	_, ok, _ = s.Get(ctx, "dashboard:b1:today")
	assert.False(t, ok)
}
