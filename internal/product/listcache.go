package product

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/stockinator-service/internal/cache"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/fekuna/stockinator-service/internal/realtime"
	json "github.com/goccy/go-json"
)

const listCacheTTL = 10 * time.Minute

func ListCacheKey(businessID string) string {
	return "products:list:" + businessID
}

// ListCache keeps the unfiltered product list of each business, newest
// first. Product change events patch it in place instead of evicting it.
type ListCache struct {
	store cache.Store
}

func NewListCache(store cache.Store) *ListCache {
	return &ListCache{store: store}
}

// Get reports a miss as ok=false.
func (c *ListCache) Get(ctx context.Context, businessID string) ([]model.Product, bool, error) {
	var products []model.Product
	err := c.store.GetJSON(ctx, ListCacheKey(businessID), &products)
	if errors.Is(err, cache.ErrMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return products, true, nil
}

func (c *ListCache) Set(ctx context.Context, businessID string, products []model.Product) error {
	if products == nil {
		products = []model.Product{}
	}
	return c.store.SetJSON(ctx, ListCacheKey(businessID), products, listCacheTTL)
}

func (c *ListCache) Drop(ctx context.Context, businessID string) error {
	return c.store.Delete(ctx, ListCacheKey(businessID))
}

// HandleEvent patches the cached list with a product change in one atomic
// step. Nothing is cached yet on a miss, so there is nothing to patch.
func (c *ListCache) HandleEvent(ctx context.Context, ev realtime.Event) error {
	switch ev.Table {
	case realtime.TableProducts:
	case realtime.TableBusinesses:
		if ev.Type == realtime.EventDelete {
			return c.Drop(ctx, ev.BusinessID)
		}
		return nil
	default:
		return nil
	}

	err := c.store.Update(ctx, ListCacheKey(ev.BusinessID), listCacheTTL, func(current []byte) ([]byte, error) {
		var products []model.Product
		if err := json.Unmarshal(current, &products); err != nil {
			return nil, err
		}
		patched, err := realtime.Apply(products, ev)
		if err != nil {
			return nil, err
		}
		if patched == nil {
			patched = []model.Product{}
		}
		return json.Marshal(patched)
	})
	if err == nil || errors.Is(err, cache.ErrMiss) {
		return nil
	}
	// Undecodable record or a lost race: evict so the next read reloads.
	return errors.Join(err, c.Drop(ctx, ev.BusinessID))
}
