package business

import (
	"context"

	"github.com/fekuna/stockinator-service/internal/model"
)

type Repository interface {
	// CreateWithOwner inserts the business and promotes the owner's
	// profile in one database transaction.
	CreateWithOwner(ctx context.Context, b *model.Business) error
	FindByID(ctx context.Context, id string) (*model.Business, error)
	Update(ctx context.Context, b *model.Business) error
	// DeleteCascade removes the business with all of its rows and returns
	// the storage paths of product images that need removing.
	DeleteCascade(ctx context.Context, id string) ([]string, error)
	ListMembers(ctx context.Context, businessID string) ([]model.Profile, error)
	// RemoveVendor returns the detached profile, nil when no vendor matched.
	RemoveVendor(ctx context.Context, businessID, vendorID string) (*model.Profile, error)
}
