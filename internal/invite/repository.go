package invite

import (
	"context"
	"time"

	"github.com/fekuna/stockinator-service/internal/model"
)

type Repository interface {
	// Create inserts a pending invite unless vendors plus live pending
	// invites already fill maxVendors. Stale pending invites it expired on
	// the way are returned.
	Create(ctx context.Context, inv *model.Invite, maxVendors int) ([]model.Invite, error)
	FindByID(ctx context.Context, id string) (*model.Invite, error)
	FindPendingByEmail(ctx context.Context, email string, now time.Time) ([]model.Invite, error)
	FindByBusiness(ctx context.Context, businessID string) ([]model.Invite, error)
	HasPending(ctx context.Context, businessID, email string, now time.Time) (bool, error)
	IsMemberEmail(ctx context.Context, businessID, email string) (bool, error)
	// UpdateStatus moves a pending invite to status and returns it, or nil
	// when the invite was no longer pending.
	UpdateStatus(ctx context.Context, id string, status model.InviteStatus, at time.Time) (*model.Invite, error)
	// Accept marks the invite accepted and attaches the user to the business
	// as a vendor in one database transaction.
	Accept(ctx context.Context, inv *model.Invite, userID string, maxVendors int, at time.Time) (*model.Profile, error)
	ExpireStale(ctx context.Context, now time.Time) ([]model.Invite, error)
}
