package invite

import (
	"context"
	"time"

	"github.com/fekuna/stockinator-service/internal/invite/dto"
	"github.com/fekuna/stockinator-service/internal/model"
)

type UseCase interface {
	CreateInvite(ctx context.Context, input *dto.CreateInviteInput) (*model.Invite, error)
	ListPendingForMe(ctx context.Context) ([]model.Invite, error)
	ListForBusiness(ctx context.Context) ([]model.Invite, error)
	AcceptInvite(ctx context.Context, id string) (*model.Invite, error)
	DeclineInvite(ctx context.Context, id string) (*model.Invite, error)
	CancelInvite(ctx context.Context, id string) error
	ExpireStale(ctx context.Context, now time.Time) (int, error)
}
