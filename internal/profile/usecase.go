package profile

import (
	"context"

	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/fekuna/stockinator-service/internal/profile/dto"
)

type UseCase interface {
	EnsureProfile(ctx context.Context, id, email, fullName string) (*model.Profile, error)
	GetProfile(ctx context.Context) (*model.Profile, error)
	UpdateProfile(ctx context.Context, input *dto.UpdateProfileInput) (*model.Profile, error)
}
