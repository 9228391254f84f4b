package profile

import (
	"context"

	"github.com/fekuna/stockinator-service/internal/model"
)

type Repository interface {
	// Insert is a no-op when the profile already exists.
	Insert(ctx context.Context, p *model.Profile) error
	FindByID(ctx context.Context, id string) (*model.Profile, error)
	UpdateFullName(ctx context.Context, id, fullName string) (*model.Profile, error)
}
