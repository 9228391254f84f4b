package business

import (
	"context"

	"github.com/fekuna/stockinator-service/internal/business/dto"
	"github.com/fekuna/stockinator-service/internal/model"
)

type UseCase interface {
	CreateBusiness(ctx context.Context, input *dto.CreateBusinessInput) (*model.Business, error)
	GetBusiness(ctx context.Context) (*model.Business, error)
	UpdateBusiness(ctx context.Context, input *dto.UpdateBusinessInput) (*model.Business, error)
	DeleteBusiness(ctx context.Context) error
	ListMembers(ctx context.Context) ([]model.Profile, error)
	RemoveVendor(ctx context.Context, vendorID string) error
}
