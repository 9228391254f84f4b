package usecase

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fekuna/stockinator-service/internal/apperror"
	"github.com/fekuna/stockinator-service/internal/auth"
	"github.com/fekuna/stockinator-service/internal/business"
	"github.com/fekuna/stockinator-service/internal/business/dto"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/fekuna/stockinator-service/internal/realtime"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultCurrency = "KES"

// DashboardInvalidator drops cached dashboard results of a business.
type DashboardInvalidator interface {
	InvalidateBusiness(ctx context.Context, businessID string) error
}

// ProductCache drops the cached product list of a business.
type ProductCache interface {
	Drop(ctx context.Context, businessID string) error
}

type ImageRemover interface {
	Remove(ctx context.Context, paths ...string) error
}

type businessUseCase struct {
	repo      business.Repository
	dashboard DashboardInvalidator
	products  ProductCache
	images    ImageRemover
	publisher realtime.Publisher
	logger    logger.ZapLogger
}

func NewBusinessUseCase(
	repo business.Repository,
	dashboard DashboardInvalidator,
	products ProductCache,
	images ImageRemover,
	pub realtime.Publisher,
	log logger.ZapLogger,
) business.UseCase {
	return &businessUseCase{
		repo:      repo,
		dashboard: dashboard,
		products:  products,
		images:    images,
		publisher: pub,
		logger:    log,
	}
}

func (uc *businessUseCase) CreateBusiness(ctx context.Context, input *dto.CreateBusinessInput) (*model.Business, error) {
	user := auth.GetUser(ctx)
	if user == nil {
		return nil, apperror.ErrUnauthenticated
	}
	if user.BusinessID != "" || user.Role != model.RoleUnassigned {
		return nil, apperror.ErrAlreadyInBusiness
	}
	name, err := businessName(input.Name)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	b := &model.Business{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:      name,
		OwnerID:   user.UserID,
		Address:   optional(input.Address),
		Phone:     optional(input.Phone),
		Currency:  currency(input.Currency),
	}
	if err := uc.repo.CreateWithOwner(ctx, b); err != nil {
		return nil, err
	}

	uc.logger.Info("business created", zap.String("business_id", b.ID), zap.String("owner_id", user.UserID))
	realtime.PublishChange(ctx, uc.publisher, uc.logger, realtime.EventInsert, realtime.TableBusinesses, b.ID, b, nil)
	return b, nil
}

func (uc *businessUseCase) GetBusiness(ctx context.Context) (*model.Business, error) {
	user := auth.GetUser(ctx)
	if !user.IsMember() {
		return nil, apperror.ErrNoBusiness
	}
	b, err := uc.repo.FindByID(ctx, user.BusinessID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperror.ErrBusinessNotFound
	}
	return b, nil
}

func (uc *businessUseCase) UpdateBusiness(ctx context.Context, input *dto.UpdateBusinessInput) (*model.Business, error) {
	user, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	name, err := businessName(input.Name)
	if err != nil {
		return nil, err
	}
	b, err := uc.repo.FindByID(ctx, user.BusinessID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperror.ErrBusinessNotFound
	}
	old := *b

	b.Name = name
	b.Address = optional(input.Address)
	b.Phone = optional(input.Phone)
	if input.Currency != "" {
		b.Currency = currency(input.Currency)
	}
	b.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	realtime.PublishChange(ctx, uc.publisher, uc.logger, realtime.EventUpdate, realtime.TableBusinesses, b.ID, b, old)
	return b, nil
}

// DeleteBusiness removes the business and everything in it. Cache and
// storage cleanup happens after the database commit and never fails the
// call.
func (uc *businessUseCase) DeleteBusiness(ctx context.Context) error {
	user, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	b, err := uc.repo.FindByID(ctx, user.BusinessID)
	if err != nil {
		return err
	}
	if b == nil {
		return apperror.ErrBusinessNotFound
	}

	paths, err := uc.repo.DeleteCascade(ctx, b.ID)
	if err != nil {
		return err
	}
	uc.logger.Info("business deleted", zap.String("business_id", b.ID), zap.Int("images", len(paths)))

	if len(paths) > 0 && uc.images != nil {
		if err := uc.images.Remove(ctx, paths...); err != nil {
			uc.logger.Warn("failed to remove product images", zap.String("business_id", b.ID), zap.Error(err))
		}
	}
	if uc.dashboard != nil {
		if err := uc.dashboard.InvalidateBusiness(ctx, b.ID); err != nil {
			uc.logger.Warn("failed to invalidate dashboard cache", zap.String("business_id", b.ID), zap.Error(err))
		}
	}
	if uc.products != nil {
		if err := uc.products.Drop(ctx, b.ID); err != nil {
			uc.logger.Warn("failed to drop product cache", zap.String("business_id", b.ID), zap.Error(err))
		}
	}

	realtime.PublishChange(ctx, uc.publisher, uc.logger, realtime.EventDelete, realtime.TableBusinesses, b.ID, nil, b)
	return nil
}

func (uc *businessUseCase) ListMembers(ctx context.Context) ([]model.Profile, error) {
	user := auth.GetUser(ctx)
	if !user.IsMember() {
		return nil, apperror.ErrNoBusiness
	}
	return uc.repo.ListMembers(ctx, user.BusinessID)
}

func (uc *businessUseCase) RemoveVendor(ctx context.Context, vendorID string) error {
	user, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	if vendorID == user.UserID {
		return apperror.ErrVendorNotFound
	}
	p, err := uc.repo.RemoveVendor(ctx, user.BusinessID, vendorID)
	if err != nil {
		return err
	}
	if p == nil {
		return apperror.ErrVendorNotFound
	}

	uc.logger.Info("vendor removed", zap.String("business_id", user.BusinessID), zap.String("vendor_id", vendorID))
	realtime.PublishChange(ctx, uc.publisher, uc.logger, realtime.EventDelete, realtime.TableProfiles, user.BusinessID, nil, p)
	return nil
}

func requireOwner(ctx context.Context) (*auth.UserContext, error) {
	user := auth.GetUser(ctx)
	if !user.IsMember() {
		return nil, apperror.ErrNoBusiness
	}
	if !user.IsOwner() {
		return nil, apperror.ErrOwnerOnly
	}
	return user, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func currency(s string) string {
	if s == "" {
		return defaultCurrency
	}
	return strings.ToUpper(s)
}

func businessName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		return "", apperror.ErrInvalidInput
	}
	return name, nil
}
