package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/stockinator-service/internal/apperror"
	"github.com/fekuna/stockinator-service/internal/auth"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/fekuna/stockinator-service/internal/profile"
	"github.com/fekuna/stockinator-service/internal/profile/dto"
	"github.com/fekuna/stockinator-service/internal/realtime"
	"go.uber.org/zap"
)

type profileUseCase struct {
	repo      profile.Repository
	publisher realtime.Publisher
	logger    logger.ZapLogger
}

func NewProfileUseCase(repo profile.Repository, pub realtime.Publisher, log logger.ZapLogger) profile.UseCase {
	return &profileUseCase{
		repo:      repo,
		publisher: pub,
		logger:    log,
	}
}

// EnsureProfile loads the profile for an identity, creating an unassigned
// one the first time the identity is seen.
func (uc *profileUseCase) EnsureProfile(ctx context.Context, id, email, fullName string) (*model.Profile, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if p != nil {
		return p, nil
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" {
		fullName = strings.Split(email, "@")[0]
	}
	now := time.Now()
	p = &model.Profile{
		BaseModel: model.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
		Email:     email,
		FullName:  fullName,
		Role:      model.RoleUnassigned,
	}
	if err := uc.repo.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	uc.logger.Info("profile created", zap.String("user_id", id))

	// Re-read so a concurrent first request sees the same row.
	stored, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if stored == nil {
		return nil, apperror.ErrProfileNotFound
	}
	return stored, nil
}

func (uc *profileUseCase) GetProfile(ctx context.Context) (*model.Profile, error) {
	user := auth.GetUser(ctx)
	if user == nil {
		return nil, apperror.ErrUnauthenticated
	}
	p, err := uc.repo.FindByID(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperror.ErrProfileNotFound
	}
	return p, nil
}

func (uc *profileUseCase) UpdateProfile(ctx context.Context, input *dto.UpdateProfileInput) (*model.Profile, error) {
	user := auth.GetUser(ctx)
	if user == nil {
		return nil, apperror.ErrUnauthenticated
	}
	old, err := uc.repo.FindByID(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, apperror.ErrProfileNotFound
	}

	p, err := uc.repo.UpdateFullName(ctx, user.UserID, strings.TrimSpace(input.FullName))
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperror.ErrProfileNotFound
	}

	if p.BusinessID != nil {
		realtime.PublishChange(ctx, uc.publisher, uc.logger, realtime.EventUpdate, realtime.TableProfiles, *p.BusinessID, p, old)
	}
	return p, nil
}
