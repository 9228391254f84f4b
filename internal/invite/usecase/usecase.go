package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/stockinator-service/internal/apperror"
	"github.com/fekuna/stockinator-service/internal/auth"
	"github.com/fekuna/stockinator-service/internal/invite"
	"github.com/fekuna/stockinator-service/internal/invite/dto"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/fekuna/stockinator-service/internal/realtime"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type inviteUseCase struct {
	repo       invite.Repository
	publisher  realtime.Publisher
	logger     logger.ZapLogger
	maxVendors int
	ttl        time.Duration
	now        func() time.Time
}

func NewInviteUseCase(repo invite.Repository, pub realtime.Publisher, maxVendors int, ttl time.Duration, log logger.ZapLogger) invite.UseCase {
	return &inviteUseCase{
		repo:       repo,
		publisher:  pub,
		logger:     log,
		maxVendors: maxVendors,
		ttl:        ttl,
		now:        time.Now,
	}
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

func (uc *inviteUseCase) CreateInvite(ctx context.Context, input *dto.CreateInviteInput) (*model.Invite, error) {
	user, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperror.ErrInvalidInput
	}
	if strings.EqualFold(email, user.Email) {
		return nil, apperror.ErrInviteSelf
	}

	member, err := uc.repo.IsMemberEmail(ctx, user.BusinessID, email)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, apperror.ErrAlreadyMember
	}
	now := uc.now()
	pending, err := uc.repo.HasPending(ctx, user.BusinessID, email, now)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperror.ErrInviteDuplicate
	}

	inv := &model.Invite{
		ID:         uuid.New().String(),
		BusinessID: user.BusinessID,
		InvitedBy:  user.UserID,
		Email:      email,
		Status:     model.InviteStatusPending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(uc.ttl),
	}
	expired, err := uc.repo.Create(ctx, inv, uc.maxVendors)
	if err != nil {
		return nil, err
	}
	for i := range expired {
		realtime.PublishChange(ctx, uc.publisher, uc.logger, realtime.EventUpdate, realtime.TableInvites, expired[i].BusinessID, &expired[i], nil)
	}

	uc.logger.Info("invite created", zap.String("invite_id", inv.ID), zap.String("business_id", inv.BusinessID))
	realtime.PublishChange(ctx, uc.publisher, uc.logger, realtime.EventInsert, realtime.TableInvites, inv.BusinessID, inv, nil)
	return inv, nil
}

func (uc *inviteUseCase) ListPendingForMe(ctx context.Context) ([]model.Invite, error) {
	user := auth.GetUser(ctx)
	if user == nil {
		return nil, apperror.ErrUnauthenticated
	}
	return uc.repo.FindPendingByEmail(ctx, user.Email, uc.now())
}

func (uc *inviteUseCase) ListForBusiness(ctx context.Context) ([]model.Invite, error) {
	user, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	return uc.repo.FindByBusiness(ctx, user.BusinessID)
}

// addressedTo loads an invite for its recipient. Invites for someone else
// look like they do not exist.
func (uc *inviteUseCase) addressedTo(ctx context.Context, user *auth.UserContext, id string) (*model.Invite, error) {
	inv, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil || !strings.EqualFold(inv.Email, user.Email) {
		return nil, apperror.ErrInviteNotFound
	}
	if inv.Status != model.InviteStatusPending {
		return nil, apperror.ErrInviteNotPending
	}
	return inv, nil
}

func (uc *inviteUseCase) AcceptInvite(ctx context.Context, id string) (*model.Invite, error) {
	user := auth.GetUser(ctx)
	if user == nil {
		return nil, apperror.ErrUnauthenticated
	}
	inv, err := uc.addressedTo(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if user.BusinessID != "" || user.Role != model.RoleUnassigned {
		return nil, apperror.ErrAlreadyInBusiness
	}
	now := uc.now()
	if inv.IsExpired(now) {
		return nil, apperror.ErrInviteExpired
	}

	profile, err := uc.repo.Accept(ctx, inv, user.UserID, uc.maxVendors, now)
	if err != nil {
		return nil, err
	}

	old := *inv
	inv.Status = model.InviteStatusAccepted
	inv.RespondedAt = &now
	uc.logger.Info("invite accepted",
		zap.String("invite_id", inv.ID),
		zap.String("business_id", inv.BusinessID),
		zap.String("user_id", user.UserID))
	realtime.PublishChange(ctx, uc.publisher, uc.logger, realtime.EventUpdate, realtime.TableInvites, inv.BusinessID, inv, &old)
	realtime.PublishChange(ctx, uc.publisher, uc.logger, realtime.EventUpdate, realtime.TableProfiles, inv.BusinessID, profile, nil)
	return inv, nil
}

func (uc *inviteUseCase) DeclineInvite(ctx context.Context, id string) (*model.Invite, error) {
	user := auth.GetUser(ctx)
	if user == nil {
		return nil, apperror.ErrUnauthenticated
	}
	if _, err := uc.addressedTo(ctx, user, id); err != nil {
		return nil, err
	}
	inv, err := uc.repo.UpdateStatus(ctx, id, model.InviteStatusDeclined, uc.now())
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperror.ErrInviteNotPending
	}
	realtime.PublishChange(ctx, uc.publisher, uc.logger, realtime.EventUpdate, realtime.TableInvites, inv.BusinessID, inv, nil)
	return inv, nil
}

func (uc *inviteUseCase) CancelInvite(ctx context.Context, id string) error {
	user, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	inv, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if inv == nil || inv.BusinessID != user.BusinessID {
		return apperror.ErrInviteNotFound
	}
	updated, err := uc.repo.UpdateStatus(ctx, id, model.InviteStatusCancelled, uc.now())
	if err != nil {
		return err
	}
	if updated == nil {
		return apperror.ErrInviteNotPending
	}
	realtime.PublishChange(ctx, uc.publisher, uc.logger, realtime.EventUpdate, realtime.TableInvites, updated.BusinessID, updated, nil)
	return nil
}

// ExpireStale marks overdue pending invites expired and returns how many
// changed.
func (uc *inviteUseCase) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	expired, err := uc.repo.ExpireStale(ctx, now)
	if err != nil {
		return 0, err
	}
	for i := range expired {
		realtime.PublishChange(ctx, uc.publisher, uc.logger, realtime.EventUpdate, realtime.TableInvites, expired[i].BusinessID, &expired[i], nil)
	}
	if len(expired) > 0 {
		uc.logger.Info("expired stale invites", zap.Int("count", len(expired)))
	}
	return len(expired), nil
}
