package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/fekuna/stockinator-service/internal/apperror"
	"github.com/fekuna/stockinator-service/internal/auth"
	"github.com/fekuna/stockinator-service/internal/business/dto"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	business  *model.Business
	created   *model.Business
	paths     []string
	deleted   bool
	deleteErr error
	vendor    *model.Profile
}

func (f *fakeRepo) CreateWithOwner(_ context.Context, b *model.Business) error {
	f.created = b
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id string) (*model.Business, error) {
	if f.business == nil || f.business.ID != id {
		return nil, nil
	}
	b := *f.business
	return &b, nil
}

func (f *fakeRepo) Update(_ context.Context, b *model.Business) error {
	f.business = b
	return nil
}

func (f *fakeRepo) DeleteCascade(_ context.Context, id string) ([]string, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleted = true
	return f.paths, nil
}

func (f *fakeRepo) ListMembers(_ context.Context, businessID string) ([]model.Profile, error) {
	return nil, nil
}

func (f *fakeRepo) RemoveVendor(_ context.Context, businessID, vendorID string) (*model.Profile, error) {
	return f.vendor, nil
}

type recorder struct {
	invalidated []string
	dropped     []string
	removed     []string
}

func (r *recorder) InvalidateBusiness(_ context.Context, businessID string) error {
	r.invalidated = append(r.invalidated, businessID)
	return nil
}

func (r *recorder) Drop(_ context.Context, businessID string) error {
	r.dropped = append(r.dropped, businessID)
	return nil
}

func (r *recorder) Remove(_ context.Context, paths ...string) error {
	r.removed = append(r.removed, paths...)
	return assert.AnError
}

func ownerCtx() context.Context {
	return auth.WithUser(context.Background(), &auth.UserContext{UserID: "u1", Role: model.RoleOwner, BusinessID: "b1"})
}

func vendorCtx() context.Context {
	return auth.WithUser(context.Background(), &auth.UserContext{UserID: "u2", Role: model.RoleVendor, BusinessID: "b1"})
}

func TestCreateBusiness(t *testing.T) {
	repo := &fakeRepo{}
	uc := NewBusinessUseCase(repo, nil, nil, nil, nil, logger.NewNop())
	ctx := auth.WithUser(context.Background(), &auth.UserContext{UserID: "u1", Role: model.RoleUnassigned})

	b, err := uc.CreateBusiness(ctx, &dto.CreateBusinessInput{Name: " Duka ", Currency: "usd"})
	require.NoError(t, err)
	assert.Equal(t, "Duka", b.Name)
	assert.Equal(t, "USD", b.Currency)
	assert.Equal(t, "u1", b.OwnerID)
	assert.Nil(t, b.Address)
	assert.NotEmpty(t, b.ID)
	assert.Same(t, b, repo.created)
}

func TestCreateBusiness_DefaultsCurrency(t *testing.T) {
	uc := NewBusinessUseCase(&fakeRepo{}, nil, nil, nil, nil, logger.NewNop())
	ctx := auth.WithUser(context.Background(), &auth.UserContext{UserID: "u1", Role: model.RoleUnassigned})

	b, err := uc.CreateBusiness(ctx, &dto.CreateBusinessInput{Name: "Duka"})
	require.NoError(t, err)
	assert.Equal(t, "KES", b.Currency)
}

func TestCreateBusiness_RejectsMembers(t *testing.T) {
	uc := NewBusinessUseCase(&fakeRepo{}, nil, nil, nil, nil, logger.NewNop())
	_, err := uc.CreateBusiness(vendorCtx(), &dto.CreateBusinessInput{Name: "Duka"})
	assert.ErrorIs(t, err, apperror.ErrAlreadyInBusiness)
}

func TestBusinessName_TrimmedBeforeLengthCheck(t *testing.T) {
	repo := &fakeRepo{business: &model.Business{BaseModel: model.BaseModel{ID: "b1"}, Name: "Duka"}}
	uc := NewBusinessUseCase(repo, nil, nil, nil, nil, logger.NewNop())
	ctx := auth.WithUser(context.Background(), &auth.UserContext{UserID: "u1", Role: model.RoleUnassigned})

	for _, name := range []string{"   ", "  a ", strings.Repeat("d", 101)} {
		_, err := uc.CreateBusiness(ctx, &dto.CreateBusinessInput{Name: name})
		assert.ErrorIs(t, err, apperror.ErrInvalidInput, "name %q", name)
	}
	assert.Nil(t, repo.created)

	_, err := uc.UpdateBusiness(ownerCtx(), &dto.UpdateBusinessInput{Name: "  a "})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Equal(t, "Duka", repo.business.Name)

	b, err := uc.UpdateBusiness(ownerCtx(), &dto.UpdateBusinessInput{Name: " ab "})
	require.NoError(t, err)
	assert.Equal(t, "ab", b.Name)
}

func TestDeleteBusiness_CleansUpAfterCommit(t *testing.T) {
	repo := &fakeRepo{
		business: &model.Business{BaseModel: model.BaseModel{ID: "b1"}, OwnerID: "u1"},
		paths:    []string{"b1/x.png"},
	}
	rec := &recorder{}
	uc := NewBusinessUseCase(repo, rec, rec, rec, nil, logger.NewNop())

	// Image removal failing is logged, not returned.
	require.NoError(t, uc.DeleteBusiness(ownerCtx()))
	assert.True(t, repo.deleted)
	assert.Equal(t, []string{"b1/x.png"}, rec.removed)
	assert.Equal(t, []string{"b1"}, rec.invalidated)
	assert.Equal(t, []string{"b1"}, rec.dropped)
}

func TestDeleteBusiness_NoCleanupWhenDeleteFails(t *testing.T) {
	repo := &fakeRepo{
		business:  &model.Business{BaseModel: model.BaseModel{ID: "b1"}},
		deleteErr: assert.AnError,
	}
	rec := &recorder{}
	uc := NewBusinessUseCase(repo, rec, rec, rec, nil, logger.NewNop())

	assert.ErrorIs(t, uc.DeleteBusiness(ownerCtx()), assert.AnError)
	assert.Empty(t, rec.invalidated)
	assert.Empty(t, rec.dropped)
}

func TestDeleteBusiness_OwnerOnly(t *testing.T) {
	uc := NewBusinessUseCase(&fakeRepo{}, nil, nil, nil, nil, logger.NewNop())
	assert.ErrorIs(t, uc.DeleteBusiness(vendorCtx()), apperror.ErrOwnerOnly)
}

func TestRemoveVendor(t *testing.T) {
	uc := NewBusinessUseCase(&fakeRepo{}, nil, nil, nil, nil, logger.NewNop())
	assert.ErrorIs(t, uc.RemoveVendor(ownerCtx(), "u1"), apperror.ErrVendorNotFound)
	assert.ErrorIs(t, uc.RemoveVendor(ownerCtx(), "u9"), apperror.ErrVendorNotFound)

	uc = NewBusinessUseCase(&fakeRepo{vendor: &model.Profile{BaseModel: model.BaseModel{ID: "u2"}}}, nil, nil, nil, nil, logger.NewNop())
	assert.NoError(t, uc.RemoveVendor(ownerCtx(), "u2"))
}
