package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/fekuna/stockinator-service/internal/apperror"
	"github.com/fekuna/stockinator-service/internal/auth"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/fekuna/stockinator-service/internal/profile/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu      sync.Mutex
	rows    map[string]model.Profile
	inserts int
}

func newFakeRepo() *fakeRepo { return &fakeRepo{rows: map[string]model.Profile{}} }

func (f *fakeRepo) Insert(_ context.Context, p *model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if _, ok := f.rows[p.ID]; !ok {
		f.rows[p.ID] = *p
	}
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeRepo) UpdateFullName(_ context.Context, id, fullName string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	p.FullName = fullName
	f.rows[id] = p
	return &p, nil
}

func TestEnsureProfile_CreatesOnce(t *testing.T) {
	repo := newFakeRepo()
	uc := NewProfileUseCase(repo, nil, logger.NewNop())

	p, err := uc.EnsureProfile(context.Background(), "u1", " Amina@Example.com ", "")
	require.NoError(t, err)
	assert.Equal(t, "amina@example.com", p.Email)
	assert.Equal(t, "amina", p.FullName)
	assert.Equal(t, model.RoleUnassigned, p.Role)

	_, err = uc.EnsureProfile(context.Background(), "u1", "amina@example.com", "Amina")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.inserts)
}

func TestGetProfile_RequiresUser(t *testing.T) {
	uc := NewProfileUseCase(newFakeRepo(), nil, logger.NewNop())
	_, err := uc.GetProfile(context.Background())
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestUpdateProfile(t *testing.T) {
	repo := newFakeRepo()
	repo.rows["u1"] = model.Profile{BaseModel: model.BaseModel{ID: "u1"}, FullName: "Old"}
	uc := NewProfileUseCase(repo, nil, logger.NewNop())
	ctx := auth.WithUser(context.Background(), &auth.UserContext{UserID: "u1"})

	p, err := uc.UpdateProfile(ctx, &dto.UpdateProfileInput{FullName: "  New Name "})
	require.NoError(t, err)
	assert.Equal(t, "New Name", p.FullName)
}
