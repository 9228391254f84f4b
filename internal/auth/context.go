package auth

import (
	"context"

	"github.com/fekuna/stockinator-service/internal/model"
)

// UserContext is the authenticated caller together with the profile
// that scopes it to a business.
type UserContext struct {
	UserID     string
	Email      string
	Role       model.Role
	BusinessID string
	Token      string
}

func (u *UserContext) IsOwner() bool  { return u != nil && u.Role == model.RoleOwner && u.BusinessID != "" }
func (u *UserContext) IsMember() bool { return u != nil && u.BusinessID != "" && u.Role != model.RoleUnassigned }

type userKey struct{}

func WithUser(ctx context.Context, u *UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func GetUser(ctx context.Context) *UserContext {
	if u, ok := ctx.Value(userKey{}).(*UserContext); ok {
		return u
	}
	return nil
}

// GetBusinessID returns the caller's business, empty when unassigned.
func GetBusinessID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.BusinessID
	}
	return ""
}

// FromProfile builds the caller context from a stored profile.
func FromProfile(p *model.Profile, token string) *UserContext {
	u := &UserContext{
		UserID: p.ID,
		Email:  p.Email,
		Role:   p.Role,
		Token:  token,
	}
	if p.BusinessID != nil {
		u.BusinessID = *p.BusinessID
	}
	return u
}
