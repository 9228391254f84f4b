package auth

import (
	"context"

	"github.com/fekuna/stockinator-service/internal/apperror"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenVerifier is satisfied by *Verifier.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// ProfileEnsurer loads the caller's profile, creating it on first sight.
type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, id, email, fullName string) (*model.Profile, error)
}

// ErrorWriter renders an error response; handlers share one implementation.
type ErrorWriter func(c *gin.Context, err error)

// Middleware authenticates the bearer token, loads the profile and stores
// the resulting UserContext on the request context.
func Middleware(v TokenVerifier, profiles ProfileEnsurer, writeErr ErrorWriter, log logger.ZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			// Browsers cannot set headers on websocket upgrades.
			if q := c.Query("access_token"); q != "" {
				header = "Bearer " + q
			}
		}
		token, err := BearerToken(header)
		if err != nil {
			writeErr(c, apperror.ErrUnauthenticated.Wrap(err))
			c.Abort()
			return
		}

		id, err := v.Verify(c.Request.Context(), token)
		if err != nil {
			log.Debug("token rejected", zap.Error(err))
			writeErr(c, apperror.ErrUnauthenticated.Wrap(err))
			c.Abort()
			return
		}

		p, err := profiles.EnsureProfile(c.Request.Context(), id.Subject, id.Email, id.FullName)
		if err != nil {
			writeErr(c, err)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithUser(c.Request.Context(), FromProfile(p, token)))
		c.Next()
	}
}

// RequireMember rejects callers that do not belong to a business.
func RequireMember(writeErr ErrorWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetUser(c.Request.Context()).IsMember() {
			writeErr(c, apperror.ErrNoBusiness)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireOwner rejects callers that are not the owner of their business.
func RequireOwner(writeErr ErrorWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := GetUser(c.Request.Context())
		if !u.IsMember() {
			writeErr(c, apperror.ErrNoBusiness)
			c.Abort()
			return
		}
		if !u.IsOwner() {
			writeErr(c, apperror.ErrOwnerOnly)
			c.Abort()
			return
		}
		c.Next()
	}
}
