package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/payvault/user-service/internal/application"
	"github.com/payvault/user-service/pkg/apperrors"
	"github.com/payvault/user-service/pkg/helpers"
	"github.com/payvault/user-service/pkg/response"
)

// IdentityResolver turns a verified subject id into a user projection.
// Satisfied by application.AuthService.
type IdentityResolver interface {
	CurrentUser(ctx context.Context, userID string) (application.UserProjection, error)
}

// Context keys set by Auth on success.
const (
	CtxUserID   = "userID"
	CtxUserRole = "userRole"
	CtxUser     = "currentUser"
)

// BearerToken pulls the credential out of the Authorization header. A bare
// token without the Bearer prefix is accepted for compatibility with older
// clients.
func BearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if h == "" {
		return ""
	}
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return h
}

// Auth resolves the caller's identity: verify the access token, then load the
// user projection (cache first, database on miss). The projection is stored in
// the Gin context for handlers.
func Auth(codec *helpers.TokenCodec, svc IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			response.AbortError(c, apperrors.ErrMissingToken)
			return
		}
		claims, err := codec.Verify(token, helpers.TokenKindAccess)
		if err != nil {
			response.AbortError(c, err)
			return
		}
		proj, err := svc.CurrentUser(c.Request.Context(), claims.UserID)
		if err != nil {
			response.AbortError(c, err)
			return
		}
		c.Set(CtxUserID, proj.UserID)
		c.Set(CtxUserRole, proj.Role)
		c.Set(CtxUser, proj)
		c.Next()
	}
}

// RequireRole gates a route group to one role. Must run after Auth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxUserRole) != role {
			response.AbortError(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// CurrentProjection returns the resolved identity set by Auth.
func CurrentProjection(c *gin.Context) (application.UserProjection, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return application.UserProjection{}, false
	}
	p, ok := v.(application.UserProjection)
	return p, ok
}
