package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payvault/user-service/internal/application"
	"github.com/payvault/user-service/pkg/apperrors"
	"github.com/payvault/user-service/pkg/helpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResolver struct {
	proj application.UserProjection
	err  error
}

func (s *stubResolver) CurrentUser(context.Context, string) (application.UserProjection, error) {
	return s.proj, s.err
}

func authCodec(t *testing.T) *helpers.TokenCodec {
	t.Helper()
	c, err := helpers.NewTokenCodec("test-secret", "HS256", 30*time.Minute, 24*time.Hour)
	require.NoError(t, err)
	return c
}

func authRouter(codec *helpers.TokenCodec, resolver IdentityResolver) *gin.Engine {
	r := gin.New()
	r.GET("/me", Auth(codec, resolver), func(c *gin.Context) {
		p, _ := CurrentProjection(c)
		c.JSON(http.StatusOK, gin.H{"user_id": p.UserID, "role": c.GetString(CtxUserRole)})
	})
	return r
}

func doGet(r *gin.Engine, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		ErrorCode string `json:"error_code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.ErrorCode
}

func TestAuthMiddleware(t *testing.T) {
	codec := authCodec(t)
	active := application.UserProjection{UserID: "u-1", Email: "a@b.co", IsActive: true, Role: "admin"}

	issue := func(kind string) string {
		tok, _, err := codec.Issue(kind, helpers.TokenSubject{UserID: "u-1", Email: "a@b.co", Role: "admin"})
		require.NoError(t, err)
		return tok
	}

	t.Run("missing header", func(t *testing.T) {
		w := doGet(authRouter(codec, &stubResolver{proj: active}), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "MISSING_TOKEN", errorCode(t, w))
	})

	t.Run("bearer token accepted", func(t *testing.T) {
		w := doGet(authRouter(codec, &stubResolver{proj: active}), "Bearer "+issue(helpers.TokenKindAccess))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":"u-1"`)
		assert.Contains(t, w.Body.String(), `"role":"admin"`)
	})

	t.Run("bare token accepted", func(t *testing.T) {
		w := doGet(authRouter(codec, &stubResolver{proj: active}), issue(helpers.TokenKindAccess))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("refresh token rejected on access surface", func(t *testing.T) {
		w := doGet(authRouter(codec, &stubResolver{proj: active}), "Bearer "+issue(helpers.TokenKindRefresh))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "INVALID_TOKEN", errorCode(t, w))
	})

	t.Run("expired token reported distinctly", func(t *testing.T) {
		short, err := helpers.NewTokenCodec("test-secret", "HS256", -time.Minute, time.Hour)
		require.NoError(t, err)
		tok, _, err := short.Issue(helpers.TokenKindAccess, helpers.TokenSubject{UserID: "u-1"})
		require.NoError(t, err)

		w := doGet(authRouter(codec, &stubResolver{proj: active}), "Bearer "+tok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "TOKEN_EXPIRED", errorCode(t, w))
	})

	t.Run("inactive user rejected", func(t *testing.T) {
		w := doGet(authRouter(codec, &stubResolver{err: apperrors.ErrInactiveUser}), "Bearer "+issue(helpers.TokenKindAccess))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "INACTIVE_USER", errorCode(t, w))
	})
}

func TestRequireRole(t *testing.T) {
	r := gin.New()
	r.GET("/admin",
		func(c *gin.Context) { c.Set(CtxUserRole, "user") },
		RequireRole("admin"),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBearerToken(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	c.Request.Header.Set("Authorization", "Bearer abc.def.ghi")
	assert.Equal(t, "abc.def.ghi", BearerToken(c))

	c.Request.Header.Set("Authorization", "bearer abc.def.ghi")
	assert.Equal(t, "abc.def.ghi", BearerToken(c), "prefix match is case-insensitive")

	c.Request.Header.Set("Authorization", "abc.def.ghi")
	assert.Equal(t, "abc.def.ghi", BearerToken(c))

	c.Request.Header.Set("Authorization", "   ")
	assert.Equal(t, "", BearerToken(c))
}
