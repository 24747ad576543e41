package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/payvault/user-service/internal/application"
	handlers "github.com/payvault/user-service/internal/interface/http"
	"github.com/payvault/user-service/internal/interface/middleware"
)

type AuthModule struct {
	Handler *handlers.AuthHandler
	Email   *handlers.EmailHandler
	Cache   application.SessionCache
	Authn   gin.HandlerFunc
}

func NewAuthModule(h *handlers.AuthHandler, e *handlers.EmailHandler, cache application.SessionCache, authn gin.HandlerFunc) *AuthModule {
	return &AuthModule{Handler: h, Email: e, Cache: cache, Authn: authn}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	registerLimiter := middleware.RateLimit(m.Cache, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(m.Cache, 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(m.Cache, 60, time.Minute, middleware.KeyByIP(), nil)
	verifyConfirmLimiter := middleware.RateLimit(m.Cache, 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)
	rg.POST("/auth/verify/confirm", verifyConfirmLimiter, m.Email.VerifyConfirm)

	// Protected
	verifyInitLimiter := middleware.RateLimit(m.Cache, 5, time.Minute, middleware.KeyByUserID(), nil)

	auth := rg.Group("/")
	auth.Use(m.Authn)
	{
		auth.POST("/auth/logout", m.Handler.Logout)
		auth.GET("/auth/me", m.Handler.Me)
		auth.POST("/auth/verify/init", verifyInitLimiter, m.Email.VerifyInit)
	}
}
