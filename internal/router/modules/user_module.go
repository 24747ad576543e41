package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/payvault/user-service/internal/application"
	"github.com/payvault/user-service/internal/domain/entity"
	handlers "github.com/payvault/user-service/internal/interface/http"
	"github.com/payvault/user-service/internal/interface/middleware"
)

type UserModule struct {
	Handler *handlers.UserHandler
	Cache   application.SessionCache
	Authn   gin.HandlerFunc
}

func NewUserModule(h *handlers.UserHandler, cache application.SessionCache, authn gin.HandlerFunc) *UserModule {
	return &UserModule{Handler: h, Cache: cache, Authn: authn}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(m.Authn)
	// Softer limiter across all profile routes, plus a per-user one
	auth.Use(
		middleware.RateLimit(m.Cache, 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP()),
		middleware.RateLimit(m.Cache, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/users/profile", m.Handler.Profile)
		auth.PUT("/users/profile", m.Handler.UpdateProfile)
		auth.PUT("/users/password", m.Handler.ChangePassword)
		auth.POST("/users/avatar", m.Handler.UploadAvatar)
	}

	admin := rg.Group("/admin")
	admin.Use(m.Authn, middleware.RequireRole(entity.RoleAdmin))
	{
		admin.PATCH("/users/:id/active", m.Handler.SetActive)
		admin.GET("/users/search", m.Handler.Search)
	}
}
