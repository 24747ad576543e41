package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/payvault/user-service/internal/application"
	handlers "github.com/payvault/user-service/internal/interface/http"
	"github.com/payvault/user-service/internal/interface/middleware"
)

type PreferenceModule struct {
	Handler *handlers.PreferenceHandler
	Cache   application.SessionCache
	Authn   gin.HandlerFunc
}

func NewPreferenceModule(h *handlers.PreferenceHandler, cache application.SessionCache, authn gin.HandlerFunc) *PreferenceModule {
	return &PreferenceModule{Handler: h, Cache: cache, Authn: authn}
}

func (m *PreferenceModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/settings")
	auth.Use(m.Authn)
	auth.Use(middleware.RateLimit(m.Cache, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/preferences", m.Handler.GetPreferences)
		auth.PUT("/preferences", m.Handler.UpdatePreferences)
		auth.GET("/notifications", m.Handler.GetNotifications)
		auth.PUT("/notifications", m.Handler.UpdateNotifications)
		auth.GET("/privacy", m.Handler.GetPrivacy)
		auth.PUT("/privacy", m.Handler.UpdatePrivacy)
		auth.GET("/consents", m.Handler.ListConsents)
		auth.POST("/consents", m.Handler.RecordConsent)
	}
}
