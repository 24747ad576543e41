package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/payvault/user-service/internal/application"
	"github.com/payvault/user-service/internal/interface/middleware"
	"github.com/payvault/user-service/pkg/response"
)

type PreferenceHandler struct {
	Svc    *application.PreferenceService
	Logger *logrus.Logger
}

func NewPreferenceHandler(svc *application.PreferenceService, logger *logrus.Logger) *PreferenceHandler {
	return &PreferenceHandler{Svc: svc, Logger: logger}
}

func clientIP(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	return c.ClientIP()
}

// GetPreferences GET /api/settings/preferences
func (h *PreferenceHandler) GetPreferences(c *gin.Context) {
	p, err := h.Svc.GetPreferences(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p, "")
}

// UpdatePreferences PUT /api/settings/preferences
func (h *PreferenceHandler) UpdatePreferences(c *gin.Context) {
	var req application.PreferenceUpdate
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.Svc.UpdatePreferences(c.Request.Context(), c.GetString(middleware.CtxUserID), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p, "preferences updated")
}

// GetNotifications GET /api/settings/notifications
func (h *PreferenceHandler) GetNotifications(c *gin.Context) {
	n, err := h.Svc.GetNotificationSettings(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, n, "")
}

// UpdateNotifications PUT /api/settings/notifications
func (h *PreferenceHandler) UpdateNotifications(c *gin.Context) {
	var req application.NotificationUpdate
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.Svc.UpdateNotificationSettings(c.Request.Context(), c.GetString(middleware.CtxUserID), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, n, "notification settings updated")
}

// GetPrivacy GET /api/settings/privacy
func (h *PreferenceHandler) GetPrivacy(c *gin.Context) {
	p, err := h.Svc.GetPrivacySettings(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p, "")
}

// UpdatePrivacy PUT /api/settings/privacy
func (h *PreferenceHandler) UpdatePrivacy(c *gin.Context) {
	var req application.PrivacyUpdate
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.Svc.UpdatePrivacySettings(c.Request.Context(), c.GetString(middleware.CtxUserID), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p, "privacy settings updated")
}

// RecordConsent POST /api/settings/consents
func (h *PreferenceHandler) RecordConsent(c *gin.Context) {
	var req application.ConsentInput
	if !bindJSON(c, &req) {
		return
	}
	uid := c.GetString(middleware.CtxUserID)
	consent, err := h.Svc.RecordConsent(c.Request.Context(), uid, clientIP(c), c.GetHeader("User-Agent"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, consent, "consent recorded")
}

// ListConsents GET /api/settings/consents
func (h *PreferenceHandler) ListConsents(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserID)
	history, err := h.Svc.ListConsents(c.Request.Context(), uid)
	if err != nil {
		response.FromError(c, err)
		return
	}
	status, err := h.Svc.ConsentStatus(c.Request.Context(), uid)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"current": status, "history": history}, "")
}
