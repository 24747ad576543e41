package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/payvault/user-service/internal/application"
	"github.com/payvault/user-service/internal/interface/middleware"
	"github.com/payvault/user-service/pkg/response"
)

// EmailHandler exposes the email-verification flow. Actual delivery happens
// in the email worker via RabbitMQ.
type EmailHandler struct {
	Svc    *application.AuthService
	Logger *logrus.Logger
}

func NewEmailHandler(svc *application.AuthService, logger *logrus.Logger) *EmailHandler {
	return &EmailHandler{Svc: svc, Logger: logger}
}

// VerifyInit POST /api/auth/verify/init (auth required)
// Idempotent: an already-verified account gets an OK without a new token.
func (h *EmailHandler) VerifyInit(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserID)
	link, already, err := h.Svc.VerifyInit(c.Request.Context(), uid)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if already {
		response.Success(c, http.StatusOK, gin.H{"already_verified": true}, "already verified")
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"verification_link": link}, "verification email queued")
}

type verifyConfirmRequest struct {
	Token string `json:"token" binding:"required"`
}

// VerifyConfirm POST /api/auth/verify/confirm
func (h *EmailHandler) VerifyConfirm(c *gin.Context) {
	var req verifyConfirmRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Svc.VerifyConfirm(c.Request.Context(), req.Token); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "email verified")
}
