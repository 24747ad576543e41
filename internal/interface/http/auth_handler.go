package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/payvault/user-service/internal/application"
	"github.com/payvault/user-service/internal/domain/entity"
	"github.com/payvault/user-service/internal/interface/middleware"
	"github.com/payvault/user-service/pkg/apperrors"
	"github.com/payvault/user-service/pkg/helpers"
	"github.com/payvault/user-service/pkg/response"
	"github.com/payvault/user-service/pkg/validation"
)

type AuthHandler struct {
	Svc    *application.AuthService
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type registerRequest struct {
	Email     string  `json:"email" binding:"required,email"`
	Password  string  `json:"password" binding:"required,strongpwd"`
	FirstName string  `json:"first_name" binding:"required,min=1,max=100"`
	LastName  string  `json:"last_name" binding:"required,min=1,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,phone"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type tokenResponse struct {
	AccessToken        string    `json:"access_token"`
	AccessTokenExpiry  time.Time `json:"access_token_expiry"`
	RefreshToken       string    `json:"refresh_token"`
	RefreshTokenExpiry time.Time `json:"refresh_token_expiry"`
	TokenType          string    `json:"token_type"`
}

type userResponse struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Phone      *string    `json:"phone,omitempty"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	AvatarURL  string     `json:"avatar_url,omitempty"`
	IsActive   bool       `json:"is_active"`
	IsVerified bool       `json:"is_verified"`
	Role       string     `json:"role"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
}

func toTokenResponse(p helpers.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:        p.AccessToken,
		AccessTokenExpiry:  p.AccessTokenExpiry,
		RefreshToken:       p.RefreshToken,
		RefreshTokenExpiry: p.RefreshTokenExpiry,
		TokenType:          "Bearer",
	}
}

func toUserResponse(u *entity.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Email:      u.Email,
		Phone:      u.Phone,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		AvatarURL:  u.AvatarURL,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		Role:       u.Role,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
		LastLogin:  u.LastLogin,
	}
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.FromError(c, apperrors.ErrValidation.WithDetails(validation.ToDetails(err)))
		return false
	}
	return true
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	u, pair, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"user":   toUserResponse(u),
		"tokens": toTokenResponse(pair),
	}, "registration successful")
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	u, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// Do not log the email on credential failures; it may not belong to
		// an account.
		if !errors.Is(err, apperrors.ErrInvalidCredentials) {
			h.Logger.WithError(err).Warn("login failed")
		}
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"user":   toUserResponse(u),
		"tokens": toTokenResponse(pair),
	}, "login successful")
}

// Refresh POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}
	pair, err := h.Svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toTokenResponse(pair), "token refreshed")
}

// Logout POST /api/auth/logout (auth required)
func (h *AuthHandler) Logout(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserID)
	if err := h.Svc.Logout(c.Request.Context(), uid); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "logged out")
}

// Me GET /api/auth/me (auth required)
func (h *AuthHandler) Me(c *gin.Context) {
	proj, ok := middleware.CurrentProjection(c)
	if !ok {
		response.FromError(c, apperrors.ErrMissingToken)
		return
	}
	response.Success(c, http.StatusOK, proj, "")
}
