package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/payvault/user-service/internal/application"
	"github.com/payvault/user-service/internal/interface/middleware"
	"github.com/payvault/user-service/pkg/apperrors"
	"github.com/payvault/user-service/pkg/response"
)

const maxAvatarBytes = 5 << 20

type UserHandler struct {
	Svc    *application.UserService
	Auth   *application.AuthService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, auth *application.AuthService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Auth: auth, Logger: logger}
}

type updateProfileRequest struct {
	FirstName string  `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName  string  `json:"last_name" binding:"omitempty,min=1,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,phone"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,strongpwd"`
}

// Profile GET /api/users/profile (auth required)
func (h *UserHandler) Profile(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "")
}

// UpdateProfile PUT /api/users/profile (auth required)
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), c.GetString(middleware.CtxUserID), application.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "profile updated")
}

// ChangePassword PUT /api/users/password (auth required)
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	uid := c.GetString(middleware.CtxUserID)
	if err := h.Svc.ChangePassword(c.Request.Context(), uid, req.CurrentPassword, req.NewPassword); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "password changed")
}

// UploadAvatar POST /api/users/avatar (auth required, multipart)
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		response.FromError(c, apperrors.ErrValidation.WithMessage("avatar file is required"))
		return
	}
	if fh.Size > maxAvatarBytes {
		response.FromError(c, apperrors.ErrValidation.WithMessage("avatar exceeds the 5MB limit"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.FromError(c, err)
		return
	}
	defer f.Close()

	url, err := h.Svc.UploadAvatar(c.Request.Context(), c.GetString(middleware.CtxUserID),
		f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"avatar_url": url}, "avatar uploaded")
}

// SetActive PATCH /api/admin/users/:id/active (admin only)
func (h *UserHandler) SetActive(c *gin.Context) {
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	userID := c.Param("id")
	if err := h.Auth.SetActive(c.Request.Context(), userID, *req.Active); err != nil {
		response.FromError(c, err)
		return
	}
	h.Logger.WithFields(logrus.Fields{
		"user_id": userID,
		"active":  *req.Active,
		"actor":   c.GetString(middleware.CtxUserID),
	}).Info("user activation changed")
	response.Success(c, http.StatusOK, gin.H{"user_id": userID, "active": *req.Active}, "activation updated")
}

// Search GET /api/admin/users/search?q=&size= (admin only)
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.FromError(c, apperrors.ErrValidation.WithMessage("query parameter q is required"))
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": hits, "count": len(hits)}, "")
}
