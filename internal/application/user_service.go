package application

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/payvault/user-service/internal/domain/entity"
	"github.com/payvault/user-service/internal/domain/repository"
	"github.com/payvault/user-service/internal/infrastructure/search"
	"github.com/payvault/user-service/pkg/apperrors"
	"github.com/payvault/user-service/pkg/helpers"
)

// UserService covers profile reads and writes outside the auth flows.
type UserService struct {
	repo      repository.UserRepository
	cache     SessionCache
	gcs       *storage.Client // nil disables avatar upload
	gcsBucket string
	index     *search.UserIndex // nil disables search/indexing
	logger    *logrus.Logger
	cacheTTL  time.Duration
}

func NewUserService(repo repository.UserRepository, cache SessionCache, gcs *storage.Client,
	gcsBucket string, index *search.UserIndex, logger *logrus.Logger, cacheTTL time.Duration) *UserService {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &UserService{repo: repo, cache: cache, gcs: gcs, gcsBucket: gcsBucket, index: index, logger: logger, cacheTTL: cacheTTL}
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return s.repo.GetByID(ctx, userID)
}

type UpdateProfileInput struct {
	FirstName string
	LastName  string
	Phone     *string
}

// UpdateProfile applies partial edits and refreshes the cached projection so
// the change is visible on the next authenticated request.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.FirstName != "" {
		u.FirstName = in.FirstName
	}
	if in.LastName != "" {
		u.LastName = in.LastName
	}
	if in.Phone != nil && *in.Phone != "" {
		u.Phone = in.Phone
	}
	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	s.refreshProjection(ctx, u)
	if s.index != nil {
		s.index.IndexUser(ctx, u)
	}
	return u, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !helpers.VerifyPassword(u.PasswordHash, current) {
		return apperrors.ErrInvalidCredentials.WithMessage("current password is incorrect")
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePasswordHash(ctx, userID, hash)
}

// UploadAvatar streams an image to object storage and stores its URL.
func (s *UserService) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if s.gcs == nil || s.gcsBucket == "" {
		return "", apperrors.ErrNotFound.WithMessage("avatar storage is not configured")
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.gcs, s.gcsBucket, objectPath, contentType, r)
	if err != nil {
		return "", err
	}
	u.AvatarURL = url
	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		return "", err
	}
	s.refreshProjection(ctx, u)
	return url, nil
}

// Search queries the user search index (admin surface).
func (s *UserService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.index == nil {
		return []map[string]any{}, nil
	}
	return s.index.Search(ctx, q, size)
}

func (s *UserService) refreshProjection(ctx context.Context, u *entity.User) {
	b, err := json.Marshal(ProjectUser(u))
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, UserProfileKey(u.ID), string(b), s.cacheTTL); err != nil {
		s.logger.WithError(err).WithField("user_id", u.ID).Warn("user projection cache write failed")
	}
}
