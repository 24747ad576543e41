package application

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/payvault/user-service/internal/domain/entity"
	"github.com/payvault/user-service/internal/domain/repository"
	"github.com/payvault/user-service/pkg/apperrors"
	"github.com/payvault/user-service/pkg/helpers"
	"github.com/payvault/user-service/pkg/mailer"
)

func keyVerifyToken(t string) string { return "email:verify:token:" + t }

// EmailEnqueuer publishes email jobs for async delivery.
type EmailEnqueuer interface {
	PublishJSON(ctx context.Context, body any) error
}

// UserIndexer mirrors user records into a search index, best-effort.
type UserIndexer interface {
	IndexUser(ctx context.Context, u *entity.User)
}

// AuthService orchestrates the credential store, token codec and session
// cache for registration, login, token refresh, logout and per-request
// identity resolution. It holds no cross-request mutable state; all calls are
// request-scoped.
type AuthService struct {
	repo         repository.UserRepository
	cache        SessionCache
	codec        *helpers.TokenCodec
	logger       *logrus.Logger
	mail         EmailEnqueuer // nil disables email
	indexer      UserIndexer   // nil disables indexing
	userCacheTTL time.Duration
	verifyURL    string
}

func NewAuthService(repo repository.UserRepository, cache SessionCache, codec *helpers.TokenCodec,
	logger *logrus.Logger, mail EmailEnqueuer, indexer UserIndexer,
	userCacheTTL time.Duration, verifyURL string) *AuthService {
	if userCacheTTL <= 0 {
		userCacheTTL = time.Hour
	}
	return &AuthService{
		repo:         repo,
		cache:        cache,
		codec:        codec,
		logger:       logger,
		mail:         mail,
		indexer:      indexer,
		userCacheTTL: userCacheTTL,
		verifyURL:    verifyURL,
	}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     *string
}

func tokenSubject(u *entity.User) helpers.TokenSubject {
	return helpers.TokenSubject{UserID: u.ID, Email: u.Email, Role: u.Role, Verified: u.IsVerified}
}

// Register creates a new account and signs it in. The existence pre-checks
// and the insert are not atomic; the store's unique constraint is the final
// authority and a race still surfaces as ALREADY_EXISTS.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, helpers.TokenPair, error) {
	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, helpers.TokenPair{}, apperrors.ErrAlreadyExists.
			WithMessage("email already registered").
			WithDetails(map[string]any{"resource": "email"})
	}
	if in.Phone != nil && *in.Phone != "" {
		if _, err := s.repo.GetByPhone(ctx, *in.Phone); err == nil {
			return nil, helpers.TokenPair{}, apperrors.ErrAlreadyExists.
				WithMessage("phone number already registered").
				WithDetails(map[string]any{"resource": "phone"})
		}
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, helpers.TokenPair{}, err
	}

	u := &entity.User{
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
		IsVerified:   false,
		Role:         entity.RoleUser,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, helpers.TokenPair{}, err
	}

	pair, err := s.issueAndRegister(ctx, u)
	if err != nil {
		return nil, helpers.TokenPair{}, err
	}

	if s.mail != nil {
		job := mailer.EmailJob{To: u.Email, Template: "welcome", Data: map[string]any{"Name": u.FirstName}}
		if err := s.mail.PublishJSON(ctx, job); err != nil {
			s.logger.WithError(err).WithField("user_id", u.ID).Warn("enqueue welcome email failed")
		}
	}
	if s.indexer != nil {
		s.indexer.IndexUser(ctx, u)
	}
	return u, pair, nil
}

// Login authenticates by email and password. An unknown email and a wrong
// password produce the same error; the active-flag check runs only after
// credentials verify, so account status is not observable without them.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, helpers.TokenPair, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, helpers.TokenPair{}, apperrors.ErrInvalidCredentials
	}
	if !helpers.VerifyPassword(u.PasswordHash, password) {
		return nil, helpers.TokenPair{}, apperrors.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, helpers.TokenPair{}, apperrors.ErrInactiveUser
	}

	if err := s.repo.UpdateLastLogin(ctx, u.ID); err != nil {
		return nil, helpers.TokenPair{}, err
	}
	now := time.Now()
	u.LastLogin = &now

	pair, err := s.issueAndRegister(ctx, u)
	if err != nil {
		return nil, helpers.TokenPair{}, err
	}
	return u, pair, nil
}

// issueAndRegister issues a token pair, records the refresh token in the
// registry and refreshes the cached projection. Cache writes are best-effort.
func (s *AuthService) issueAndRegister(ctx context.Context, u *entity.User) (helpers.TokenPair, error) {
	pair, err := s.codec.IssuePair(tokenSubject(u))
	if err != nil {
		return helpers.TokenPair{}, err
	}
	if err := s.cache.Set(ctx, RefreshTokenKey(u.ID), pair.RefreshToken, s.codec.RefreshTTL); err != nil {
		s.logger.WithError(err).WithField("user_id", u.ID).Warn("refresh token registration failed")
	}
	s.cacheProjection(ctx, u)
	return pair, nil
}

func (s *AuthService) cacheProjection(ctx context.Context, u *entity.User) {
	b, err := json.Marshal(ProjectUser(u))
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, UserProfileKey(u.ID), string(b), s.userCacheTTL); err != nil {
		s.logger.WithError(err).WithField("user_id", u.ID).Warn("user projection cache write failed")
	}
}

// Refresh rotates a refresh token into a fresh access/refresh pair. The
// registry lookup is a security control, not an optimization: a missing or
// unreachable registry entry fails the refresh rather than degrading.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (helpers.TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken, helpers.TokenKindRefresh)
	if err != nil {
		return helpers.TokenPair{}, err
	}

	stored, found, err := s.cache.Get(ctx, RefreshTokenKey(claims.UserID))
	if err != nil || !found || stored != refreshToken {
		return helpers.TokenPair{}, apperrors.ErrInvalidToken
	}

	u, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return helpers.TokenPair{}, apperrors.ErrInvalidCredentials
	}
	if !u.IsActive {
		return helpers.TokenPair{}, apperrors.ErrInactiveUser
	}

	// Rotation: the old refresh token is invalid the instant the registry
	// entry is overwritten. Concurrent refreshes are last write wins.
	return s.issueAndRegister(ctx, u)
}

// Logout removes the refresh-token registry entry and the cached projection.
// Deleting absent keys is not an error.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.cache.Delete(ctx, RefreshTokenKey(userID)); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("refresh token delete failed")
	}
	if err := s.cache.Delete(ctx, UserProfileKey(userID)); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("user projection delete failed")
	}
	return nil
}

/// CurrentUser resolves an authenticated subject id into a user projection:
// cache hit (with an active check that is never skipped), or store fallback
// followed by cache population. Cache failures degrade to a miss; store
// failures on the fallback are fatal for the request.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (UserProjection, error) {
	if raw, found, err := s.cache.Get(ctx, UserProfileKey(userID)); err == nil && found {
		var p UserProjection
		if jsonErr := json.Unmarshal([]byte(raw), &p); jsonErr == nil {
			if !p.IsActive {
				return UserProjection{}, apperrors.ErrInactiveUser
			}
			return p, nil
		}
	} else if err != nil {
		s.logger.WithError(err).Warn("user projection cache read failed")
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return UserProjection{}, apperrors.ErrInvalidToken.WithMessage("user not found")
		}
		return UserProjection{}, err
	}
	if !u.IsActive {
		return UserProjection{}, apperrors.ErrInactiveUser
	}
	s.cacheProjection(ctx, u)
	return ProjectUser(u), nil
}

// SetActive flips the account's active flag. Deactivation rewrites the cached
// projection in place so in-flight sessions are rejected on their next
// request, without waiting for the projection TTL, and revokes the refresh
// token.
func (s *AuthService) SetActive(ctx context.Context, userID string, active bool) error {
	if err := s.repo.SetActive(ctx, userID, active); err != nil {
		return err
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	s.cacheProjection(ctx, u)
	if !active {
		if err := s.cache.Delete(ctx, RefreshTokenKey(userID)); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("refresh token delete failed")
		}
	}
	return nil
}

// VerifyInit issues an email-verification token (24h TTL) and enqueues the
// verification mail. Idempotent for already-verified accounts.
func (s *AuthService) VerifyInit(ctx context.Context, userID string) (link string, already bool, err error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", false, err
	}
	if u.IsVerified {
		return "", true, nil
	}

	tok, err := randomToken(32)
	if err != nil {
		return "", false, err
	}
	if err := s.cache.Set(ctx, keyVerifyToken(tok), userID, 24*time.Hour); err != nil {
		return "", false, err
	}
	link = s.verifyURL + "?token=" + tok

	if s.mail != nil {
		job := mailer.EmailJob{
			To:       u.Email,
			Template: "verify_email",
			Data:     map[string]any{"Name": u.FirstName, "Link": link, "ExpiresIn": "24 hours"},
		}
		if err := s.mail.PublishJSON(ctx, job); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("enqueue verify email failed")
		}
	}
	return link, false, nil
}

// VerifyConfirm consumes a verification token and marks the account verified.
func (s *AuthService) VerifyConfirm(ctx context.Context, token string) error {
	uid, found, err := s.cache.Get(ctx, keyVerifyToken(token))
	if err != nil || !found || uid == "" {
		return apperrors.ErrInvalidToken.WithMessage("invalid or expired verification token")
	}
	if err := s.repo.SetVerified(ctx, uid, true); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, keyVerifyToken(token)); err != nil {
		s.logger.WithError(err).Warn("verify token delete failed")
	}
	// Refresh the projection so the verified flag is visible immediately.
	if u, err := s.repo.GetByID(ctx, uid); err == nil {
		s.cacheProjection(ctx, u)
	}
	return nil
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
