package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payvault/user-service/internal/domain/entity"
	"github.com/payvault/user-service/pkg/apperrors"
	"github.com/payvault/user-service/pkg/helpers"
)

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]*entity.User

	failGetByID error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*entity.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.users {
		if e.Email == u.Email {
			return apperrors.ErrAlreadyExists
		}
	}
	r.nextID++
	u.ID = "user-" + strconv.Itoa(r.nextID)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	if r.failGetByID != nil {
		return nil, r.failGetByID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) GetByPhone(_ context.Context, phone string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Phone != nil && *u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return apperrors.ErrNotFound
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id string) error {
	return r.mutate(id, func(u *entity.User) {
		now := time.Now()
		u.LastLogin = &now
	})
}

func (r *fakeUserRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	return r.mutate(id, func(u *entity.User) { u.PasswordHash = hash })
}

func (r *fakeUserRepo) SetVerified(_ context.Context, id string, verified bool) error {
	return r.mutate(id, func(u *entity.User) { u.IsVerified = verified })
}

func (r *fakeUserRepo) SetActive(_ context.Context, id string, active bool) error {
	return r.mutate(id, func(u *entity.User) { u.IsActive = active })
}

func (r *fakeUserRepo) mutate(id string, fn func(*entity.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	fn(u)
	return nil
}

// fakeCache is an in-memory SessionCache with per-operation failure switches.
type fakeCache struct {
	mu     sync.Mutex
	data   map[string]string
	counts map[string]int64

	failGet bool
	failSet bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}, counts: map[string]int64{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	if c.failGet {
		return "", false, errors.New("cache down")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	if c.failSet {
		return errors.New("cache down")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *fakeCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *fakeCache) Increment(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	return c.counts[key], nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeUserRepo, *fakeCache) {
	t.Helper()
	repo := newFakeUserRepo()
	cache := newFakeCache()
	codec, err := helpers.NewTokenCodec("test-secret", "HS256", 30*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	svc := NewAuthService(repo, cache, codec, quietLogger(), nil, nil, time.Hour, "https://app.payvault.dev/verify")
	return svc, repo, cache
}

func register(t *testing.T, svc *AuthService, email string) (*entity.User, helpers.TokenPair) {
	t.Helper()
	u, pair, err := svc.Register(context.Background(), RegisterInput{
		Email:     email,
		Password:  "S3cret!pass",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	return u, pair
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active unverified user with tokens", func(t *testing.T) {
		svc, _, cache := newTestAuthService(t)
		u, pair := register(t, svc, "ada@example.com")

		assert.True(t, u.IsActive)
		assert.False(t, u.IsVerified)
		assert.Equal(t, entity.RoleUser, u.Role)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)

		// refresh token registered, projection cached
		stored, ok := cache.data[RefreshTokenKey(u.ID)]
		require.True(t, ok)
		assert.Equal(t, pair.RefreshToken, stored)
		_, ok = cache.data[UserProfileKey(u.ID)]
		assert.True(t, ok)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		register(t, svc, "ada@example.com")

		_, _, err := svc.Register(ctx, RegisterInput{
			Email: "ada@example.com", Password: "S3cret!pass", FirstName: "A", LastName: "B",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
		var appErr *apperrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "email", appErr.Details["resource"])
	})

	t.Run("duplicate phone", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		phone := "+15550100200"
		_, _, err := svc.Register(ctx, RegisterInput{
			Email: "one@example.com", Password: "S3cret!pass", FirstName: "A", LastName: "B", Phone: &phone,
		})
		require.NoError(t, err)

		_, _, err = svc.Register(ctx, RegisterInput{
			Email: "two@example.com", Password: "S3cret!pass", FirstName: "C", LastName: "D", Phone: &phone,
		})
		assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
	})

	t.Run("cache outage does not fail registration", func(t *testing.T) {
		svc, _, cache := newTestAuthService(t)
		cache.failSet = true
		u, pair := register(t, svc, "ada@example.com")
		assert.NotEmpty(t, u.ID)
		assert.NotEmpty(t, pair.AccessToken)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success records last login", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		register(t, svc, "ada@example.com")

		u, pair, err := svc.Login(ctx, "ada@example.com", "S3cret!pass")
		require.NoError(t, err)
		assert.NotNil(t, u.LastLogin)
		assert.NotEmpty(t, pair.RefreshToken)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		register(t, svc, "ada@example.com")

		_, _, errUnknown := svc.Login(ctx, "nobody@example.com", "whatever1!")
		_, _, errWrong := svc.Login(ctx, "ada@example.com", "wrong-pass")
		assert.True(t, errors.Is(errUnknown, apperrors.ErrInvalidCredentials))
		assert.True(t, errors.Is(errWrong, apperrors.ErrInvalidCredentials))
		assert.Equal(t, errUnknown.Error(), errWrong.Error())
	})

	t.Run("inactive only surfaces after credentials verify", func(t *testing.T) {
		svc, repo, _ := newTestAuthService(t)
		u, _ := register(t, svc, "ada@example.com")
		require.NoError(t, repo.SetActive(ctx, u.ID, false))

		_, _, err := svc.Login(ctx, "ada@example.com", "wrong-pass")
		assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials),
			"wrong password on an inactive account must not leak its status")

		_, _, err = svc.Login(ctx, "ada@example.com", "S3cret!pass")
		assert.True(t, errors.Is(err, apperrors.ErrInactiveUser))
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("rotation invalidates the previous refresh token", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		_, pair := register(t, svc, "ada@example.com")

		next, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

		_, err = svc.Refresh(ctx, pair.RefreshToken)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidToken))

		_, err = svc.Refresh(ctx, next.RefreshToken)
		assert.NoError(t, err)
	})

	t.Run("access token is not accepted", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		_, pair := register(t, svc, "ada@example.com")
		_, err := svc.Refresh(ctx, pair.AccessToken)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidToken))
	})

	t.Run("registry outage fails closed", func(t *testing.T) {
		svc, _, cache := newTestAuthService(t)
		_, pair := register(t, svc, "ada@example.com")
		cache.failGet = true
		_, err := svc.Refresh(ctx, pair.RefreshToken)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidToken))
	})

	t.Run("missing registry entry", func(t *testing.T) {
		svc, _, cache := newTestAuthService(t)
		u, pair := register(t, svc, "ada@example.com")
		require.NoError(t, cache.Delete(ctx, RefreshTokenKey(u.ID)))
		_, err := svc.Refresh(ctx, pair.RefreshToken)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidToken))
	})

	t.Run("deleted user", func(t *testing.T) {
		svc, repo, _ := newTestAuthService(t)
		u, pair := register(t, svc, "ada@example.com")
		repo.mu.Lock()
		delete(repo.users, u.ID)
		repo.mu.Unlock()
		_, err := svc.Refresh(ctx, pair.RefreshToken)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))
	})

	t.Run("inactive user", func(t *testing.T) {
		svc, repo, _ := newTestAuthService(t)
		u, pair := register(t, svc, "ada@example.com")
		require.NoError(t, repo.SetActive(ctx, u.ID, false))
		_, err := svc.Refresh(ctx, pair.RefreshToken)
		assert.True(t, errors.Is(err, apperrors.ErrInactiveUser))
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc, _, cache := newTestAuthService(t)
	u, pair := register(t, svc, "ada@example.com")

	require.NoError(t, svc.Logout(ctx, u.ID))
	_, ok := cache.data[RefreshTokenKey(u.ID)]
	assert.False(t, ok)
	_, ok = cache.data[UserProfileKey(u.ID)]
	assert.False(t, ok)

	_, err := svc.Refresh(ctx, pair.RefreshToken)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidToken))

	// idempotent
	assert.NoError(t, svc.Logout(ctx, u.ID))
	assert.NoError(t, svc.Logout(ctx, "never-logged-in"))
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit skips the store", func(t *testing.T) {
		svc, repo, _ := newTestAuthService(t)
		u, _ := register(t, svc, "ada@example.com")
		repo.failGetByID = errors.New("store must not be touched")

		p, err := svc.CurrentUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.ID, p.UserID)
		assert.Equal(t, u.Email, p.Email)
	})

	t.Run("cached inactive projection is rejected", func(t *testing.T) {
		svc, _, cache := newTestAuthService(t)
		u, _ := register(t, svc, "ada@example.com")

		proj := ProjectUser(u)
		proj.IsActive = false
		b, err := json.Marshal(proj)
		require.NoError(t, err)
		require.NoError(t, cache.Set(ctx, UserProfileKey(u.ID), string(b), time.Hour))

		_, err = svc.CurrentUser(ctx, u.ID)
		assert.True(t, errors.Is(err, apperrors.ErrInactiveUser))
	})

	t.Run("miss falls back to store and populates the cache", func(t *testing.T) {
		svc, _, cache := newTestAuthService(t)
		u, _ := register(t, svc, "ada@example.com")
		require.NoError(t, cache.Delete(ctx, UserProfileKey(u.ID)))

		p, err := svc.CurrentUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.ID, p.UserID)
		_, ok := cache.data[UserProfileKey(u.ID)]
		assert.True(t, ok)
	})

	t.Run("cache outage degrades to the store", func(t *testing.T) {
		svc, _, cache := newTestAuthService(t)
		u, _ := register(t, svc, "ada@example.com")
		cache.failGet = true

		p, err := svc.CurrentUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.ID, p.UserID)
	})

	t.Run("unknown subject maps to invalid token", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		_, err := svc.CurrentUser(ctx, "ghost")
		assert.True(t, errors.Is(err, apperrors.ErrInvalidToken))
	})

	t.Run("corrupt cached projection falls back to the store", func(t *testing.T) {
		svc, _, cache := newTestAuthService(t)
		u, _ := register(t, svc, "ada@example.com")
		require.NoError(t, cache.Set(ctx, UserProfileKey(u.ID), "{not json", time.Hour))

		p, err := svc.CurrentUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.ID, p.UserID)
	})
}

func TestSetActive(t *testing.T) {
	ctx := context.Background()

	t.Run("deactivation is visible within one request", func(t *testing.T) {
		svc, _, cache := newTestAuthService(t)
		u, _ := register(t, svc, "ada@example.com")

		require.NoError(t, svc.SetActive(ctx, u.ID, false))

		// projection rewritten in place, no TTL wait
		var p UserProjection
		require.NoError(t, json.Unmarshal([]byte(cache.data[UserProfileKey(u.ID)]), &p))
		assert.False(t, p.IsActive)

		// refresh token revoked
		_, ok := cache.data[RefreshTokenKey(u.ID)]
		assert.False(t, ok)

		_, err := svc.CurrentUser(ctx, u.ID)
		assert.True(t, errors.Is(err, apperrors.ErrInactiveUser))
	})

	t.Run("reactivation restores access", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		u, _ := register(t, svc, "ada@example.com")
		require.NoError(t, svc.SetActive(ctx, u.ID, false))
		require.NoError(t, svc.SetActive(ctx, u.ID, true))

		p, err := svc.CurrentUser(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, p.IsActive)
	})
}

func TestEmailVerification(t *testing.T) {
	ctx := context.Background()

	t.Run("init and confirm", func(t *testing.T) {
		svc, repo, _ := newTestAuthService(t)
		u, _ := register(t, svc, "ada@example.com")

		link, already, err := svc.VerifyInit(ctx, u.ID)
		require.NoError(t, err)
		assert.False(t, already)
		require.Contains(t, link, "?token=")

		tok := link[len("https://app.payvault.dev/verify?token="):]
		require.NoError(t, svc.VerifyConfirm(ctx, tok))

		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, got.IsVerified)

		// token is single use
		err = svc.VerifyConfirm(ctx, tok)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidToken))
	})

	t.Run("already verified is idempotent", func(t *testing.T) {
		svc, repo, _ := newTestAuthService(t)
		u, _ := register(t, svc, "ada@example.com")
		require.NoError(t, repo.SetVerified(ctx, u.ID, true))

		_, already, err := svc.VerifyInit(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, already)
	})

	t.Run("unknown token", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		err := svc.VerifyConfirm(ctx, "bogus")
		assert.True(t, errors.Is(err, apperrors.ErrInvalidToken))
	})
}
