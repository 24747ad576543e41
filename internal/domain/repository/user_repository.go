package repository

import (
	"context"

	"github.com/payvault/user-service/internal/domain/entity"
)

// UserRepository is the credential store boundary. Implementations must
// enforce uniqueness on email (and phone when present) and surface violations
// as apperrors.ErrAlreadyExists, distinguishable from other failures.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByPhone(ctx context.Context, phone string) (*entity.User, error)
	UpdateProfile(ctx context.Context, u *entity.User) error
	UpdateLastLogin(ctx context.Context, id string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	SetVerified(ctx context.Context, id string, verified bool) error
	SetActive(ctx context.Context, id string, active bool) error
}
