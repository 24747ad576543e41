package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payvault/user-service/internal/domain/entity"
	"github.com/payvault/user-service/internal/domain/repository"
	"github.com/payvault/user-service/pkg/apperrors"
)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, phone, password_hash, first_name, last_name,
	avatar_url, is_active, is_verified, role, created_at, updated_at, last_login`

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Phone, &u.PasswordHash, &u.FirstName,
		&u.LastName, &u.AvatarURL, &u.IsActive, &u.IsVerified, &u.Role,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.ErrDatabase.WithMessage(err.Error())
	}
	return u, nil
}

// Create inserts the user. The unique constraints on email/phone are the
// final authority on duplicates; a violation surfaces as ErrAlreadyExists
// even if the pre-insert existence check raced.
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, phone, password_hash, first_name, last_name, is_active, is_verified, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, u.Email, u.Phone, u.PasswordHash, u.FirstName, u.LastName, u.IsActive, u.IsVerified, u.Role)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.ErrAlreadyExists
		}
		return apperrors.ErrDatabase.WithMessage(err.Error())
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone))
}

func (r *UserRepository) UpdateProfile(ctx context.Context, u *entity.User) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET first_name = $1, last_name = $2, phone = $3, avatar_url = $4, updated_at = now()
		WHERE id = $5
	`, u.FirstName, u.LastName, u.Phone, u.AvatarURL, u.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.ErrAlreadyExists
		}
		return apperrors.ErrDatabase.WithMessage(err.Error())
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE users SET last_login = now(), updated_at = now() WHERE id = $1`, id)
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
}

func (r *UserRepository) SetVerified(ctx context.Context, id string, verified bool) error {
	return r.exec(ctx, `UPDATE users SET is_verified = $2, updated_at = now() WHERE id = $1`, id, verified)
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.exec(ctx, `UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
}

func (r *UserRepository) exec(ctx context.Context, sql string, args ...any) error {
	res, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return apperrors.ErrDatabase.WithMessage(err.Error())
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
