package application

import (
	"time"

	"github.com/payvault/user-service/internal/domain/entity"
)

// UserProjection is the denormalized snapshot of a user cached per request
// authentication. It is served in place of a store round-trip for up to the
// projection TTL; the IsActive flag is checked on every request, so a
// deactivated account is rejected promptly even while cached.
type UserProjection struct {
	UserID     string     `json:"user_id"`
	Email      string     `json:"email"`
	Phone      *string    `json:"phone,omitempty"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	IsActive   bool       `json:"is_active"`
	IsVerified bool       `json:"is_verified"`
	Role       string     `json:"role"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// ProjectUser builds the cacheable projection from a user record.
// The password hash never enters the projection.
func ProjectUser(u *entity.User) UserProjection {
	p := UserProjection{
		UserID:     u.ID,
		Email:      u.Email,
		Phone:      u.Phone,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		Role:       u.Role,
	}
	if !u.CreatedAt.IsZero() {
		t := u.CreatedAt
		p.CreatedAt = &t
	}
	return p
}
