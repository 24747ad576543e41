package entity

import "time"

// Roles a user record can carry.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the aggregate root for the account domain. PasswordHash holds a
// bcrypt hash; the plaintext never crosses this boundary.
type User struct {
	ID           string
	Email        string
	Phone        *string
	PasswordHash string
	FirstName    string
	LastName     string
	AvatarURL    string
	IsActive     bool
	IsVerified   bool
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLogin    *time.Time
}
