package application

import (
	"context"
	"time"
)

// SessionCache is the key-value contract backing the refresh-token registry,
// the user projection cache and rate-limit counters. Values are opaque
// strings; callers do their own JSON (de)serialization. Implementations may
// be unavailable; callers decide per call site whether a failure is
// best-effort or fails the operation.
type SessionCache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Cache key builders. One refresh token and one projection per user.
func RefreshTokenKey(userID string) string { return "refresh:token:" + userID }
func UserProfileKey(userID string) string  { return "user:profile:" + userID }
