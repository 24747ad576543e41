package helpers

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/payvault/user-service/pkg/apperrors"
)

// Token kinds. A token is only ever accepted by the flow matching its kind.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// TokenClaims is the fixed claim set embedded in every token.
// Verified is only populated on access tokens.
type TokenClaims struct {
	UserID   string `json:"uid"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Kind     string `json:"kind"`
	Verified bool   `json:"verified,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies the service's access and refresh tokens with a
// single server-held secret and a configured HMAC algorithm.
type TokenCodec struct {
	secret     []byte
	method     jwt.SigningMethod
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenSubject is the identity encoded into a claim set.
type TokenSubject struct {
	UserID   string
	Email    string
	Role     string
	Verified bool
}

// TokenPair bundles a freshly issued access/refresh pair.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func NewTokenCodec(secret, algorithm string, accessTTL, refreshTTL time.Duration) (*TokenCodec, error) {
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	return &TokenCodec{
		secret:     []byte(secret),
		method:     method,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	}, nil
}

// Issue creates a signed token of the given kind. TTL follows the kind.
// Failure here means unencodable claims, a programmer error, not bad input.
func (c *TokenCodec) Issue(kind string, sub TokenSubject) (string, time.Time, error) {
	ttl := c.AccessTTL
	if kind == TokenKindRefresh {
		ttl = c.RefreshTTL
	}
	now := time.Now()
	exp := now.Add(ttl)
	claims := &TokenClaims{
		UserID: sub.UserID,
		Email:  sub.Email,
		Role:   sub.Role,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   sub.UserID,
		},
	}
	if kind == TokenKindAccess {
		claims.Verified = sub.Verified
	}
	s, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	return s, exp, err
}

// IssuePair issues an access and a refresh token with independently configured TTLs.
func (c *TokenCodec) IssuePair(sub TokenSubject) (TokenPair, error) {
	access, aexp, err := c.Issue(TokenKindAccess, sub)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := c.Issue(TokenKindRefresh, sub)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:        access,
		AccessTokenExpiry:  aexp,
		RefreshToken:       refresh,
		RefreshTokenExpiry: rexp,
	}, nil
}

// Verify parses and validates a token and checks it is of the expected kind.
// Only expiry is distinguishable to callers; every other failure (bad
// signature, malformed payload, wrong or missing kind, missing subject)
// collapses into the same invalid-token error.
func (c *TokenCodec) Verify(tokenStr, expectedKind string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}
	if !tkn.Valid || claims.Kind != expectedKind || claims.UserID == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
