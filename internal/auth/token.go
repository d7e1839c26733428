// Package auth handles passwords, bearer tokens and token revocation.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	perrors "github.com/buixuanquoc47/pomoteam/internal/errors"
)

// Claims is the JWT payload for an authenticated user.
type Claims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	TeamID int64  `json:"team_id"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a token manager with the given signing secret
// and token lifetime.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given user identity. The jti claim is a
// fresh UUID so individual tokens can be revoked on logout.
func (m *TokenManager) Issue(userID int64, role string, teamID int64) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		TeamID: teamID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify parses and validates a signed token. Any parse, signature or
// expiry failure maps to ErrUnauthorized.
func (m *TokenManager) Verify(signed string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(signed, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, perrors.ErrUnauthorized
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, perrors.ErrUnauthorized
	}
	return claims, nil
}
