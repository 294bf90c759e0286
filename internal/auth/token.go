// Package auth issues and verifies the bearer tokens that gate both the
// HTTP API and the realtime collaboration channel.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"docuhub/internal/domain"
)

var (
	ErrTokenMissing = errors.New("token missing")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the payload stored inside a signed token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 tokens with a shared secret.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token for the given user.
func (m *TokenManager) Issue(user *domain.User, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   string(user.ID),
		Username: user.Username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "docuhub",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses and validates a token string and yields the identity it
// carries. An empty credential is reported as ErrTokenMissing; any parse,
// signature or expiry failure as ErrTokenInvalid.
func (m *TokenManager) Verify(tokenString string) (*domain.User, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return &domain.User{ID: domain.UserID(claims.UserID), Username: claims.Username}, nil
}
