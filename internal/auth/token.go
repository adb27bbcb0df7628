package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sumisonnn/MEDICO/internal/apperr"
)

type Claims struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs an HS256 token for the given caller.
func (m *TokenManager) Issue(c Caller) (string, error) {
	now := m.now()
	claims := Claims{
		UserID: c.UserID,
		Role:   c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", c.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the token and returns the caller it was issued for. Any
// failure matches apperr.ErrUnauthorized.
func (m *TokenManager) Parse(raw string) (Caller, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Caller{}, fmt.Errorf("%w: %w", apperr.ErrUnauthorized, err)
	}
	if !token.Valid {
		return Caller{}, apperr.ErrUnauthorized
	}
	if claims.UserID <= 0 || !claims.Role.Valid() {
		return Caller{}, fmt.Errorf("%w: %w", apperr.ErrUnauthorized, errors.New("malformed claims"))
	}
	return Caller{UserID: claims.UserID, Role: claims.Role}, nil
}
