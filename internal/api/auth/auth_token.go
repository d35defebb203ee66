package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/FACorreiaa/cv-builder-api/config"
	"github.com/FACorreiaa/cv-builder-api/internal/types"
)

// TokenParser validates session tokens.
type TokenParser interface {
	Parse(tokenString string) (*types.Claims, error)
}

// TokenIssuer mints and validates session tokens.
type TokenIssuer interface {
	TokenParser
	Generate(userID string) (string, error)
}

var _ TokenIssuer = (*TokenManager)(nil)

// TokenManager issues and verifies HS256 session tokens bound to a user id.
// Tokens are stateless: nothing is persisted and nothing is revoked.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenManager(cfg config.JWTConfig) *TokenManager {
	return &TokenManager{
		secret: []byte(cfg.SecretKey),
		ttl:    cfg.TokenTTL,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
}

// Generate mints a token for userID.
func (m *TokenManager) Generate(userID string) (string, error) {
	now := m.now()
	claims := types.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse checks signature, expiry and issuer. Every failure is reported as
// types.ErrUnauthenticated.
func (m *TokenManager) Parse(tokenString string) (*types.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &types.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: Invalid or expired token", types.ErrUnauthenticated)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: Invalid or expired token", types.ErrUnauthenticated)
	}
	return claims, nil
}
