// Package auth issues and verifies the bearer tokens that identify owners.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "pocketwatcher"

var (
	ErrMissingToken = errors.New("authorization header required")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// TokenService signs and parses HS256 tokens whose subject is the owner ID.
type TokenService struct {
	secretKey []byte
	expiresIn time.Duration
	now       func() time.Time
}

func NewTokenService(secret string, expiresIn time.Duration) *TokenService {
	return &TokenService{
		secretKey: []byte(secret),
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

// GenerateToken returns a signed token for ownerID and its expiry time.
func (s *TokenService) GenerateToken(ownerID string) (string, time.Time, error) {
	if strings.TrimSpace(ownerID) == "" {
		return "", time.Time{}, errors.New("owner id cannot be empty")
	}
	now := s.now()
	exp := now.Add(s.expiresIn)
	claims := jwt.RegisteredClaims{
		Subject:   ownerID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// ParseToken verifies tokenStr and returns its owner ID.
func (s *TokenService) ParseToken(tokenStr string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: expected Bearer scheme", ErrInvalidToken)
	}
	return strings.TrimSpace(token), nil
}

type ownerKey struct{}

// WithOwner stores the authenticated owner ID in ctx.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFrom returns the authenticated owner ID stored by WithOwner.
func OwnerFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerKey{}).(string)
	return id, ok && id != ""
}
