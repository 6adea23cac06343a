// Package auth verifies the bearer tokens issued by the external session
// service. This application never issues tokens; it only validates them
// and extracts the caller's identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beargallbladder/golfswarm/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common token validation errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the validated identity extracted from a bearer token.
type Claims struct {
	UserID uuid.UUID
}

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	// ValidateToken checks the token's signature and expiry and returns
	// its claims. Returns ErrExpiredToken or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

// tokenClaims is the wire shape of the JWT claims we accept.
type tokenClaims struct {
	UserID uuid.UUID `json:"uid"`
	jwt.RegisteredClaims
}

// hmacVerifier verifies HMAC-SHA256 signed tokens.
type hmacVerifier struct {
	signingKey []byte
	clockSkew  time.Duration
	timeFunc   func() time.Time
}

var _ TokenVerifier = (*hmacVerifier)(nil)

// NewTokenVerifier creates a TokenVerifier from the auth configuration.
func NewTokenVerifier(cfg config.AuthConfig) (TokenVerifier, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}

	return &hmacVerifier{
		signingKey: []byte(cfg.JWTSecret),
		clockSkew:  2 * time.Minute,
		timeFunc:   time.Now,
	}, nil
}

// ValidateToken parses and verifies the token string.
func (v *hmacVerifier) ValidateToken(_ context.Context, tokenString string) (*Claims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(v.clockSkew),
		jwt.WithTimeFunc(v.timeFunc),
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&tokenClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.signingKey, nil
		},
		parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id claim", ErrInvalidToken)
	}

	return &Claims{UserID: claims.UserID}, nil
}
