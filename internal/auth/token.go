// Package auth issues and validates the admin capability token.
//
// The admin's only credential is the shared secret configured on the
// server. Rather than have every privileged request carry the secret
// itself, /api/admin/login verifies it once and hands back a short-lived
// signed token; delete and export calls present that token. A leaked
// request log then exposes a token that dies in minutes, not the secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the admin session lifetime. After expiry the dashboard has
// to log in again.
const TokenTTL = 15 * time.Minute

const issuer = "nova-registration"

// adminSubject is the only subject this service ever issues; there are no
// per-user accounts, just the one admin capability.
const adminSubject = "admin"

// TokenService signs and verifies admin session tokens (HS256).
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given HMAC secret.
// Use at least 32 bytes of random data in production:
// JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// GenerateAdmin creates a signed token carrying the admin capability.
func (s *TokenService) GenerateAdmin() (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token string, checking signature, expiry,
// issuer and signing algorithm, and that it carries the admin subject.
//
// The explicit WithValidMethods guard rejects tokens that claim another
// algorithm; without it, an attacker-controlled "alg" header could bypass
// signature checks entirely.
func (s *TokenService) Validate(tokenStr string) error {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return errors.New("auth: token expired")
		}
		return fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return errors.New("auth: invalid token claims")
	}
	if c.Subject != adminSubject {
		return errors.New("auth: token does not carry the admin capability")
	}
	return nil
}
