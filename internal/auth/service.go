// Package auth implements the admin login that grants the admin capability.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookshelf/internal/access"
	"bookshelf/internal/apperr"
	"bookshelf/internal/platform/crypto"
	"bookshelf/internal/session"
)

const (
	roleAdmin    = "ADMIN"
	adminSubject = "admin"

	DefaultSessionTTL = 7 * 24 * time.Hour
)

var (
	ErrInvalidCredentials = fmt.Errorf("invalid password: %w", apperr.ErrUnauthorized)
	ErrInvalidSession     = fmt.Errorf("invalid session: %w", apperr.ErrUnauthorized)
)

type Service struct {
	secret       string
	passwordHash string
	ttl          time.Duration
	blacklist    session.Blacklist
}

// NewService hashes the configured admin password once so logins only ever
// compare against the hash.
func NewService(password, secret string, ttl time.Duration, blacklist session.Blacklist) (*Service, error) {
	if password == "" || secret == "" {
		return nil, errors.New("admin password and token secret are required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &Service{secret: secret, passwordHash: hash, ttl: ttl, blacklist: blacklist}, nil
}

// TTL is how long a session token stays valid.
func (s *Service) TTL() time.Duration { return s.ttl }

// Login returns a signed session token for the admin.
func (s *Service) Login(ctx context.Context, password string) (string, time.Time, error) {
	if !crypto.VerifyPassword(s.passwordHash, password) {
		return "", time.Time{}, ErrInvalidCredentials
	}

	token, _, err := crypto.GenerateToken(s.secret, adminSubject, roleAdmin, s.ttl)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, time.Now().Add(s.ttl), nil
}

// Authenticate turns a session token into the admin capability.
func (s *Service) Authenticate(ctx context.Context, token string) (access.Capability, error) {
	claims, err := crypto.ParseToken(s.secret, token)
	if err != nil || claims.Role != roleAdmin {
		return access.Anonymous(), ErrInvalidSession
	}

	if s.blacklist != nil && claims.ID != "" {
		revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return access.Anonymous(), fmt.Errorf("check token blacklist: %w", err)
		}
		if revoked {
			return access.Anonymous(), ErrInvalidSession
		}
	}

	return access.Admin(claims.ID), nil
}

// Logout revokes token until it would have expired. Invalid tokens are
// already unusable and are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := crypto.ParseToken(s.secret, token)
	if err != nil {
		return nil
	}
	if s.blacklist == nil || claims.ID == "" {
		return nil
	}

	expiresAt := time.Now().Add(s.ttl)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return s.blacklist.Revoke(ctx, claims.ID, claims.Sub, expiresAt)
}
