// Package services contains server-side business logic: token lifecycle,
// account management, owner-scoped notes and note export.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/server/auth"
	"github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService mints, verifies and revokes JWTs. Revocation is durable: the
// jti of a logged-out refresh token is stored until the token would have
// expired anyway.
type TokenService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time
}

// NewTokenService constructs a TokenService from the server config.
func NewTokenService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *TokenService {
	return &TokenService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
	}
}

// Issue mints a fresh refresh/access pair for userID.
func (s *TokenService) Issue(ctx context.Context, userID string) (*TokenPair, error) {
	now := s.now()

	refresh, _, err := auth.GenerateToken(userID, auth.TokenTypeRefresh, s.jwtSecret, s.refreshTokenValidityDuration, now)
	if err != nil {
		return nil, fmt.Errorf("%w: signing refresh token: %v", common.ErrorInternal, err)
	}
	access, _, err := auth.GenerateToken(userID, auth.TokenTypeAccess, s.jwtSecret, s.accessTokenValidityDuration, now)
	if err != nil {
		return nil, fmt.Errorf("%w: signing access token: %v", common.ErrorInternal, err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess returns the user id carried by a valid access token.
// It fails with common.ErrInvalidToken for bad signature, wrong type or
// expiry, and with common.ErrRevoked when the jti is in the revocation set.
func (s *TokenService) VerifyAccess(ctx context.Context, token string) (string, error) {
	claims, err := auth.ParseToken(token, auth.TokenTypeAccess, s.jwtSecret)
	if err != nil {
		return "", err
	}
	if err := s.ensureNotRevoked(ctx, claims.ID); err != nil {
		return "", err
	}
	return claims.UserID(), nil
}

// ParseRefresh checks signature, expiry and type of a refresh token without
// consulting the revocation set.
func (s *TokenService) ParseRefresh(token string) (*auth.Claims, error) {
	return auth.ParseToken(token, auth.TokenTypeRefresh, s.jwtSecret)
}

// Revoke adds the refresh token's jti to the revocation set. Revoking an
// already revoked token succeeds again.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := s.ParseRefresh(refreshToken)
	if err != nil {
		return err
	}
	return s.revokeClaims(ctx, claims)
}

// Refresh mints a new access token for the subject of a valid, unrevoked
// refresh token. The refresh token itself is not rotated.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.ParseRefresh(refreshToken)
	if err != nil {
		return "", err
	}
	if err := s.ensureNotRevoked(ctx, claims.ID); err != nil {
		return "", err
	}

	access, _, err := auth.GenerateToken(claims.UserID(), auth.TokenTypeAccess, s.jwtSecret, s.accessTokenValidityDuration, s.now())
	if err != nil {
		return "", fmt.Errorf("%w: signing access token: %v", common.ErrorInternal, err)
	}
	return access, nil
}

// PurgeExpired drops revocation records of tokens that have expired by now.
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repomanager.RevokedTokens(s.db).DeleteExpired(ctx, s.now())
}

func (s *TokenService) revokeClaims(ctx context.Context, claims *auth.Claims) error {
	record := &models.RevokedToken{
		JTI:       claims.ID,
		UserID:    claims.UserID(),
		ExpiresAt: claims.ExpiresAt.Time,
		RevokedAt: s.now().UTC(),
	}
	if err := s.repomanager.RevokedTokens(s.db).Add(ctx, record); err != nil {
		return fmt.Errorf("error revoking token: %w", err)
	}
	return nil
}

func (s *TokenService) ensureNotRevoked(ctx context.Context, jti string) error {
	revoked, err := s.repomanager.RevokedTokens(s.db).Exists(ctx, jti)
	if err != nil {
		return fmt.Errorf("error checking revocation: %w", err)
	}
	if revoked {
		return common.ErrRevoked
	}
	return nil
}
