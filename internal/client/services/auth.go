// Package services contains application services for the gophnotes CLI.
// This file defines the authentication service: register, login, logout,
// session restore from the local store, profile access and a liveness probe.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/client/client"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
)

// Metadata keys of a persisted session.
const (
	KeyEmail        = "email"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register and Login talk to the server and persist the session locally.
//   - Restore loads a persisted session into the API client; it returns the
//     session's email, or "" when nothing was stored.
//   - Logout revokes the refresh token and wipes the local session.
//   - Profile and UpdateProfile operate on the logged-in account.
//   - Ping checks server liveness.
type AuthService interface {
	Register(ctx context.Context, reg models.Registration) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Restore(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error)
	Ping(ctx context.Context) error
}

// authService is the concrete AuthService backed by a remote Client
// and a local SQL database for the session.
type authService struct {
	client client.Client
	db     *sql.DB
	logger logging.Logger
}

// NewAuthService constructs an AuthService bound to the given API client and
// DB. Access tokens refreshed by the client are written back to the store.
func NewAuthService(c client.Client, db *sql.DB, logger logging.Logger) AuthService {
	a := &authService{client: c, db: db, logger: logger}
	c.OnAccessRefreshed(a.persistAccess)
	return a
}

func (a *authService) getMetadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(a.db)
}

func (a *authService) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	user, tokens, err := a.client.Register(ctx, reg)
	if err != nil {
		return nil, err
	}

	if err := a.saveSession(ctx, user.Email, tokens); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return user, nil
}

func (a *authService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, tokens, err := a.client.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	if err := a.saveSession(ctx, user.Email, tokens); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return user, nil
}

// saveSession persists email and both tokens in a single transaction.
func (a *authService) saveSession(ctx context.Context, email string, tokens *models.Tokens) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).SetMany(ctx, map[string][]byte{
			KeyEmail:        []byte(email),
			KeyAccessToken:  []byte(tokens.Access),
			KeyRefreshToken: []byte(tokens.Refresh),
		})
	})
}

func (a *authService) persistAccess(access string) {
	if err := a.getMetadataRepo().Set(context.Background(), KeyAccessToken, []byte(access)); err != nil {
		a.logger.Warn(context.Background(), "failed to persist refreshed access token", "error", err)
	}
}

func (a *authService) Restore(ctx context.Context) (string, error) {
	stored, err := a.getMetadataRepo().List(ctx)
	if err != nil {
		return "", err
	}

	refresh := string(stored[KeyRefreshToken])
	if refresh == "" {
		return "", nil
	}

	a.client.SetTokens(string(stored[KeyAccessToken]), refresh)
	return string(stored[KeyEmail]), nil
}

// Logout revokes the session on the server and clears it locally. A session
// the server already rejects is still cleared.
func (a *authService) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)

	var apiErr *client.APIError
	switch {
	case err == nil:
	case errors.Is(err, client.ErrNotLoggedIn), errors.Is(err, client.ErrUnauthorized):
	case errors.As(err, &apiErr) && apiErr.Status < 500:
		a.logger.Warn(ctx, "server rejected logout, clearing local session", "error", err)
	default:
		return fmt.Errorf("logout error: %w", err)
	}

	a.client.SetTokens("", "")
	return a.getMetadataRepo().Delete(ctx, KeyEmail, KeyAccessToken, KeyRefreshToken)
}

func (a *authService) Profile(ctx context.Context) (*models.User, error) {
	return a.client.Profile(ctx)
}

func (a *authService) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error) {
	user, err := a.client.UpdateProfile(ctx, upd)
	if err != nil {
		return nil, err
	}

	if err := a.getMetadataRepo().Set(ctx, KeyEmail, []byte(user.Email)); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return user, nil
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
