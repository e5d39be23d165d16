package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/cryptox"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// AuthService is the entry point for everything account related:
// registration, login, logout, token refresh, per-request identity
// resolution and the caller's own profile.
type AuthService struct {
	db                *sql.DB
	repomanager       repomanager.RepositoryManager
	tokens            *TokenService
	minPasswordLength int
	now               func() time.Time
}

// NewAuthService constructs an AuthService on top of a TokenService.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, tokens *TokenService, cfg *config.Config) *AuthService {
	return &AuthService{
		db:                db,
		repomanager:       m,
		tokens:            tokens,
		minPasswordLength: cfg.MinPasswordLength,
		now:               time.Now,
	}
}

// Register creates an account and logs it in.
//
// Emails are compared case-insensitively; a collision yields
// common.ErrDuplicateEmail. Passwords shorter than the configured minimum
// yield common.ErrWeakCredential.
func (s *AuthService) Register(ctx context.Context, reg *models.Registration) (*models.User, *TokenPair, error) {
	email := models.NormalizeEmail(reg.Email)
	if email == "" {
		return nil, nil, fmt.Errorf("%w: email is required", common.ErrValidation)
	}
	if err := s.checkPasswordPolicy(reg.Password); err != nil {
		return nil, nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, nil, common.ErrDuplicateEmail
	case !errors.Is(err, common.ErrorNotFound):
		return nil, nil, fmt.Errorf("error searching user: %w", err)
	}

	hash, err := cryptox.HashPassword(reg.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: hashing password: %v", common.ErrorInternal, err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     strings.TrimSpace(reg.Username),
		FirstName:    strings.TrimSpace(reg.FirstName),
		LastName:     strings.TrimSpace(reg.LastName),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	// The unique index settles a race between two concurrent registrations.
	if _, err := repo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, nil, common.ErrDuplicateEmail
		}
		return nil, nil, fmt.Errorf("error creating user: %w", err)
	}

	pair, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Login verifies credentials and issues a token pair. Unknown email and
// wrong password are indistinguishable to the caller, in both the error
// and the time taken.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.BurnPasswordCheck(password)
			return nil, nil, common.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("error searching user: %w", err)
	}

	ok, err := cryptox.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: checking password: %v", common.ErrorInternal, err)
	}
	if !ok {
		return nil, nil, common.ErrInvalidCredentials
	}

	pair, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Logout revokes refreshToken. The token must belong to userID; a token of
// another account is reported as common.ErrInvalidToken and left alone.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return err
	}
	if claims.UserID() != userID {
		return fmt.Errorf("%w: token belongs to another user", common.ErrInvalidToken)
	}
	return s.tokens.revokeClaims(ctx, claims)
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return s.tokens.Refresh(ctx, refreshToken)
}

// ResolveIdentity maps a bearer access token to its user. Every token
// problem (malformed, expired, revoked, unknown user) is reported as
// common.ErrUnauthenticated; storage failures are returned as they are.
func (s *AuthService) ResolveIdentity(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, common.ErrUnauthenticated
	}

	userID, err := s.tokens.VerifyAccess(ctx, accessToken)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrRevoked) {
			return nil, fmt.Errorf("%w: %v", common.ErrUnauthenticated, err)
		}
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

// Profile returns the account of userID.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

// UpdateProfile applies a partial update to the caller's own account.
// A new email is normalized and must still be unique.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, upd *models.ProfileUpdate) (*models.User, error) {
	var email *string
	if upd.Email != nil {
		normalized := models.NormalizeEmail(*upd.Email)
		if normalized == "" {
			return nil, fmt.Errorf("%w: email must not be empty", common.ErrValidation)
		}
		email = &normalized
	}

	var updated *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if email != nil {
			user.Email = *email
		}
		if upd.Username != nil {
			user.Username = strings.TrimSpace(*upd.Username)
		}
		if upd.FirstName != nil {
			user.FirstName = strings.TrimSpace(*upd.FirstName)
		}
		if upd.LastName != nil {
			user.LastName = strings.TrimSpace(*upd.LastName)
		}

		updated, err = repo.UpdateProfile(ctx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, err
	}
	return updated, nil
}

func (s *AuthService) checkPasswordPolicy(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", common.ErrWeakCredential)
	}
	if utf8.RuneCountInString(password) < s.minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrWeakCredential, s.minPasswordLength)
	}
	if len(password) > cryptox.MaxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", common.ErrWeakCredential, cryptox.MaxPasswordBytes)
	}
	return nil
}
