// Package users stores accounts. Emails are kept lower-cased and unique.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

// Repository returns common.ErrorAlreadyExists when an email is taken and
// common.ErrorNotFound for unknown users.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// UpdateProfile writes email, username and names; the password hash and
	// join date are left untouched.
	UpdateProfile(ctx context.Context, user *models.User) (*models.User, error)
}
