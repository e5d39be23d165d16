package models

import (
	"strings"
	"time"
)

// User is an account. PasswordHash is a bcrypt hash and never leaves the server.
type User struct {
	ID           string
	Email        string
	Username     string
	FirstName    string
	LastName     string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Registration carries the data submitted on sign-up.
type Registration struct {
	Email     string
	Password  string
	Username  string
	FirstName string
	LastName  string
}

// ProfileUpdate is a partial update of the caller's own account. Nil fields
// stay unchanged.
type ProfileUpdate struct {
	Email     *string
	Username  *string
	FirstName *string
	LastName  *string
}

// NormalizeEmail returns the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
