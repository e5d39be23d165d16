package models

import "time"

// RevokedToken records a refresh token that must not be honoured any more.
type RevokedToken struct {
	JTI       string
	UserID    string
	ExpiresAt time.Time
	RevokedAt time.Time
}
