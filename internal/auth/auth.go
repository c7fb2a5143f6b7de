package auth

import (
	"errors"
	"time"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is the single remembered account of the mock provider.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	// IsNew is set on registration so clients can show a welcome screen.
	IsNew bool `json:"isNew"`
}

// Session is a signed token for a user.
type Session struct {
	User      User
	Token     string
	ExpiresAt time.Time
}
